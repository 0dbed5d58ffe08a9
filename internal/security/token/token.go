// Package token issues and verifies the signed, time-bound assertions that
// stand in for server-side sessions. An assertion carries the account id and
// an expiry, nothing else.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const DefaultTTL = 30 * 24 * time.Hour

var (
	ErrMissingSecret = errors.New("token: signing secret is not configured")
	ErrInvalid       = errors.New("token: invalid assertion")
)

// Service signs assertions with a single secret fixed at construction.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used to stamp and to check expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Service. An empty secret is rejected so a misconfigured process
// fails at startup rather than on the first request.
func New(secret string, ttl time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		// time claims are checked in Verify against s.now
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the lifetime given to new assertions.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs an assertion for accountID and returns it with its expiry.
func (s *Service) Issue(accountID string) (string, time.Time, error) {
	if accountID == "" {
		return "", time.Time{}, fmt.Errorf("token: empty account id")
	}
	expiresAt := s.now().Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the bound account id.
// Any structural anomaly is reported as ErrInvalid. Expiry is judged against
// the service clock.
func (s *Service) Verify(raw string) (string, error) {
	if raw == "" {
		return "", ErrInvalid
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := s.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return "", ErrInvalid
	}
	now := s.now()
	if !claims.VerifyExpiresAt(now, true) || !claims.VerifyNotBefore(now, false) {
		return "", fmt.Errorf("%w: expired or not yet valid", ErrInvalid)
	}
	return claims.Subject, nil
}
