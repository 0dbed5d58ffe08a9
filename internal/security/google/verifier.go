// Package google verifies Google-issued ID tokens for external sign-in.
package google

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/fastygo/taskflow/usecase/auth"
)

// Verifier checks ID tokens against a single OAuth client id.
type Verifier struct {
	audience  string
	validator *idtoken.Validator
}

// NewVerifier builds a verifier for clientID.
func NewVerifier(ctx context.Context, clientID string) (*Verifier, error) {
	if clientID == "" {
		return nil, errors.New("google: client id is required")
	}
	validator, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("google: create validator: %w", err)
	}
	return &Verifier{audience: clientID, validator: validator}, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (*auth.ExternalIdentity, error) {
	payload, err := v.validator.Validate(ctx, token, v.audience)
	if err != nil {
		return nil, err
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("google: email not verified")
	}
	return &auth.ExternalIdentity{
		Subject: payload.Subject,
		Email:   claimString(payload.Claims, "email"),
		Name:    claimString(payload.Claims, "name"),
		Picture: claimString(payload.Claims, "picture"),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

var _ auth.IdentityVerifier = (*Verifier)(nil)
