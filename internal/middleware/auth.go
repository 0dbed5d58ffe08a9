package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/pkg/logger"
)

const userValueKey = "auth_user"

// Authenticator resolves a raw bearer assertion to an account.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*domain.User, error)
}

// Auth guards a handler: the request proceeds only with a verified account,
// which handlers read back with CurrentUser. Every rejection gets the same 401 body.
func Auth(gate Authenticator, adapter *httpcontext.Adapter, log *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			raw, ok := bearerToken(ctx)
			if !ok {
				reject(ctx)
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			user, err := gate.Authenticate(stdCtx, raw)
			cancel()
			if err != nil {
				if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					reject(ctx)
					return
				}
				logger.WithRequestID(stdCtx, log).Error("authentication failed", zap.Error(err))
				writeJSON(ctx, http.StatusInternalServerError, transport.NewError(string(domain.ErrCodeUpstream), "authentication unavailable", nil))
				return
			}

			ctx.SetUserValue(userValueKey, user)
			next(ctx)
		}
	}
}

// CurrentUser returns the account attached by Auth.
func CurrentUser(ctx *fasthttp.RequestCtx) (*domain.User, bool) {
	user, ok := ctx.UserValue(userValueKey).(*domain.User)
	return user, ok && user != nil
}

func bearerToken(ctx *fasthttp.RequestCtx) (string, bool) {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func reject(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), domain.ErrUnauthorized.Message, nil))
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBodyString(payload.String())
}
