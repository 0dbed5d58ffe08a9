package middleware

import (
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
)

// Recover turns a panicking handler into a 500 response and keeps the server up.
func Recover(log *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("handler panicked",
						zap.String("request_id", httpcontext.RequestID(ctx)),
						zap.ByteString("method", ctx.Method()),
						zap.ByteString("path", ctx.Path()),
						zap.String("panic", fmt.Sprint(rec)),
						zap.StackSkip("stack", 1),
					)
					ctx.Response.ResetBody()
					writeJSON(ctx, http.StatusInternalServerError, transport.NewError(string(domain.ErrCodeInternal), "internal server error", nil))
				}
			}()
			next(ctx)
		}
	}
}
