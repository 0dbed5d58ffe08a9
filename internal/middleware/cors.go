package middleware

import (
	"github.com/valyala/fasthttp"
)

// CORS allows browser clients served from origin to call the API. Preflight
// requests are answered directly.
func CORS(origin string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if origin != "" {
				h := &ctx.Response.Header
				h.Set(fasthttp.HeaderAccessControlAllowOrigin, origin)
				h.Set(fasthttp.HeaderAccessControlAllowCredentials, "true")
				h.Set(fasthttp.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE, OPTIONS")
				h.Set(fasthttp.HeaderAccessControlAllowHeaders, "Content-Type, Authorization, X-Request-ID")
			}
			if ctx.IsOptions() {
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}
			next(ctx)
		}
	}
}
