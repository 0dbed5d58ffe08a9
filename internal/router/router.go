package router

import (
	"net/http"
	"strings"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskflow/api/handler"
	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
}

type Options struct {
	BasePath string
	// GoogleEnabled mounts POST /auth/google.
	GoogleEnabled bool
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New mounts every route under opts.BasePath. Routes other than register,
// login, google and health pass through authMiddleware.
func New(handlers Handlers, opts Options, authMiddleware Middleware) *router.Router {
	r := router.New()
	r.NotFound = notFound
	r.HandleMethodNotAllowed = false

	api := group{r: r, prefix: groupPath(opts.BasePath)}

	api.GET("/health", handlers.Health.Check)

	api.POST("/auth/register", handlers.Auth.Register)
	api.POST("/auth/login", handlers.Auth.Login)
	if opts.GoogleEnabled {
		api.POST("/auth/google", handlers.Auth.Google)
	}

	api.GET("/auth/me", authMiddleware(handlers.Profile.Me))
	api.PUT("/auth/profile", authMiddleware(handlers.Profile.UpdateProfile))
	api.PUT("/auth/password", authMiddleware(handlers.Profile.UpdatePassword))

	api.GET("/tasks", authMiddleware(handlers.Task.ListTasks))
	api.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	api.GET("/tasks/stats", authMiddleware(handlers.Task.Stats))
	api.GET("/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	api.PUT("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	api.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	return r
}

// Chain wraps h so that the first middleware runs outermost.
func Chain(h fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// group prefixes route paths; an empty prefix mounts at the root.
type group struct {
	r      *router.Router
	prefix string
}

func (g group) GET(path string, h fasthttp.RequestHandler)    { g.r.GET(g.prefix+path, h) }
func (g group) POST(path string, h fasthttp.RequestHandler)   { g.r.POST(g.prefix+path, h) }
func (g group) PUT(path string, h fasthttp.RequestHandler)    { g.r.PUT(g.prefix+path, h) }
func (g group) DELETE(path string, h fasthttp.RequestHandler) { g.r.DELETE(g.prefix+path, h) }

func groupPath(base string) string {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return ""
	}
	if base[0] != '/' {
		return "/" + base
	}
	return base
}

func notFound(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(http.StatusNotFound)
	ctx.SetBodyString(transport.NewError(string(domain.ErrCodeNotFound), "route not found", nil).String())
}
