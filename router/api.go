package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mark3labs/openapiroute/internal/logctx"
	"github.com/mark3labs/openapiroute/spec"
	"github.com/mark3labs/openapiroute/validation"
)

// DefaultSchemaPath is where the published document is served.
const DefaultSchemaPath = "/schema.json"

// API is a set of assembled routes built from one OpenAPI document.
type API struct {
	log        *slog.Logger
	handlers   map[string]gin.HandlerFunc
	fallback   string
	handlerKey string
	schemaPath string
	routeOpts  []spec.RouteOption

	routes    []*Route
	published map[string]any
}

// Option configures New.
type Option func(*API)

// WithHandlers registers named handlers. Later registrations win.
func WithHandlers(handlers map[string]gin.HandlerFunc) Option {
	return func(a *API) {
		for name, h := range handlers {
			a.handlers[name] = h
		}
	}
}

// WithHandler registers a single named handler.
func WithHandler(name string, h gin.HandlerFunc) Option {
	return func(a *API) { a.handlers[name] = h }
}

// WithFallbackHandler names the handler used by operations that declare none.
func WithFallbackHandler(name string) Option {
	return func(a *API) { a.fallback = name }
}

// WithLogger sets the logger. Request data is attached to every record.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		if log != nil {
			a.log = logctx.New(log.Handler())
		}
	}
}

// WithExtensionKey sets the operation extension that names handlers.
func WithExtensionKey(key string) Option {
	return func(a *API) {
		if key != "" {
			a.handlerKey = key
		}
	}
}

// WithSchemaPath moves the published document route. An empty path disables it.
func WithSchemaPath(p string) Option {
	return func(a *API) { a.schemaPath = p }
}

// WithRouteOptions filters which operations become routes.
func WithRouteOptions(opts ...spec.RouteOption) Option {
	return func(a *API) { a.routeOpts = append(a.routeOpts, opts...) }
}

// New assembles every operation of doc into a route. All validators are
// compiled here; any configuration problem is returned before a single route
// is registered.
func New(ctx context.Context, doc *spec.Document, opts ...Option) (*API, error) {
	if doc == nil || doc.T == nil {
		return nil, fmt.Errorf("router: nil document")
	}
	a := &API{
		log:        logctx.New(slog.Default().Handler()),
		handlers:   map[string]gin.HandlerFunc{},
		handlerKey: spec.DefaultHandlerKey,
		schemaPath: DefaultSchemaPath,
	}
	for _, opt := range opts {
		opt(a)
	}

	routeOpts := append([]spec.RouteOption{spec.WithHandlerKey(a.handlerKey)}, a.routeOpts...)
	decls, err := spec.Routes(doc, routeOpts...)
	if err != nil {
		return nil, err
	}

	for _, decl := range decls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := a.assemble(ctx, decl)
		if err != nil {
			return nil, err
		}
		a.log.DebugContext(ctx, "route.assembled",
			slog.String("method", r.Method),
			slog.String("path", r.Path),
			slog.String("pattern", r.Pattern),
			slog.Bool("body", r.ValidatesBody()),
			slog.Int("handlers", len(r.handlers)),
		)
		a.routes = append(a.routes, r)
	}

	// Registration on a scratch engine surfaces conflicts gin would otherwise
	// only report by panicking on the caller's router.
	if err := a.mount(gin.New()); err != nil {
		return nil, err
	}
	a.published = doc.Published(a.handlerKey)
	return a, nil
}

// Routes returns the assembled routes in registration order.
func (a *API) Routes() []*Route { return a.routes }

// Published returns the document served at the schema path.
func (a *API) Published() map[string]any { return a.published }

// Mount registers every route, and the schema route, on r.
func (a *API) Mount(r gin.IRouter) error { return a.mount(r) }

// Handler returns a standalone http.Handler serving the API.
func (a *API) Handler() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery())
	// New already proved the routes register cleanly.
	_ = a.mount(engine)
	return engine
}

func (a *API) mount(r gin.IRouter) error {
	// The schema route goes first so a document path that shadows it is
	// reported against that path.
	if a.schemaPath != "" {
		if err := register(r, http.MethodGet, a.schemaPath, a.schemaChain()); err != nil {
			return &validation.BuildError{
				Code:    validation.RouteConflict,
				Message: "schema route conflicts with an earlier registration",
				Method:  http.MethodGet,
				Path:    a.schemaPath,
				Cause:   err,
			}
		}
	}
	for _, route := range a.routes {
		if err := register(r, route.Method, route.Pattern, a.chain(route)); err != nil {
			return &validation.BuildError{
				Code:        validation.RouteConflict,
				Message:     "route conflicts with an earlier registration",
				Method:      route.Method,
				Path:        route.Path,
				JSONPointer: route.Pointer(),
				Cause:       err,
			}
		}
	}
	return nil
}

func (a *API) schemaChain() gin.HandlersChain {
	return gin.HandlersChain{
		requestLogger(a.log, a.schemaPath),
		renderErrors(a.log),
		func(c *gin.Context) {
			setState(c, Handling)
			c.JSON(http.StatusOK, a.published)
		},
	}
}

// register adds one route, turning gin's registration panic into an error.
func register(r gin.IRouter, method, pattern string, chain gin.HandlersChain) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s %s: %v", method, pattern, p)
		}
	}()
	r.Handle(method, pattern, chain...)
	return nil
}
