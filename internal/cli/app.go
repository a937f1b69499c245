package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/mark3labs/openapiroute/internal/logctx"
	"github.com/mark3labs/openapiroute/internal/mock"
	"github.com/mark3labs/openapiroute/router"
	"github.com/mark3labs/openapiroute/spec"
	"github.com/mark3labs/openapiroute/validation"
)

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return logctx.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// buildAPI loads the configured document and assembles it against the
// builtin handlers.
func buildAPI(ctx context.Context, cfg *Config, log *slog.Logger) (*router.API, error) {
	var loadOpts []spec.Option
	if cfg.InjectInputError {
		loadOpts = append(loadOpts, spec.WithInputErrorComponents())
	}
	doc, err := spec.Load(ctx, cfg.Spec, loadOpts...)
	if err != nil {
		return nil, friendlyError(err)
	}
	log.Debug("spec.loaded", slog.String("location", doc.Location), slog.Int("version", doc.Version))

	routeOpts := []spec.RouteOption{
		spec.WithHandlerKey(cfg.HandlerKey),
		spec.WithIncludeTags(cfg.IncludeTags),
		spec.WithExcludeTags(cfg.ExcludeTags),
		spec.WithMethods(cfg.Methods),
		spec.WithPathPatterns(cfg.Paths),
	}
	decls, err := spec.Routes(doc, routeOpts...)
	if err != nil {
		return nil, friendlyError(err)
	}

	api, err := router.New(ctx, doc,
		router.WithLogger(log),
		router.WithHandlers(handlersFor(decls, cfg.FallbackHandler)),
		router.WithFallbackHandler(cfg.FallbackHandler),
		router.WithExtensionKey(cfg.HandlerKey),
		router.WithSchemaPath(cfg.SchemaPath),
		router.WithRouteOptions(routeOpts...),
	)
	if err != nil {
		return nil, friendlyError(err)
	}
	return api, nil
}

// handlersFor returns the builtin handlers plus an alias to the fallback for
// every handler name the document uses that is not builtin. Without a
// fallback unknown names are left for the router to reject.
func handlersFor(decls []spec.Route, fallback string) map[string]gin.HandlerFunc {
	builtin := mock.Handlers()
	out := mock.Handlers()
	fb, ok := builtin[fallback]
	if !ok {
		return out
	}
	for _, decl := range decls {
		for _, name := range decl.Handlers {
			if _, known := out[name]; !known {
				out[name] = fb
			}
		}
	}
	return out
}

// friendlyError maps structured load and build errors into usage errors that
// point at the offending document location.
func friendlyError(err error) error {
	var se *spec.SpecError
	if errors.As(err, &se) {
		msg := fmt.Sprintf("spec: %s", se.Message)
		if se.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
		}
		if se.JSONPointer != "" {
			msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
		}
		return newUsageError(msg)
	}
	var be *validation.BuildError
	if errors.As(err, &be) {
		msg := fmt.Sprintf("route: %s (%s)", be.Error(), be.Code)
		if be.JSONPointer != "" {
			msg = fmt.Sprintf("%s\nPointer: %s", msg, be.JSONPointer)
		}
		return newUsageError(msg)
	}
	return err
}
