package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/mark3labs/openapiroute/spec"
	"github.com/mark3labs/openapiroute/validation"
)

// Route is an assembled route: its declaration, the translated pattern and
// the compiled validation steps that run ahead of its handlers.
type Route struct {
	spec.Route
	Pattern string

	params   *validation.Validator
	body     *validation.Validator
	required bool // request body required
	handlers []gin.HandlerFunc
}

// ValidatesBody reports whether the route has a body validation step.
func (r *Route) ValidatesBody() bool { return r.body != nil }

// assemble turns one declaration into a route with compiled validators. It
// fails on the first configuration error.
func (a *API) assemble(ctx context.Context, decl spec.Route) (*Route, error) {
	wrap := func(err error) error {
		var be *validation.BuildError
		if errors.As(err, &be) {
			out := *be
			out.Method, out.Path = decl.Method, decl.Path
			if out.JSONPointer == "" || out.JSONPointer[0] != '#' || out.JSONPointer == "#" {
				out.JSONPointer = decl.Pointer()
			} else {
				out.JSONPointer = decl.Pointer() + out.JSONPointer[1:]
			}
			return &out
		}
		return err
	}

	pattern, err := TranslatePath(decl.Path)
	if err != nil {
		return nil, wrap(err)
	}

	handlers, err := a.resolveHandlers(decl)
	if err != nil {
		return nil, wrap(err)
	}

	paramSchema, err := validation.BuildParameterSchema(decl.Parameters)
	if err != nil {
		return nil, wrap(err)
	}
	params, err := validation.Compile(ctx, paramSchema, validation.WithFailureMessage("request parameters are invalid"))
	if err != nil {
		return nil, wrap(err)
	}

	r := &Route{Route: decl, Pattern: pattern, params: params, handlers: handlers}

	if decl.RequestBody != nil {
		bodySchema, err := validation.BodySchema(decl.RequestBody)
		if err != nil {
			var be *validation.BuildError
			if errors.As(err, &be) {
				be.JSONPointer = "#/requestBody/content"
			}
			return nil, wrap(err)
		}
		r.body, err = validation.Compile(ctx, bodySchema, validation.WithFailureMessage("request body is invalid"))
		if err != nil {
			return nil, wrap(err)
		}
		r.required = decl.RequestBody.Required
	}

	if (len(decl.Parameters) > 0 || decl.RequestBody != nil) && decl.Responses.Get(400) == nil {
		return nil, wrap(&validation.BuildError{
			Code:        validation.MissingBadRequest,
			Message:     "route validates its input but declares no 400 response",
			JSONPointer: "#/responses",
		})
	}
	return r, nil
}

func (a *API) resolveHandlers(decl spec.Route) ([]gin.HandlerFunc, error) {
	names := decl.Handlers
	if len(names) == 0 && a.fallback != "" {
		names = []string{a.fallback}
	}
	if len(names) == 0 {
		return nil, &validation.BuildError{
			Code:        validation.MissingHandler,
			Message:     fmt.Sprintf("no handler declared (set %s)", a.handlerKey),
			JSONPointer: "#/" + a.handlerKey,
		}
	}
	out := make([]gin.HandlerFunc, 0, len(names))
	for _, name := range names {
		h, ok := a.handlers[name]
		if !ok || h == nil {
			return nil, &validation.BuildError{
				Code:        validation.MissingHandler,
				Message:     fmt.Sprintf("handler %q is not registered", name),
				JSONPointer: "#/" + a.handlerKey,
			}
		}
		out = append(out, h)
	}
	return out, nil
}

// chain returns the gin handlers for r in execution order: request logging,
// error rendering, parameter validation, body validation, then the route's
// own handlers.
func (a *API) chain(r *Route) gin.HandlersChain {
	chain := gin.HandlersChain{
		requestLogger(a.log, r.Path),
		renderErrors(a.log),
		a.parameterStep(r),
	}
	if r.body != nil {
		chain = append(chain, a.bodyStep(r))
	}
	return append(chain, r.handlers...)
}

func (a *API) parameterStep(r *Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		setState(c, ParameterValidating)
		out, err := r.params.Validate(c.Request.Context(), requestInput(c))
		if err != nil {
			a.reject(c, err)
			return
		}
		coerced, _ := out.(map[string]any)
		c.Set(paramsKey, coerced[string(validation.NamespaceParams)])
		c.Set(queryKey, coerced[string(validation.NamespaceQuery)])
		c.Set(cookiesKey, coerced[string(validation.NamespaceCookies)])
		if r.body == nil {
			setState(c, Handling)
		}
		c.Next()
	}
}

func (a *API) bodyStep(r *Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		setState(c, BodyValidating)
		value, present, err := readJSONBody(c)
		if err != nil {
			a.reject(c, err)
			return
		}
		if !present {
			if r.required {
				a.reject(c, missingBody())
				return
			}
			setState(c, Handling)
			c.Next()
			return
		}
		out, err := r.body.Validate(c.Request.Context(), value)
		if err != nil {
			a.reject(c, err)
			return
		}
		c.Set(bodyKey, out)
		setState(c, Handling)
		c.Next()
	}
}

// reject stops the chain. The error is rendered by renderErrors.
func (a *API) reject(c *gin.Context, err error) {
	setState(c, Rejected)
	a.log.DebugContext(logContext(c), "request.rejected", "err", err.Error())
	_ = c.Error(err)
	c.Abort()
}
