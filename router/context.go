package router

import (
	"github.com/gin-gonic/gin"

	"github.com/mark3labs/openapiroute/validation"
)

// Params returns the validated, coerced path parameters of the request.
func Params(c *gin.Context) map[string]any { return mapValue(c, paramsKey) }

// Query returns the validated, coerced query parameters of the request.
func Query(c *gin.Context) map[string]any { return mapValue(c, queryKey) }

// Cookies returns the validated, coerced cookies of the request. Cookies not
// declared by the route are included unchanged.
func Cookies(c *gin.Context) map[string]any { return mapValue(c, cookiesKey) }

// Body returns the validated, coerced JSON body. ok is false when the route
// declares no body or the request carried none.
func Body(c *gin.Context) (body any, ok bool) {
	return c.Get(bodyKey)
}

func mapValue(c *gin.Context, key string) map[string]any {
	if v, ok := c.Get(key); ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return map[string]any{}
}

// requestInput collects the parameter namespaces of a request in the shape the
// composite parameter schema expects.
func requestInput(c *gin.Context) map[string]any {
	params := make(map[string]any, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}

	values := c.Request.URL.Query()
	query := make(map[string]any, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
		case 1:
			query[k] = vs[0]
		default:
			list := make([]any, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			query[k] = list
		}
	}

	cookies := make(map[string]any)
	for _, ck := range c.Request.Cookies() {
		if _, ok := cookies[ck.Name]; !ok {
			cookies[ck.Name] = ck.Value
		}
	}

	return map[string]any{
		string(validation.NamespaceParams):  params,
		string(validation.NamespaceQuery):   query,
		string(validation.NamespaceCookies): cookies,
	}
}
