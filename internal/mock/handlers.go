// Package mock provides business handlers that let a document be served
// before any real implementation exists.
package mock

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mark3labs/openapiroute/router"
)

const (
	Echo           = "echo"
	OK             = "ok"
	NotImplemented = "notImplemented"
)

// Handlers returns the builtin handlers keyed by the names used in documents.
func Handlers() map[string]gin.HandlerFunc {
	return map[string]gin.HandlerFunc{
		Echo:           echo,
		OK:             ok,
		NotImplemented: notImplemented,
	}
}

// echo responds with the validated, coerced request input.
func echo(c *gin.Context) {
	out := gin.H{
		"params":  router.Params(c),
		"query":   router.Query(c),
		"cookies": router.Cookies(c),
	}
	if body, present := router.Body(c); present {
		out["body"] = body
	}
	c.JSON(http.StatusOK, out)
}

func ok(c *gin.Context) { c.Status(http.StatusNoContent) }

func notImplemented(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"message": http.StatusText(http.StatusNotImplemented)})
}
