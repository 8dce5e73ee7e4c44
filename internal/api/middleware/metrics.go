package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver records served requests
type RequestObserver interface {
	ObserveHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// methodOther labels any request method outside the standard set
const methodOther = "OTHER"

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodConnect: {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

func methodLabel(method string) string {
	if _, ok := knownMethods[method]; ok {
		return method
	}
	return methodOther
}

// Metrics records every request under its route template. Unmatched paths
// share the "unmatched" route label and unknown methods share "OTHER".
func Metrics(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observer.ObserveHTTPRequest(methodLabel(c.Request.Method), route, c.Writer.Status(), time.Since(start))
	}
}
