package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	allowHeaders = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	maxAge       = "600"
)

type policy struct {
	origins  []string
	allowAll bool
}

// New returns a CORS middleware restricted to the given origins. An empty
// list, or a list containing "*", allows every origin. Preflight OPTIONS
// requests are answered here and never reach the handlers.
func New(allowedOrigins []string) gin.HandlerFunc {
	p := policy{allowAll: len(allowedOrigins) == 0}
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			p.allowAll = true
			continue
		}
		if o != "" {
			p.origins = append(p.origins, o)
		}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && p.allows(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		case origin == "" && p.allowAll:
			h.Set("Access-Control-Allow-Origin", "*")
		}

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (p policy) allows(origin string) bool {
	if p.allowAll {
		return true
	}
	origin = strings.TrimRight(origin, "/")
	for _, o := range p.origins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
