package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header carries the request ID on both request and response.
	Header = "X-Request-ID"

	ctxKey = "request_id"

	// Incoming header values longer than this are treated as garbage and
	// replaced with a fresh ID.
	maxInboundLen = 64
)

// Middleware tags each request with an ID. A well-formed inbound
// X-Request-ID is trusted so IDs stay stable across proxies; anything else
// gets a new UUID. The ID is echoed on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !acceptable(id) {
			id = uuid.NewString()
		}

		c.Set(ctxKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the request ID stored in the Gin context, or "" when the
// middleware did not run.
func Value(c *gin.Context) string {
	v, ok := c.Get(ctxKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

func acceptable(id string) bool {
	if id == "" || len(id) > maxInboundLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}
