package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-reviser/reviser-api/internal/models"
	appErrors "github.com/go-reviser/reviser-api/pkg/errors"
	"github.com/go-reviser/reviser-api/pkg/middleware/requestid"
)

// Envelope is the wire contract for every JSON response. Exactly one of
// Data and Error is set.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional pagination and meta.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	env := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		env.Meta = meta[0]
	}
	write(c, status, env)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error converts err into the common error shape and sends it. The request
// ID rides along in meta so clients can quote it in bug reports.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	env := Envelope{Error: appErr}
	if id := requestid.Value(c); id != "" {
		env.Meta = map[string]interface{}{"request_id": id}
	}
	write(c, appErr.Status, env)
}

// NoContent sends a bodyless 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// API responses carry user-specific progress data, so proxies must not
// cache them.
func write(c *gin.Context, status int, env Envelope) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, env)
}
