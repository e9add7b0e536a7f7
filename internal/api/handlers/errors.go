package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rides/internal/services"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

var errorKinds = []struct {
	kind   error
	name   string
	status int
}{
	{services.ErrForbidden, "forbidden", http.StatusForbidden},
	{services.ErrNotFound, "not_found", http.StatusNotFound},
	{services.ErrNoDriversAvailable, "no_drivers_available", http.StatusBadRequest},
	{services.ErrInvalidTransition, "invalid_transition", http.StatusConflict},
	{services.ErrBadRequest, "bad_request", http.StatusBadRequest},
	{services.ErrConflict, "conflict", http.StatusConflict},
	{services.ErrTransient, "transient", http.StatusServiceUnavailable},
}

// respondError maps a service error to its HTTP status. Causes of transient
// failures are attached to the gin context for the request log and never
// reach the client.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	for _, k := range errorKinds {
		if !errors.Is(kind, k.kind) {
			continue
		}
		msg := err.Error()
		switch k.kind {
		case services.ErrNoDriversAvailable:
			msg = "No drivers available."
		case services.ErrTransient:
			_ = c.Error(err)
			msg = "service temporarily unavailable, retry later"
		}
		c.JSON(k.status, errorResponse{
			Error:     msg,
			Kind:      k.name,
			Retryable: k.kind == services.ErrTransient,
		})
		return
	}
}

// badRequest reports a malformed request body or query.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
}
