package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"roomify/server/internal/errs"
	"roomify/server/internal/middleware"
)

// respondError maps the service error taxonomy onto HTTP status codes.
// Anything unclassified is logged and reported as a 500 without detail.
func (h *Handler) respondError(c *gin.Context, err error, action string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrConflict):
		status = http.StatusConflict
	}

	entry := h.logger.WithError(err).WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(c),
		"user_id":    middleware.GetUserID(c),
	})
	if status == http.StatusInternalServerError {
		entry.Error("Failed to " + action)
		c.JSON(status, gin.H{"error": "Failed to " + action})
		return
	}
	entry.Debug("Rejected request to " + action)
	c.JSON(status, gin.H{"error": err.Error()})
}
