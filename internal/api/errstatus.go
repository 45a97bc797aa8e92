package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lakshan-j/threadgate/internal/cache"
	"github.com/lakshan-j/threadgate/internal/models"
	"go.uber.org/zap"
)

// statusFor maps the domain error taxonomy to HTTP status codes. Anything
// unrecognized is a 500 and gets logged with its cause; taxonomy errors
// are expected outcomes and are not logged.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, true
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, true
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, models.ErrAlreadyExists):
		return http.StatusConflict, true
	case errors.Is(err, models.ErrInvalidArgument):
		return http.StatusBadRequest, true
	case errors.Is(err, models.ErrBlocked):
		return http.StatusUnprocessableEntity, true
	case errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict, true
	}
	return http.StatusInternalServerError, false
}

func respondErr(c *gin.Context, logger *zap.Logger, err error) {
	status, known := statusFor(err)
	if !known {
		logger.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondMutation wraps a successful mutation result with the read-views
// it invalidated, so pollers know what to refetch.
func respondMutation(c *gin.Context, status int, result gin.H, views ...cache.View) {
	if result == nil {
		result = gin.H{}
	}
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = string(v)
	}
	result["invalidates"] = names
	c.JSON(status, result)
}
