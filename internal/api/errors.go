package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"college/internal/apperr"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidFormat),
		errors.Is(err, apperr.ErrInvalidField),
		errors.Is(err, apperr.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"code": apperr.Code(err), "error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"code": apperr.Code(err), "error": err.Error()})
}

// badRequest reports a body that could not be bound.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": apperr.Code(apperr.ErrInvalidField), "error": err.Error()})
}
