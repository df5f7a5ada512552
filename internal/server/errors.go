package server

import (
	"net/http"

	"github.com/clinicamia/miapass/internal/apperrors"
	"github.com/gin-gonic/gin"
)

// AbortWithError maps domain sentinel errors to HTTP status codes in one
// place so handlers never inspect errors themselves.
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
	case apperrors.IsInvalidState(err):
		status = http.StatusUnprocessableEntity
	case apperrors.IsConflict(err):
		status = http.StatusConflict
	case apperrors.IsValidation(err):
		status = http.StatusBadRequest
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal_error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func invalidRequestError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
}

func invalidIDError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
}
