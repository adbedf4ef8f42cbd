package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fraudlens/internal/errors"
)

// statusFor maps an error's code to an HTTP status
func statusFor(code string) int {
	switch code {
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeMissingColumn,
		apperrors.CodeNoValidData,
		apperrors.CodeInsufficientData,
		apperrors.CodeParseError,
		apperrors.CodeEmptyFile:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body {"error", "code"}
func respondError(c *gin.Context, err error) {
	code := apperrors.Classify(err)
	c.AbortWithStatusJSON(statusFor(code), gin.H{
		"error": err.Error(),
		"code":  code,
	})
}

// badRequest reports a malformed request body or parameter
func badRequest(c *gin.Context, err error) {
	respondError(c, apperrors.InvalidInput(err.Error()))
}
