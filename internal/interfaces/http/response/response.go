package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "defiant.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		status := domainerrors.StatusFor(err)
		message := err.Error()
		if status == http.StatusInternalServerError {
			// Never leak internal error details to API clients.
			message = "internal server error"
		}
		appErr = &domainerrors.AppError{Code: status, Message: message, Err: err}
	}

	c.JSON(appErr.Code, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

// AbortError sends an error response and aborts the handler chain.
func AbortError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
