package server

import (
	"errors"
	"net/http"

	app "imaginify/src/app"

	"github.com/gin-gonic/gin"
)

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": payload})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": "error", "error": message})
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	respondMessage(c, statusOf(err), err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, app.ErrUserNotFound), errors.Is(err, app.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, app.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, app.ErrUnknownPlan),
		errors.Is(err, app.ErrUnknownTransformation):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrDuplicateTransaction):
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
