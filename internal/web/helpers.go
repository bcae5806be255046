// README: JSON helpers and error mapping for the mini-app handlers.
package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"salonbot/internal/modules/catalog"
	"salonbot/internal/modules/order"
	"salonbot/internal/modules/salon"
	"salonbot/internal/modules/user"
)

var ErrOrderLimit = errors.New("free plan order limit reached")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrOrderLimit):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, salon.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrInvalidState):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
