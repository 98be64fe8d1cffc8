package handler

import (
	"errors"
	"net/http"

	"github.com/Sandy5604G/hospital-queue-management/internal/repository"
	"github.com/Sandy5604G/hospital-queue-management/internal/service"
	"github.com/Sandy5604G/hospital-queue-management/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps service error kinds onto HTTP status codes. Store
// failures fall through as 500 with the wrapped message surfaced.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		utils.ErrorResponse(c, http.StatusConflict, err.Error())
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
