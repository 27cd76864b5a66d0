package handlers

import (
	"net/http"

	"busbook/internal/domain"

	"github.com/gin-gonic/gin"
)

// RespondDomainError maps the domain error taxonomy to HTTP responses.
// Inventory errors always reach the caller; DeliveryDegraded never does (the
// dispatcher absorbs it), so it has no mapping here.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		RespondError(c, http.StatusBadRequest, "validation_error", err.Error())
	case domain.IsNotFound(err):
		RespondError(c, http.StatusNotFound, "not_found", err.Error())
	case domain.IsForbidden(err):
		RespondError(c, http.StatusForbidden, "forbidden", err.Error())
	case domain.IsOutOfCapacity(err):
		RespondError(c, http.StatusConflict, "out_of_capacity", err.Error())
	case domain.IsSeatConflict(err):
		RespondError(c, http.StatusConflict, "seat_conflict", err.Error())
	case domain.IsAlreadyTerminal(err):
		RespondError(c, http.StatusConflict, "already_terminal", err.Error())
	case domain.IsInvalidTransition(err):
		RespondError(c, http.StatusConflict, "invalid_transition", err.Error())
	case domain.IsCapacityCheckTimeout(err):
		RespondError(c, http.StatusServiceUnavailable, "capacity_check_timeout", err.Error())
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
