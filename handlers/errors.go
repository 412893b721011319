package handlers

import (
	"errors"
	"net/http"

	"servana/services/scheduling"
	"servana/utils"

	"github.com/gin-gonic/gin"
)

// statusForCode maps engine error codes onto HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case scheduling.CodeValidation:
		return http.StatusBadRequest
	case scheduling.CodeUnavailable:
		return http.StatusConflict
	case scheduling.CodeNotFound:
		return http.StatusNotFound
	case scheduling.CodeForbidden:
		return http.StatusForbidden
	case scheduling.CodePayment:
		return http.StatusPaymentRequired
	case scheduling.CodeStateConflict:
		return http.StatusConflict
	case scheduling.CodePolicyMissing:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes an engine error as a JSON response.
func respondError(c *gin.Context, err error) {
	var domainErr *scheduling.Error
	if errors.As(err, &domainErr) {
		utils.JSONCodedError(c, statusForCode(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}
	utils.JSONCodedError(c, http.StatusInternalServerError, "INTERNAL", "An unexpected error occurred.")
}
