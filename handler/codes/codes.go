package codes

import (
	"errors"
	"net/http"

	"linkport/core"
)

// InvalidArguments malformed request parameters
const InvalidArguments = 100001

// Get error code of err, -1 for errors without one
func Get(err error) int {
	var code core.ErrorCode
	if errors.As(err, &code) {
		return int(code)
	}

	return -1
}

// Status http status of err by its category
func Status(err error) int {
	switch core.ErrorCategory(err) {
	case core.CategoryAuthorization:
		return http.StatusForbidden
	case core.CategoryLiquidity:
		return http.StatusConflict
	case core.CategoryValuation, core.CategoryValidation, core.CategoryMessage:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
