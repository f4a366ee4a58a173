// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// RespondError maps engine errors to HTTP problem responses. Validation,
// not-found, conflict and state errors surface their code and message;
// anything else is reported as an opaque internal error.
func RespondError(w http.ResponseWriter, err error) {
	var appErr *shared.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case shared.KindValidation:
			Problem(w, http.StatusBadRequest, "Validation Failed", appErr.Code, appErr.Message)
		case shared.KindNotFound:
			Problem(w, http.StatusNotFound, "Not Found", appErr.Code, appErr.Message)
		case shared.KindConflict:
			Problem(w, http.StatusConflict, "Conflict", appErr.Code, appErr.Message)
		case shared.KindState:
			Problem(w, http.StatusUnprocessableEntity, "Invalid State", appErr.Code, appErr.Message)
		default:
			Problem(w, http.StatusInternalServerError, "Internal Error", "INTERNAL", "")
		}
		return
	}
	var valErr validator.ValidationErrors
	if errors.As(err, &valErr) {
		Problem(w, http.StatusBadRequest, "Validation Failed", "INVALID_PAYLOAD", valErr.Error())
		return
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "INTERNAL", "")
}
