package httpx

import (
	"net/http"

	apperrors "github.com/target/async-export/internal/errors"
)

// WriteAppError maps an application error to a status code and writes it.
// Errors without a code are reported as internal with a generic message.
func WriteAppError(w http.ResponseWriter, err error) {
	err = apperrors.MapDBError(err)
	code := apperrors.GetCode(err)
	status := statusForCode(code)
	if code == "" || code == apperrors.ErrCodeInternal {
		WriteError(w, ErrorParams{Code: status, ErrCode: string(apperrors.ErrCodeInternal)})
		return
	}

	WriteError(w, ErrorParams{
		Code:    status,
		ErrCode: string(code),
		Err:     err,
		Field:   apperrors.GetField(err),
	})
}

func statusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeCanceled:
		// nginx's "client closed request"
		return 499
	default:
		return http.StatusInternalServerError
	}
}
