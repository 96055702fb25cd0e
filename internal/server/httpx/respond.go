package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophdiary/internal/common"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// errorResponse maps a service error onto a status code and a client-safe
// message. Unknown errors never leak their text.
func errorResponse(err error) (int, string) {
	var ve *common.ValidationError
	switch {
	case errors.Is(err, common.ErrMissingToken):
		return http.StatusUnauthorized, common.ErrMissingToken.Error()
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, common.ErrInvalidToken.Error()
	case errors.Is(err, common.ErrSessionUnavailable):
		return http.StatusServiceUnavailable, common.ErrSessionUnavailable.Error()
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Reason
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, common.ErrValidation.Error()
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusBadRequest, common.ErrAlreadyExists.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusBadRequest, common.ErrInvalidCredentials.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.ErrorNotFound.Error()
	case errors.Is(err, common.ErrPipelineFailure):
		return http.StatusBadGateway, "diary generation failed"
	default:
		return http.StatusInternalServerError, common.ErrorInternal.Error()
	}
}
