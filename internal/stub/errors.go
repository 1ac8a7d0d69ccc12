package stub

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access denied")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotReady           = errors.New("presentation is not ready")
)

// errorBody - формат ошибки API: {"error": "text"}.
type errorBody struct {
	Error string `json:"error"`
}

// statusOf маппит доменную ошибку в HTTP-статус:
//   - InvalidArgument -> 400
//   - InvalidCredentials/Unauthenticated -> 401
//   - Forbidden -> 403
//   - NotFound -> 404
//   - AlreadyExists/NotReady -> 409
//   - прочее -> 500
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrNotReady):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError пишет статус и тело. Для 500 текст ошибки наружу не уходит.
func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}

	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
