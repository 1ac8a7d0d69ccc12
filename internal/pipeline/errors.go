package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind - класс сбоя исходящего вызова.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindServerError  Kind = "server_error"
	KindUnknown      Kind = "unknown"
	KindNetworkError Kind = "network_error"
	KindClientError  Kind = "client_error"
)

// Тексты уведомлений для пользователя.
const (
	MsgUnauthorized = "Unauthorized. Please login."
	MsgForbidden    = "Access denied."
	MsgNotFound     = "Resource not found."
	MsgServerError  = "Server error. Please try again later."
	MsgUnknown      = "An error occurred"
	MsgNetwork      = "Network error. Please check your connection."
	MsgClient       = "An error occurred."
)

// Sentinel-значения для errors.Is: сравнение идёт только по Kind.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrServerError  = &Error{Kind: KindServerError}
	ErrUnknown      = &Error{Kind: KindUnknown}
	ErrNetwork      = &Error{Kind: KindNetworkError}
	ErrClient       = &Error{Kind: KindClientError}
)

// Error - классифицированная ошибка вызова. Pipeline всегда возвращает
// именно её, после того как отработал побочные эффекты.
//
// Status == 0, если ответа не было (NetworkError/ClientError).
// Message - текст, показанный пользователю; Detail - поле error из тела
// ответа сервера (может быть пустым).
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Detail  string
	Method  string
	Path    string
	// AuthAttempt - ошибка пришла на login/register, а не на защищённый вызов.
	AuthAttempt bool
	Err         error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}

	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s (%d): %s", e.Method, e.Path, e.Kind, e.Status, msg)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %s: %v", e.Method, e.Path, e.Kind, msg, e.Err)
	}

	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is сравнивает по Kind, поэтому errors.Is(err, ErrUnauthorized) работает
// для любой ошибки этого класса.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IsCredentialRejection - 401 на попытку входа/регистрации. Класс тот же,
// что и у истёкшей сессии; флаг нужен только UI для текста под формой.
func (e *Error) IsCredentialRejection() bool {
	return e.Kind == KindUnauthorized && e.AuthAttempt
}

// KindOf возвращает Kind ошибки pipeline или "" для чужих ошибок.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}

	return ""
}

// ClassifyStatus маппит HTTP-статус ответа с ошибкой в Kind и текст уведомления.
// Таблица:
//   - 401 -> Unauthorized
//   - 403 -> Forbidden
//   - 404 -> NotFound
//   - 5xx -> ServerError
//   - прочее -> Unknown, текст из поля error тела ответа или общий.
func ClassifyStatus(status int, body []byte) (Kind, string, string) {
	detail := serverMessage(body)

	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized, MsgUnauthorized, detail
	case status == http.StatusForbidden:
		return KindForbidden, MsgForbidden, detail
	case status == http.StatusNotFound:
		return KindNotFound, MsgNotFound, detail
	case status >= http.StatusInternalServerError:
		return KindServerError, MsgServerError, detail
	default:
		if detail != "" {
			return KindUnknown, detail, detail
		}

		return KindUnknown, MsgUnknown, ""
	}
}

// serverMessage достаёт текст ошибки из тела. Понимает оба формата:
// {"error":"text"} и {"error":{"message":"text"}}.
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Error) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		return s
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Error, &obj); err == nil {
		return obj.Message
	}

	return ""
}
