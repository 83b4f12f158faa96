package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Mensagens genéricas exibidas quando o servidor não explica o erro.
const (
	MessageGeneric = "Произошла ошибка"
	MessageUnknown = "Произошла неизвестная ошибка"
)

var (
	// ErrNoRefreshToken indica um 401 sem refresh token guardado.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrSessionExpired indica que o refresh falhou e a sessão foi encerrada.
	ErrSessionExpired = errors.New("session expired")
)

// APIError é o erro tipado de uma resposta HTTP (ou de transporte, StatusCode 0).
type APIError struct {
	StatusCode int                 `json:"statusCode"`
	Type       string              `json:"type"` // "auth" | "permission" | "notfound" | "conflict" | "validation" | "ratelimit" | "server" | "network" | "unknown"
	Message    string              `json:"message,omitempty"`
	Detail     string              `json:"detail,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Method     string              `json:"method,omitempty"`
	Path       string              `json:"path,omitempty"`
	cause      error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	text := e.Detail
	if text == "" {
		text = e.Message
	}
	if text == "" {
		text = http.StatusText(e.StatusCode)
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: network error: %s", e.Method, e.Path, text)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, text)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// IsUnauthorized informa se o erro é um 401 final.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound informa se o servidor respondeu 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// errorEnvelope é o formato {message?, detail?, errors?}. detail pode vir como
// string ou como a lista de erros de validação do FastAPI.
type errorEnvelope struct {
	Message string              `json:"message"`
	Detail  json.RawMessage     `json:"detail"`
	Errors  map[string][]string `json:"errors"`
}

type validationDetail struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

// newHTTPError converte status + corpo em APIError tipado
func newHTTPError(method, path string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Type:       errorTypeForStatus(statusCode),
		Method:     method,
		Path:       path,
	}

	var env errorEnvelope
	if len(body) == 0 || json.Unmarshal(body, &env) != nil {
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(env.Message)
	apiErr.Errors = env.Errors
	apiErr.Detail = parseDetail(env.Detail)
	return apiErr
}

func newNetworkError(method, path string, cause error) *APIError {
	return &APIError{
		StatusCode: 0,
		Type:       "network",
		Message:    cause.Error(),
		Method:     method,
		Path:       path,
		cause:      cause,
	}
}

func parseDetail(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var items []validationDetail
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if msg := strings.TrimSpace(item.Msg); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}

func errorTypeForStatus(statusCode int) string {
	switch {
	case statusCode == http.StatusUnauthorized:
		return "auth"
	case statusCode == http.StatusForbidden:
		return "permission"
	case statusCode == http.StatusNotFound:
		return "notfound"
	case statusCode == http.StatusConflict:
		return "conflict"
	case statusCode == http.StatusBadRequest, statusCode == http.StatusUnprocessableEntity:
		return "validation"
	case statusCode == http.StatusTooManyRequests:
		return "ratelimit"
	case statusCode >= 500:
		return "server"
	default:
		return "unknown"
	}
}

// ErrorMessage extrai uma mensagem legível do envelope de erro do servidor.
// Erros de transporte e respostas sem envelope reconhecível caem na mensagem
// genérica; erros que nem vieram do cliente HTTP caem na mensagem desconhecida.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return MessageUnknown
	}
	if apiErr.StatusCode == 0 {
		return MessageGeneric
	}
	if apiErr.Detail != "" {
		return apiErr.Detail
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	fields := make([]string, 0, len(apiErr.Errors))
	for field := range apiErr.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if msgs := apiErr.Errors[field]; len(msgs) > 0 && strings.TrimSpace(msgs[0]) != "" {
			return msgs[0]
		}
	}
	return MessageGeneric
}

// DetailOr retorna o detail do envelope ou o fallback da ação.
func DetailOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
