package binding

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"wishlist/internal/api"
	"wishlist/internal/validation"
)

const (
	CodeValidation   = "E_VALIDATION"
	CodeUnauthorized = "E_UNAUTHORIZED"
	CodeForbidden    = "E_FORBIDDEN"
	CodeNotFound     = "E_NOT_FOUND"
	CodeConflict     = "E_CONFLICT"
	CodeRateLimited  = "E_RATE_LIMITED"
	CodeNetwork      = "E_NETWORK"
	CodeServer       = "E_SERVER"
	CodeUnknown      = "E_UNKNOWN"
)

const messageInvalidForm = "Проверьте правильность заполнения формы"

// Error é o contrato normalizado devolvido pelos bindings. O Wails entrega o
// erro ao frontend como string, por isso Error() serializa em JSON.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"code":"%s","message":"%s"}`, e.Code, sanitizeJSONText(e.Message))
	}
	return string(payload)
}

func NewError(code, message, details string) *Error {
	return &Error{
		Code:    strings.TrimSpace(code),
		Message: strings.TrimSpace(message),
		Details: strings.TrimSpace(details),
	}
}

// AsError recupera um *Error, inclusive a partir do texto JSON
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var bindingErr *Error
	if errors.As(err, &bindingErr) && bindingErr != nil {
		return bindingErr
	}

	raw := strings.TrimSpace(err.Error())
	var parsed Error
	if parseErr := json.Unmarshal([]byte(raw), &parsed); parseErr == nil && strings.TrimSpace(parsed.Code) != "" {
		return &parsed
	}
	return nil
}

// Normalize converte qualquer erro dos serviços no contrato dos bindings
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	if bindingErr := AsError(err); bindingErr != nil {
		if strings.TrimSpace(bindingErr.Code) == "" {
			bindingErr.Code = CodeUnknown
		}
		if strings.TrimSpace(bindingErr.Message) == "" {
			bindingErr.Message = api.MessageUnknown
		}
		return bindingErr
	}

	if fields, ok := validation.AsErrors(err); ok {
		normalized := NewError(CodeValidation, messageInvalidForm, "")
		normalized.Fields = fields
		return normalized
	}

	if errors.Is(err, api.ErrSessionExpired) {
		return NewError(CodeUnauthorized, api.ErrorMessage(err), err.Error())
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return NewError(CodeForHTTPStatus(apiErr.StatusCode), api.ErrorMessage(err), err.Error())
	}

	return NewError(CodeUnknown, api.MessageUnknown, err.Error())
}

// CodeForHTTPStatus mapeia status HTTP para o contrato final de erro.
func CodeForHTTPStatus(statusCode int) string {
	switch {
	case statusCode == 0:
		return CodeNetwork
	case statusCode == http.StatusUnauthorized:
		return CodeUnauthorized
	case statusCode == http.StatusForbidden:
		return CodeForbidden
	case statusCode == http.StatusNotFound:
		return CodeNotFound
	case statusCode == http.StatusConflict:
		return CodeConflict
	case statusCode == http.StatusBadRequest, statusCode == http.StatusUnprocessableEntity:
		return CodeValidation
	case statusCode == http.StatusTooManyRequests:
		return CodeRateLimited
	case statusCode >= 500:
		return CodeServer
	default:
		return CodeUnknown
	}
}

func sanitizeJSONText(input string) string {
	output := strings.ReplaceAll(input, `"`, `'`)
	output = strings.ReplaceAll(output, "\n", " ")
	return strings.TrimSpace(output)
}
