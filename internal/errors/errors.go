// errors стандартизирует ответы об ошибках HTTP-слоя сервиса комментариев.
// На вход принимает ошибку сервисного слоя (или локальную ошибку разбора запроса),
// на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей;
//   - details — список всех нарушенных правил для ошибок валидации.
//
// Источник истинности по кодам: sentinel-ошибки internal/service.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pribylovaa/exivox-comments/internal/form"
	"github.com/pribylovaa/exivox-comments/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrBadRequest — тело/параметры запроса не разобраны.
	ErrBadRequest = stderrors.New("bad request")
	// ErrTooManyRequests — сработал rate limit.
	ErrTooManyRequests = stderrors.New("too many requests")
	// ErrUnauthenticated — неанонимная запись без зрителя от шлюза.
	ErrUnauthenticated = stderrors.New("unauthenticated")
)

// Detail — одно нарушенное правило.
type Detail struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	RequestID string   `json:"request_id,omitempty"`
	Details   []Detail `json:"details,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Таблица:
//   - ErrBadRequest, service.ErrInvalidArgument, *form.ValidationError,
//     validator.ValidationErrors -> 400
//   - ErrUnauthenticated -> 401
//   - service.ErrNotFound -> 404 not_found
//   - service.ErrParentNotFound -> 404 parent_not_found
//   - service.ErrMaxDepthExceeded -> 412 max_depth_exceeded
//   - service.ErrConflict -> 409
//   - ErrTooManyRequests -> 429
//   - service.ErrUnavailable -> 503
//   - context.Canceled -> 499, context.DeadlineExceeded -> 504
//   - nil и прочее -> 500/internal (nil — программная ошибка вызова, не маскируем её под 200).
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return internal()
	}

	var (
		verrs validator.ValidationErrors
		ferr  *form.ValidationError
	)
	switch {
	case stderrors.As(err, &verrs):
		return http.StatusBadRequest, resp("invalid_argument", "invalid argument", fromValidator(verrs))
	case stderrors.As(err, &ferr), stderrors.Is(err, service.ErrInvalidArgument), stderrors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, resp("invalid_argument", "invalid argument", fromForm(err))
	case stderrors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, resp("unauthenticated", "unauthenticated", nil)
	case stderrors.Is(err, service.ErrParentNotFound):
		return http.StatusNotFound, resp("parent_not_found", "parent comment not found", nil)
	case stderrors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, resp("not_found", "not found", nil)
	case stderrors.Is(err, service.ErrMaxDepthExceeded):
		return http.StatusPreconditionFailed, resp("max_depth_exceeded", "replies to replies are not supported", nil)
	case stderrors.Is(err, service.ErrConflict):
		return http.StatusConflict, resp("conflict", "concurrent update, retry", nil)
	case stderrors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, resp("resource_exhausted", "too many requests", nil)
	case stderrors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, resp("unavailable", "service unavailable", nil)
	case stderrors.Is(err, context.Canceled):
		return StatusClientClosedRequest, resp("canceled", "canceled", nil)
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, resp("deadline_exceeded", "deadline exceeded", nil)
	default:
		return internal()
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func resp(code, msg string, details []Detail) ErrorResponse {
	return ErrorResponse{Error: APIError{Code: code, Message: msg, Details: details}}
}

func internal() (int, ErrorResponse) {
	return http.StatusInternalServerError, resp("internal", "internal error", nil)
}

// fromForm раскрывает *form.ValidationError: по одной записи на каждое нарушение.
func fromForm(err error) []Detail {
	var verr *form.ValidationError
	if !stderrors.As(err, &verr) {
		return nil
	}

	out := make([]Detail, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		out = append(out, Detail{Field: f.Field, Code: f.Code, Message: f.Err.Error()})
	}

	return out
}

// fromValidator — ошибки тегов validate:"..." на DTO.
func fromValidator(verrs validator.ValidationErrors) []Detail {
	out := make([]Detail, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Detail{
			Field:   fieldName(fe.Namespace()),
			Code:    fe.Tag(),
			Message: fe.Error(),
		})
	}

	return out
}

// fieldName отрезает имя корневой структуры: "createRequest.content" -> "content".
func fieldName(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}

	return ns
}
