package form

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmpty — нет ни текста (после TrimSpace), ни вложений.
	ErrEmpty = errors.New("comment is empty")
	// ErrTooLong — текст длиннее MaxLength символов.
	ErrTooLong = errors.New("comment is too long")
	// ErrTooManyAttachments — вложений больше MaxAttachments.
	ErrTooManyAttachments = errors.New("too many attachments")
	// ErrAttachmentTooLarge — файл больше MaxAttachmentBytes.
	ErrAttachmentTooLarge = errors.New("attachment is too large")
	// ErrUnsupportedType — MIME-тип вне списка image/*, application/pdf, text/*.
	ErrUnsupportedType = errors.New("unsupported attachment type")
	// ErrBusy — предыдущая отправка ещё не завершилась.
	ErrBusy = errors.New("submit already in progress")
	// ErrSubmitPanic — обработчик отправки запаниковал.
	ErrSubmitPanic = errors.New("submit handler panicked")
)

// Причины отклонения вложения.
const (
	ReasonTooLarge        = "too_large"
	ReasonUnsupportedType = "unsupported_type"
	ReasonTooMany         = "too_many"
)

// AttachmentError — отклонённый файл и причина.
type AttachmentError struct {
	Name   string
	Reason string
	Err    error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("attachment %q: %v", e.Name, e.Err)
}

func (e *AttachmentError) Unwrap() error { return e.Err }

// FieldError — одно нарушенное правило.
type FieldError struct {
	Field string
	Code  string
	Err   error
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

// ValidationError перечисляет все нарушенные правила, а не только первое.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap позволяет errors.Is(err, ErrEmpty) и т.п.
func (e *ValidationError) Unwrap() []error {
	out := make([]error, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Err)
	}

	return out
}

func (e *ValidationError) add(field, code string, err error) {
	e.Fields = append(e.Fields, FieldError{Field: field, Code: code, Err: err})
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}

	return e
}
