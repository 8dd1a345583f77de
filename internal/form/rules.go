package form

import (
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/pribylovaa/exivox-comments/internal/models"
)

const (
	DefaultMaxLength          = 500
	DefaultMaxAttachments     = 3
	DefaultMaxAttachmentBytes = 10 << 20
)

// Options — ограничения формы. Нулевые значения заменяются дефолтами.
type Options struct {
	MaxLength          int
	MaxAttachments     int
	MaxAttachmentBytes int64
	// ParentID — id корневого комментария, если форма открыта для ответа.
	ParentID string
}

// WithDefaults подставляет дефолты вместо нулевых/отрицательных значений.
func (o Options) WithDefaults() Options {
	if o.MaxLength <= 0 {
		o.MaxLength = DefaultMaxLength
	}
	if o.MaxAttachments <= 0 {
		o.MaxAttachments = DefaultMaxAttachments
	}
	if o.MaxAttachmentBytes <= 0 {
		o.MaxAttachmentBytes = DefaultMaxAttachmentBytes
	}

	return o
}

// AllowedType сообщает, принимается ли MIME-тип: image/*, application/pdf, text/*.
// Параметры типа (charset и т.п.) игнорируются.
func AllowedType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch {
	case strings.HasPrefix(mt, "image/"), strings.HasPrefix(mt, "text/"):
		return true
	case mt == "application/pdf":
		return true
	default:
		return false
	}
}

// CheckAttachment проверяет один файл. Возвращает *AttachmentError или nil.
func CheckAttachment(name, contentType string, size int64, opts Options) error {
	opts = opts.WithDefaults()

	if !AllowedType(contentType) {
		return &AttachmentError{Name: name, Reason: ReasonUnsupportedType, Err: ErrUnsupportedType}
	}

	if size < 0 || size > opts.MaxAttachmentBytes {
		return &AttachmentError{
			Name:   name,
			Reason: ReasonTooLarge,
			Err:    fmt.Errorf("%w: %d bytes, limit %d", ErrAttachmentTooLarge, size, opts.MaxAttachmentBytes),
		}
	}

	return nil
}

// ValidatePayload применяет правила формы к уже собранному payload
// (например, пришедшему по сети в обход формы).
func ValidatePayload(p models.Payload, opts Options) error {
	opts = opts.WithDefaults()
	verr := &ValidationError{}

	content := strings.TrimSpace(p.Content)
	if content == "" && len(p.Attachments) == 0 {
		verr.add("content", "empty", ErrEmpty)
	}

	if n := utf8.RuneCountInString(content); n > opts.MaxLength {
		verr.add("content", "too_long", fmt.Errorf("%w: %d characters, limit %d", ErrTooLong, n, opts.MaxLength))
	}

	if len(p.Attachments) > opts.MaxAttachments {
		verr.add("attachments", ReasonTooMany,
			fmt.Errorf("%w: %d files, limit %d", ErrTooManyAttachments, len(p.Attachments), opts.MaxAttachments))
	}

	for i, a := range p.Attachments {
		if err := CheckAttachment(a.Name, a.ContentType, a.Size, opts); err != nil {
			ae := err.(*AttachmentError)
			verr.add(fmt.Sprintf("attachments[%d]", i), ae.Reason, ae)
		}
	}

	return verr.orNil()
}
