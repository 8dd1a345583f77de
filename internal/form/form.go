// Package form — черновик комментария (или ответа) и правила его отправки.
//
// Форма ничего не отправляет в сеть сама: при Submit она собирает models.Payload
// и передаёт его внедрённому обработчику. Успех очищает черновик, ошибка
// (или паника обработчика) оставляет его нетронутым для повторной попытки.
package form

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pribylovaa/exivox-comments/internal/models"
	logctx "github.com/pribylovaa/exivox-comments/pkg/log"
)

// SubmitFunc — получатель готового payload (сервис, gRPC-клиент и т.п.).
type SubmitFunc func(ctx context.Context, p models.Payload) error

// Form — черновик. Безопасен для конкурентного использования.
type Form struct {
	opts Options

	mu          sync.Mutex
	content     string
	anonymous   bool
	attachments []models.Attachment
	submitting  bool
}

// New создаёт пустую форму.
func New(opts Options) *Form {
	return &Form{opts: opts.WithDefaults()}
}

// Options возвращает действующие ограничения.
func (f *Form) Options() Options { return f.opts }

// IsReply — форма открыта для ответа на корневой комментарий.
func (f *Form) IsReply() bool { return f.opts.ParentID != "" }

func (f *Form) SetContent(s string) {
	f.mu.Lock()
	f.content = s
	f.mu.Unlock()
}

// InsertAt заменяет выделение [start, end) текста вставкой s (например, эмодзи)
// и возвращает новую позицию курсора. Позиции считаются в символах и
// приводятся к границам текста.
func (f *Form) InsertAt(start, end int, s string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	runes := []rune(f.content)
	start = min(max(start, 0), len(runes))
	end = min(max(end, start), len(runes))

	next := make([]rune, 0, len(runes)+utf8.RuneCountInString(s))
	next = append(next, runes[:start]...)
	next = append(next, []rune(s)...)
	next = append(next, runes[end:]...)
	f.content = string(next)

	return start + utf8.RuneCountInString(s)
}

func (f *Form) Content() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.content
}

func (f *Form) SetAnonymous(v bool) {
	f.mu.Lock()
	f.anonymous = v
	f.mu.Unlock()
}

func (f *Form) Anonymous() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.anonymous
}

// Attachments — копия текущего списка вложений.
func (f *Form) Attachments() []models.Attachment {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.Attachment, len(f.attachments))
	copy(out, f.attachments)

	return out
}

// Attach добавляет файлы в порядке поступления. Файл с недопустимым типом или
// размером отклоняется; из допустимых сохраняются первые до MaxAttachments,
// остальные отклоняются с причиной too_many. Возвращает по ошибке на каждый
// отклонённый файл (nil, если приняты все).
func (f *Form) Attach(files ...models.Attachment) []error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rejected []error

	for _, a := range files {
		if err := CheckAttachment(a.Name, a.ContentType, a.Size, f.opts); err != nil {
			rejected = append(rejected, err)
			continue
		}

		if len(f.attachments) >= f.opts.MaxAttachments {
			rejected = append(rejected, &AttachmentError{
				Name:   a.Name,
				Reason: ReasonTooMany,
				Err:    fmt.Errorf("%w: limit %d", ErrTooManyAttachments, f.opts.MaxAttachments),
			})
			continue
		}

		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Kind == "" {
			a.Kind = models.KindOf(a.ContentType)
		}

		f.attachments = append(f.attachments, a)
	}

	return rejected
}

// Remove убирает вложение по индексу. Индекс вне диапазона игнорируется.
func (f *Form) Remove(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i < 0 || i >= len(f.attachments) {
		return
	}

	next := make([]models.Attachment, 0, len(f.attachments)-1)
	next = append(next, f.attachments[:i]...)
	next = append(next, f.attachments[i+1:]...)
	f.attachments = next
}

// Reset очищает черновик.
func (f *Form) Reset() {
	f.mu.Lock()
	f.reset()
	f.mu.Unlock()
}

func (f *Form) reset() {
	f.content = ""
	f.anonymous = false
	f.attachments = nil
}

// Payload собирает payload из текущего черновика (текст обрезается по краям).
func (f *Form) Payload() models.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.payload()
}

func (f *Form) payload() models.Payload {
	var atts []models.Attachment
	if len(f.attachments) > 0 {
		atts = make([]models.Attachment, len(f.attachments))
		copy(atts, f.attachments)
	}

	return models.Payload{
		Content:     strings.TrimSpace(f.content),
		IsAnonymous: f.anonymous,
		Attachments: atts,
		ParentID:    f.opts.ParentID,
	}
}

// Validate проверяет черновик. Возвращает *ValidationError или nil.
func (f *Form) Validate() error {
	return ValidatePayload(f.Payload(), f.opts)
}

// CanSubmit — есть что отправлять и отправка не идёт.
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return !f.submitting && (strings.TrimSpace(f.content) != "" || len(f.attachments) > 0)
}

// Submit валидирует черновик и передаёт payload в fn.
// Успех -> черновик очищается. Ошибка или паника fn -> черновик сохраняется,
// ошибка логируется и возвращается. Повторов нет.
func (f *Form) Submit(ctx context.Context, fn SubmitFunc) (err error) {
	const op = "form/Submit"
	logger := logctx.From(ctx)

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrBusy)
	}

	p := f.payload()
	if verr := ValidatePayload(p, f.opts); verr != nil {
		f.mu.Unlock()
		return fmt.Errorf("%s: %w", op, verr)
	}

	f.submitting = true
	f.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", op, ErrSubmitPanic, r)
		}

		f.mu.Lock()
		f.submitting = false
		if err == nil {
			f.reset()
		}
		f.mu.Unlock()

		if err != nil {
			logger.Error("comment_submit_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
				slog.String("parent_id", p.ParentID),
				slog.Int("attachments", len(p.Attachments)),
			)
		}
	}()

	if err := fn(ctx, p); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
