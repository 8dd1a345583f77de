package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/exivox-comments/internal/form"
	"github.com/pribylovaa/exivox-comments/internal/metrics"
	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/storage"
	"github.com/pribylovaa/exivox-comments/internal/thread"
	"github.com/pribylovaa/exivox-comments/pkg/log"
)

// Входные структуры сервисного слоя.

// CreateCommentInput — создание корневого комментария или ответа.
// Правила:
//   - Payload проверяется правилами формы (текст и/или вложения, лимиты);
//   - Payload.ParentID пуст -> корень, иначе ответ на корень ветки;
//   - для неанонимного комментария обязателен Author.ID;
//   - для анонимного автор заменяется на models.AnonymousAuthor.
type CreateCommentInput struct {
	SubjectKey string
	Author     models.Author
	Payload    models.Payload
}

// ListInput — выдача ветки.
type ListInput struct {
	SubjectKey string
	Sort       string
}

// ThreadView — ветка в запрошенном порядке.
type ThreadView struct {
	Comments []models.Comment
	Sort     models.SortMode
	// Total — корни + ответы.
	Total int
}

// CreateComment — бизнес-операция создания комментария.
//
// Поведение/ошибки:
//   - ErrInvalidArgument — плохой ключ ветки, пустой автор, нарушены правила формы
//     (в цепочке ошибок есть *form.ValidationError со списком нарушений);
//   - ErrParentNotFound — указан ParentID, но корня с таким id нет;
//   - ErrMaxDepthExceeded — ParentID указывает на ответ;
//   - ErrConflict — конфликт записи;
//   - ErrInternal — прочие ошибки стораджа/БД/контекста.
func (s *Service) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	const op = "service/comments/CreateComment"

	lg := log.From(ctx).With(
		"op", op,
		"subject", in.SubjectKey,
		"parent_id", in.Payload.ParentID,
	)

	key, err := normalizeKey(in.SubjectKey)
	if err != nil {
		lg.Warn("invalid argument: bad subject key")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.Author.ID = strings.TrimSpace(in.Author.ID)
	if !in.Payload.IsAnonymous && in.Author.ID == "" {
		lg.Warn("invalid argument: empty author id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if verr := form.ValidatePayload(in.Payload, s.FormOptions()); verr != nil {
		countRejected(verr)
		lg.Warn("invalid argument: payload rejected", "err", verr.Error())
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidArgument, verr)
	}

	s.ensureSeeded(ctx, key)

	now := s.clock()
	author := in.Author
	if in.Payload.IsAnonymous {
		author = models.AnonymousAuthor
	}

	comm := models.Comment{
		ID:               uuid.NewString(),
		ParentID:         strings.TrimSpace(in.Payload.ParentID),
		SubjectID:        key,
		Author:           author,
		IsAnonymous:      in.Payload.IsAnonymous,
		Content:          strings.TrimSpace(in.Payload.Content),
		Attachments:      normalizeAttachments(in.Payload.Attachments),
		CreatedAt:        now,
		UpdatedAt:        now,
		ModerationStatus: models.ModerationApproved,
	}

	result, err := s.storage.AddComment(ctx, key, comm)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrParentNotFound):
			lg.Warn("parent not found")
			return nil, fmt.Errorf("%s: %w", op, ErrParentNotFound)
		case errors.Is(err, storage.ErrMaxDepthExceeded):
			lg.Warn("max depth exceeded")
			return nil, fmt.Errorf("%s: %w", op, ErrMaxDepthExceeded)
		case errors.Is(err, storage.ErrConflict):
			lg.Warn("conflict")
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		default:
			lg.Error("storage error on AddComment", slog.String("err", err.Error()))
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	s.invalidateCount(ctx, key)
	metrics.CommentCreated(result.IsReply(), result.IsAnonymous)

	lg.Debug("comment created", "comment_id", result.ID, "anonymous", result.IsAnonymous)

	return result, nil
}

// ToggleStar переключает звезду на комментарии (корне или ответе).
func (s *Service) ToggleStar(ctx context.Context, subjectKey, commentID string) (*models.Comment, error) {
	const op = "service/comments/ToggleStar"

	c, err := s.mutate(ctx, op, subjectKey, commentID, func(ctx context.Context, key, id string) (*models.Comment, error) {
		return s.storage.ToggleStar(ctx, key, id)
	})
	if err != nil {
		return nil, err
	}

	metrics.StarToggled(c.IsStarred)

	return c, nil
}

// ReportComment — жалоба пользователя. Комментарий помечается IsFlagged и остаётся видимым.
func (s *Service) ReportComment(ctx context.Context, subjectKey, commentID, reason string) (*models.Comment, error) {
	const op = "service/comments/ReportComment"

	reason = strings.TrimSpace(reason)
	if len(reason) > 500 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	c, err := s.mutate(ctx, op, subjectKey, commentID, func(ctx context.Context, key, id string) (*models.Comment, error) {
		return s.storage.FlagComment(ctx, key, id, reason)
	})
	if err != nil {
		return nil, err
	}

	metrics.CommentReported()

	return c, nil
}

// SetModeration записывает решение внешнего модератора (только аннотация).
func (s *Service) SetModeration(ctx context.Context, subjectKey, commentID, status, reason string) (*models.Comment, error) {
	const op = "service/comments/SetModeration"

	st := models.ModerationStatus(strings.ToLower(strings.TrimSpace(status)))
	if !st.Valid() {
		log.From(ctx).Warn("invalid argument: moderation status", "op", op, "status", status)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	return s.mutate(ctx, op, subjectKey, commentID, func(ctx context.Context, key, id string) (*models.Comment, error) {
		return s.storage.SetModeration(ctx, key, id, st, reason)
	})
}

// ListComments возвращает ветку в заданном порядке (сортируются только корни).
func (s *Service) ListComments(ctx context.Context, in ListInput) (*ThreadView, error) {
	const op = "service/comments/ListComments"

	lg := log.From(ctx).With("op", op, "subject", in.SubjectKey)

	key, err := normalizeKey(in.SubjectKey)
	if err != nil {
		lg.Warn("invalid argument: bad subject key")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	mode, err := models.ParseSortMode(in.Sort)
	if err != nil {
		lg.Warn("invalid argument: sort", "sort", in.Sort)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	s.ensureSeeded(ctx, key)

	list, err := s.storage.Thread(ctx, key)
	if err != nil {
		lg.Error("storage error on Thread", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return &ThreadView{
		Comments: thread.Sort(list, mode),
		Sort:     mode,
		Total:    thread.CountAll(list),
	}, nil
}

// CountComments — корни + ответы. Результат кэшируется, если подключён CountCache;
// ошибки кэша не фатальны.
func (s *Service) CountComments(ctx context.Context, subjectKey string) (int, error) {
	const op = "service/comments/CountComments"

	lg := log.From(ctx).With("op", op, "subject", subjectKey)

	key, err := normalizeKey(subjectKey)
	if err != nil {
		lg.Warn("invalid argument: bad subject key")
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	s.ensureSeeded(ctx, key)

	if s.counts != nil {
		n, ok, err := s.counts.Get(ctx, key)
		if err != nil {
			lg.Warn("count cache get failed", slog.String("err", err.Error()))
		}

		if ok {
			return n, nil
		}
	}

	gen := s.countGen(key)
	before := gen.Load()

	list, err := s.storage.Thread(ctx, key)
	if err != nil {
		lg.Error("storage error on Thread", slog.String("err", err.Error()))
		return 0, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	n := thread.CountAll(list)

	if s.counts == nil || gen.Load() != before {
		return n, nil
	}

	if err := s.counts.Set(ctx, key, n, s.countTTL()); err != nil {
		lg.Warn("count cache set failed", slog.String("err", err.Error()))
	}

	// Запись успела пройти между чтением и Set: значение могло устареть.
	if gen.Load() != before {
		if err := s.counts.Invalidate(ctx, key); err != nil {
			lg.Warn("count cache invalidate failed", slog.String("err", err.Error()))
		}
	}

	return n, nil
}

// mutate — общая обвязка точечных изменений: валидация ключей и маппинг ошибок.
func (s *Service) mutate(ctx context.Context, op, subjectKey, commentID string,
	fn func(ctx context.Context, key, id string) (*models.Comment, error),
) (*models.Comment, error) {
	lg := log.From(ctx).With("op", op, "subject", subjectKey, "comment_id", commentID)

	key, err := normalizeKey(subjectKey)
	if err != nil {
		lg.Warn("invalid argument: bad subject key")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	id := strings.TrimSpace(commentID)
	if id == "" {
		lg.Warn("invalid argument: empty comment id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	s.ensureSeeded(ctx, key)

	c, err := fn(ctx, key, id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		case errors.Is(err, storage.ErrConflict):
			lg.Warn("conflict")
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		default:
			lg.Error("storage error", slog.String("err", err.Error()))
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return c, nil
}

func (s *Service) invalidateCount(ctx context.Context, key string) {
	if s.counts == nil {
		return
	}

	s.countGen(key).Add(1)

	if err := s.counts.Invalidate(ctx, key); err != nil {
		log.From(ctx).Warn("count cache invalidate failed", "subject", key, slog.String("err", err.Error()))
	}
}

// normalizeKey проверяет и нормализует ключ ветки ("post:42").
func normalizeKey(subjectKey string) (string, error) {
	typ, id, err := models.ParseSubjectKey(subjectKey)
	if err != nil {
		return "", err
	}

	return models.SubjectKey(typ, id), nil
}

// normalizeAttachments дозаполняет id и вид вложений.
func normalizeAttachments(in []models.Attachment) []models.Attachment {
	if len(in) == 0 {
		return nil
	}

	out := make([]models.Attachment, len(in))
	for i, a := range in {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Kind == "" {
			a.Kind = models.KindOf(a.ContentType)
		}
		out[i] = a
	}

	return out
}

// countRejected учитывает отклонённые вложения в метриках.
func countRejected(err error) {
	var verr *form.ValidationError
	if !errors.As(err, &verr) {
		return
	}

	for _, f := range verr.Fields {
		var ae *form.AttachmentError
		switch {
		case errors.As(f.Err, &ae):
			metrics.AttachmentRejected(ae.Reason)
		case f.Code == form.ReasonTooMany:
			metrics.AttachmentRejected(form.ReasonTooMany)
		}
	}
}
