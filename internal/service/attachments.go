package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/storage"
	"github.com/pribylovaa/exivox-comments/pkg/log"
)

// AttachmentUploadURL выдаёт presigned PUT для вложения будущего комментария.
// Без сконфигурированного blob-хранилища — ErrUnavailable.
func (s *Service) AttachmentUploadURL(ctx context.Context, subjectKey, name, contentType string, size int64) (*storage.UploadInfo, error) {
	const op = "service/attachments/AttachmentUploadURL"

	lg := log.From(ctx).With("op", op, "subject", subjectKey, "content_type", contentType, "size", size)

	if s.attachments == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	key, err := normalizeKey(subjectKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	info, err := s.attachments.UploadURL(ctx, key, name, contentType, size)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidArgument) {
			lg.Warn("attachment rejected", slog.String("err", err.Error()))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		lg.Error("blob store error on UploadURL", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return info, nil
}

// ConfirmAttachment подтверждает загрузку и возвращает дескриптор вложения,
// который клиент кладёт в payload комментария.
func (s *Service) ConfirmAttachment(ctx context.Context, subjectKey, objectKey, name string) (*models.Attachment, error) {
	const op = "service/attachments/ConfirmAttachment"

	lg := log.From(ctx).With("op", op, "subject", subjectKey, "key", objectKey)

	if s.attachments == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	key, err := normalizeKey(subjectKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	objectKey = strings.TrimSpace(objectKey)
	if objectKey == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	att, err := s.attachments.ConfirmUpload(ctx, key, objectKey, strings.TrimSpace(name))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFoundAttachment):
			lg.Warn("attachment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		case errors.Is(err, storage.ErrInvalidArgument):
			lg.Warn("attachment rejected", slog.String("err", err.Error()))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		default:
			lg.Error("blob store error on ConfirmUpload", slog.String("err", err.Error()))
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return att, nil
}
