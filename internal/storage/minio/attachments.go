package minio

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	mclient "github.com/minio/minio-go/v7"
	"github.com/pribylovaa/exivox-comments/internal/form"
	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/storage"
)

const keyRoot = "attachments"

// keyPrefix — "attachments/<type>/<id>/".
func keyPrefix(subjectKey string) (string, error) {
	typ, id, err := models.ParseSubjectKey(subjectKey)
	if err != nil {
		return "", storage.ErrInvalidArgument
	}

	return path.Join(keyRoot, string(typ), id) + "/", nil
}

// UploadURL генерирует presigned PUT URL для вложения.
// Тип и размер проверяются теми же правилами, что и в форме комментария.
// Ключ: "attachments/<type>/<id>/<uuid><ext>".
func (s *AttachmentsStorage) UploadURL(ctx context.Context, subjectKey, name, contentType string, size int64) (*storage.UploadInfo, error) {
	const op = "storage/minio/attachments/UploadURL"

	prefix, err := keyPrefix(subjectKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if size <= 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	if err := form.CheckAttachment(name, contentType, size, s.rules); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrInvalidArgument, err)
	}

	key := prefix + uuid.NewString() + strings.ToLower(path.Ext(name))

	u, err := s.client.PresignedPutObject(ctx, s.cfg.S3.Bucket, key, s.cfg.S3.PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &storage.UploadInfo{
		UploadURL: u.String(),
		Key:       key,
		Expires:   s.cfg.S3.PresignTTL,
		RequiredHeader: map[string]string{
			"Content-Type":   contentType,
			"Content-Length": strconv.FormatInt(size, 10),
		},
	}, nil
}

// ConfirmUpload подтверждает факт загрузки по key: объект существует, лежит под
// префиксом ветки и удовлетворяет ограничениям размера/типа.
// Возвращает дескриптор вложения с публичным URL.
func (s *AttachmentsStorage) ConfirmUpload(ctx context.Context, subjectKey, key, name string) (*models.Attachment, error) {
	const op = "storage/minio/attachments/ConfirmUpload"

	prefix, err := keyPrefix(subjectKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !strings.HasPrefix(key, prefix) || strings.Contains(key, "..") {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	info, err := s.client.StatObject(ctx, s.cfg.S3.Bucket, key, mclient.StatObjectOptions{})
	if err != nil {
		errResp := mclient.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.StatusCode == 404 {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFoundAttachment)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if name == "" {
		name = path.Base(key)
	}

	if err := form.CheckAttachment(name, info.ContentType, info.Size, s.rules); err != nil {
		var ae *form.AttachmentError
		if errors.As(err, &ae) {
			return nil, fmt.Errorf("%s: %w: %s", op, storage.ErrInvalidArgument, ae.Reason)
		}

		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	return &models.Attachment{
		ID:          strings.TrimSuffix(path.Base(key), path.Ext(key)),
		Kind:        models.KindOf(info.ContentType),
		URL:         s.publicURL(key),
		Name:        name,
		Size:        info.Size,
		ContentType: info.ContentType,
	}, nil
}

// publicURL — PublicBase + key; без PublicBase — прямой адрес объекта в бакете.
func (s *AttachmentsStorage) publicURL(key string) string {
	if base := strings.TrimRight(s.cfg.S3.PublicBase, "/"); base != "" {
		return base + "/" + key
	}

	u := *s.client.EndpointURL()
	u.Path = path.Join("/", s.cfg.S3.Bucket, key)

	return u.String()
}
