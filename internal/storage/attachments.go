package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/exivox-comments/internal/models"
)

var (
	// ErrNotFoundAttachment — объект (ключ) отсутствует в бакете.
	ErrNotFoundAttachment = errors.New("attachment not found")
	// ErrInvalidArgument — нарушены ограничения запроса (тип/размер/чужой ключ).
	ErrInvalidArgument = errors.New("invalid argument")
)

// UploadInfo — информация для клиента о presigned PUT загрузке.
//   - UploadURL: конечная URL для PUT-запроса.
//   - Key: ключ (путь) будущего объекта в бакете.
//   - Expires: время жизни подписи.
//   - RequiredHeader: заголовки, которые клиент ОБЯЗАН передать при PUT.
type UploadInfo struct {
	UploadURL      string
	Key            string
	Expires        time.Duration
	RequiredHeader map[string]string
}

// Attachments — presigned загрузка вложений комментариев и подтверждение факта загрузки.
type Attachments interface {
	// UploadURL валидирует файл правилами формы и выдаёт presigned PUT.
	UploadURL(ctx context.Context, subjectKey, name, contentType string, size int64) (*UploadInfo, error)
	// ConfirmUpload проверяет объект по key (наличие, тип, размер) и возвращает
	// готовый дескриптор вложения для комментария.
	ConfirmUpload(ctx context.Context, subjectKey, key, name string) (*models.Attachment, error)
}
