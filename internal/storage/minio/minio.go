// minio предоставляет реализацию storage.Attachments на базе MinIO/S3.
// minio.go - конструктор клиента MinIO: нормализует endpoint,
// настраивает Secure/creds и проверяет наличие целевого бакета.
// attachments.go — presigned PUT для вложений комментариев и подтверждение загрузки.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pribylovaa/exivox-comments/internal/config"
	"github.com/pribylovaa/exivox-comments/internal/form"
	"github.com/pribylovaa/exivox-comments/internal/storage"
)

// AttachmentsStorage — адаптер MinIO для вложений.
type AttachmentsStorage struct {
	cfg    *config.Config
	rules  form.Options
	client *mclient.Client
}

// New создает и инициализирует клиент MinIO.
// Делает endpoint-перенастройку (убирает схему), подбирает Secure по схеме
// и выполняет fail-fast-проверку доступности бакета.
func New(ctx context.Context, cfg *config.Config) (*AttachmentsStorage, error) {
	const op = "storage/minio/New"

	endpoint := cfg.S3.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.S3.RootUser, cfg.S3.RootPassword, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.S3.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.S3.Bucket)
	}

	return &AttachmentsStorage{
		cfg: cfg,
		rules: form.Options{
			MaxLength:          cfg.Limits.MaxContentLength,
			MaxAttachments:     cfg.Limits.MaxAttachments,
			MaxAttachmentBytes: cfg.Limits.MaxAttachmentBytes,
		}.WithDefaults(),
		client: client,
	}, nil
}

// Проверка выполнения контракта верхнего уровня.
var _ storage.Attachments = (*AttachmentsStorage)(nil)
