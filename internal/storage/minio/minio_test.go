package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pribylovaa/exivox-comments/internal/config"
	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/storage"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты для пакета minio:
// — поднимают реальный MinIO через testcontainers-go;
// — проверяют:
//    New: успешное подключение и ошибку при отсутствии бакета;
//    UploadURL: выдачу presigned PUT и отказ по типу/размеру;
//    ConfirmUpload: подтверждение загруженного объекта, чужой ключ, отсутствующий объект.
//
// Запуск:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/minio -v -race -count=1

const (
	rootUser     = "root"
	rootPassword = "rootpass"
	bucket       = "comment-attachments"
	subject      = "post:42"
)

func startMinio(t *testing.T, createBucket bool) (*AttachmentsStorage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	const image = "docker.io/minio/minio:latest"

	req := tc.ContainerRequest{
		Image: image,
		Env: map[string]string{
			"MINIO_ROOT_USER":     rootUser,
			"MINIO_ROOT_PASSWORD": rootPassword,
		},
		Cmd:          []string{"server", "/data"},
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor:   wait.ForListeningPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}
	t.Logf("starting minio container with image=%q", image)
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	cleanup := func() { _ = c.Terminate(context.Background()) }

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "9000/tcp")

	if createBucket {
		admin, err := mclient.New(host+":"+port.Port(), &mclient.Options{
			Creds: credentials.NewStaticV4(rootUser, rootPassword, ""),
		})
		require.NoError(t, err)
		require.NoError(t, admin.MakeBucket(ctx, bucket, mclient.MakeBucketOptions{Region: "us-east-1"}))
	}

	cfg := &config.Config{
		S3: config.S3Config{
			Endpoint:     fmt.Sprintf("http://%s:%s", host, port.Port()),
			RootUser:     rootUser,
			RootPassword: rootPassword,
			Bucket:       bucket,
			PresignTTL:   2 * time.Minute,
			PublicBase:   "http://cdn.local/",
		},
		Limits: config.LimitsConfig{
			MaxContentLength:   500,
			MaxAttachments:     3,
			MaxAttachmentBytes: 1 << 20,
			MaxDepth:           3,
		},
	}

	st, err := New(ctx, cfg)
	if !createBucket {
		require.Error(t, err)
		cleanup()
		return nil, func() {}
	}
	require.NoError(t, err)

	return st, cleanup
}

func put(t *testing.T, ui *storage.UploadInfo, body []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPut, ui.UploadURL, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", ui.RequiredHeader["Content-Type"])
	req.ContentLength = int64(len(body))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Less(t, resp.StatusCode, 300, "PUT must succeed")
}

func TestIntegration_New_BucketMustExist(t *testing.T) {
	_, _ = startMinio(t, false)
}

func TestIntegration_UploadAndConfirm_OK(t *testing.T) {
	st, cleanup := startMinio(t, true)
	defer cleanup()

	const size = 64
	ui, err := st.UploadURL(context.Background(), subject, "Report.PDF", "application/pdf", size)
	require.NoError(t, err)
	require.Contains(t, ui.Key, "attachments/post/42/")
	require.True(t, len(ui.Key) > len(".pdf") && ui.Key[len(ui.Key)-4:] == ".pdf")
	require.Equal(t, strconv.Itoa(size), ui.RequiredHeader["Content-Length"])

	put(t, ui, bytes.Repeat([]byte{'x'}, size))

	att, err := st.ConfirmUpload(context.Background(), subject, ui.Key, "Report.PDF")
	require.NoError(t, err)
	require.Equal(t, "http://cdn.local/"+ui.Key, att.URL)
	require.Equal(t, models.AttachmentFile, att.Kind)
	require.EqualValues(t, size, att.Size)
	require.Equal(t, "Report.PDF", att.Name)
	require.NotEmpty(t, att.ID)
}

func TestIntegration_UploadURL_InvalidArgs(t *testing.T) {
	st, cleanup := startMinio(t, true)
	defer cleanup()

	ctx := context.Background()

	_, err := st.UploadURL(ctx, subject, "x.exe", "application/x-msdownload", 10)
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	_, err = st.UploadURL(ctx, subject, "big.png", "image/png", 2<<20)
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	_, err = st.UploadURL(ctx, subject, "zero.png", "image/png", 0)
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	_, err = st.UploadURL(ctx, "bad-key", "a.png", "image/png", 10)
	require.ErrorIs(t, err, storage.ErrInvalidArgument)
}

func TestIntegration_ConfirmUpload_Errors(t *testing.T) {
	st, cleanup := startMinio(t, true)
	defer cleanup()

	ctx := context.Background()

	// Ключ чужой ветки.
	_, err := st.ConfirmUpload(ctx, subject, "attachments/post/43/x.png", "")
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	// Не существует.
	_, err = st.ConfirmUpload(ctx, subject, "attachments/post/42/missing.png", "")
	require.ErrorIs(t, err, storage.ErrNotFoundAttachment)
}

func TestIntegration_ConfirmUpload_RejectsWrongContentType(t *testing.T) {
	st, cleanup := startMinio(t, true)
	defer cleanup()

	ui, err := st.UploadURL(context.Background(), subject, "a.png", "image/png", 4)
	require.NoError(t, err)

	// Загружаем с другим типом: подтверждение должно отказать.
	ui.RequiredHeader["Content-Type"] = "application/zip"
	put(t, ui, []byte{1, 2, 3, 4})

	_, err = st.ConfirmUpload(context.Background(), subject, ui.Key, "a.png")
	require.ErrorIs(t, err, storage.ErrInvalidArgument)
}
