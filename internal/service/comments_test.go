package service

// Тесты сервисного слоя (internal/service).
//
//  Проверяем:
//  - валидацию входов (ключ ветки, автор, правила формы);
//  - маппинг ошибок storage -> service;
//  - подмену автора для анонимных комментариев;
//  - кэш счётчиков и одноразовый seed ветки;
//  - вложения: отсутствие blob-хранилища и маппинг его ошибок.
//
// Подготовка окружения:
//   mockgen -source=./internal/storage/storage.go -destination=./mocks/storage.go -package=mocks
//   mockgen -source=./internal/storage/attachments.go -destination=./mocks/attachments.go -package=mocks
//   mockgen -source=./internal/cache/cache.go -destination=./mocks/cache.go -package=mocks
//
//   go test ./internal/service -v -race -count=1

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/exivox-comments/internal/config"
	"github.com/pribylovaa/exivox-comments/internal/form"
	"github.com/pribylovaa/exivox-comments/internal/loader"
	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/storage"
	"github.com/pribylovaa/exivox-comments/mocks"
	"github.com/stretchr/testify/require"
)

const subject = "post:42"

var fixedNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

// newServiceWithMocks — поднимает сервис с моками стораджа.
func newServiceWithMocks(t *testing.T, opts ...Option) (*Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	ms := mocks.NewMockStorage(ctrl)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	s := New(ms, config.Config{}, opts...)
	return s, ms, ctrl
}

func author() models.Author {
	return models.Author{ID: "u1", Username: "john_doe", DisplayName: "John Doe", IsVerified: true}
}

func TestService_CreateComment_Validation(t *testing.T) {
	s, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ctx := context.Background()

	// плохой ключ ветки
	_, err := s.CreateComment(ctx, CreateCommentInput{
		SubjectKey: "thread:1", Author: author(), Payload: models.Payload{Content: "hi"},
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// пустой автор у неанонимного комментария
	_, err = s.CreateComment(ctx, CreateCommentInput{
		SubjectKey: subject, Author: models.Author{ID: "  "}, Payload: models.Payload{Content: "hi"},
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// пустой текст без вложений и слишком длинный текст
	_, err = s.CreateComment(ctx, CreateCommentInput{
		SubjectKey: subject, Author: author(), Payload: models.Payload{Content: "   "},
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.CreateComment(ctx, CreateCommentInput{
		SubjectKey: subject, Author: author(), Payload: models.Payload{Content: strings.Repeat("a", 501)},
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	var verr *form.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	require.Equal(t, "content", verr.Fields[0].Field)
}

func TestService_CreateComment_AllViolationsReported(t *testing.T) {
	s, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	atts := []models.Attachment{
		{Name: "a.png", ContentType: "image/png", Size: 10},
		{Name: "b.png", ContentType: "image/png", Size: 10},
		{Name: "c.png", ContentType: "image/png", Size: 10},
		{Name: "d.exe", ContentType: "application/x-msdownload", Size: 10},
	}

	_, err := s.CreateComment(context.Background(), CreateCommentInput{
		SubjectKey: subject,
		Author:     author(),
		Payload:    models.Payload{Content: strings.Repeat("я", 501), Attachments: atts},
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	var verr *form.ValidationError
	require.True(t, errors.As(err, &verr))
	require.GreaterOrEqual(t, len(verr.Fields), 3)
	require.ErrorIs(t, err, form.ErrTooLong)
	require.ErrorIs(t, err, form.ErrTooManyAttachments)
	require.ErrorIs(t, err, form.ErrUnsupportedType)
}

func TestService_CreateComment_OK_Root(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ms.EXPECT().
		AddComment(gomock.Any(), subject, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, c models.Comment) (*models.Comment, error) {
			require.NotEmpty(t, c.ID)
			require.Empty(t, c.ParentID)
			require.Equal(t, subject, c.SubjectID)
			require.Equal(t, "Great post!", c.Content)
			require.Equal(t, author(), c.Author)
			require.Equal(t, models.ModerationApproved, c.ModerationStatus)
			require.Equal(t, fixedNow, c.CreatedAt)
			require.Equal(t, fixedNow, c.UpdatedAt)
			require.Zero(t, c.Stars)
			require.False(t, c.IsStarred)
			return &c, nil
		})

	got, err := s.CreateComment(context.Background(), CreateCommentInput{
		SubjectKey: " post:42 ",
		Author:     author(),
		Payload:    models.Payload{Content: "  Great post!  "},
	})
	require.NoError(t, err)
	require.Equal(t, "Great post!", got.Content)
}

func TestService_CreateComment_AnonymousReply(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ms.EXPECT().
		AddComment(gomock.Any(), subject, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, c models.Comment) (*models.Comment, error) {
			require.Equal(t, "1", c.ParentID)
			require.True(t, c.IsAnonymous)
			require.Equal(t, models.AnonymousAuthor, c.Author)
			return &c, nil
		})

	// Для анонимного комментария ID автора не требуется и не сохраняется.
	got, err := s.CreateComment(context.Background(), CreateCommentInput{
		SubjectKey: subject,
		Author:     models.Author{ID: "u1", DisplayName: "Secret"},
		Payload:    models.Payload{Content: "me too", IsAnonymous: true, ParentID: "1"},
	})
	require.NoError(t, err)
	require.True(t, got.IsReply())
	require.NotEqual(t, "Secret", got.Author.DisplayName)
}

func TestService_CreateComment_AttachmentsOnly(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ms.EXPECT().
		AddComment(gomock.Any(), subject, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, c models.Comment) (*models.Comment, error) {
			require.Empty(t, c.Content)
			require.Len(t, c.Attachments, 2)
			require.NotEmpty(t, c.Attachments[0].ID)
			require.Equal(t, models.AttachmentImage, c.Attachments[0].Kind)
			require.Equal(t, models.AttachmentFile, c.Attachments[1].Kind)
			return &c, nil
		})

	_, err := s.CreateComment(context.Background(), CreateCommentInput{
		SubjectKey: subject,
		Author:     author(),
		Payload: models.Payload{Attachments: []models.Attachment{
			{Name: "shot.png", ContentType: "image/png", Size: 2048, URL: "http://cdn.local/a"},
			{Name: "doc.pdf", ContentType: "application/pdf", Size: 2 << 20, URL: "http://cdn.local/b"},
		}},
	})
	require.NoError(t, err)
}

func TestService_CreateComment_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"parent", storage.ErrParentNotFound, ErrParentNotFound},
		{"depth", storage.ErrMaxDepthExceeded, ErrMaxDepthExceeded},
		{"conflict", storage.ErrConflict, ErrConflict},
		{"internal", errors.New("db down"), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ms, ctrl := newServiceWithMocks(t)
			defer ctrl.Finish()

			ms.EXPECT().AddComment(gomock.Any(), subject, gomock.Any()).Return(nil, tt.in)

			_, err := s.CreateComment(context.Background(), CreateCommentInput{
				SubjectKey: subject,
				Author:     author(),
				Payload:    models.Payload{Content: "x", ParentID: "p"},
			})
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_ToggleStar(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ctx := context.Background()

	_, err := s.ToggleStar(ctx, subject, "  ")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.ToggleStar(ctx, "post:", "1")
	require.ErrorIs(t, err, ErrInvalidArgument)

	ms.EXPECT().ToggleStar(gomock.Any(), subject, "1").
		Return(&models.Comment{ID: "1", Stars: 6, IsStarred: true}, nil)

	got, err := s.ToggleStar(ctx, subject, " 1 ")
	require.NoError(t, err)
	require.Equal(t, 6, got.Stars)
	require.True(t, got.IsStarred)

	ms.EXPECT().ToggleStar(gomock.Any(), subject, "404").Return(nil, storage.ErrNotFound)
	_, err = s.ToggleStar(ctx, subject, "404")
	require.ErrorIs(t, err, ErrNotFound)

	ms.EXPECT().ToggleStar(gomock.Any(), subject, "1").Return(nil, storage.ErrConflict)
	_, err = s.ToggleStar(ctx, subject, "1")
	require.ErrorIs(t, err, ErrConflict)
}

func TestService_ReportComment(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ctx := context.Background()

	_, err := s.ReportComment(ctx, subject, "1", strings.Repeat("r", 501))
	require.ErrorIs(t, err, ErrInvalidArgument)

	ms.EXPECT().FlagComment(gomock.Any(), subject, "1", "spam").
		Return(&models.Comment{ID: "1", IsFlagged: true, ModerationReason: "spam"}, nil)

	got, err := s.ReportComment(ctx, subject, "1", "  spam ")
	require.NoError(t, err)
	require.True(t, got.IsFlagged)

	ms.EXPECT().FlagComment(gomock.Any(), subject, "2", "").Return(nil, errors.New("boom"))
	_, err = s.ReportComment(ctx, subject, "2", "")
	require.ErrorIs(t, err, ErrInternal)
}

func TestService_SetModeration(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ctx := context.Background()

	_, err := s.SetModeration(ctx, subject, "1", "deleted", "")
	require.ErrorIs(t, err, ErrInvalidArgument)

	ms.EXPECT().SetModeration(gomock.Any(), subject, "1", models.ModerationWarning, "Inappropriate language").
		Return(&models.Comment{ID: "1", ModerationStatus: models.ModerationWarning}, nil)

	got, err := s.SetModeration(ctx, subject, "1", " Warning ", "Inappropriate language")
	require.NoError(t, err)
	require.Equal(t, models.ModerationWarning, got.ModerationStatus)
}

func TestService_ListComments(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ctx := context.Background()

	_, err := s.ListComments(ctx, ListInput{SubjectKey: subject, Sort: "random"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	older := models.Comment{ID: "1", Stars: 5, CreatedAt: fixedNow.Add(-2 * time.Hour),
		Replies: []models.Comment{{ID: "2", ParentID: "1"}}}
	newer := models.Comment{ID: "3", Stars: 2, CreatedAt: fixedNow.Add(-30 * time.Minute)}

	ms.EXPECT().Thread(gomock.Any(), subject).Return([]models.Comment{older, newer}, nil).Times(3)

	view, err := s.ListComments(ctx, ListInput{SubjectKey: subject})
	require.NoError(t, err)
	require.Equal(t, models.SortNewest, view.Sort)
	require.Equal(t, 3, view.Total)
	require.Equal(t, "3", view.Comments[0].ID)

	view, err = s.ListComments(ctx, ListInput{SubjectKey: subject, Sort: "oldest"})
	require.NoError(t, err)
	require.Equal(t, "1", view.Comments[0].ID)

	view, err = s.ListComments(ctx, ListInput{SubjectKey: subject, Sort: "popular"})
	require.NoError(t, err)
	require.Equal(t, "1", view.Comments[0].ID)

	ms.EXPECT().Thread(gomock.Any(), subject).Return(nil, errors.New("db down"))
	_, err = s.ListComments(ctx, ListInput{SubjectKey: subject})
	require.ErrorIs(t, err, ErrInternal)
}

func TestService_CountComments_Cache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mc := mocks.NewMockCountCache(ctrl)
	s, ms, _ := newServiceWithMocks(t, WithCountCache(mc))

	ctx := context.Background()

	// промах -> стораж -> запись в кэш
	mc.EXPECT().Get(gomock.Any(), subject).Return(0, false, nil)
	ms.EXPECT().Thread(gomock.Any(), subject).Return([]models.Comment{
		{ID: "1", Replies: []models.Comment{{ID: "2"}}},
		{ID: "3"},
	}, nil)
	mc.EXPECT().Set(gomock.Any(), subject, 3, defaultCountTTL).Return(nil)

	n, err := s.CountComments(ctx, subject)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	// попадание -> стораж не вызывается
	mc.EXPECT().Get(gomock.Any(), subject).Return(3, true, nil)
	n, err = s.CountComments(ctx, subject)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	// ошибка кэша не фатальна
	mc.EXPECT().Get(gomock.Any(), subject).Return(0, false, errors.New("redis down"))
	ms.EXPECT().Thread(gomock.Any(), subject).Return(nil, nil)
	mc.EXPECT().Set(gomock.Any(), subject, 0, defaultCountTTL).Return(errors.New("redis down"))
	n, err = s.CountComments(ctx, subject)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestService_CreateComment_InvalidatesCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mc := mocks.NewMockCountCache(ctrl)
	s, ms, _ := newServiceWithMocks(t, WithCountCache(mc))

	ms.EXPECT().AddComment(gomock.Any(), subject, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, c models.Comment) (*models.Comment, error) { return &c, nil })
	mc.EXPECT().Invalidate(gomock.Any(), subject).Return(nil)

	_, err := s.CreateComment(context.Background(), CreateCommentInput{
		SubjectKey: subject, Author: author(), Payload: models.Payload{Content: "hello"},
	})
	require.NoError(t, err)
}

// mapCache — CountCache в памяти процесса.
type mapCache struct {
	mu sync.Mutex
	m  map[string]int
}

func newMapCache() *mapCache { return &mapCache{m: make(map[string]int)} }

func (c *mapCache) Get(_ context.Context, key string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.m[key]
	return n, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, n int, _ time.Duration) error {
	c.mu.Lock()
	c.m[key] = n
	c.mu.Unlock()
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
	return nil
}

func (c *mapCache) Close() error { return nil }

func TestService_CountComments_WriteAfterRead_NotCached(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t, WithCountCache(newMapCache()))
	defer ctrl.Finish()

	ctx := context.Background()
	one := []models.Comment{{ID: "1"}}
	two := []models.Comment{{ID: "new"}, {ID: "1"}}

	ms.EXPECT().AddComment(gomock.Any(), subject, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, c models.Comment) (*models.Comment, error) { return &c, nil })

	// Создание завершается после чтения ветки, но до записи в кэш.
	gomock.InOrder(
		ms.EXPECT().Thread(gomock.Any(), subject).DoAndReturn(func(ctx context.Context, _ string) ([]models.Comment, error) {
			_, err := s.CreateComment(ctx, CreateCommentInput{
				SubjectKey: subject, Author: author(), Payload: models.Payload{Content: "hello"},
			})
			require.NoError(t, err)
			return one, nil
		}),
		ms.EXPECT().Thread(gomock.Any(), subject).Return(two, nil),
	)

	n, err := s.CountComments(ctx, subject)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = s.CountComments(ctx, subject)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestService_CountComments_WriteDuringSet_Invalidated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mc := mocks.NewMockCountCache(ctrl)
	s, ms, _ := newServiceWithMocks(t, WithCountCache(mc))

	ctx := context.Background()

	ms.EXPECT().AddComment(gomock.Any(), subject, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, c models.Comment) (*models.Comment, error) { return &c, nil })

	gomock.InOrder(
		mc.EXPECT().Get(gomock.Any(), subject).Return(0, false, nil),
		ms.EXPECT().Thread(gomock.Any(), subject).Return([]models.Comment{{ID: "1"}}, nil),
		// Инвалидация создания приходит раньше, чем Set сохранил значение.
		mc.EXPECT().Set(gomock.Any(), subject, 1, defaultCountTTL).DoAndReturn(
			func(ctx context.Context, _ string, _ int, _ time.Duration) error {
				_, err := s.CreateComment(ctx, CreateCommentInput{
					SubjectKey: subject, Author: author(), Payload: models.Payload{Content: "hello"},
				})
				require.NoError(t, err)
				return nil
			}),
		// вторая инвалидация — уже от CountComments
		mc.EXPECT().Invalidate(gomock.Any(), subject).Return(nil).Times(2),
	)

	n, err := s.CountComments(ctx, subject)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestService_SeedOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ms := mocks.NewMockStorage(ctrl)
	cfg := config.Config{Storage: config.StorageConfig{Seed: true}}

	loads := 0
	l := loader.Func(func(_ context.Context, key string) ([]models.Comment, error) {
		loads++
		return loader.SeedComments(key), nil
	})

	s := New(ms, cfg, WithLoader(l))

	ms.EXPECT().SeedThread(gomock.Any(), subject, gomock.Any()).Return(true, nil).Times(1)
	ms.EXPECT().Thread(gomock.Any(), subject).Return(loader.SeedComments(subject), nil).Times(2)

	for i := 0; i < 2; i++ {
		view, err := s.ListComments(context.Background(), ListInput{SubjectKey: subject})
		require.NoError(t, err)
		require.Equal(t, 4, view.Total)
	}
	require.Equal(t, 1, loads)
}

func TestService_SeedFailureRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ms := mocks.NewMockStorage(ctrl)
	cfg := config.Config{Storage: config.StorageConfig{Seed: true}}
	s := New(ms, cfg, WithLoader(loader.Seed{}))

	// Первая попытка записи неудачна: ветка остаётся «не засеянной» и следующий запрос повторяет seed.
	gomock.InOrder(
		ms.EXPECT().SeedThread(gomock.Any(), subject, gomock.Any()).Return(false, errors.New("db down")),
		ms.EXPECT().SeedThread(gomock.Any(), subject, gomock.Any()).Return(false, nil),
	)
	ms.EXPECT().Thread(gomock.Any(), subject).Return(nil, nil).Times(2)

	_, err := s.ListComments(context.Background(), ListInput{SubjectKey: subject})
	require.NoError(t, err)
	_, err = s.ListComments(context.Background(), ListInput{SubjectKey: subject})
	require.NoError(t, err)
}

func TestService_Attachments_Unavailable(t *testing.T) {
	s, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	_, err := s.AttachmentUploadURL(context.Background(), subject, "a.png", "image/png", 10)
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = s.ConfirmAttachment(context.Background(), subject, "attachments/post/42/x.png", "a.png")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestService_Attachments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ma := mocks.NewMockAttachments(ctrl)
	s, _, _ := newServiceWithMocks(t, WithAttachments(ma))

	ctx := context.Background()

	_, err := s.AttachmentUploadURL(ctx, subject, "  ", "image/png", 10)
	require.ErrorIs(t, err, ErrInvalidArgument)

	ma.EXPECT().UploadURL(gomock.Any(), subject, "a.png", "image/png", int64(10)).
		Return(&storage.UploadInfo{UploadURL: "http://s3/put", Key: "attachments/post/42/k.png"}, nil)
	info, err := s.AttachmentUploadURL(ctx, subject, "a.png", "image/png", 10)
	require.NoError(t, err)
	require.Equal(t, "attachments/post/42/k.png", info.Key)

	ma.EXPECT().UploadURL(gomock.Any(), subject, "a.exe", "application/x-msdownload", int64(10)).
		Return(nil, storage.ErrInvalidArgument)
	_, err = s.AttachmentUploadURL(ctx, subject, "a.exe", "application/x-msdownload", 10)
	require.ErrorIs(t, err, ErrInvalidArgument)

	ma.EXPECT().ConfirmUpload(gomock.Any(), subject, "attachments/post/42/missing.png", "a.png").
		Return(nil, storage.ErrNotFoundAttachment)
	_, err = s.ConfirmAttachment(ctx, subject, "attachments/post/42/missing.png", "a.png")
	require.ErrorIs(t, err, ErrNotFound)

	ma.EXPECT().ConfirmUpload(gomock.Any(), subject, "attachments/post/42/k.png", "a.png").
		Return(&models.Attachment{ID: "k", Kind: models.AttachmentImage, Name: "a.png"}, nil)
	att, err := s.ConfirmAttachment(ctx, subject, "attachments/post/42/k.png", "a.png")
	require.NoError(t, err)
	require.Equal(t, models.AttachmentImage, att.Kind)
}
