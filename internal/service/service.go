// service содержит бизнес-логику сервиса комментариев.
package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pribylovaa/exivox-comments/internal/cache"
	"github.com/pribylovaa/exivox-comments/internal/config"
	"github.com/pribylovaa/exivox-comments/internal/form"
	"github.com/pribylovaa/exivox-comments/internal/loader"
	"github.com/pribylovaa/exivox-comments/internal/storage"
)

var (
	// ErrNotFound — комментарий (или вложение) отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrConflict — конфликт уникальности или параллельной записи.
	ErrConflict = errors.New("conflict")
	// ErrParentNotFound — родитель не найден.
	ErrParentNotFound = errors.New("parent not found")
	// ErrMaxDepthExceeded — ответ на ответ не поддерживается.
	ErrMaxDepthExceeded = errors.New("max depth exceeded")
	// ErrInvalidArgument — неверные входные параметры запроса к сервису.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnavailable — опциональная зависимость (blob-хранилище) не сконфигурирована.
	ErrUnavailable = errors.New("unavailable")
	// ErrInternal — внутренняя ошибка (стораж/БД/контекст/и т.д.).
	ErrInternal = errors.New("internal")
)

const defaultCountTTL = time.Minute

// Service — бизнес-логика веток комментариев.
type Service struct {
	storage     storage.Storage
	attachments storage.Attachments
	counts      cache.CountCache
	loader      loader.Loader
	cfg         config.Config
	now         func() time.Time

	seeded sync.Map
	// countGens — поколение счётчика ветки (key -> *atomic.Uint64), растёт при каждой инвалидации.
	countGens sync.Map
}

// Option — опциональные зависимости сервиса.
type Option func(*Service)

// WithAttachments подключает blob-хранилище вложений.
func WithAttachments(a storage.Attachments) Option {
	return func(s *Service) { s.attachments = a }
}

// WithCountCache подключает кэш счётчиков.
func WithCountCache(c cache.CountCache) Option {
	return func(s *Service) { s.counts = c }
}

// WithLoader задаёт источник начальных данных (используется при cfg.Storage.Seed).
func WithLoader(l loader.Loader) Option {
	return func(s *Service) { s.loader = l }
}

// WithClock подменяет часы (тесты).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New создает новый экземпляр Service.
func New(storage storage.Storage, cfg config.Config, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		cfg:     cfg,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FormOptions — правила формы, действующие в сервисе.
func (s *Service) FormOptions() form.Options {
	return form.Options{
		MaxLength:          s.cfg.Limits.MaxContentLength,
		MaxAttachments:     s.cfg.Limits.MaxAttachments,
		MaxAttachmentBytes: s.cfg.Limits.MaxAttachmentBytes,
	}.WithDefaults()
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}

	return time.Now().UTC()
}

func (s *Service) countTTL() time.Duration {
	if s.cfg.Redis.TTL > 0 {
		return s.cfg.Redis.TTL
	}

	return defaultCountTTL
}

// countGen — поколение счётчика ветки.
func (s *Service) countGen(key string) *atomic.Uint64 {
	v, _ := s.countGens.LoadOrStore(key, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}
