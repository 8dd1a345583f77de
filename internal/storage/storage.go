package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/exivox-comments/internal/models"
)

var (
	// ErrNotFound — комментарий отсутствует в ветке.
	ErrNotFound = errors.New("not found")
	// ErrConflict — конфликт уникальности или параллельной записи.
	ErrConflict = errors.New("conflict")
	// ErrParentNotFound — указан parent_id, но корневой комментарий не найден.
	ErrParentNotFound = errors.New("parent not found")
	// ErrMaxDepthExceeded — ответ на ответ: хранится только один уровень вложенности.
	ErrMaxDepthExceeded = errors.New("max depth exceeded")
)

// Storage описывает операции над ветками комментариев.
// Ветка адресуется ключом сущности ("post:42", см. models.SubjectKey)
// и хранится целиком: корни + один уровень встроенных ответов.
type Storage interface {
	// Thread возвращает корневые комментарии ветки в порядке хранения
	// (новые корни в начале). Несуществующая ветка — пустой список без ошибки.
	Thread(ctx context.Context, subjectKey string) ([]models.Comment, error)

	// AddComment добавляет корневой комментарий (в начало) или ответ (в конец Replies родителя).
	// ID, даты и статус модерации заполняет вызывающая сторона.
	// Возможные ошибки: ErrParentNotFound, ErrMaxDepthExceeded, ErrConflict.
	AddComment(ctx context.Context, subjectKey string, c models.Comment) (*models.Comment, error)

	// ToggleStar переключает отметку и двигает счётчик на ±1. Ошибки: ErrNotFound, ErrConflict.
	ToggleStar(ctx context.Context, subjectKey, id string) (*models.Comment, error)

	// FlagComment помечает комментарий жалобой пользователя. Ошибки: ErrNotFound, ErrConflict.
	FlagComment(ctx context.Context, subjectKey, id, reason string) (*models.Comment, error)

	// SetModeration сохраняет решение модератора. Ошибки: ErrNotFound, ErrConflict.
	SetModeration(ctx context.Context, subjectKey, id string, status models.ModerationStatus, reason string) (*models.Comment, error)

	// SeedThread записывает начальный список, только если ветка пуста.
	// Возвращает true, если запись произошла.
	SeedThread(ctx context.Context, subjectKey string, list []models.Comment) (bool, error)

	// Close закрывает соединения/ресурсы хранилища.
	Close()
}
