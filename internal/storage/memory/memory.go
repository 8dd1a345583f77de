// memory — хранилище веток в памяти процесса (драйвер по умолчанию).
// Каждая ветка — thread.Thread; доступ сериализуется одним RWMutex.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/storage"
	"github.com/pribylovaa/exivox-comments/internal/thread"
)

type Memory struct {
	mu      sync.RWMutex
	threads map[string]*thread.Thread
}

func New() *Memory {
	return &Memory{threads: make(map[string]*thread.Thread)}
}

func (m *Memory) Thread(_ context.Context, subjectKey string) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	th, ok := m.threads[subjectKey]
	if !ok {
		return []models.Comment{}, nil
	}

	return th.Comments(), nil
}

func (m *Memory) AddComment(_ context.Context, subjectKey string, c models.Comment) (*models.Comment, error) {
	const op = "storage/memory/AddComment"

	m.mu.Lock()
	defer m.mu.Unlock()

	th := m.thread(subjectKey)
	if err := th.Add(c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.FromThread(err))
	}

	saved, _ := th.Find(c.ID)

	return &saved, nil
}

func (m *Memory) ToggleStar(_ context.Context, subjectKey, id string) (*models.Comment, error) {
	const op = "storage/memory/ToggleStar"

	return m.mutate(op, subjectKey, func(th *thread.Thread) (models.Comment, error) {
		return th.ToggleStar(id)
	})
}

func (m *Memory) FlagComment(_ context.Context, subjectKey, id, reason string) (*models.Comment, error) {
	const op = "storage/memory/FlagComment"

	return m.mutate(op, subjectKey, func(th *thread.Thread) (models.Comment, error) {
		return th.Flag(id, reason)
	})
}

func (m *Memory) SetModeration(_ context.Context, subjectKey, id string, status models.ModerationStatus, reason string) (*models.Comment, error) {
	const op = "storage/memory/SetModeration"

	return m.mutate(op, subjectKey, func(th *thread.Thread) (models.Comment, error) {
		return th.SetModeration(id, status, reason)
	})
}

func (m *Memory) SeedThread(_ context.Context, subjectKey string, list []models.Comment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if th, ok := m.threads[subjectKey]; ok && th.Len() > 0 {
		return false, nil
	}

	m.threads[subjectKey] = thread.New(list)

	return true, nil
}

func (m *Memory) Close() {}

func (m *Memory) mutate(op, subjectKey string, fn func(th *thread.Thread) (models.Comment, error)) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	th, ok := m.threads[subjectKey]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	c, err := fn(th)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.FromThread(err))
	}

	return &c, nil
}

// thread возвращает ветку, создавая пустую при первом обращении. Вызывается под m.mu.
func (m *Memory) thread(subjectKey string) *thread.Thread {
	th, ok := m.threads[subjectKey]
	if !ok {
		th = thread.New(nil)
		m.threads[subjectKey] = th
	}

	return th
}

var _ storage.Storage = (*Memory)(nil)
