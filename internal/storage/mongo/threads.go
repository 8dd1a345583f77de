package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/storage"
	"github.com/pribylovaa/exivox-comments/internal/thread"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// errStale — документ изменился между чтением и записью; повторяем попытку.
var errStale = errors.New("stale version")

// load читает документ ветки. Отсутствующая ветка — пустой документ с version=0.
func (m *Mongo) load(ctx context.Context, subjectKey string) (*threadDoc, error) {
	var doc threadDoc

	err := m.threads.FindOne(ctx, bson.D{{Key: "_id", Value: subjectKey}}).Decode(&doc)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return &threadDoc{Key: subjectKey}, nil
	}

	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// save записывает новую версию ветки, если в базе всё ещё prev.Version.
func (m *Mongo) save(ctx context.Context, prev *threadDoc, comments []models.Comment) error {
	now := toMS(time.Now())
	docs := toDocs(comments)

	if prev.Version == 0 {
		typ, id, err := models.ParseSubjectKey(prev.Key)
		if err != nil {
			typ, id = "", prev.Key
		}

		_, err = m.threads.InsertOne(ctx, threadDoc{
			Key:         prev.Key,
			SubjectType: string(typ),
			SubjectID:   id,
			Version:     1,
			Comments:    docs,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if mongodriver.IsDuplicateKeyError(err) {
			return errStale
		}

		return err
	}

	res, err := m.threads.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: prev.Key}, {Key: "version", Value: prev.Version}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "comments", Value: docs},
				{Key: "updated_at", Value: now},
			}},
			{Key: "$inc", Value: bson.D{{Key: "version", Value: 1}}},
		},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return errStale
	}

	return nil
}

// mutate — read-modify-write ветки с оптимистичной блокировкой.
// fn получает thread.Thread, собранный из документа, и меняет его.
// createIfMissing=false: отсутствующая ветка -> storage.ErrNotFound.
func (m *Mongo) mutate(ctx context.Context, op, subjectKey string, createIfMissing bool, fn func(th *thread.Thread) error) (*thread.Thread, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		doc, err := m.load(ctx, subjectKey)
		if err != nil {
			return nil, fmt.Errorf("%s: load: %w", op, err)
		}

		if doc.Version == 0 && !createIfMissing {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		th := thread.New(fromDocs(subjectKey, doc.Comments))
		if err := fn(th); err != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.FromThread(err))
		}

		err = m.save(ctx, doc, th.Comments())
		if errors.Is(err, errStale) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("%s: save: %w", op, err)
		}

		return th, nil
	}

	return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
}

// Thread возвращает корни ветки в порядке хранения.
func (m *Mongo) Thread(ctx context.Context, subjectKey string) ([]models.Comment, error) {
	const op = "storage/mongo/Thread"

	doc, err := m.load(ctx, subjectKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return fromDocs(subjectKey, doc.Comments), nil
}

// AddComment добавляет корень (в начало) или ответ (в конец Replies родителя).
func (m *Mongo) AddComment(ctx context.Context, subjectKey string, c models.Comment) (*models.Comment, error) {
	const op = "storage/mongo/AddComment"

	c.SubjectID = subjectKey
	c.CreatedAt = toMS(c.CreatedAt)
	c.UpdatedAt = toMS(c.UpdatedAt)

	th, err := m.mutate(ctx, op, subjectKey, true, func(th *thread.Thread) error {
		return th.Add(c)
	})
	if err != nil {
		return nil, err
	}

	saved, _ := th.Find(c.ID)

	return &saved, nil
}

func (m *Mongo) ToggleStar(ctx context.Context, subjectKey, id string) (*models.Comment, error) {
	const op = "storage/mongo/ToggleStar"

	return m.update(ctx, op, subjectKey, func(th *thread.Thread) (models.Comment, error) {
		return th.ToggleStar(id)
	})
}

func (m *Mongo) FlagComment(ctx context.Context, subjectKey, id, reason string) (*models.Comment, error) {
	const op = "storage/mongo/FlagComment"

	return m.update(ctx, op, subjectKey, func(th *thread.Thread) (models.Comment, error) {
		return th.Flag(id, reason)
	})
}

func (m *Mongo) SetModeration(ctx context.Context, subjectKey, id string, status models.ModerationStatus, reason string) (*models.Comment, error) {
	const op = "storage/mongo/SetModeration"

	return m.update(ctx, op, subjectKey, func(th *thread.Thread) (models.Comment, error) {
		return th.SetModeration(id, status, reason)
	})
}

// SeedThread пишет список, только если ветки ещё нет или она пуста.
func (m *Mongo) SeedThread(ctx context.Context, subjectKey string, list []models.Comment) (bool, error) {
	const op = "storage/mongo/SeedThread"

	doc, err := m.load(ctx, subjectKey)
	if err != nil {
		return false, fmt.Errorf("%s: load: %w", op, err)
	}

	if len(doc.Comments) > 0 {
		return false, nil
	}

	err = m.save(ctx, doc, list)
	if errors.Is(err, errStale) {
		// Кто-то успел записать раньше — сидировать уже не нужно.
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("%s: save: %w", op, err)
	}

	return true, nil
}

func (m *Mongo) update(ctx context.Context, op, subjectKey string, fn func(th *thread.Thread) (models.Comment, error)) (*models.Comment, error) {
	var out models.Comment

	_, err := m.mutate(ctx, op, subjectKey, false, func(th *thread.Thread) error {
		c, err := fn(th)
		out = c

		return err
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

var _ storage.Storage = (*Mongo)(nil)
