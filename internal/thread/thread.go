// Package thread — in-memory хранилище одной ветки комментариев (пост, видео, вопрос)
// и чистые функции над ней (сортировка, подсчёт).
//
// Модель: список корневых комментариев, у каждого — не более одного уровня ответов
// во встроенном срезе Replies. Любая мутация — immutable replace: создаётся новый
// срез верхнего уровня (и новый срез ответов у затронутого корня), старые снимки,
// выданные через Comments, не меняются.
//
// Thread не потокобезопасен: владелец (storage-адаптер) обязан сериализовать доступ.
package thread

import (
	"errors"
	"strings"

	"github.com/pribylovaa/exivox-comments/internal/models"
)

var (
	// ErrNotFound — комментарий с таким id отсутствует в ветке.
	ErrNotFound = errors.New("comment not found")
	// ErrParentNotFound — parent_id не совпал ни с одним корневым комментарием.
	ErrParentNotFound = errors.New("parent not found")
	// ErrNestedReply — parent_id указывает на ответ; хранится только один уровень.
	ErrNestedReply = errors.New("reply to a reply is not supported")
	// ErrDuplicateID — комментарий с таким id уже есть в ветке.
	ErrDuplicateID = errors.New("duplicate comment id")
	// ErrEmptyID — у добавляемого комментария не задан id.
	ErrEmptyID = errors.New("empty comment id")
)

// Thread — ветка комментариев одной сущности.
type Thread struct {
	comments []models.Comment
}

// New создаёт ветку из начального списка (список копируется).
func New(initial []models.Comment) *Thread {
	return &Thread{comments: models.CloneList(initial)}
}

// Comments возвращает снимок текущего состояния (глубокая копия).
func (t *Thread) Comments() []models.Comment {
	out := models.CloneList(t.comments)
	if out == nil {
		out = []models.Comment{}
	}

	return out
}

// Len — общее число комментариев (корни + ответы).
func (t *Thread) Len() int {
	return CountAll(t.comments)
}

// Find ищет комментарий по id на верхнем уровне и на одном уровне ответов.
func (t *Thread) Find(id string) (models.Comment, bool) {
	top, reply := t.locate(id)
	switch {
	case top < 0:
		return models.Comment{}, false
	case reply < 0:
		return t.comments[top].Clone(), true
	default:
		return t.comments[top].Replies[reply].Clone(), true
	}
}

// Add добавляет комментарий.
//   - без ParentID — в голову списка (newest-first по построению, независимо от сортировки);
//   - с ParentID — в конец Replies соответствующего корня.
//
// Ошибки: ErrEmptyID, ErrDuplicateID, ErrParentNotFound, ErrNestedReply.
func (t *Thread) Add(c models.Comment) error {
	c = c.Clone()
	c.ID = strings.TrimSpace(c.ID)
	c.ParentID = strings.TrimSpace(c.ParentID)

	if c.ID == "" {
		return ErrEmptyID
	}

	if top, _ := t.locate(c.ID); top >= 0 {
		return ErrDuplicateID
	}

	// Хранится ровно один уровень: у нового комментария своих ответов нет.
	c.Replies = nil

	if c.ParentID == "" {
		next := make([]models.Comment, 0, len(t.comments)+1)
		next = append(next, c)
		next = append(next, t.comments...)
		t.comments = next

		return nil
	}

	top, reply := t.locate(c.ParentID)
	switch {
	case top < 0:
		return ErrParentNotFound
	case reply >= 0:
		return ErrNestedReply
	}

	parent := t.comments[top]
	replies := make([]models.Comment, 0, len(parent.Replies)+1)
	replies = append(replies, parent.Replies...)
	replies = append(replies, c)
	parent.Replies = replies

	t.replaceTop(top, parent)

	return nil
}

// ToggleStar переключает IsStarred и двигает Stars ровно на ±1.
// Соседние и родительские комментарии не затрагиваются.
func (t *Thread) ToggleStar(id string) (models.Comment, error) {
	return t.update(id, func(c *models.Comment) {
		if c.IsStarred {
			c.IsStarred = false
			if c.Stars > 0 {
				c.Stars--
			}

			return
		}

		c.IsStarred = true
		c.Stars++
	})
}

// Flag помечает комментарий как отмеченный пользователем.
// Причина сохраняется, только если модерация ещё не указала свою.
func (t *Thread) Flag(id, reason string) (models.Comment, error) {
	reason = strings.TrimSpace(reason)

	return t.update(id, func(c *models.Comment) {
		c.IsFlagged = true
		if c.ModerationReason == "" {
			c.ModerationReason = reason
		}
	})
}

// SetModeration записывает решение внешнего модератора. Контент не скрывается.
func (t *Thread) SetModeration(id string, status models.ModerationStatus, reason string) (models.Comment, error) {
	reason = strings.TrimSpace(reason)

	return t.update(id, func(c *models.Comment) {
		c.ModerationStatus = status
		c.ModerationReason = reason
	})
}

// update применяет fn к копии найденного комментария и подменяет его в ветке.
func (t *Thread) update(id string, fn func(c *models.Comment)) (models.Comment, error) {
	top, reply := t.locate(strings.TrimSpace(id))
	if top < 0 {
		return models.Comment{}, ErrNotFound
	}

	root := t.comments[top]

	if reply < 0 {
		fn(&root)
		t.replaceTop(top, root)

		return root.Clone(), nil
	}

	replies := make([]models.Comment, len(root.Replies))
	copy(replies, root.Replies)
	fn(&replies[reply])
	root.Replies = replies

	t.replaceTop(top, root)

	return replies[reply].Clone(), nil
}

// replaceTop заменяет корень с индексом i в новом срезе верхнего уровня.
func (t *Thread) replaceTop(i int, c models.Comment) {
	next := make([]models.Comment, len(t.comments))
	copy(next, t.comments)
	next[i] = c
	t.comments = next
}

// locate возвращает индекс корня и индекс ответа (или -1, если это сам корень).
// top == -1 — не найдено.
func (t *Thread) locate(id string) (top, reply int) {
	if id == "" {
		return -1, -1
	}

	for i := range t.comments {
		if t.comments[i].ID == id {
			return i, -1
		}

		for j := range t.comments[i].Replies {
			if t.comments[i].Replies[j].ID == id {
				return i, j
			}
		}
	}

	return -1, -1
}
