// Package models содержит доменные сущности сервиса комментариев.
package models

import (
	"fmt"
	"strings"
	"time"
)

// ModerationStatus — описательный статус модерации (без enforcement-логики).
type ModerationStatus string

const (
	ModerationApproved ModerationStatus = "approved"
	ModerationPending  ModerationStatus = "pending"
	ModerationRejected ModerationStatus = "rejected"
	ModerationWarning  ModerationStatus = "warning"
)

// Valid сообщает, входит ли статус в допустимый набор.
func (s ModerationStatus) Valid() bool {
	switch s {
	case ModerationApproved, ModerationPending, ModerationRejected, ModerationWarning:
		return true
	default:
		return false
	}
}

// AttachmentKind — вид вложения.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentFile  AttachmentKind = "file"
)

// KindOf выводит вид вложения по MIME-типу: image/* -> image, иначе file.
func KindOf(contentType string) AttachmentKind {
	if strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return AttachmentImage
	}

	return AttachmentFile
}

// Author — публичные данные автора комментария.
type Author struct {
	ID          string
	Username    string
	DisplayName string
	Avatar      string
	IsVerified  bool
}

// AnonymousAuthor — сентинел, который хранится вместо реального автора,
// если комментарий отправлен анонимно.
var AnonymousAuthor = Author{
	ID:          "anonymous",
	Username:    "anonymous",
	DisplayName: "Anonymous",
}

// Attachment — дескриптор вложения (сам файл лежит во внешнем blob-хранилище).
type Attachment struct {
	ID          string
	Kind        AttachmentKind
	URL         string
	Name        string
	Size        int64
	ContentType string
}

// Comment — комментарий или ответ.
// Важно:
//   - ParentID пуст у корневых комментариев; у ответов указывает на корень;
//   - хранится только один уровень вложенности (Replies у ответов всегда пуст);
//   - Stars/IsStarred меняются только парой (ровно ±1);
//   - поля модерации чисто описательные: флаг не скрывает контент.
type Comment struct {
	ID               string
	ParentID         string
	SubjectID        string
	Author           Author
	IsAnonymous      bool
	Content          string
	Stars            int
	IsStarred        bool
	Attachments      []Attachment
	CreatedAt        time.Time
	UpdatedAt        time.Time
	IsEdited         bool
	IsFlagged        bool
	ModerationStatus ModerationStatus
	ModerationReason string
	Replies          []Comment
}

// IsReply сообщает, является ли комментарий ответом.
func (c Comment) IsReply() bool {
	return c.ParentID != ""
}

// Clone возвращает глубокую копию комментария: срезы вложений и ответов
// не разделяются с оригиналом.
func (c Comment) Clone() Comment {
	out := c

	if c.Attachments != nil {
		out.Attachments = make([]Attachment, len(c.Attachments))
		copy(out.Attachments, c.Attachments)
	}

	if c.Replies != nil {
		out.Replies = make([]Comment, len(c.Replies))
		for i := range c.Replies {
			out.Replies[i] = c.Replies[i].Clone()
		}
	}

	return out
}

// CloneList — глубокая копия списка комментариев.
func CloneList(list []Comment) []Comment {
	if list == nil {
		return nil
	}

	out := make([]Comment, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}

	return out
}

// Payload — то, что форма отправляет наверх при сабмите.
type Payload struct {
	Content     string
	IsAnonymous bool
	Attachments []Attachment
	ParentID    string
}

// SortMode — режим сортировки корневых комментариев.
type SortMode string

const (
	SortNewest  SortMode = "newest"
	SortOldest  SortMode = "oldest"
	SortPopular SortMode = "popular"
)

// ParseSortMode разбирает режим сортировки. Пустая строка — newest.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	case SortPopular:
		return SortPopular, nil
	default:
		return "", fmt.Errorf("unknown sort mode %q", s)
	}
}

// SubjectType — вид сущности, к которой относится ветка комментариев.
type SubjectType string

const (
	SubjectPost     SubjectType = "post"
	SubjectVideo    SubjectType = "video"
	SubjectQuestion SubjectType = "qa"
)

// Valid сообщает, поддерживается ли вид сущности.
func (t SubjectType) Valid() bool {
	switch t {
	case SubjectPost, SubjectVideo, SubjectQuestion:
		return true
	default:
		return false
	}
}

// SubjectKey — ключ ветки вида "post:42".
func SubjectKey(t SubjectType, id string) string {
	return string(t) + ":" + strings.TrimSpace(id)
}

// ParseSubjectKey разбирает ключ ветки обратно.
func ParseSubjectKey(key string) (SubjectType, string, error) {
	typ, id, ok := strings.Cut(strings.TrimSpace(key), ":")
	if !ok || id == "" || !SubjectType(typ).Valid() {
		return "", "", fmt.Errorf("bad subject key %q", key)
	}

	return SubjectType(typ), id, nil
}
