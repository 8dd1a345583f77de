package mongo

import (
	"time"

	"github.com/pribylovaa/exivox-comments/internal/models"
)

// threadDoc — документ ветки.
type threadDoc struct {
	Key         string       `bson:"_id"`
	SubjectType string       `bson:"subject_type"`
	SubjectID   string       `bson:"subject_id"`
	Version     int64        `bson:"version"`
	Comments    []commentDoc `bson:"comments"`
	CreatedAt   time.Time    `bson:"created_at"`
	UpdatedAt   time.Time    `bson:"updated_at"`
}

type authorDoc struct {
	ID          string `bson:"id"`
	Username    string `bson:"username"`
	DisplayName string `bson:"display_name"`
	Avatar      string `bson:"avatar,omitempty"`
	IsVerified  bool   `bson:"is_verified"`
}

type attachmentDoc struct {
	ID          string `bson:"id"`
	Kind        string `bson:"kind"`
	URL         string `bson:"url"`
	Name        string `bson:"name"`
	Size        int64  `bson:"size"`
	ContentType string `bson:"content_type"`
}

type commentDoc struct {
	ID               string          `bson:"id"`
	ParentID         string          `bson:"parent_id,omitempty"`
	Author           authorDoc       `bson:"author"`
	IsAnonymous      bool            `bson:"is_anonymous"`
	Content          string          `bson:"content"`
	Stars            int             `bson:"stars"`
	IsStarred        bool            `bson:"is_starred"`
	Attachments      []attachmentDoc `bson:"attachments,omitempty"`
	CreatedAt        time.Time       `bson:"created_at"`
	UpdatedAt        time.Time       `bson:"updated_at"`
	IsEdited         bool            `bson:"is_edited"`
	IsFlagged        bool            `bson:"is_flagged"`
	ModerationStatus string          `bson:"moderation_status"`
	ModerationReason string          `bson:"moderation_reason,omitempty"`
	Replies          []commentDoc    `bson:"replies,omitempty"`
}

// MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func toDocs(list []models.Comment) []commentDoc {
	out := make([]commentDoc, 0, len(list))
	for i := range list {
		out = append(out, toDoc(list[i]))
	}

	return out
}

func toDoc(c models.Comment) commentDoc {
	d := commentDoc{
		ID:       c.ID,
		ParentID: c.ParentID,
		Author: authorDoc{
			ID:          c.Author.ID,
			Username:    c.Author.Username,
			DisplayName: c.Author.DisplayName,
			Avatar:      c.Author.Avatar,
			IsVerified:  c.Author.IsVerified,
		},
		IsAnonymous:      c.IsAnonymous,
		Content:          c.Content,
		Stars:            c.Stars,
		IsStarred:        c.IsStarred,
		CreatedAt:        toMS(c.CreatedAt),
		UpdatedAt:        toMS(c.UpdatedAt),
		IsEdited:         c.IsEdited,
		IsFlagged:        c.IsFlagged,
		ModerationStatus: string(c.ModerationStatus),
		ModerationReason: c.ModerationReason,
	}

	for _, a := range c.Attachments {
		d.Attachments = append(d.Attachments, attachmentDoc{
			ID:          a.ID,
			Kind:        string(a.Kind),
			URL:         a.URL,
			Name:        a.Name,
			Size:        a.Size,
			ContentType: a.ContentType,
		})
	}

	if len(c.Replies) > 0 {
		d.Replies = toDocs(c.Replies)
	}

	return d
}

func fromDocs(subjectKey string, docs []commentDoc) []models.Comment {
	out := make([]models.Comment, 0, len(docs))
	for i := range docs {
		out = append(out, fromDoc(subjectKey, docs[i]))
	}

	return out
}

func fromDoc(subjectKey string, d commentDoc) models.Comment {
	c := models.Comment{
		ID:        d.ID,
		ParentID:  d.ParentID,
		SubjectID: subjectKey,
		Author: models.Author{
			ID:          d.Author.ID,
			Username:    d.Author.Username,
			DisplayName: d.Author.DisplayName,
			Avatar:      d.Author.Avatar,
			IsVerified:  d.Author.IsVerified,
		},
		IsAnonymous:      d.IsAnonymous,
		Content:          d.Content,
		Stars:            d.Stars,
		IsStarred:        d.IsStarred,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
		IsEdited:         d.IsEdited,
		IsFlagged:        d.IsFlagged,
		ModerationStatus: models.ModerationStatus(d.ModerationStatus),
		ModerationReason: d.ModerationReason,
	}

	for _, a := range d.Attachments {
		c.Attachments = append(c.Attachments, models.Attachment{
			ID:          a.ID,
			Kind:        models.AttachmentKind(a.Kind),
			URL:         a.URL,
			Name:        a.Name,
			Size:        a.Size,
			ContentType: a.ContentType,
		})
	}

	if len(d.Replies) > 0 {
		c.Replies = fromDocs(subjectKey, d.Replies)
	}

	return c
}
