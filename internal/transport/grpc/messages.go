package grpc

import (
	"time"

	"github.com/pribylovaa/exivox-comments/internal/models"
)

// Сообщения контракта exivox.comments.v1. Время передаётся в unix-секундах.

type Author struct {
	ID          string `json:"id,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	IsVerified  bool   `json:"is_verified,omitempty"`
}

type Attachment struct {
	ID          string `json:"id,omitempty"`
	Kind        string `json:"kind,omitempty"`
	URL         string `json:"url"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type Comment struct {
	ID               string        `json:"id"`
	ParentID         string        `json:"parent_id,omitempty"`
	SubjectKey       string        `json:"subject_key"`
	Author           *Author       `json:"author"`
	IsAnonymous      bool          `json:"is_anonymous"`
	Content          string        `json:"content"`
	Stars            int32         `json:"stars"`
	IsStarred        bool          `json:"is_starred"`
	Attachments      []*Attachment `json:"attachments,omitempty"`
	CreatedAt        int64         `json:"created_at"`
	UpdatedAt        int64         `json:"updated_at"`
	IsEdited         bool          `json:"is_edited,omitempty"`
	IsFlagged        bool          `json:"is_flagged,omitempty"`
	ModerationStatus string        `json:"moderation_status"`
	ModerationReason string        `json:"moderation_reason,omitempty"`
	Replies          []*Comment    `json:"replies,omitempty"`
}

type CreateCommentRequest struct {
	SubjectKey  string        `json:"subject_key"`
	Author      *Author       `json:"author,omitempty"`
	Content     string        `json:"content"`
	IsAnonymous bool          `json:"is_anonymous"`
	ParentID    string        `json:"parent_id,omitempty"`
	Attachments []*Attachment `json:"attachments,omitempty"`
}

type CreateCommentResponse struct {
	Comment *Comment `json:"comment"`
}

type ToggleStarRequest struct {
	SubjectKey string `json:"subject_key"`
	CommentID  string `json:"comment_id"`
}

type ToggleStarResponse struct {
	Comment *Comment `json:"comment"`
}

type ListCommentsRequest struct {
	SubjectKey string `json:"subject_key"`
	// Sort: newest | oldest | popular (пусто — newest).
	Sort string `json:"sort,omitempty"`
}

type ListCommentsResponse struct {
	Comments []*Comment `json:"comments"`
	Sort     string     `json:"sort"`
	Total    int32      `json:"total"`
}

type CountCommentsRequest struct {
	SubjectKey string `json:"subject_key"`
}

type CountCommentsResponse struct {
	Count int32 `json:"count"`
}

type ReportCommentRequest struct {
	SubjectKey string `json:"subject_key"`
	CommentID  string `json:"comment_id"`
	Reason     string `json:"reason,omitempty"`
}

type ReportCommentResponse struct {
	Comment *Comment `json:"comment"`
}

type SetModerationRequest struct {
	SubjectKey string `json:"subject_key"`
	CommentID  string `json:"comment_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

type SetModerationResponse struct {
	Comment *Comment `json:"comment"`
}

// toWireComment — доменная модель -> сообщение (рекурсивно по ответам).
func toWireComment(c models.Comment) *Comment {
	out := &Comment{
		ID:          c.ID,
		ParentID:    c.ParentID,
		SubjectKey:  c.SubjectID,
		Author:      wireAuthorOf(c),
		IsAnonymous: c.IsAnonymous,
		Content:     c.Content,
		Stars:       int32(c.Stars),
		IsStarred:   c.IsStarred,
		CreatedAt:   c.CreatedAt.UTC().Unix(),
		UpdatedAt:   c.UpdatedAt.UTC().Unix(),
		IsEdited:    c.IsEdited,
		IsFlagged:   c.IsFlagged,

		ModerationStatus: string(c.ModerationStatus),
		ModerationReason: c.ModerationReason,
	}

	for _, a := range c.Attachments {
		out.Attachments = append(out.Attachments, &Attachment{
			ID:          a.ID,
			Kind:        string(a.Kind),
			URL:         a.URL,
			Name:        a.Name,
			Size:        a.Size,
			ContentType: a.ContentType,
		})
	}

	for _, r := range c.Replies {
		out.Replies = append(out.Replies, toWireComment(r))
	}

	return out
}

// wireAuthorOf — автор анонимного комментария не покидает сервис,
// что бы ни лежало в хранилище.
func wireAuthorOf(c models.Comment) *Author {
	if c.IsAnonymous {
		return &Author{DisplayName: models.AnonymousAuthor.DisplayName}
	}

	return toWireAuthor(c.Author)
}

func toWireAuthor(a models.Author) *Author {
	return &Author{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		Avatar:      a.Avatar,
		IsVerified:  a.IsVerified,
	}
}

func toWireList(list []models.Comment) []*Comment {
	out := make([]*Comment, 0, len(list))
	for _, c := range list {
		out = append(out, toWireComment(c))
	}

	return out
}

// ToModel — сообщение -> доменная модель (клиентская сторона, рендеринг в CLI).
func ToModel(c *Comment) models.Comment {
	if c == nil {
		return models.Comment{}
	}

	out := models.Comment{
		ID:               c.ID,
		ParentID:         c.ParentID,
		SubjectID:        c.SubjectKey,
		IsAnonymous:      c.IsAnonymous,
		Content:          c.Content,
		Stars:            int(c.Stars),
		IsStarred:        c.IsStarred,
		CreatedAt:        time.Unix(c.CreatedAt, 0).UTC(),
		UpdatedAt:        time.Unix(c.UpdatedAt, 0).UTC(),
		IsEdited:         c.IsEdited,
		IsFlagged:        c.IsFlagged,
		ModerationStatus: models.ModerationStatus(c.ModerationStatus),
		ModerationReason: c.ModerationReason,
	}

	if c.Author != nil {
		out.Author = models.Author{
			ID:          c.Author.ID,
			Username:    c.Author.Username,
			DisplayName: c.Author.DisplayName,
			Avatar:      c.Author.Avatar,
			IsVerified:  c.Author.IsVerified,
		}
	}

	out.Attachments = toModelAttachments(c.Attachments)

	for _, r := range c.Replies {
		out.Replies = append(out.Replies, ToModel(r))
	}

	return out
}

// ToModelList — список сообщений -> доменные модели.
func ToModelList(list []*Comment) []models.Comment {
	out := make([]models.Comment, 0, len(list))
	for _, c := range list {
		out = append(out, ToModel(c))
	}

	return out
}

func toModelAttachments(in []*Attachment) []models.Attachment {
	if len(in) == 0 {
		return nil
	}

	out := make([]models.Attachment, 0, len(in))
	for _, a := range in {
		if a == nil {
			continue
		}
		out = append(out, models.Attachment{
			ID:          a.ID,
			Kind:        models.AttachmentKind(a.Kind),
			URL:         a.URL,
			Name:        a.Name,
			Size:        a.Size,
			ContentType: a.ContentType,
		})
	}

	return out
}

// FromModelAttachments — вложения формы -> сообщение (клиентская сторона).
func FromModelAttachments(in []models.Attachment) []*Attachment {
	out := make([]*Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, &Attachment{
			ID:          a.ID,
			Kind:        string(a.Kind),
			URL:         a.URL,
			Name:        a.Name,
			Size:        a.Size,
			ContentType: a.ContentType,
		})
	}

	return out
}
