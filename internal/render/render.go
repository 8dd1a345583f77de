// Package render строит представление ветки комментариев: дерево узлов с отступами,
// ограничением глубины для кнопки ответа и плашкой модерации.
//
// Рендер чистый: на вход список комментариев и состояние UI-переключателей,
// на выход — дерево Node. Анонимные комментарии никогда не раскрывают автора.
package render

import (
	"time"

	"github.com/pribylovaa/exivox-comments/internal/models"
)

const (
	DefaultMaxDepth   = 3
	DefaultIndentStep = 1
)

// Options — параметры рендера.
type Options struct {
	// MaxDepth — глубина, начиная с которой ответить уже нельзя.
	MaxDepth int
	// IndentStep — отступ на один уровень вложенности.
	IndentStep int
	// Now — источник текущего времени для меток возраста (по умолчанию time.Now).
	Now func() time.Time
}

// ViewState — переключатели, которые пользователь двигает по конкретным комментариям.
// По умолчанию ответы видны, детали модерации свёрнуты.
type ViewState struct {
	HiddenReplies      map[string]bool
	ExpandedModeration map[string]bool
}

// AuthorView — автор в том виде, в каком его можно показать.
type AuthorView struct {
	ID          string `json:"id,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
	IsVerified  bool   `json:"is_verified,omitempty"`
	IsAnonymous bool   `json:"is_anonymous,omitempty"`
}

// AttachmentView — вложение с подписью размера и бейджем расширения.
type AttachmentView struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	URL       string `json:"url"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	SizeLabel string `json:"size_label"`
	Badge     string `json:"badge,omitempty"`
}

// Banner — плашка модерации. Контент при этом остаётся видимым.
type Banner struct {
	Status   string `json:"status"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Expanded bool   `json:"expanded"`
	// Reason и Reported заполняются только в развёрнутом виде.
	Reason   string `json:"reason,omitempty"`
	Reported bool   `json:"reported,omitempty"`
}

// Node — отрендеренный комментарий.
type Node struct {
	ID            string           `json:"id"`
	ParentID      string           `json:"parent_id,omitempty"`
	Depth         int              `json:"depth"`
	Indent        int              `json:"indent"`
	Author        AuthorView       `json:"author"`
	Content       string           `json:"content"`
	Stars         int              `json:"stars"`
	IsStarred     bool             `json:"is_starred"`
	CreatedAt     time.Time        `json:"created_at"`
	Age           string           `json:"age"`
	Edited        bool             `json:"edited,omitempty"`
	Attachments   []AttachmentView `json:"attachments,omitempty"`
	Moderation    *Banner          `json:"moderation,omitempty"`
	CanReply      bool             `json:"can_reply"`
	ReplyCount    int              `json:"reply_count"`
	RepliesHidden bool             `json:"replies_hidden,omitempty"`
	Replies       []Node           `json:"replies,omitempty"`
}

// Renderer — рендер дерева комментариев.
type Renderer struct {
	opts Options
}

// New создаёт рендер; нулевые опции заменяются дефолтами.
func New(opts Options) *Renderer {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.IndentStep <= 0 {
		opts.IndentStep = DefaultIndentStep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Renderer{opts: opts}
}

// Tree рендерит корневые комментарии на глубине 0, их ответы — тем же
// способом на depth+1. Порядок списка сохраняется как есть.
func (r *Renderer) Tree(list []models.Comment, vs ViewState) []Node {
	now := r.opts.Now()
	out := make([]Node, 0, len(list))

	for i := range list {
		out = append(out, r.node(list[i], 0, now, vs))
	}

	return out
}

// Node рендерит один комментарий на заданной глубине.
func (r *Renderer) Node(c models.Comment, depth int, vs ViewState) Node {
	return r.node(c, depth, r.opts.Now(), vs)
}

func (r *Renderer) node(c models.Comment, depth int, now time.Time, vs ViewState) Node {
	n := Node{
		ID:          c.ID,
		ParentID:    c.ParentID,
		Depth:       depth,
		Indent:      depth * r.opts.IndentStep,
		Author:      authorView(c),
		Content:     c.Content,
		Stars:       c.Stars,
		IsStarred:   c.IsStarred,
		CreatedAt:   c.CreatedAt,
		Age:         AgeLabel(now.Sub(c.CreatedAt)),
		Edited:      c.IsEdited,
		Attachments: attachmentViews(c.Attachments),
		Moderation:  banner(c, vs.ExpandedModeration[c.ID]),
		CanReply:    depth < r.opts.MaxDepth,
		ReplyCount:  len(c.Replies),
	}

	if len(c.Replies) == 0 {
		return n
	}

	if vs.HiddenReplies[c.ID] {
		n.RepliesHidden = true
		return n
	}

	n.Replies = make([]Node, 0, len(c.Replies))
	for i := range c.Replies {
		n.Replies = append(n.Replies, r.node(c.Replies[i], depth+1, now, vs))
	}

	return n
}

// authorView — для анонимного комментария наружу уходит только "Anonymous".
func authorView(c models.Comment) AuthorView {
	if c.IsAnonymous {
		return AuthorView{
			DisplayName: models.AnonymousAuthor.DisplayName,
			IsAnonymous: true,
		}
	}

	a := c.Author
	name := a.DisplayName
	if name == "" {
		name = a.Username
	}

	return AuthorView{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: name,
		Avatar:      a.Avatar,
		IsVerified:  a.IsVerified,
	}
}

func attachmentViews(atts []models.Attachment) []AttachmentView {
	if len(atts) == 0 {
		return nil
	}

	out := make([]AttachmentView, 0, len(atts))
	for _, a := range atts {
		kind := a.Kind
		if kind == "" {
			kind = models.KindOf(a.ContentType)
		}

		v := AttachmentView{
			ID:        a.ID,
			Kind:      string(kind),
			URL:       a.URL,
			Name:      a.Name,
			Size:      a.Size,
			SizeLabel: SizeLabel(a.Size),
		}
		if kind != models.AttachmentImage {
			v.Badge = ExtBadge(a.Name)
		}

		out = append(out, v)
	}

	return out
}
