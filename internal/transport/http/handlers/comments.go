package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	apierrors "github.com/pribylovaa/exivox-comments/internal/errors"
	"github.com/pribylovaa/exivox-comments/internal/form"
	"github.com/pribylovaa/exivox-comments/internal/metrics"
	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/render"
	"github.com/pribylovaa/exivox-comments/internal/service"
	"github.com/pribylovaa/exivox-comments/internal/transport/http/middleware"
)

// ThreadResponse — отрендеренная ветка.
type ThreadResponse struct {
	Subject  string        `json:"subject"`
	Sort     string        `json:"sort"`
	Total    int           `json:"total"`
	Comments []render.Node `json:"comments"`
}

// ListComments — GET /subjects/{type}/{id}/comments?sort=&hide_replies=&expand=
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	key := subjectKey(r)
	q := r.URL.Query()

	view, err := h.svc.ListComments(r.Context(), service.ListInput{SubjectKey: key, Sort: q.Get("sort")})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	vs := render.ViewState{
		HiddenReplies:      idSet(q.Get("hide_replies")),
		ExpandedModeration: idSet(q.Get("expand")),
	}

	writeJSON(w, http.StatusOK, ThreadResponse{
		Subject:  key,
		Sort:     string(view.Sort),
		Total:    view.Total,
		Comments: h.renderer.Tree(view.Comments, vs),
	})
}

// CreateComment — POST /subjects/{type}/{id}/comments.
// Тело проходит через форму: отклонённые файлы и прочие нарушения
// возвращаются списком в details, ничего не отбрасывается молча.
func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	var in createCommentRequest
	if err := h.decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	viewer, ok := middleware.ViewerFrom(r.Context())
	if !ok && !in.IsAnonymous {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	opts := h.svc.FormOptions()
	opts.ParentID = in.ParentID

	files := make([]models.Attachment, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		files = append(files, models.Attachment{URL: a.URL, Name: a.Name, Size: a.Size, ContentType: a.ContentType})
	}

	f := form.New(opts)
	f.SetContent(in.Content)
	f.SetAnonymous(in.IsAnonymous)

	if rejected := f.Attach(files...); len(rejected) > 0 {
		for _, e := range rejected {
			var ae *form.AttachmentError
			if errors.As(e, &ae) {
				metrics.AttachmentRejected(ae.Reason)
			}
		}

		// Полный список нарушений по исходному набору файлов.
		verr := form.ValidatePayload(models.Payload{
			Content:     in.Content,
			IsAnonymous: in.IsAnonymous,
			Attachments: files,
			ParentID:    in.ParentID,
		}, opts)
		apierrors.WriteError(w, r, fmt.Errorf("%w: %w", service.ErrInvalidArgument, verr))
		return
	}

	var created *models.Comment
	err := f.Submit(r.Context(), func(ctx context.Context, p models.Payload) error {
		c, err := h.svc.CreateComment(ctx, service.CreateCommentInput{
			SubjectKey: subjectKey(r),
			Author:     viewer,
			Payload:    p,
		})
		created = c
		return err
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.nodeFor(created))
}

// CountComments — GET /subjects/{type}/{id}/comments/count
func (h *Handlers) CountComments(w http.ResponseWriter, r *http.Request) {
	key := subjectKey(r)

	n, err := h.svc.CountComments(r.Context(), key)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, countResponse{Subject: key, Count: n})
}

// ToggleStar — POST /subjects/{type}/{id}/comments/{comment_id}/star
func (h *Handlers) ToggleStar(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.ToggleStar(r.Context(), subjectKey(r), chi.URLParam(r, "comment_id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.nodeFor(c))
}

// ReportComment — POST /subjects/{type}/{id}/comments/{comment_id}/report
func (h *Handlers) ReportComment(w http.ResponseWriter, r *http.Request) {
	var in reportRequest
	if err := h.decodeOptional(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	c, err := h.svc.ReportComment(r.Context(), subjectKey(r), chi.URLParam(r, "comment_id"), in.Reason)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.nodeFor(c))
}

// SetModeration — PUT /subjects/{type}/{id}/comments/{comment_id}/moderation
func (h *Handlers) SetModeration(w http.ResponseWriter, r *http.Request) {
	var in moderationRequest
	if err := h.decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	c, err := h.svc.SetModeration(r.Context(), subjectKey(r), chi.URLParam(r, "comment_id"), in.Status, in.Reason)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.nodeFor(c))
}
