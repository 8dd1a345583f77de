package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/exivox-comments/internal/errors"
)

// AttachmentPresign — POST /subjects/{type}/{id}/attachments/presign
func (h *Handlers) AttachmentPresign(w http.ResponseWriter, r *http.Request) {
	var in presignRequest
	if err := h.decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	info, err := h.svc.AttachmentUploadURL(r.Context(), subjectKey(r), in.Name, in.ContentType, in.Size)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, presignResponse{
		UploadURL:       info.UploadURL,
		Key:             info.Key,
		ExpiresIn:       int64(info.Expires.Seconds()),
		RequiredHeaders: info.RequiredHeader,
	})
}

// AttachmentConfirm — POST /subjects/{type}/{id}/attachments/confirm.
// Ответ — готовый элемент attachments для тела CreateComment.
func (h *Handlers) AttachmentConfirm(w http.ResponseWriter, r *http.Request) {
	var in confirmRequest
	if err := h.decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	att, err := h.svc.ConfirmAttachment(r.Context(), subjectKey(r), in.Key, in.Name)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, attachmentDTO{
		URL:         att.URL,
		Name:        att.Name,
		Size:        att.Size,
		ContentType: att.ContentType,
	})
}
