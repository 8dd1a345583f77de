package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/pribylovaa/exivox-comments/internal/errors"
	"github.com/pribylovaa/exivox-comments/internal/models"
	"github.com/pribylovaa/exivox-comments/internal/render"
	"github.com/pribylovaa/exivox-comments/internal/service"
)

// maxBodyBytes — лимит тела JSON-запроса (вложения загружаются в S3 напрямую).
const maxBodyBytes = 64 << 10

// Options — параметры представления.
type Options struct {
	// MaxDepth — глубина, с которой ответ уже не предлагается.
	MaxDepth int
	// Now — часы для меток возраста (тесты).
	Now func() time.Time
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	svc      *service.Service
	renderer *render.Renderer
	validate *validator.Validate
}

func New(svc *service.Service, opts Options) *Handlers {
	return &Handlers{
		svc:      svc,
		renderer: render.New(render.Options{MaxDepth: opts.MaxDepth, Now: opts.Now}),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля,
// затем проверяем теги validate.
func (h *Handlers) decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("%w: %w", apierrors.ErrBadRequest, err)
	}

	return h.validate.Struct(value)
}

// decodeOptional — как decodeStrict, но пустое тело означает запрос с нулевыми полями.
func (h *Handlers) decodeOptional(w http.ResponseWriter, r *http.Request, value any) error {
	err := h.decodeStrict(w, r, value)
	if errors.Is(err, io.EOF) {
		return h.validate.Struct(value)
	}

	return err
}

// subjectKey собирает ключ ветки из {type}/{id} маршрута.
func subjectKey(r *http.Request) string {
	typ := strings.ToLower(chi.URLParam(r, "type"))
	return models.SubjectKey(models.SubjectType(typ), chi.URLParam(r, "id"))
}

// nodeFor рендерит один комментарий: корни на глубине 0, ответы на 1.
func (h *Handlers) nodeFor(c *models.Comment) render.Node {
	depth := 0
	if c.IsReply() {
		depth = 1
	}

	return h.renderer.Node(*c, depth, render.ViewState{})
}

// idSet разбирает список id через запятую (?hide_replies=1,3).
func idSet(v string) map[string]bool {
	if v == "" {
		return nil
	}

	out := make(map[string]bool)
	for _, id := range strings.Split(v, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out[id] = true
		}
	}

	return out
}
