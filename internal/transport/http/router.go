package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pribylovaa/exivox-comments/internal/service"
	"github.com/pribylovaa/exivox-comments/internal/transport/http/handlers"
	"github.com/pribylovaa/exivox-comments/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.

	// RateRPS/RateBurst — лимит на пишущие маршруты (на зрителя или IP); RPS <= 0 выключает.
	RateRPS   float64
	RateBurst int

	// MaxDepth — глубина рендера, с которой ответ уже не предлагается.
	MaxDepth int
	Now      func() time.Time

	// Extra — служебные маршруты процесса (/livez, /healthz, /metrics), монтируются на корень.
	Extra map[string]http.Handler
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Viewer(),             // зритель из заголовков шлюза
	)

	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	for path, h := range opts.Extra {
		root.Handle(path, h)
	}

	h := handlers.New(svc, handlers.Options{MaxDepth: opts.MaxDepth, Now: opts.Now})
	limit := middleware.NewRateLimiter(opts.RateRPS, opts.RateBurst).Middleware()

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, limit)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, limit)

	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, limit middleware.Middleware) {
	r.Route("/subjects/{type}/{id}", func(r chi.Router) {
		// чтение
		r.Get("/comments", h.ListComments)
		r.Get("/comments/count", h.CountComments)

		// запись — под лимитом
		r.Group(func(r chi.Router) {
			r.Use(limit)

			r.Post("/comments", h.CreateComment)
			r.Post("/comments/{comment_id}/star", h.ToggleStar)
			r.Post("/comments/{comment_id}/report", h.ReportComment)
			r.Put("/comments/{comment_id}/moderation", h.SetModeration)

			r.Post("/attachments/presign", h.AttachmentPresign)
			r.Post("/attachments/confirm", h.AttachmentConfirm)
		})
	})
}
