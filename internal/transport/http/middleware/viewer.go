package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pribylovaa/exivox-comments/internal/models"
	logctx "github.com/pribylovaa/exivox-comments/pkg/log"
)

// Заголовки, которые проставляет шлюз после аутентификации.
const (
	HeaderUserID      = "X-User-Id"
	HeaderUsername    = "X-Username"
	HeaderDisplayName = "X-Display-Name"
	HeaderAvatarURL   = "X-Avatar-Url"
	HeaderVerified    = "X-User-Verified"
)

type viewerKey struct{}

// Viewer переносит личность зрителя из заголовков шлюза в контекст
// и дополняет логгер полем user_id. Без X-User-Id запрос анонимный.
func Viewer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderUserID))
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			verified, _ := strconv.ParseBool(r.Header.Get(HeaderVerified))
			v := models.Author{
				ID:          id,
				Username:    strings.TrimSpace(r.Header.Get(HeaderUsername)),
				DisplayName: strings.TrimSpace(r.Header.Get(HeaderDisplayName)),
				Avatar:      strings.TrimSpace(r.Header.Get(HeaderAvatarURL)),
				IsVerified:  verified,
			}
			if v.DisplayName == "" {
				v.DisplayName = v.Username
			}

			ctx := context.WithValue(r.Context(), viewerKey{}, v)
			ctx, _ = logctx.With(ctx, slog.String("user_id", id))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ViewerFrom возвращает зрителя, если шлюз его передал.
func ViewerFrom(ctx context.Context) (models.Author, bool) {
	v, ok := ctx.Value(viewerKey{}).(models.Author)
	return v, ok
}
