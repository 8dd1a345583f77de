package log

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Тесты pkg/log.
// Важно: тесты меняют slog.Default(), поэтому намеренно НЕ используют t.Parallel().

func newSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recHandler — минимальный handler, запоминающий атрибуты последней записи.
type recHandler struct {
	base  []slog.Attr
	attrs map[string]any
}

func (h *recHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+4)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.attrs = out
	return nil
}

func (h *recHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &recHandler{base: append(append([]slog.Attr{}, h.base...), attrs...)}
}

func (h *recHandler) WithGroup(string) slog.Handler { return h }

func TestFrom_ReturnsDefault_WhenNoLoggerInContext(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	def := newSilent()
	slog.SetDefault(def)

	require.Equal(t, def, From(context.Background()))
}

func TestIntoAndFrom_RoundTrip(t *testing.T) {
	l := newSilent()
	ctx := Into(context.Background(), l)

	require.Equal(t, l, From(ctx))
}

// Мусор по нашему ключу и *slog.Logger(nil) не ломают From.
func TestFrom_WrongTypeOrNil(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })
	def := newSilent()
	slog.SetDefault(def)

	ctxWrong := context.WithValue(context.Background(), ctxKey{}, "not-a-logger")
	require.Equal(t, def, From(ctxWrong))

	var nilLogger *slog.Logger
	ctxNil := context.WithValue(context.Background(), ctxKey{}, nilLogger)
	require.Equal(t, def, From(ctxNil))
}

// With добавляет атрибуты в дочерний контекст и не трогает родительский.
func TestWith_EnrichesChildOnly(t *testing.T) {
	h := &recHandler{}
	parent := Into(context.Background(), slog.New(h))

	child, l := With(parent, "user_id", "u-1")
	l.Info("hello")
	require.Equal(t, "u-1", h.attrsOf(t, child)["user_id"])

	From(parent).Info("parent")
	_, ok := From(parent).Handler().(*recHandler).attrs["user_id"]
	require.False(t, ok)
}

func (h *recHandler) attrsOf(t *testing.T, ctx context.Context) map[string]any {
	t.Helper()
	rh, ok := From(ctx).Handler().(*recHandler)
	require.True(t, ok)
	return rh.attrs
}

// Into не меняет отмену/дедлайн и чужие значения контекста.
func TestInto_PreservesDeadlineAndValues(t *testing.T) {
	type otherKey struct{}

	base, cancel := context.WithTimeout(context.WithValue(context.Background(), otherKey{}, 42), time.Second)
	defer cancel()

	ctx := Into(base, newSilent())

	dl1, ok1 := base.Deadline()
	dl2, ok2 := ctx.Deadline()
	require.Equal(t, ok1, ok2)
	require.Equal(t, dl1, dl2)
	require.Equal(t, 42, ctx.Value(otherKey{}))

	cancel()
	<-ctx.Done()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
