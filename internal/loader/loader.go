// Package loader — источник начальных данных ветки комментариев.
//
// Ветка не знает, откуда берутся данные: это внедряемый Loader. В комплекте —
// демонстрационный набор (Seed), обёртка с искусственной задержкой (Delayed)
// и асинхронный запуск загрузки, результат которой отбрасывается, если
// вызывающая сторона уже ушла (Go).
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/pribylovaa/exivox-comments/internal/models"
)

// Loader загружает начальный список комментариев для ветки subjectKey.
type Loader interface {
	Load(ctx context.Context, subjectKey string) ([]models.Comment, error)
}

// Func — адаптер обычной функции к Loader.
type Func func(ctx context.Context, subjectKey string) ([]models.Comment, error)

func (f Func) Load(ctx context.Context, subjectKey string) ([]models.Comment, error) {
	return f(ctx, subjectKey)
}

// DefaultDelay — задержка демонстрационной загрузки.
const DefaultDelay = time.Second

// Delayed отдаёт данные Source не раньше, чем через Delay.
// Отмена контекста прерывает ожидание.
type Delayed struct {
	Source Loader
	Delay  time.Duration
	// After — таймер (по умолчанию time.After); подменяется в тестах.
	After func(time.Duration) <-chan time.Time
}

func (d Delayed) Load(ctx context.Context, subjectKey string) ([]models.Comment, error) {
	const op = "loader/Delayed.Load"

	after := d.After
	if after == nil {
		after = time.After
	}

	if d.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-after(d.Delay):
		}
	}

	src := d.Source
	if src == nil {
		src = Seed{}
	}

	return src.Load(ctx, subjectKey)
}

// Go запускает загрузку в отдельной горутине и передаёт результат в fn.
// Если ctx завершён к моменту окончания загрузки, результат отбрасывается и
// fn не вызывается. Возвращаемый канал закрывается после завершения горутины.
func Go(ctx context.Context, l Loader, subjectKey string, fn func([]models.Comment, error)) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		list, err := l.Load(ctx, subjectKey)
		if ctx.Err() != nil {
			return
		}

		fn(list, err)
	}()

	return done
}
