package service

import (
	"context"
	"log/slog"

	"github.com/pribylovaa/exivox-comments/pkg/log"
)

// ensureSeeded заполняет пустую ветку из loader один раз за жизнь процесса.
// Работает только при cfg.Storage.Seed и подключённом loader. Ошибки загрузки
// логируются и не мешают основной операции.
func (s *Service) ensureSeeded(ctx context.Context, key string) {
	if !s.cfg.Storage.Seed || s.loader == nil {
		return
	}

	if _, done := s.seeded.Load(key); done {
		return
	}

	const op = "service/seed/ensureSeeded"
	lg := log.From(ctx).With("op", op, "subject", key)

	list, err := s.loader.Load(ctx, key)
	if err != nil {
		lg.Warn("seed load failed", slog.String("err", err.Error()))
		return
	}

	written, err := s.storage.SeedThread(ctx, key, list)
	if err != nil {
		lg.Warn("seed write failed", slog.String("err", err.Error()))
		return
	}

	s.seeded.Store(key, struct{}{})

	if written {
		s.invalidateCount(ctx, key)
		lg.Info("thread seeded", "comments", len(list))
	}
}
