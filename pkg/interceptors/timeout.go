// Package interceptors — серверные gRPC-интерсепторы сервиса комментариев:
// логирование с request_id, перехват паник и таймаут запроса.
package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// WithTimeout навешивает таймаут d на контекст запроса, если у клиента нет своего дедлайна.
//
//  1. d <= 0 — handler вызывается с исходным ctx;
//  2. дедлайн уже есть — не трогаем (клиентский короче или длиннее, решает клиент);
//  3. иначе context.WithTimeout(ctx, d) c гарантированным cancel().
//
// По истечении дедлайна сервисный слой получает context.DeadlineExceeded.
func WithTimeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if d <= 0 {
			return handler(ctx, req)
		}

		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}

		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return handler(ctx, req)
	}
}
