package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/exivox-comments/pkg/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// Ключи входящего metadata.
const (
	MDRequestID = "x-request-id"
	MDUserID    = "x-user-id"
)

// UnaryLoggingInterceptor логирует unary-вызовы и прокладывает логгер в context.
//
// Поведение:
//   - request_id берётся из x-request-id, иначе генерируется UUID;
//   - user_id (x-user-id от шлюза) добавляется, если передан;
//   - peer: IP:port клиента или "-";
//   - обогащённый *slog.Logger кладётся в context (pkg/log);
//   - итоговая запись msg="grpc" с code и dur. Коды Internal/Unknown/DataLoss
//     пишутся уровнем Error, остальные Info.
func UnaryLoggingInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		rid := firstMD(ctx, MDRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}

		peerStr := "-"
		if p, ok := peer.FromContext(ctx); ok && p != nil && p.Addr != nil {
			peerStr = p.Addr.String()
		}

		attrs := []any{
			slog.String("request_id", rid),
			slog.String("method", info.FullMethod),
			slog.String("peer", peerStr),
		}
		if uid := firstMD(ctx, MDUserID); uid != "" {
			attrs = append(attrs, slog.String("user_id", uid))
		}

		l := base.With(attrs...)
		ctx = log.Into(ctx, l)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		level := slog.LevelInfo
		switch code {
		case codes.Internal, codes.Unknown, codes.DataLoss:
			level = slog.LevelError
		}

		l.Log(ctx, level, "grpc",
			slog.String("code", code.String()),
			slog.Duration("dur", time.Since(start)),
		)

		return resp, err
	}
}

func firstMD(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}

	return ""
}
