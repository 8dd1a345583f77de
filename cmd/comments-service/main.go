package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/exivox-comments/pkg/interceptors"

	"github.com/pribylovaa/exivox-comments/internal/cache"
	"github.com/pribylovaa/exivox-comments/internal/config"
	"github.com/pribylovaa/exivox-comments/internal/loader"
	"github.com/pribylovaa/exivox-comments/internal/service"
	"github.com/pribylovaa/exivox-comments/internal/storage"
	"github.com/pribylovaa/exivox-comments/internal/storage/memory"
	csminio "github.com/pribylovaa/exivox-comments/internal/storage/minio"
	csmongo "github.com/pribylovaa/exivox-comments/internal/storage/mongo"
	commentsgrpc "github.com/pribylovaa/exivox-comments/internal/transport/grpc"
	commentshttp "github.com/pribylovaa/exivox-comments/internal/transport/http"

	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Константы окружения (как в users-service)
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting comments-service", "env", cfg.Env, "storage", cfg.Storage.Driver)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	store, ping, err := openStorage(rootCtx, cfg)
	if err != nil {
		log.Error("storage_open_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}
	log.Info("storage_ready", "driver", cfg.Storage.Driver)

	opts := []service.Option{
		service.WithLoader(loader.Delayed{Source: loader.Seed{}, Delay: cfg.Loader.Delay}),
	}

	var counts cache.CountCache
	if cfg.Redis.URL != "" {
		counts, err = cache.NewRedisCache(cfg.Redis.URL, "exivox:comments:count:")
		if err != nil {
			log.Error("redis_connect_failed", slog.String("err", err.Error()))
			rootCancel()
			store.Close()
			os.Exit(1)
		}
		opts = append(opts, service.WithCountCache(counts))
		log.Info("redis_connected")
	}

	if cfg.S3.Enabled() {
		s3Ctx, s3Cancel := context.WithTimeout(rootCtx, 10*time.Second)
		atts, err := csminio.New(s3Ctx, cfg)
		s3Cancel()
		if err != nil {
			log.Error("s3_connect_failed", slog.String("err", err.Error()))
			rootCancel()
			store.Close()
			os.Exit(1)
		}
		opts = append(opts, service.WithAttachments(atts))
		log.Info("s3_connected", "bucket", cfg.S3.Bucket)
	}

	svc := service.New(store, *cfg, opts...)
	log.Info("service_initialized")

	// HTTP: публичный API + readiness/liveness/metrics
	var ready int32 // 0 — not ready; 1 — ready
	httpAddr := cfg.HTTP.Addr()

	extra := map[string]http.Handler{
		"/livez": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		}),
		"/healthz": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.LoadInt32(&ready) != 1 {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
			if ping != nil {
				ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
				defer cancel()
				if err := ping(ctx); err != nil {
					http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
					return
				}
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		}),
		"/metrics": promhttp.Handler(),
	}

	httpSrv := &http.Server{
		Addr: httpAddr,
		Handler: commentshttp.NewRouter(svc, commentshttp.Options{
			Logger:    log,
			Timeout:   cfg.Timeouts.Service,
			RateRPS:   cfg.RateLimit.RPS,
			RateBurst: cfg.RateLimit.Burst,
			MaxDepth:  cfg.Limits.MaxDepth,
			Extra:     extra,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http_listen_start", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}()

	grpc_prometheus.EnableHandlingTimeHistogram()

	grpcOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			interceptors.Recover(log),
			interceptors.UnaryLoggingInterceptor(log),
			interceptors.WithTimeout(cfg.Timeouts.Service),
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(
			grpc_prometheus.StreamServerInterceptor,
		),
	}
	grpcServer := grpc.NewServer(grpcOpts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	commentsgrpc.RegisterCommentsServiceServer(grpcServer, commentsgrpc.NewCommentsServer(svc))

	addr := cfg.GRPC.Addr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("grpc_listen_failed",
			slog.String("addr", addr),
			slog.String("err", err.Error()),
		)
		rootCancel()
		store.Close()
		os.Exit(1)
	}
	log.Info("grpc_listen_start", slog.String("addr", addr))

	grpc_prometheus.Register(grpcServer)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(commentsgrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	atomic.StoreInt32(&ready, 1)

	serveErrCh := make(chan error, 1)
	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("grpc_serve_failed", slog.String("err", err.Error()))
		}
	}

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	atomic.StoreInt32(&ready, 0)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc_stopped")
	case <-shutdownCtx.Done():
		log.Warn("grpc_force_stop")
		grpcServer.Stop()
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_failed", slog.String("err", err.Error()))
	}
	shutdownCancel()

	rootCancel()
	if counts != nil {
		_ = counts.Close()
	}
	store.Close()

	log.Info("service_stopped")
	os.Exit(0)
}

// openStorage выбирает драйвер по конфигу. ping — проверка готовности для /healthz
// (nil для in-memory).
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, func(context.Context) error, error) {
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		defer dbCancel()

		m, err := csmongo.New(dbCtx, cfg)
		if err != nil {
			return nil, nil, err
		}

		return m, m.Ping, nil
	default:
		return memory.New(), nil, nil
	}
}

// setupLogger — тот же подход, что в users-service.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
