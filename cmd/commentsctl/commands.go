package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	commentsgrpc "github.com/pribylovaa/exivox-comments/internal/transport/grpc"
	logctx "github.com/pribylovaa/exivox-comments/pkg/log"
)

// dialFunc открывает клиента к сервису; close освобождает соединение.
type dialFunc func(addr string) (client commentsgrpc.CommentsClient, close func() error, err error)

func dialRemote(addr string) (commentsgrpc.CommentsClient, func() error, error) {
	cc, err := commentsgrpc.Dial(addr)
	if err != nil {
		return nil, nil, err
	}

	return commentsgrpc.NewCommentsClient(cc), cc.Close, nil
}

// globalFlags — общие флаги всех подкоманд.
type globalFlags struct {
	addr    string
	subject string
	timeout time.Duration
	verbose bool

	userID      string
	username    string
	displayName string
}

func newRootCmd(dial dialFunc) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "commentsctl",
		Short:         "Command-line client for the Exivox comments service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.addr, "addr", envOr("COMMENTS_GRPC_ADDR", "localhost:50055"), "gRPC address of comments-service")
	pf.StringVarP(&g.subject, "subject", "s", "post:1", "subject key (post:<id>, video:<id>, qa:<id>)")
	pf.DurationVar(&g.timeout, "timeout", 5*time.Second, "per-call timeout")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging to stderr")
	pf.StringVar(&g.userID, "user", os.Getenv("COMMENTS_USER_ID"), "author id")
	pf.StringVar(&g.username, "username", "", "author username")
	pf.StringVar(&g.displayName, "display-name", "", "author display name")

	root.AddCommand(
		newDemoCmd(g),
		newListCmd(g, dial),
		newAddCmd(g, dial),
		newStarCmd(g, dial),
		newCountCmd(g, dial),
	)

	return root
}

// commandContext — контекст вызова с таймаутом и логгером.
func (g *globalFlags) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ctx = logctx.Into(ctx, g.logger(cmd.ErrOrStderr()))

	return context.WithTimeout(ctx, g.timeout)
}

func (g *globalFlags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// withClient открывает соединение на время одной команды.
func withClient(g *globalFlags, dial dialFunc, fn func(commentsgrpc.CommentsClient) error) error {
	client, closeFn, err := dial(g.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", g.addr, err)
	}
	defer func() { _ = closeFn() }()

	return fn(client)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
