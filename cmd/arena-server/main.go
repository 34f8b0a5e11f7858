// arena-server is a demo arena: a lobby main room that matchmakes every
// connection into a two-player tic-tac-toe room.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/arena-go/arena"
	"github.com/arena-go/arena/internal/config"
	"github.com/arena-go/arena/ws"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "arena-server",
		Short:         "Room-based realtime server with differential state sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("arena-server %s (%s)\n", version, commit)
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg := config.Load()
			if addr != "" {
				cfg.Addr = addr
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ARENA_ADDR)")
	return cmd
}

func serve(cfg config.Config) error {
	logger := newLogger(cfg.Env)

	a, err := arena.NewWithMainRoom(arena.Config{
		Logger:       logger,
		HistoryLimit: cfg.HistoryLimit,
	}, "main_room", &Lobby{log: logger})
	if err != nil {
		return err
	}
	go a.Run()
	defer a.Close()

	srv := ws.New(&ws.ServerConfig{
		Addr:   cfg.Addr,
		Arena:  a,
		Logger: logger,
		RateLimit: &ws.RateLimitConfig{
			MessagesPerSecond: rate.Limit(cfg.RateLimitPerSecond),
			Burst:             cfg.RateLimitBurst,
			Enabled:           cfg.RateLimitEnabled,
		},
		CheckOrigin: ws.AllOrigins(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(stopCtx)
}

// newLogger returns JSON logs at info level in prod, console logs at debug
// level elsewhere.
func newLogger(env string) zerolog.Logger {
	if env == "prod" {
		return zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}
