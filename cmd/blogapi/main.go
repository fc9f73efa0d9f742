package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/IlyaFonichev/BlogArticlesAPI/internal/config"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/server"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/store"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/telemetry"
	"github.com/IlyaFonichev/BlogArticlesAPI/internal/worker"
)

var (
	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "blogapi",
	Short: "blogapi - an in-memory blog articles API",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		var err error
		logger, err = newLogger(cfg.LogFormat)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tp, err := newTracing(ctx)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Tracer shutdown failed", zap.Error(err))
			}
		}()

		opts := []store.Option{}
		if cfg.RedisAddr != "" {
			q, err := store.NewRedisQueue(ctx, cfg.RedisAddr, cfg.EventQueueCap)
			if err != nil {
				return err
			}
			defer q.Close()
			opts = append(opts, store.WithPublisher(q))
			logger.Info("Publishing article events", zap.String("redis", cfg.RedisAddr))
		}
		st := store.NewMemoryStore(logger, opts...)

		srv := server.NewServer(st, logger, server.Options{
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(cfg.Addr)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("Goodbye!")
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Consume article change events from Redis and log them",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.RedisAddr == "" {
			return fmt.Errorf("--redis is required for audit")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		q, err := store.NewRedisQueue(ctx, cfg.RedisAddr, cfg.EventQueueCap)
		if err != nil {
			return err
		}
		defer q.Close()

		worker.NewWorker(q, logger).Start(ctx)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the API version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), server.ServiceName, server.Version)
	},
}

func newLogger(format string) (*zap.Logger, error) {
	if format == config.LogFormatJSON {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newTracing(ctx context.Context) (*telemetry.Provider, error) {
	tcfg := telemetry.Config{
		ServiceName:    "blog-api",
		ServiceVersion: server.Version,
	}
	if cfg.TraceStdout {
		tcfg.Writer = os.Stdout
	}
	return telemetry.NewProvider(ctx, tcfg)
}

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for article events (empty disables publishing)")
	flags.Int64Var(&cfg.EventQueueCap, "event-queue-cap", cfg.EventQueueCap, "Maximum number of pending events kept in Redis")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: console or json")

	serveCmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	serveCmd.Flags().DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "HTTP write timeout")
	serveCmd.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")
	serveCmd.Flags().BoolVar(&cfg.TraceStdout, "trace-stdout", cfg.TraceStdout, "Write OpenTelemetry spans to stdout")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
