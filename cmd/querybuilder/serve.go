package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/saint-community/querybuilder/internal/config"
	"github.com/saint-community/querybuilder/internal/history"
	"github.com/saint-community/querybuilder/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Serve the filter and member search HTTP API",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := source.Config()
		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		b, err := openBackend(ctx, cfg, history.SourceHTTP, logger)
		if err != nil {
			return err
		}
		defer b.Close()

		source.Watch(func(next *config.Config) {
			applyLogLevel(next.Log.Level)
			logger.Info("config reloaded", zap.String("file", source.File()))
		}, func(err error) {
			logger.Warn("config reload failed", zap.Error(err))
		})

		srv := &http.Server{
			Addr:    addr,
			Handler: server.New(b.searcher, mapperFor(cfg), logger).Handler(),
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("HTTP server listening", zap.String("addr", addr), zap.String("backend", cfg.Store.Backend))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

// applyLogLevel switches the running logger to level. Verbose mode pins
// debug.
func applyLogLevel(level string) {
	if verbose {
		return
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		logger.Warn("ignoring invalid log level", zap.String("level", level))
		return
	}
	logLevel.SetLevel(lvl)
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
}
