package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	apphttp "presupuesto/internal/http"
	"presupuesto/internal/cli"
	"presupuesto/internal/log"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON HTTP API",
		Long: `Serve the ledger over HTTP on PORT (default 8081).

The process stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("port", "", "listen port; overrides PORT")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	port := s.cfg.Port
	if v, _ := cmd.Flags().GetString("port"); v != "" {
		port = v
	}

	logger := s.logger.WithComponent(log.ComponentApp)
	srv := apphttp.NewServer(":"+port, s.store, apphttp.Options{
		Logger:          logger,
		SummaryCacheTTL: s.cfg.SummaryCacheTTL,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		s.Close()
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting presupuesto server",
			"port", port,
			log.FieldBackend, s.cfg.DataBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		logger.Error("Server error", log.FieldError, err, "port", port)
		s.Close()
		return err
	case <-ctx.Done():
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return nil
}
