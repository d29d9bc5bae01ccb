package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/RezaEskandarii/scribeflow/internal/query"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the job query API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := container.QueryRouter()
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           query.NewHTTPHandler(router, container.Verifier, container.Logger),
			ReadHeaderTimeout: cfg.RequestTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			container.Logger.Info("query API listening", zap.String("addr", cfg.HTTPAddr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-cmd.Context().Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		container.Logger.Info("shutting down query API")
		return srv.Shutdown(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
