package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/drivestyle/internal/api"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.env.Listen
			}
			database, err := a.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			server, err := api.NewServer(database, a.cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			httpServer := &http.Server{
				Addr:              listen,
				Handler:           api.LoggingMiddleware(server.ServeMux()),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", listen)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			log.Println("shutting down HTTP server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}
			log.Printf("Graceful shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default $DRIVESTYLE_LISTEN or :8080)")
	return cmd
}
