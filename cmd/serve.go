package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"shelfscan/internal/books"
	"shelfscan/internal/handlers"
	"shelfscan/internal/ingest"
	"shelfscan/internal/openlibrary"
	"shelfscan/internal/pacing"
	"shelfscan/internal/vision"
)

func newServeCmd() *cobra.Command {
	var port string
	var db string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog API server",
		Long: `Starts the ShelfScan HTTP API on the specified port.

Shelf photos uploaded to /api/scan are read by the configured vision
backend and the detected books are stored in the catalog. The server
starts even with no backend configured; scans return 503 until one of
GEMINI_API_KEY, OPENAI_API_KEY, or USE_OLLAMA=true is set.`,
		Example: `  # Start server on default port 8000
  shelfscan serve

  # Start server on custom port
  shelfscan serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := books.Open(dbPath(db))
			if err != nil {
				return err
			}
			defer store.Close()

			svc := &ingest.Service{
				Resolver: openlibrary.NewClient(),
				Store:    store,
				Pacer:    pacing.New(time.Second),
			}
			if extractor, err := vision.NewExtractor(); err == nil {
				svc.Extractor = extractor
				slog.Info("Vision backend configured", "backend", extractor.BackendName())
			} else {
				slog.Warn("No vision backend configured, scans will be rejected")
			}

			handler := handlers.New(store, svc)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/scan", handler.HandleScan)
			mux.HandleFunc("/api/books", handler.HandleBooks)
			mux.HandleFunc("/api/books/{id}", handler.HandleBookDetail)
			mux.HandleFunc("/api/sections", handler.HandleSections)
			mux.HandleFunc("/api/export/csv", handler.HandleExportCSV)
			mux.HandleFunc("/api/export/json", handler.HandleExportJSON)
			mux.HandleFunc("/api/health", handler.HandleHealth)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("ShelfScan API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8000", "Port to listen on")
	cmd.Flags().StringVar(&db, "db", "", "Path to the catalog database")

	return cmd
}
