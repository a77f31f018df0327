package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Riboost-Studio/pos-device-bridge/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// NewRouter mounts every route on a chi router.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	logger = logging.OrDiscard(logger).With("component", "api")

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(instrument(logger))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/printers", func(r chi.Router) {
		r.Get("/", h.ListPrinters)
		r.Post("/", h.SavePrinter)
		r.Post("/test", h.TestPrinter)
		r.Post("/status", h.PrinterStatus)
		r.Get("/discover", h.Discover)
		r.Get("/scan", h.Scan)
		r.Get("/{id}", h.GetPrinter)
		r.Delete("/{id}", h.DeletePrinter)
	})

	r.Post("/print/receipt", h.PrintReceipt)
	r.Post("/print/kitchen", h.PrintKitchen)

	r.Post("/assets/branding", h.EnsureBranding)
	r.Post("/images", h.DownloadImages)
	r.Delete("/images", h.ClearImages)

	return r
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			// print jobs may wait on a 30s device write
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logging.OrDiscard(logger).With("component", "api"),
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server started", "addr", s.httpServer.Addr)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
