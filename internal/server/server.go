package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"pdfdigest/internal/domain"
	"pdfdigest/internal/pipeline"
	"time"
)

const (
	readTimeout     = 60 * time.Second
	writeTimeout    = 15 * time.Minute
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 30 * time.Second

	DefaultMaxUploadBytes = 50 << 20
)

// Summarizer runs the summarization pipeline for HTTP callers.
type Summarizer interface {
	SummarizePDF(ctx context.Context, userID int64, data []byte, sourceName string) (pipeline.Result, error)
	SummarizeJSON(ctx context.Context, userID int64, raw []byte) (pipeline.Result, error)
}

// ReportStore returns stored reports. It is optional.
type ReportStore interface {
	GetReport(ctx context.Context, id string) (*domain.Report, error)
}

// Server is the HTTP API in front of the summarization pipeline.
type Server struct {
	httpServer *http.Server
	summarizer Summarizer
	reports    ReportStore
	maxUpload  int64
	log        *slog.Logger
}

func New(addr string, summarizer Summarizer, reports ReportStore, log *slog.Logger) *Server {
	s := &Server{
		summarizer: summarizer,
		reports:    reports,
		maxUpload:  DefaultMaxUploadBytes,
		log:        log,
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.InfoContext(ctx, "HTTP server is started",
			"addr", s.httpServer.Addr)

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "HTTP server context is done",
			"error", ctx.Err())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
