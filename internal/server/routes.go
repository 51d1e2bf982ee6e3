package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"pdfdigest/internal/database"
	"pdfdigest/internal/domain"
	"pdfdigest/internal/pipeline"
	"strings"
)

const (
	// HTTP callers are anonymous.
	anonymousUserID = 0

	reportFilename   = "summarized_report.pdf"
	reportIDHeader   = "X-Report-ID"
	multipartMaxMem  = 32 << 20
	formatQueryParam = "format"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler returns the API routes wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /summarize", s.handleSummarizePDF)
	mux.HandleFunc("POST /summarize/json", s.handleSummarizeJSON)
	mux.HandleFunc("GET /reports/{id}", s.handleGetReport)

	return withCORS(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSummarizePDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	if err := r.ParseMultipartForm(multipartMaxMem); err != nil {
		s.writeFailure(w, r, fmt.Errorf("%w: parse multipart form: %w", domain.ErrInvalidInput, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeFailure(w, r, fmt.Errorf("%w: form file: %w", domain.ErrInvalidInput, err))
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			s.log.ErrorContext(r.Context(), "Failed to close uploaded file",
				"error", closeErr)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeFailure(w, r, fmt.Errorf("read uploaded file: %w", err))
		return
	}

	result, err := s.summarizer.SummarizePDF(r.Context(), anonymousUserID, data, header.Filename)
	if err != nil {
		s.writeFailure(w, r, fmt.Errorf("summarize pdf: %w", err))
		return
	}

	s.writeResult(w, r, result)
}

func (s *Server) handleSummarizeJSON(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		s.writeFailure(w, r, fmt.Errorf("read body: %w", err))
		return
	}

	result, err := s.summarizer.SummarizeJSON(r.Context(), anonymousUserID, raw)
	if err != nil {
		s.writeFailure(w, r, fmt.Errorf("summarize json: %w", err))
		return
	}

	s.writeResult(w, r, result)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusNotFound, "report storage is disabled")
		return
	}

	report, err := s.reports.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeFailure(w, r, fmt.Errorf("get report: %w", err))
		return
	}

	if wantsText(r) {
		writeText(w, report.Text)
		return
	}

	writePDF(w, report.PDF)
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, result pipeline.Result) {
	if result.ReportID != "" {
		w.Header().Set(reportIDHeader, result.ReportID)
	}

	if wantsText(r) {
		writeText(w, result.Text)
		return
	}

	writePDF(w, result.PDF)
}

// writeFailure maps err to a status code. Internal errors are logged and not
// shown to the caller.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytesErr):
		writeError(w, http.StatusRequestEntityTooLarge, "request body is too large")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrReportNotFound):
		writeError(w, http.StatusNotFound, "report not found")
	default:
		s.log.ErrorContext(r.Context(), "Failed to handle request",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)

		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func wantsText(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get(formatQueryParam), "text")
}

func writePDF(w http.ResponseWriter, pdf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reportFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// withCORS allows any origin. Credentialed requests get their origin echoed
// since browsers reject "*" with credentials.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		if origin := r.Header.Get("Origin"); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		} else {
			h.Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

			headers := r.Header.Get("Access-Control-Request-Headers")
			if headers == "" {
				headers = "*"
			}
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Expose-Headers", reportIDHeader)

			w.WriteHeader(http.StatusNoContent)
			return
		}

		h.Set("Access-Control-Expose-Headers", reportIDHeader)

		next.ServeHTTP(w, r)
	})
}
