package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"pdfdigest/internal/database"
	"pdfdigest/internal/domain"
	"pdfdigest/internal/pipeline"
	"strings"
	"sync"
	"testing"
)

type stubSummarizer struct {
	mu          sync.Mutex
	sourceNames []string
	jsonBodies  []string
	err         error
}

func (s *stubSummarizer) SummarizePDF(
	_ context.Context,
	_ int64,
	data []byte,
	sourceName string,
) (pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sourceNames = append(s.sourceNames, sourceName)
	if s.err != nil {
		return pipeline.Result{}, s.err
	}

	return pipeline.Result{ReportID: "rep-1", Text: "text of " + string(data), PDF: []byte("%PDF-1.3 " + sourceName)}, nil
}

func (s *stubSummarizer) SummarizeJSON(_ context.Context, _ int64, raw []byte) (pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jsonBodies = append(s.jsonBodies, string(raw))
	if s.err != nil {
		return pipeline.Result{}, s.err
	}

	return pipeline.Result{Text: "json report", PDF: []byte("%PDF-1.3 json")}, nil
}

type stubReports struct{}

func (stubReports) GetReport(_ context.Context, id string) (*domain.Report, error) {
	if id != "known" {
		return nil, fmt.Errorf("%w: %s", database.ErrReportNotFound, id)
	}

	return &domain.Report{ID: id, Text: "stored text", PDF: []byte("%PDF stored")}, nil
}

func newTestServer(s *stubSummarizer) *httptest.Server {
	return httptest.NewServer(New(":0", s, stubReports{}, slog.Default()).Handler())
}

func uploadRequest(t *testing.T, url, field, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}

	if _, err = part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}

	if err = mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, &body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	var b bytes.Buffer
	if _, err := b.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}

	return b.String()
}

func TestSummarizeReturnsPDF(t *testing.T) {
	stub := &stubSummarizer{}
	srv := newTestServer(stub)
	defer srv.Close()

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/summarize", "file", "paper.pdf", []byte("pdf bytes")))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}

	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "summarized_report.pdf") {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	if resp.Header.Get("X-Report-ID") != "rep-1" {
		t.Fatalf("expected report id header")
	}

	if body != "%PDF-1.3 paper.pdf" {
		t.Fatalf("unexpected body %q", body)
	}

	if len(stub.sourceNames) != 1 || stub.sourceNames[0] != "paper.pdf" {
		t.Fatalf("unexpected source names %v", stub.sourceNames)
	}
}

func TestSummarizeTextFormat(t *testing.T) {
	srv := newTestServer(&stubSummarizer{})
	defer srv.Close()

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/summarize?format=text", "file", "a.pdf", []byte("abc")))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if body := readBody(t, resp); body != "text of abc" {
		t.Fatalf("unexpected body %q", body)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestSummarizeWithoutFileIsBadRequest(t *testing.T) {
	stub := &stubSummarizer{}
	srv := newTestServer(stub)
	defer srv.Close()

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/summarize", "document", "a.pdf", []byte("abc")))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	body := readBody(t, resp)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err = json.Unmarshal([]byte(body), &errResp); err != nil || errResp.Error == "" {
		t.Fatalf("expected json error body, got %q", body)
	}

	if len(stub.sourceNames) != 0 {
		t.Fatalf("summarizer must not be called")
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", fmt.Errorf("extract pdf: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{"remote failure", fmt.Errorf("summarize: %w", domain.ErrRemoteService), http.StatusInternalServerError},
		{"render failure", domain.ErrRender, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubSummarizer{err: tt.err})
			defer srv.Close()

			resp, err := http.Post(srv.URL+"/summarize/json", "application/json", strings.NewReader(`{"content":"x"}`))
			if err != nil {
				t.Fatalf("request: %v", err)
			}

			body := readBody(t, resp)

			if resp.StatusCode != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.StatusCode)
			}

			if tt.want == http.StatusInternalServerError && strings.Contains(body, "remote service") {
				t.Fatalf("internal error leaked: %q", body)
			}
		})
	}
}

func TestSummarizeJSON(t *testing.T) {
	stub := &stubSummarizer{}
	srv := newTestServer(stub)
	defer srv.Close()

	payload := `{"content":"Hello world.","metadata":{"title":"Greeting"}}`

	resp, err := http.Post(srv.URL+"/summarize/json", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if body := readBody(t, resp); resp.StatusCode != http.StatusOK || body != "%PDF-1.3 json" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}

	if len(stub.jsonBodies) != 1 || stub.jsonBodies[0] != payload {
		t.Fatalf("unexpected json bodies %v", stub.jsonBodies)
	}
}

func TestGetReport(t *testing.T) {
	srv := newTestServer(&stubSummarizer{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/reports/known")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if body := readBody(t, resp); resp.StatusCode != http.StatusOK || body != "%PDF stored" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/reports/known?format=text")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if body := readBody(t, resp); body != "stored text" {
		t.Fatalf("unexpected text body %q", body)
	}

	resp, err = http.Get(srv.URL + "/reports/missing")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	readBody(t, resp)

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHealthAndCORS(t *testing.T) {
	srv := newTestServer(&stubSummarizer{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if body := readBody(t, resp); resp.StatusCode != http.StatusOK || !strings.Contains(body, `"ok"`) {
		t.Fatalf("unexpected health response %d %q", resp.StatusCode, body)
	}

	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected wildcard origin")
	}

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/summarize", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}

	readBody(t, resp)

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", resp.StatusCode)
	}

	if resp.Header.Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("expected echoed origin, got %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}

	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "POST") {
		t.Fatalf("expected POST to be allowed")
	}
}

func TestWrongMethodIsRejected(t *testing.T) {
	srv := newTestServer(&stubSummarizer{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/summarize")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	readBody(t, resp)

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET /summarize, got %d", resp.StatusCode)
	}
}
