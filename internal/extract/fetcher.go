package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"pdfdigest/internal/domain"
	"strings"
	"time"

	"mvdan.cc/xurls/v2"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	fetchClientTimeout = 60 * time.Second

	DefaultMaxDownloadBytes = 50 << 20
)

// Download is a fetched remote file.
type Download struct {
	URL  string
	Name string
	Data []byte
}

// Fetcher downloads PDFs linked from free text.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	log      *slog.Logger
}

func NewFetcher(log *slog.Logger) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: fetchClientTimeout},
		maxBytes: DefaultMaxDownloadBytes,
		log:      log,
	}
}

// FindPDFLinks returns the distinct https links in text whose path ends in .pdf.
func FindPDFLinks(text string) ([]string, error) {
	httpsURLRe, err := xurls.StrictMatchingScheme("https://")
	if err != nil {
		return nil, fmt.Errorf("create regexp: %w", err)
	}

	urls := httpsURLRe.FindAllString(strings.TrimSpace(text), -1)

	links := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))

	for _, u := range urls {
		parsed, parseErr := url.Parse(strings.TrimSpace(u))
		if parseErr != nil {
			continue
		}

		if !strings.EqualFold(path.Ext(parsed.Path), ".pdf") {
			continue
		}

		link := parsed.String()
		if _, ok := seen[link]; ok {
			continue
		}

		links = append(links, link)
		seen[link] = struct{}{}
	}

	return links, nil
}

// FetchAll downloads every link, collecting failures instead of stopping at
// the first one.
func (f *Fetcher) FetchAll(ctx context.Context, links []string) ([]Download, error) {
	downloads := make([]Download, 0, len(links))
	var errs []error

	for _, link := range links {
		d, err := f.Fetch(ctx, link)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch %s: %w", link, err))

			continue
		}

		downloads = append(downloads, d)
	}

	return downloads, errors.Join(errs...)
}

func (f *Fetcher) Fetch(ctx context.Context, link string) (Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return Download{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req) //nolint:gosec // User-supplied PDF link
	if err != nil {
		return Download{}, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.log.ErrorContext(ctx, "Failed to close response body",
				"url", link,
				"error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return Download{}, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Download{}, fmt.Errorf("read body: %w", err)
	}

	if int64(len(data)) > f.maxBytes {
		return Download{}, fmt.Errorf("%w: file is larger than %d bytes", domain.ErrInvalidInput, f.maxBytes)
	}

	name := path.Base(req.URL.Path)
	if name == "" || name == "/" || name == "." {
		name = req.URL.Host + ".pdf"
	}

	return Download{URL: link, Name: name, Data: data}, nil
}
