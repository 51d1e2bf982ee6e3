package domain

import (
	"errors"
	"time"
)

// UnknownValue is printed wherever image metadata could not be determined.
const UnknownValue = "unknown"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrRemoteService = errors.New("remote service failure")
	ErrRender        = errors.New("render failure")
)

type ImageMeta struct {
	Width  int
	Height int
	Format string
	Mode   string
}

type Image struct {
	Data []byte
	Meta ImageMeta
}

type PageRecord struct {
	PageNo  int
	Text    string
	Images  []Image
	Scanned bool
}

type ImageSummary struct {
	Meta        ImageMeta
	Description string
}

type PageSummary struct {
	PageNo         int
	TextSummary    string
	ImageSummaries []ImageSummary
	CombinedShort  string
}

type Metadata struct {
	Title  string
	Author string
}

type ReportHeader struct {
	SourceName string
	Generated  time.Time
	PageCount  int
	Metadata   *Metadata
}

type Report struct {
	ID         string
	UserID     int64
	SourceName string
	Title      string
	PageCount  int
	Text       string
	PDF        []byte
	CreatedAt  time.Time
}

// Known reports whether any metadata field carries a real value.
func (m ImageMeta) Known() bool {
	return m.Width > 0 || m.Height > 0 || m.Format != "" || m.Mode != ""
}
