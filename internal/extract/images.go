package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"pdfdigest/internal/domain"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/bmp"  // Registers the BMP decoder for image.Decode.
	_ "golang.org/x/image/tiff" // Registers the TIFF decoder for image.Decode.
)

// ImageSource returns the embedded images of a PDF keyed by page number, in
// the order they appear on the page.
type ImageSource interface {
	Images(ctx context.Context, data []byte) (map[int][]domain.Image, error)
}

// EmbeddedImages pulls image XObjects out of a PDF with pdfcpu.
type EmbeddedImages struct {
	conf *model.Configuration
	log  *slog.Logger
}

func NewEmbeddedImages(log *slog.Logger) *EmbeddedImages {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return &EmbeddedImages{conf: conf, log: log}
}

func (e *EmbeddedImages) Images(ctx context.Context, data []byte) (map[int][]domain.Image, error) {
	images := make(map[int][]domain.Image)

	digest := func(img model.Image, _ bool, _ int) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := io.ReadAll(img)
		if err != nil {
			return fmt.Errorf("read image %s on page %d: %w", img.Name, img.PageNr, err)
		}

		payload, ok := visionPayload(raw)
		if !ok {
			e.log.DebugContext(ctx, "Skipping undecodable image",
				"pageNo", img.PageNr,
				"name", img.Name,
				"fileType", img.FileType)

			return nil
		}

		images[img.PageNr] = append(images[img.PageNr], domain.Image{
			Data: payload,
			Meta: domain.ImageMeta{
				Width:  img.Width,
				Height: img.Height,
				Format: formatName(img.FileType),
				Mode:   modeName(img.Cs),
			},
		})

		return nil
	}

	if err := api.ExtractImages(bytes.NewReader(data), nil, digest, e.conf); err != nil {
		return nil, fmt.Errorf("extract images: %w", err)
	}

	return images, nil
}

// visionPayload returns image bytes in a format vision models accept,
// re-encoding anything else as PNG.
func visionPayload(raw []byte) ([]byte, bool) {
	switch http.DetectContentType(raw) {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		return raw, true
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, img); err != nil {
		return nil, false
	}

	return buf.Bytes(), true
}

func formatName(fileType string) string {
	switch ft := strings.ToLower(strings.TrimSpace(fileType)); ft {
	case "":
		return ""
	case "jpg":
		return "JPEG"
	case "tif":
		return "TIFF"
	case "jpx":
		return "JPEG2000"
	default:
		return strings.ToUpper(ft)
	}
}

func modeName(colorSpace string) string {
	switch colorSpace {
	case "DeviceRGB", "CalRGB":
		return "RGB"
	case "DeviceGray", "CalGray":
		return "L"
	case "DeviceCMYK":
		return "CMYK"
	case "Indexed":
		return "P"
	}

	return ""
}
