package pagesummary

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"  // Registers the GIF decoder for image.DecodeConfig.
	_ "image/jpeg" // Registers the JPEG decoder for image.DecodeConfig.
	_ "image/png"  // Registers the PNG decoder for image.DecodeConfig.
	"pdfdigest/internal/domain"
	"strings"

	_ "golang.org/x/image/bmp"  // Registers the BMP decoder for image.DecodeConfig.
	_ "golang.org/x/image/tiff" // Registers the TIFF decoder for image.DecodeConfig.
	_ "golang.org/x/image/webp" // Registers the WebP decoder for image.DecodeConfig.
)

// ResolveImageMeta fills the unknown fields of known from the image header.
// Fields that stay unknown keep their zero value.
func ResolveImageMeta(data []byte, known domain.ImageMeta) domain.ImageMeta {
	meta := known
	if meta.Width > 0 && meta.Height > 0 && meta.Format != "" && meta.Mode != "" {
		return meta
	}

	if len(data) == 0 {
		return meta
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return meta
	}

	if meta.Width <= 0 || meta.Height <= 0 {
		meta.Width = cfg.Width
		meta.Height = cfg.Height
	}

	if meta.Format == "" {
		meta.Format = strings.ToUpper(format)
	}

	if meta.Mode == "" {
		meta.Mode = colorModeName(cfg.ColorModel)
	}

	return meta
}

func colorModeName(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}

	switch m {
	case color.RGBAModel, color.NRGBAModel:
		return "RGBA"
	case color.RGBA64Model, color.NRGBA64Model:
		return "RGBA64"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	case color.CMYKModel:
		return "CMYK"
	case color.YCbCrModel, color.NYCbCrAModel:
		return "YCbCr"
	}

	return ""
}
