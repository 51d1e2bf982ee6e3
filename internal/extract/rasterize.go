package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

const (
	DefaultPDFToPPMPath = "pdftoppm"
	rasterDPI           = 200
)

// Rasterizer renders a single page of a PDF file to PNG bytes.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, pageNo int) ([]byte, error)
}

// PDFToPPM renders pages with poppler's pdftoppm.
type PDFToPPM struct {
	bin string
	dpi int
}

func NewPDFToPPM(bin string) *PDFToPPM {
	if bin == "" {
		bin = DefaultPDFToPPMPath
	}

	return &PDFToPPM{bin: bin, dpi: rasterDPI}
}

func (p *PDFToPPM) Rasterize(ctx context.Context, pdfPath string, pageNo int) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "pdfdigest-page-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")
	page := strconv.Itoa(pageNo)

	//nolint:gosec // Binary path comes from configuration.
	cmd := exec.CommandContext(ctx, p.bin,
		"-png",
		"-f", page,
		"-l", page,
		"-r", strconv.Itoa(p.dpi),
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("run pdftoppm: %w (output: %s)", err, string(output))
	}

	// -singlefile writes <prefix>.png
	data, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("read rendered page: %w", err)
	}

	return data, nil
}
