// Package document reads PDF pages as RGB frames and writes frames back as
// one image per page.
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"niimask/internal/logging"
	"niimask/internal/models"
	"niimask/pkg/codec"
)

// DefaultDPI is the rendering resolution at which one PDF point maps to one
// pixel.
const DefaultDPI = 72

var disableConfigDir sync.Once

// Codec is the PDF document codec.
type Codec struct {
	// DPI is the resolution pages are rendered at
	DPI float64
}

// New returns a codec rendering at dpi; zero or less means DefaultDPI.
func New(dpi float64) *Codec {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Codec{DPI: dpi}
}

// Match reports whether path names a PDF file.
func Match(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}

// Load renders every page of the PDF at path.
func (c *Codec) Load(ctx context.Context, path string) (*models.Sequence, error) {
	frames, err := c.render(ctx, path)
	if err != nil {
		return nil, &codec.DecodeError{Path: path, Err: err}
	}

	logging.Logger().Debug("loaded document", "path", path, "pages", len(frames), "dpi", c.DPI)
	return &models.Sequence{
		Frames: frames,
		Source: models.Source{Path: path, Kind: models.SourceDocument},
	}, nil
}

func (c *Codec) render(ctx context.Context, path string) ([]*models.Frame, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, pfx.Err(err)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	frames := make([]*models.Frame, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(i, c.DPI)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", i+1, err)
		}
		frames = append(frames, models.FrameFromImage(img, 3))
	}

	return frames, nil
}

// Save writes one page per frame. Each page is exactly as large as its image.
func (c *Codec) Save(ctx context.Context, seq *models.Sequence, path string) error {
	if err := Write(ctx, seq, path); err != nil {
		return &codec.EncodeError{Path: path, Err: err}
	}
	logging.Logger().Debug("saved document", "path", path, "pages", seq.Len())
	return nil
}

// Write encodes every frame as a PNG page of a new PDF at path.
func Write(ctx context.Context, seq *models.Sequence, path string) error {
	if seq.Len() == 0 {
		return fmt.Errorf("no frames to write")
	}

	pages := make([]io.Reader, 0, seq.Len())
	for i, f := range seq.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, f.Image(), imaging.PNG); err != nil {
			return fmt.Errorf("encoding page %d: %w", i+1, err)
		}
		pages = append(pages, &buf)
	}

	return writePages(pages, path)
}

func writePages(pages []io.Reader, path string) error {
	disableConfigDir.Do(func() {
		model.ConfigPath = "disable"
	})

	imp := pdfcpu.DefaultImportConfig()
	imp.Pos = types.Full

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, pages, imp, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("building pdf: %w", err)
	}

	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		return pfx.Err(err)
	}
	return nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	disableConfigDir.Do(func() {
		model.ConfigPath = "disable"
	})

	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, pfx.Err(err)
	}
	return n, nil
}
