package document

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"niimask/internal/models"
	"niimask/pkg/codec"
)

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// page returns a white page with a solid green block in its centre
func page(width, height int) *models.Frame {
	f := models.NewFrame(width, height, 3)
	for y := 0; y < height; y++ {
		f.FillSpan(0, width, y, models.RGB(255, 255, 255))
	}
	for y := height / 4; y < 3*height/4; y++ {
		f.FillSpan(width/4, 3*width/4, y, models.RGB(0, 255, 0))
	}
	return f
}

// TestSaveAndLoad verifies pages survive a write and render at 72 dpi
func TestSaveAndLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PDF rendering test in short mode")
	}

	path := filepath.Join(t.TempDir(), "deck.pdf")
	seq := &models.Sequence{Frames: []*models.Frame{page(120, 90), page(120, 90), page(120, 90)}}

	c := New(0)
	if c.DPI != DefaultDPI {
		t.Errorf("Expected default dpi %d, got %g", DefaultDPI, c.DPI)
	}
	if err := c.Save(context.Background(), seq, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	n, err := PageCount(path)
	if err != nil {
		t.Fatalf("PageCount failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 pages, got %d", n)
	}

	loaded, err := c.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Len() != 3 {
		t.Fatalf("Expected 3 frames, got %d", loaded.Len())
	}
	if loaded.Source.Kind != models.SourceDocument {
		t.Errorf("Expected document source, got %s", loaded.Source.Kind)
	}

	f := loaded.Frames[0]
	if f.Channels != 3 {
		t.Errorf("Expected RGB frames, got %d channels", f.Channels)
	}
	if abs(f.Width-120) > 1 || abs(f.Height-90) > 1 {
		t.Errorf("Expected a page of about 120x90, got %dx%d", f.Width, f.Height)
	}

	centre := f.At(f.Width/2, f.Height/2)
	if centre[0] > 30 || centre[1] < 220 || centre[2] > 30 {
		t.Errorf("Expected green at page centre, got %v", centre)
	}
	corner := f.At(2, 2)
	if corner[0] < 220 || corner[1] < 220 || corner[2] < 220 {
		t.Errorf("Expected white at page corner, got %v", corner)
	}
}

// TestLoadMissingFile verifies a missing PDF is reported as DecodeError
func TestLoadMissingFile(t *testing.T) {
	_, err := New(72).Load(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))

	var de *codec.DecodeError
	if !errors.As(err, &de) {
		t.Errorf("Expected *codec.DecodeError, got %v", err)
	}
}

// TestSaveEmptySequence verifies an empty sequence is an EncodeError
func TestSaveEmptySequence(t *testing.T) {
	err := New(72).Save(context.Background(), &models.Sequence{}, filepath.Join(t.TempDir(), "empty.pdf"))

	var ee *codec.EncodeError
	if !errors.As(err, &ee) {
		t.Errorf("Expected *codec.EncodeError, got %v", err)
	}
}

// TestMatch verifies PDF file names are recognized
func TestMatch(t *testing.T) {
	if !Match("Slides.PDF") {
		t.Error("Expected .PDF to match")
	}
	if Match("slides.pptx") {
		t.Error("Expected .pptx not to match")
	}
}
