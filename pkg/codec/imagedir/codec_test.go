package imagedir

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/bmp"

	"niimask/internal/models"
	"niimask/pkg/codec"
)

// TestSortSlices verifies numeric ordering by the trailing number
func TestSortSlices(t *testing.T) {
	names := []string{"img_10.png", "img_2.png", "cover.png", "img_1.png", "scan3_7.jpg"}
	SortSlices(names)

	want := []string{"cover.png", "img_1.png", "img_2.png", "scan3_7.jpg", "img_10.png"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Unexpected order (-want +got):\n%s", diff)
	}
}

// TestSaveAndLoad verifies grayscale masks round-trip through PNG files
func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slices")

	seq := &models.Sequence{}
	for i := 0; i < 12; i++ {
		f := models.NewFrame(7, 5, 1)
		f.Set(i%7, i%5, models.Gray(uint8(i+1)))
		seq.Frames = append(seq.Frames, f)
	}

	c := New()
	if err := c.Save(context.Background(), seq, dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !Match(dir) {
		t.Error("Expected saved directory to match")
	}

	loaded, err := c.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Len() != seq.Len() {
		t.Fatalf("Expected %d frames, got %d", seq.Len(), loaded.Len())
	}
	if loaded.Source.Kind != models.SourceImageDir {
		t.Errorf("Expected imagedir source, got %s", loaded.Source.Kind)
	}
	for i := range seq.Frames {
		if !seq.Frames[i].Equal(loaded.Frames[i]) {
			t.Errorf("Frame %d differs after round trip", i)
		}
	}
}

// TestLoadBMP verifies colour BMP slices load as RGB frames
func TestLoadBMP(t *testing.T) {
	dir := t.TempDir()
	for i, c := range []color.RGBA{{255, 0, 0, 255}, {0, 0, 255, 255}} {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				img.SetRGBA(x, y, c)
			}
		}
		file, err := os.Create(filepath.Join(dir, []string{"a_0.bmp", "a_1.bmp"}[i]))
		if err != nil {
			t.Fatal(err)
		}
		if err := bmp.Encode(file, img); err != nil {
			t.Fatal(err)
		}
		file.Close()
	}

	seq, err := New().Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if seq.Frames[0].Channels != 3 {
		t.Fatalf("Expected RGB frames, got %d channels", seq.Frames[0].Channels)
	}
	if got := seq.Frames[1].At(2, 2); got != models.RGB(0, 0, 255) {
		t.Errorf("Expected blue second slice, got %v", got)
	}
}

// TestLoadEmptyDir verifies a directory without images is a DecodeError
func TestLoadEmptyDir(t *testing.T) {
	_, err := New().Load(context.Background(), t.TempDir())

	var de *codec.DecodeError
	if !errors.As(err, &de) {
		t.Errorf("Expected *codec.DecodeError, got %v", err)
	}
}
