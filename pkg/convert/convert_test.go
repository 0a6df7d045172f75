package convert

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"niimask/internal/models"
	"niimask/pkg/codec/nifti"
	"niimask/pkg/labels"
)

// TestOutputPaths verifies the derived file names
func TestOutputPaths(t *testing.T) {
	if got := MaskVolumePath(filepath.Join("in", "case01.pdf")); got != filepath.Join("in", "convert_case01.nii") {
		t.Errorf("Unexpected mask volume path %s", got)
	}
	if got := DeckPath(filepath.Join("in", "case01.nii.gz")); got != filepath.Join("in", "case01.pdf") {
		t.Errorf("Unexpected deck path %s", got)
	}
}

// TestWindow verifies binary masks stretch to black and white
func TestWindow(t *testing.T) {
	f := models.NewFrame(3, 1, 1)
	f.Pix = []uint8{0, 1, 0}
	if got := Window(f).Pix; got[0] != 0 || got[1] != 255 {
		t.Errorf("Expected binary mask mapped to 0/255, got %v", got)
	}

	f.Pix = []uint8{10, 20, 30}
	if got := Window(f).Pix; got[0] != 0 || got[2] != 255 || got[1] != 128 {
		t.Errorf("Expected 10..30 stretched to 0..255, got %v", got)
	}
}

// TestMasksToVolume verifies marker colors become voxels after squaring
func TestMasksToVolume(t *testing.T) {
	pages := &models.Sequence{}
	for i := 0; i < 2; i++ {
		f := models.NewFrame(20, 10, 3)
		for y := 0; y < 10; y++ {
			f.FillSpan(0, 20, y, models.RGB(255, 255, 255))
		}
		// Green marker inside the kept centre, grey outside any range
		f.FillSpan(8, 12, 4+i, models.RGB(100, 200, 50))
		f.Set(0, 0, models.RGB(100, 200, 50))
		pages.Frames = append(pages.Frames, f)
	}

	opts := MaskOptions{TargetSize: 10, Rotations: 0, Ranges: labels.DefaultRanges()}
	vol, err := MasksToVolume(context.Background(), pages, opts)
	if err != nil {
		t.Fatalf("MasksToVolume failed: %v", err)
	}

	if vol.Width != 10 || vol.Height != 10 || vol.Depth != 2 {
		t.Fatalf("Expected 10x10x2 volume, got %dx%dx%d", vol.Width, vol.Height, vol.Depth)
	}

	count := 0
	for _, v := range vol.Data {
		if v > 1 {
			t.Fatalf("Expected binary voxels, found %d", v)
		}
		count += int(v)
	}
	if count != 8 {
		t.Errorf("Expected 8 mask voxels, got %d", count)
	}
	if vol.Data[vol.Index(3, 4, 0)] != 1 || vol.Data[vol.Index(3, 5, 1)] != 1 {
		t.Error("Expected marker rows at y=4 (slice 0) and y=5 (slice 1)")
	}
}

// TestRenderSlide verifies slice placement, orientation and caption
func TestRenderSlide(t *testing.T) {
	f := models.NewFrame(4, 4, 1)
	f.Set(0, 0, models.Gray(1))

	slide, err := RenderSlide(f, 7, DeckOptions{Width: 960, Height: 720})
	if err != nil {
		t.Fatalf("RenderSlide failed: %v", err)
	}
	if slide.Width != 960 || slide.Height != 720 {
		t.Fatalf("Expected 960x720 slide, got %dx%d", slide.Width, slide.Height)
	}

	white := models.RGB(255, 255, 255)
	black := models.RGB(0, 0, 0)

	// Margins are white
	if got := slide.At(50, 360); got != white {
		t.Errorf("Expected white margin, got %v", got)
	}
	// First row is drawn at the bottom
	if got := slide.At(200, 630); got != white {
		t.Errorf("Expected marked voxel bottom-left, got %v", got)
	}
	if got := slide.At(200, 90); got != black {
		t.Errorf("Expected empty voxel top-left, got %v", got)
	}

	// Caption ink in the right margin
	ink := false
	for y := 0; y < 80 && !ink; y++ {
		for x := 850; x < 960; x++ {
			if slide.At(x, y)[0] < 128 {
				ink = true
				break
			}
		}
	}
	if !ink {
		t.Error("Expected caption text beside the slice")
	}
}

// TestInspect verifies shape, datatype and intensity statistics
func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.nii")
	vol := models.NewVolume(4, 4, 2)
	vol.VoxelSize = models.VoxelSize{X: 1, Y: 1, Z: 2.5}
	for i := 0; i < 8; i++ {
		vol.Data[i] = 1
	}
	if err := nifti.SaveVolume(path, vol); err != nil {
		t.Fatal(err)
	}

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}

	if info.Shape != [3]int{4, 4, 2} {
		t.Errorf("Expected shape 4x4x2, got %v", info.Shape)
	}
	if info.Datatype != "uint8" {
		t.Errorf("Expected uint8, got %s", info.Datatype)
	}
	if info.NonZero != 8 {
		t.Errorf("Expected 8 non-zero voxels, got %d", info.NonZero)
	}
	if info.Min != 0 || info.Max != 1 {
		t.Errorf("Expected range 0..1, got %g..%g", info.Min, info.Max)
	}
	if math.Abs(info.Mean-0.25) > 1e-9 {
		t.Errorf("Expected mean 0.25, got %g", info.Mean)
	}
	if math.Abs(info.StdDev-math.Sqrt(0.1875)) > 1e-9 {
		t.Errorf("Expected population std %g, got %g", math.Sqrt(0.1875), info.StdDev)
	}
	if info.VoxelSize.Z != 2.5 {
		t.Errorf("Expected z spacing 2.5, got %g", info.VoxelSize.Z)
	}
	if !strings.Contains(info.String(), "Image shape: (4, 4, 2)") {
		t.Errorf("Unexpected summary:\n%s", info.String())
	}
}

// TestVolumeToDeck verifies one page per slice is written
func TestVolumeToDeck(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PDF test in short mode")
	}

	vol := models.NewVolume(8, 8, 3)
	vol.Data[vol.Index(2, 2, 1)] = 1

	path := filepath.Join(t.TempDir(), "deck.pdf")
	if err := VolumeToDeck(context.Background(), vol, path, DeckOptions{Width: 96, Height: 72}); err != nil {
		t.Fatalf("VolumeToDeck failed: %v", err)
	}

	info, err := InspectDocument(path)
	if err != nil {
		t.Fatalf("InspectDocument failed: %v", err)
	}
	if info.Pages != 3 {
		t.Errorf("Expected 3 pages, got %d", info.Pages)
	}
}
