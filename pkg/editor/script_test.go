package editor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"niimask/internal/models"
	"niimask/pkg/codec/nifti"
)

// TestParseScript verifies event decoding and unknown key rejection
func TestParseScript(t *testing.T) {
	data := []byte(`
input: scan.nii
output: out.nii
events:
  - tool: pen
    width: 3
  - stroke: [[1, 1], [5, 1]]
  - goto: 2
    polygon: [[0, 0], [4, 0], [4, 4]]
  - undo: 2
`)
	s, err := ParseScript(data)
	if err != nil {
		t.Fatalf("ParseScript failed: %v", err)
	}
	if s.Input != "scan.nii" || s.Output != "out.nii" {
		t.Errorf("Unexpected paths %q, %q", s.Input, s.Output)
	}
	if len(s.Events) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(s.Events))
	}
	if s.Events[0].Width != 3 || s.Events[1].Stroke[1] != [2]int{5, 1} {
		t.Errorf("Unexpected events %+v", s.Events[:2])
	}
	if s.Events[2].Goto == nil || *s.Events[2].Goto != 2 || len(s.Events[2].Polygon) != 3 {
		t.Errorf("Unexpected polygon event %+v", s.Events[2])
	}

	if _, err := ParseScript([]byte("events:\n  - brush: 3\n")); err == nil {
		t.Error("Expected error for unknown event key")
	}
}

// TestRunScript verifies a replayed session edits, warns and saves
func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	src := writeVolume(t, "vol.nii", 10, 10, 3)
	out := filepath.Join(dir, "edited.nii")

	script := &Script{
		Input:  src,
		Output: out,
		Events: []Event{
			{Stroke: [][2]int{{1, 1}, {8, 1}}},
			{Next: 1, Polygon: [][2]int{{2, 2}, {7, 2}, {7, 7}, {2, 7}}},
			// Two points are not a region
			{Polygon: [][2]int{{0, 0}, {3, 3}}},
			{Tool: "eraser", Stroke: [][2]int{{1, 1}}},
			{Undo: 1},
		},
	}

	s, err := NewSession(nil)
	if err != nil {
		t.Fatal(err)
	}
	rep, err := script.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if rep.Events != 5 {
		t.Errorf("Expected 5 events, got %d", rep.Events)
	}
	if rep.Filled == 0 {
		t.Error("Expected filled pixels")
	}
	if len(rep.Warnings) != 1 {
		t.Errorf("Expected 1 warning, got %v", rep.Warnings)
	}
	if rep.Undone != 1 {
		t.Errorf("Expected 1 undo, got %d", rep.Undone)
	}
	if len(rep.Saved) != 1 || rep.Saved[0] != out {
		t.Errorf("Expected save to %s, got %v", out, rep.Saved)
	}

	vol, err := nifti.ReadVolume(out)
	if err != nil {
		t.Fatalf("Failed to read saved volume: %v", err)
	}
	count := func(z int) int {
		n := 0
		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				if vol.Data[vol.Index(x, y, z)] != 0 {
					n++
				}
			}
		}
		return n
	}
	if count(0) == 0 {
		t.Error("Expected the stroke on slice 0")
	}
	if count(1) != rep.Filled {
		t.Errorf("Expected %d filled voxels on slice 1, got %d", rep.Filled, count(1))
	}
	if count(2) != 0 {
		t.Errorf("Expected slice 2 untouched, got %d voxels", count(2))
	}
}

// TestRunScriptStopsOnError verifies a bad event aborts with its position
func TestRunScriptStopsOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	body := "input: " + writeVolume(t, "vol.nii", 4, 4, 1) + "\nevents:\n  - tool: pen\n  - tool: brush\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	script, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript failed: %v", err)
	}
	s, _ := NewSession(nil)
	rep, err := script.Run(context.Background(), s)
	if err == nil || !strings.Contains(err.Error(), "event 2") {
		t.Errorf("Expected error at event 2, got %v", err)
	}
	if rep.Events != 1 {
		t.Errorf("Expected 1 completed event, got %d", rep.Events)
	}
}

// TestRunScriptPreview verifies preview images show the pending fill guide
func TestRunScriptPreview(t *testing.T) {
	preview := filepath.Join(t.TempDir(), "guide.png")
	down := [2]int{1, 1}
	script := &Script{
		Input: writeVolume(t, "vol.nii", 10, 10, 1),
		Events: []Event{
			{Tool: "fill", Down: &down, Move: [][2]int{{8, 1}, {8, 8}}, Preview: preview},
		},
	}

	s, _ := NewSession(nil)
	rep, err := script.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(rep.Previews) != 1 {
		t.Fatalf("Expected 1 preview, got %v", rep.Previews)
	}

	img, err := imaging.Open(preview)
	if err != nil {
		t.Fatalf("Failed to open preview: %v", err)
	}
	f := models.FrameFromImage(img, 1)
	if f.At(4, 1) != models.Gray(1) || f.At(8, 4) != models.Gray(1) {
		t.Error("Expected guide pixels in the preview")
	}
	if nonZero(s.ActiveFrame()) != 0 {
		t.Error("Expected no pixels written before commit")
	}
}
