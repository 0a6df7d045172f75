// Package imagedir reads a directory of slice images as a frame sequence and
// writes frames back as numbered PNG files.
package imagedir

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"

	"niimask/internal/logging"
	"niimask/internal/models"
	"niimask/pkg/codec"
)

var extensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

// Codec reads and writes slice image directories.
type Codec struct{}

// New returns an image directory codec.
func New() *Codec {
	return &Codec{}
}

// Match reports whether path is an existing directory.
func Match(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Load reads every image in dir ordered by the number at the end of its
// file name. Grayscale images load as single-channel frames.
func (c *Codec) Load(ctx context.Context, dir string) (*models.Sequence, error) {
	frames, err := loadSlices(ctx, dir)
	if err != nil {
		return nil, &codec.DecodeError{Path: dir, Err: err}
	}

	logging.Logger().Debug("loaded slice directory", "path", dir, "slices", len(frames))
	return &models.Sequence{
		Frames: frames,
		Source: models.Source{Path: dir, Kind: models.SourceImageDir, Axis: "z"},
	}, nil
}

func loadSlices(ctx context.Context, dir string) ([]*models.Frame, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, pfx.Err(err)
	}

	var imageFiles []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if extensions[strings.ToLower(filepath.Ext(file.Name()))] {
			imageFiles = append(imageFiles, file.Name())
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no slice images found in %s", dir)
	}

	SortSlices(imageFiles)

	images := make([]image.Image, 0, len(imageFiles))
	gray := true
	for _, name := range imageFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := imaging.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", name, err)
		}
		switch img.(type) {
		case *image.Gray, *image.Gray16:
		default:
			gray = false
		}
		images = append(images, img)
	}

	channels := 3
	if gray {
		channels = 1
	}

	frames := make([]*models.Frame, 0, len(images))
	for _, img := range images {
		frames = append(frames, models.FrameFromImage(img, channels))
	}
	return frames, nil
}

// SortSlices orders file names by their trailing number. Names without one
// sort first, alphabetically.
func SortSlices(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ni, nj := sliceNumber(names[i]), sliceNumber(names[j])
		if ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})
}

// sliceNumber returns the digits directly before the extension, or -1.
func sliceNumber(name string) int {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	end := len(base)
	start := end
	for start > 0 && base[start-1] >= '0' && base[start-1] <= '9' {
		start--
	}
	if start == end {
		return -1
	}
	n, err := strconv.Atoi(base[start:end])
	if err != nil {
		return -1
	}
	return n
}

// Save writes frame i to dir/slice_NNN.png, creating dir if needed.
func (c *Codec) Save(ctx context.Context, seq *models.Sequence, dir string) error {
	if err := saveSlices(ctx, seq, dir); err != nil {
		return &codec.EncodeError{Path: dir, Err: err}
	}
	logging.Logger().Debug("saved slice directory", "path", dir, "slices", seq.Len())
	return nil
}

func saveSlices(ctx context.Context, seq *models.Sequence, dir string) error {
	if seq.Len() == 0 {
		return fmt.Errorf("no frames to write")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pfx.Err(err)
	}

	for i, f := range seq.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		filename := filepath.Join(dir, fmt.Sprintf("slice_%03d.png", i))
		if err := imaging.Save(f.Image(), filename); err != nil {
			return fmt.Errorf("failed to save slice %d: %w", i, err)
		}
	}
	return nil
}
