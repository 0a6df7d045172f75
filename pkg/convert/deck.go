package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"niimask/internal/logging"
	"niimask/internal/models"
	"niimask/pkg/codec/document"
	"niimask/pkg/config"
	"niimask/pkg/visualization"
)

// captionPoints is the caption font size.
const captionPoints = 28

var (
	captionOnce sync.Once
	captionFace font.Face
	captionErr  error
)

func loadCaptionFace() (font.Face, error) {
	captionOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			captionErr = err
			return
		}
		captionFace, captionErr = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    captionPoints,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	})
	return captionFace, captionErr
}

// DeckOptions control volume to slide deck conversion.
type DeckOptions struct {
	// Width and Height are the slide size in pixels
	Width, Height int

	// Axis selects which slices become slides
	Axis string
}

// DeckOptionsFromConfig reads the slide settings from cfg.
func DeckOptionsFromConfig(cfg *config.Config) DeckOptions {
	return DeckOptions{
		Width:  cfg.Conversion.SlideWidth,
		Height: cfg.Conversion.SlideHeight,
		Axis:   cfg.Volume.Axis,
	}
}

// DeckPath returns the .pdf deck path for a volume.
func DeckPath(volPath string) string {
	base := filepath.Base(volPath)
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, ".nii")
	return filepath.Join(filepath.Dir(volPath), base+".pdf")
}

// Window maps the intensities of a grayscale frame onto 0..255. Frames whose
// values lie within 0..1 are treated as binary masks.
func Window(f *models.Frame) *models.Frame {
	lo, hi := uint8(255), uint8(0)
	for _, v := range f.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= 1 {
		lo, hi = 0, 1
	}

	out := models.NewFrame(f.Width, f.Height, 1)
	if hi == lo {
		copy(out.Pix, f.Pix)
		return out
	}

	scale := 255 / float64(hi-lo)
	for i, v := range f.Pix {
		out.Pix[i] = uint8(float64(v-lo)*scale + 0.5)
	}
	return out
}

// RenderSlide draws one slice on a white slide: the slice flipped so the
// first row is at the bottom, fitted and centred, with a z=<index> caption
// to its right.
func RenderSlide(f *models.Frame, index int, opts DeckOptions) (*models.Frame, error) {
	if f.Width == 0 || f.Height == 0 {
		return nil, fmt.Errorf("slice %d is empty", index)
	}

	face, err := loadCaptionFace()
	if err != nil {
		return nil, fmt.Errorf("loading caption font: %w", err)
	}

	sw, sh := float64(opts.Width), float64(opts.Height)
	img := imaging.FlipV(Window(f).Image())

	// Fit by the limiting side
	scale := sw / float64(f.Width)
	if s := sh / float64(f.Height); s < scale {
		scale = s
	}
	dw := int(float64(f.Width)*scale + 0.5)
	dh := int(float64(f.Height)*scale + 0.5)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	fitted := imaging.Resize(img, dw, dh, imaging.NearestNeighbor)

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.DrawImageAnchored(fitted, opts.Width/2, opts.Height/2, 0.5, 0.5)

	caption := fmt.Sprintf("z=%d", index)
	dc.SetFontFace(face)
	dc.SetRGB(0, 0, 0)
	tw, th := dc.MeasureString(caption)

	left := (sw-float64(dw))/2 + float64(dw) + 10
	top := (sh-float64(dh))/2 + 10
	if left+tw > sw {
		// No room beside the slice
		left = 10
	}
	dc.DrawStringAnchored(caption, left, top+th, 0, 0)

	return models.FrameFromImage(dc.Image(), 3), nil
}

// VolumeToDeck writes one slide per slice of vol to a PDF at outPath.
func VolumeToDeck(ctx context.Context, vol *models.Volume, outPath string, opts DeckOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("slide size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	axis := opts.Axis
	if axis == "" {
		axis = "z"
	}

	slices, err := visualization.NewViewer(vol).ToSequence(ctx, axis)
	if err != nil {
		return err
	}

	deck := &models.Sequence{Source: models.Source{Path: outPath, Kind: models.SourceDocument}}
	for i, f := range slices.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		slide, err := RenderSlide(f, i, opts)
		if err != nil {
			return err
		}
		deck.Frames = append(deck.Frames, slide)
	}

	if err := document.Write(ctx, deck, outPath); err != nil {
		return fmt.Errorf("writing deck %s: %w", outPath, err)
	}

	logging.Logger().Info("wrote slide deck", "output", outPath, "slides", deck.Len())
	return nil
}
