// Package convert moves annotations between mask volumes and slide decks:
// PDF pages back to a mask volume, volume slices out to a captioned deck,
// plus quick inspection of both file kinds.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"niimask/internal/logging"
	"niimask/internal/models"
	"niimask/pkg/codec/document"
	"niimask/pkg/codec/nifti"
	"niimask/pkg/config"
	"niimask/pkg/labels"
	"niimask/pkg/transform"
	"niimask/pkg/visualization"
)

// MaskOptions control document to mask volume conversion.
type MaskOptions struct {
	// DPI is the page rendering resolution
	DPI float64

	// TargetSize is the edge length of the square slices
	TargetSize int

	// Rotations is the number of clockwise quarter turns per slice
	Rotations int

	// Ranges are the marker colors that become mask voxels
	Ranges []labels.ColorRange
}

// MaskOptionsFromConfig reads the conversion settings from cfg.
func MaskOptionsFromConfig(cfg *config.Config) MaskOptions {
	return MaskOptions{
		DPI:        cfg.Document.DPI,
		TargetSize: cfg.Conversion.TargetSize,
		Rotations:  cfg.Conversion.Rotations,
		Ranges:     cfg.Conversion.Ranges,
	}
}

// MaskVolumePath returns convert_<base>.nii next to the document.
func MaskVolumePath(docPath string) string {
	base := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	return filepath.Join(filepath.Dir(docPath), "convert_"+base+".nii")
}

// MasksToVolume extracts the marker colors of every page, squares and
// rotates each mask, and stacks the pages along z.
func MasksToVolume(ctx context.Context, pages *models.Sequence, opts MaskOptions) (*models.Volume, error) {
	if opts.TargetSize <= 0 {
		return nil, fmt.Errorf("target size must be positive, got %d", opts.TargetSize)
	}

	masks, err := labels.ExtractMasks(pages, opts.Ranges)
	if err != nil {
		return nil, err
	}

	for i, m := range masks.Frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		masks.Frames[i] = transform.Square(m, opts.TargetSize, opts.Rotations)
	}
	masks.Source.VoxelSize = models.VoxelSize{X: 1, Y: 1, Z: 1}

	return visualization.FromSequence(ctx, masks, "z")
}

// DocumentToMaskVolume converts an annotated PDF into a mask volume at
// outPath.
func DocumentToMaskVolume(ctx context.Context, docPath, outPath string, opts MaskOptions) (*models.Volume, error) {
	pages, err := document.New(opts.DPI).Load(ctx, docPath)
	if err != nil {
		return nil, err
	}

	vol, err := MasksToVolume(ctx, pages, opts)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", docPath, err)
	}

	if err := nifti.SaveVolume(outPath, vol); err != nil {
		return nil, fmt.Errorf("saving %s: %w", outPath, err)
	}

	logging.Logger().Info("converted document to mask volume",
		"source", docPath, "output", outPath, "slices", vol.Depth)
	return vol, nil
}
