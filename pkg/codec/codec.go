// Package codec defines how frame sequences are read from and written to
// external formats. The concrete codecs live in sub-packages.
package codec

import (
	"context"
	"fmt"

	"niimask/internal/models"
)

// Codec reads and writes a whole frame sequence.
type Codec interface {
	// Load reads every frame stored at path
	Load(ctx context.Context, path string) (*models.Sequence, error)

	// Save writes seq to path, replacing any existing file
	Save(ctx context.Context, seq *models.Sequence, path string) error
}

// DecodeError reports a file that could not be read or parsed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError reports a sequence that could not be written.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
