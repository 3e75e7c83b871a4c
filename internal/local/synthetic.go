package local

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
)

// SyntheticRunner is a stand-in for the real on-device model: it applies
// a deterministic tint derived from the style id so the engine can run
// end to end without model weights. The same image and style always
// produce the same bytes, which keeps cache behavior observable.
type SyntheticRunner struct{}

// NewSyntheticRunner creates a synthetic style runner
func NewSyntheticRunner() *SyntheticRunner {
	return &SyntheticRunner{}
}

// RunStyle implements StyleRunner
func (r *SyntheticRunner) RunStyle(ctx context.Context, imageBytes []byte, styleID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}

	// Derive the tint from the style id instead of branching per style
	h := fnv.New32a()
	h.Write([]byte(styleID))
	seed := h.Sum32()
	tintR := uint32(seed & 0xff)
	tintG := uint32((seed >> 8) & 0xff)
	tintB := uint32((seed >> 16) & 0xff)

	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cr, cg, cb, ca := src.At(x, y).RGBA()
			dst.SetRGBA(x, y, color.RGBA{
				R: uint8((cr>>8 + tintR) / 2),
				G: uint8((cg>>8 + tintG) / 2),
				B: uint8((cb>>8 + tintB) / 2),
				A: uint8(ca >> 8),
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return buf.Bytes(), nil
}
