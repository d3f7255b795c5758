// Package imaging shrinks uploaded avatars and re-encodes them as PNG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	"image/png"

	"golang.org/x/image/draw"

	"github.com/taskhub/task-api/internal/core/domain"
)

// maxSourcePixels guards against decompression bombs.
const maxSourcePixels = 40_000_000

// AvatarProcessor halves the width of an image, keeping its aspect ratio.
type AvatarProcessor struct {
	scaler draw.Scaler
}

func NewAvatarProcessor() *AvatarProcessor {
	return &AvatarProcessor{scaler: draw.CatmullRom}
}

// Process decodes a JPEG or PNG image and returns the scaled PNG bytes.
func (p *AvatarProcessor) Process(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, invalidImage(err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxSourcePixels {
		return nil, &domain.ValidationError{Field: "avatar", Reason: "image dimensions are not supported"}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, invalidImage(err)
	}

	w, h := halfSize(src.Bounds().Dx(), src.Bounds().Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	p.scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

// halfSize returns half the width and the height that keeps the aspect
// ratio, never below one pixel.
func halfSize(w, h int) (int, int) {
	nw := (w + 1) / 2
	nh := (h*nw + w/2) / w
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

func invalidImage(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return &domain.ValidationError{Field: "avatar", Reason: "file is not a jpeg or png image"}
	}
	return &domain.ValidationError{Field: "avatar", Reason: "image could not be decoded"}
}
