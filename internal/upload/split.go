package upload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
)

var (
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrInvalidHeight    = errors.New("split height must be positive")
	ErrImageTooLarge    = errors.New("image too large")
)

// MaxPixels bounds width*height of an image before it is decoded.
var MaxPixels = 40_000_000

const jpegQuality = 90

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Split cuts a tall image into JPEG slices no taller than maxHeight, top to bottom.
func Split(r io.Reader, maxHeight int) ([][]byte, error) {
	if maxHeight <= 0 {
		return nil, ErrInvalidHeight
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	b := img.Bounds()
	var out [][]byte
	for y := b.Min.Y; y < b.Max.Y; y += maxHeight {
		rect := image.Rect(b.Min.X, y, b.Max.X, min(y+maxHeight, b.Max.Y))
		var part image.Image
		if si, ok := img.(subImager); ok {
			part = si.SubImage(rect)
		} else {
			dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
			draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
			part = dst
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, part, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("encode slice at y=%d: %w", y, err)
		}
		out = append(out, buf.Bytes())
	}
	return out, nil
}
