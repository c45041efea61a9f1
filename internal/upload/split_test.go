package upload

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(y), G: 100, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func heights(t *testing.T, parts [][]byte) []int {
	t.Helper()
	var out []int
	for _, p := range parts {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(p))
		require.NoError(t, err)
		out = append(out, cfg.Height)
	}
	return out
}

func TestSplit(t *testing.T) {
	parts, err := Split(bytes.NewReader(pngOf(t, 20, 250)), 100)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 100, 50}, heights(t, parts))
}

func TestSplitShortImageIsOnePiece(t *testing.T) {
	parts, err := Split(bytes.NewReader(pngOf(t, 20, 100)), 100)
	require.NoError(t, err)
	assert.Equal(t, []int{100}, heights(t, parts))
}

func TestSplitErrors(t *testing.T) {
	_, err := Split(strings.NewReader("not an image"), 100)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = Split(bytes.NewReader(pngOf(t, 2, 2)), 0)
	assert.ErrorIs(t, err, ErrInvalidHeight)
}

func TestSplitRejectsOversizedImageBeforeDecoding(t *testing.T) {
	prev := MaxPixels
	MaxPixels = 20 * 100
	t.Cleanup(func() { MaxPixels = prev })

	_, err := Split(bytes.NewReader(pngOf(t, 20, 101)), 100)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	parts, err := Split(bytes.NewReader(pngOf(t, 20, 100)), 50)
	require.NoError(t, err)
	assert.Equal(t, []int{50, 50}, heights(t, parts))
}

func TestExpandNamesPieces(t *testing.T) {
	files, err := Expand([]File{
		{Name: "detail.png", ContentType: "image/png", Data: pngOf(t, 10, 30)},
		{Name: "thumb.png", ContentType: "image/png", Data: pngOf(t, 10, 10)},
	}, 15)
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
		assert.Equal(t, "image/jpeg", f.ContentType)
	}
	assert.Equal(t, []string{"detail_1.jpg", "detail_2.jpg", "thumb.jpg"}, names)
}
