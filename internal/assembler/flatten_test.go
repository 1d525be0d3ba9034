package assembler

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestFlattenFullyOpaquePassthrough(t *testing.T) {
	src := solidNRGBA(8, 6, color.NRGBA{R: 13, G: 200, B: 77, A: 255})

	out := FlattenToWhite(src)

	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			got := out.NRGBAAt(x, y)
			assert.Equal(t, uint8(13), got.R)
			assert.Equal(t, uint8(200), got.G)
			assert.Equal(t, uint8(77), got.B)
			assert.Equal(t, uint8(255), got.A)
		}
	}
}

func TestFlattenFullyTransparentIsWhite(t *testing.T) {
	src := solidNRGBA(4, 4, color.NRGBA{R: 13, G: 200, B: 77, A: 0})

	out := FlattenToWhite(src)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			got := out.NRGBAAt(x, y)
			assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, got)
		}
	}
}

func TestFlattenHalfAlpha(t *testing.T) {
	// a=128: out = (0*128 + 255*127 + 127) / 255 = 127 for a black pixel.
	src := solidNRGBA(1, 1, color.NRGBA{R: 0, G: 0, B: 0, A: 128})

	out := FlattenToWhite(src)
	got := out.NRGBAAt(0, 0)

	assert.Equal(t, uint8(127), got.R)
	assert.Equal(t, uint8(127), got.G)
	assert.Equal(t, uint8(127), got.B)
	assert.Equal(t, uint8(255), got.A)
}

func TestFlattenIsDeterministic(t *testing.T) {
	src := solidNRGBA(3, 3, color.NRGBA{R: 90, G: 40, B: 10, A: 77})

	first := FlattenToWhite(src)
	second := FlattenToWhite(src)

	assert.Equal(t, first.Pix, second.Pix)
}

func TestFlattenMixedPixels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})

	out := FlattenToWhite(src)

	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, out.NRGBAAt(1, 0))
}

func TestFlattenNonNRGBAInput(t *testing.T) {
	// A gray image exercises the conversion path; gray has no alpha, so
	// the output must equal the input values.
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(0, 0, color.Gray{Y: 42})
	gray.SetGray(1, 1, color.Gray{Y: 200})

	out := FlattenToWhite(gray)

	assert.Equal(t, uint8(42), out.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(200), out.NRGBAAt(1, 1).G)
}

func TestResize(t *testing.T) {
	src := solidNRGBA(10, 10, color.NRGBA{R: 50, G: 60, B: 70, A: 255})

	out := Resize(src, 64, 48)

	require.Equal(t, 64, out.Bounds().Dx())
	require.Equal(t, 48, out.Bounds().Dy())

	// A solid image stays solid after scaling.
	assert.Equal(t, uint8(50), out.NRGBAAt(32, 24).R)
	assert.Equal(t, uint8(60), out.NRGBAAt(32, 24).G)
}
