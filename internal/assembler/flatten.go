package assembler

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// FlattenToWhite composites an alpha-channel image over an opaque white
// backdrop, per channel, per pixel: out = src*(a/255) + 255*(1-a/255).
// Fully opaque pixels pass through unchanged; fully transparent pixels
// become pure white.
func FlattenToWhite(src image.Image) *image.NRGBA {
	nrgba := toNRGBA(src)

	bounds := nrgba.Bounds()
	out := image.NewNRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := nrgba.PixOffset(x, y)
			a := uint32(nrgba.Pix[i+3])
			for c := 0; c < 3; c++ {
				s := uint32(nrgba.Pix[i+c])
				out.Pix[i+c] = uint8((s*a + 255*(255-a) + 127) / 255)
			}
			out.Pix[i+3] = 255
		}
	}

	return out
}

// Resize scales an image to the given dimensions. Used for frames whose
// stored size drifted from the job's declared resolution; a mis-sized
// frame is conformed, never a reason to abort the job.
func Resize(src image.Image, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	bounds := src.Bounds()
	n := image.NewNRGBA(bounds)
	draw.Draw(n, bounds, src, bounds.Min, draw.Src)
	return n
}
