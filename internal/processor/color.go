package processor

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// normalize prepares img for the target encoder. JPEG cannot store
// transparency, so anything with alpha is composited onto white first.
func normalize(img image.Image, format Format) image.Image {
	if format != FormatJPEG {
		return img
	}
	if hasAlpha(img) {
		return flatten(img, color.White)
	}
	return imaging.Clone(img)
}

// hasAlpha reports whether the color model of img can carry transparency.
func hasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.RGBA, *image.NRGBA64, *image.RGBA64, *image.Alpha, *image.Alpha16:
		return true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}
