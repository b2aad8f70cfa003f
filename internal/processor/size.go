package processor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxPixels bounds the area of a source or target image. Larger requests are
// rejected per item instead of being allocated.
const MaxPixels = 1 << 27

// ResolveSize returns the target dimensions for an image of ow x oh pixels.
// resize is false when spec asks for no resize at all.
//
// A scale wins over width/height. With KeepAspect and both axes requested,
// the result is the largest box of the source's aspect ratio that fits
// inside the requested one.
func ResolveSize(ow, oh int, spec SizeSpec) (w, h int, resize bool, err error) {
	if ow <= 0 || oh <= 0 {
		return 0, 0, false, &SpecificationError{Message: "source image has no pixels"}
	}

	if scaleText := strings.TrimSpace(spec.Scale); scaleText != "" {
		s, perr := strconv.ParseFloat(scaleText, 64)
		if perr != nil || math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
			return 0, 0, false, &SpecificationError{Message: "invalid scale: must be a positive percentage"}
		}
		w, wok := toDim(float64(ow) * s / 100)
		h, hok := toDim(float64(oh) * s / 100)
		if !wok || !hok || !withinBudget(w, h) {
			return 0, 0, false, &SpecificationError{Message: fmt.Sprintf("invalid scale: result exceeds %d pixels", MaxPixels)}
		}
		return w, h, true, nil
	}

	wText := strings.TrimSpace(spec.Width)
	hText := strings.TrimSpace(spec.Height)
	if wText == "" && hText == "" {
		return ow, oh, false, nil
	}

	w, hasW, err := parseDimension(wText)
	if err != nil {
		return 0, 0, false, err
	}
	h, hasH, err := parseDimension(hText)
	if err != nil {
		return 0, 0, false, err
	}

	if !spec.KeepAspect {
		if !hasW {
			w = ow
		}
		if !hasH {
			h = oh
		}
		return checkDims(w, h)
	}

	original := float64(ow) / float64(oh)
	ok := true
	switch {
	case hasW && !hasH:
		h, ok = toDim(float64(w) / float64(ow) * float64(oh))
	case hasH && !hasW:
		w, ok = toDim(float64(h) / float64(oh) * float64(ow))
	default:
		requested := float64(w) / float64(h)
		if requested > original {
			// the box is wider than the source: height limits
			w, ok = toDim(float64(h) * original)
		} else {
			h, ok = toDim(float64(w) / original)
		}
	}
	if !ok {
		return 0, 0, false, tooLarge()
	}

	return checkDims(w, h)
}

func checkDims(w, h int) (int, int, bool, error) {
	w, h = atLeastOne(w), atLeastOne(h)
	if !withinBudget(w, h) {
		return 0, 0, false, tooLarge()
	}
	return w, h, true, nil
}

func tooLarge() error {
	return &SpecificationError{Message: fmt.Sprintf("invalid dimensions: result exceeds %d pixels", MaxPixels)}
}

// withinBudget reports whether a w x h image stays within MaxPixels, without
// overflowing on the multiplication.
func withinBudget(w, h int) bool {
	if w <= 0 || h <= 0 {
		return true
	}
	return w <= MaxPixels/h
}

// toDim rounds v to a pixel count clamped to at least 1. It fails for values
// that do not fit the int32 range.
func toDim(v float64) (int, bool) {
	r := math.Round(v)
	if math.IsNaN(r) || r > math.MaxInt32 {
		return 0, false
	}
	return atLeastOne(int(r)), true
}

func parseDimension(text string) (int, bool, error) {
	if text == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(text)
	if err != nil || v <= 0 {
		return 0, false, &SpecificationError{Message: "invalid dimensions: width and height must be positive integers"}
	}
	return v, true, nil
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
