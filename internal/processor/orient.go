package processor

import (
	"errors"
	"image"
	"io"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	exif "github.com/dsoprea/go-exif/v3"
)

// readOrientation returns the EXIF Orientation tag (1-8) of the image in rs,
// or 1 when the file carries no usable orientation.
func readOrientation(rs io.ReadSeeker) (int, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 1, err
	}

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		if errorsIsNoExif(err) {
			return 1, nil
		}
		return 1, err
	}

	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		if v, ok := orientationValue(tag.Value, tag.FormattedFirst); ok {
			return v, nil
		}
	}
	return 1, nil
}

func orientationValue(value interface{}, formatted string) (int, bool) {
	var v int
	switch typed := value.(type) {
	case []uint16:
		if len(typed) == 0 {
			return 0, false
		}
		v = int(typed[0])
	case []uint32:
		if len(typed) == 0 {
			return 0, false
		}
		v = int(typed[0])
	default:
		parsed, err := strconv.Atoi(strings.TrimSpace(formatted))
		if err != nil {
			return 0, false
		}
		v = parsed
	}
	if v < 1 || v > 8 {
		return 0, false
	}
	return v, true
}

// applyOrientation rotates/flips img so it displays upright.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func errorsIsNoExif(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exif.ErrNoExif) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
