package processor

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"imgbatch/pkg/imgutil"
)

// Process converts one source image according to cfg. It never panics on bad
// input and never returns a batch-level error: every failure is classified
// into the returned outcome.
func Process(srcPath string, cfg ConversionConfig) (out ItemOutcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("item panicked", "path", srcPath, "panic", r)
			out = ItemOutcome{Path: srcPath, Err: itemErr(UnsupportedFormat, srcPath, "unsupported or corrupted image", fmt.Errorf("panic: %v", r))}
		}
	}()

	dest, err := convert(srcPath, cfg)
	out = ItemOutcome{Path: srcPath, Dest: dest}
	if err != nil {
		out.Err = err
	}
	return out
}

func convert(srcPath string, cfg ConversionConfig) (string, *ItemError) {
	file, err := os.Open(srcPath)
	if err != nil {
		return "", itemErr(IOFailure, srcPath, "cannot open source", err)
	}
	defer file.Close()

	srcInfo, err := file.Stat()
	if err != nil {
		return "", itemErr(IOFailure, srcPath, "cannot stat source", err)
	}

	img, err := decode(file)
	if err != nil {
		var ie *ItemError
		if errors.As(err, &ie) {
			ie.Path = srcPath
			return "", ie
		}
		return "", itemErr(UnsupportedFormat, srcPath, "unsupported or corrupted image", err)
	}

	if cfg.AutoOrient {
		orientation, oerr := readOrientation(file)
		if oerr != nil {
			slog.Debug("orientation unavailable", "path", srcPath, "error", oerr)
		}
		img = applyOrientation(img, orientation)
	}

	bounds := img.Bounds()
	w, h, resize, err := ResolveSize(bounds.Dx(), bounds.Dy(), cfg.Size)
	if err != nil {
		return "", itemErr(InvalidSpec, srcPath, err.Error(), nil)
	}
	if resize {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	img = normalize(img, cfg.Format)

	destPath := destination(srcPath, cfg)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return destPath, itemErr(IOFailure, srcPath, "cannot create destination directory", err)
	}

	err = writeAtomic(destPath, srcInfo.Mode().Perm(), func(w io.Writer) error {
		return encode(w, img, cfg)
	})
	if err != nil {
		return destPath, itemErr(IOFailure, srcPath, "cannot write destination", err)
	}

	slog.Debug("converted", "path", srcPath, "dest", destPath, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return destPath, nil
}

func decode(file *os.File) (image.Image, error) {
	kind, err := imgutil.SniffReader(file)
	if err != nil && !errors.Is(err, imgutil.ErrShortHeader) {
		return nil, itemErr(IOFailure, "", "cannot read source", err)
	}
	if kind == imgutil.KindUnknown {
		return nil, itemErr(UnsupportedFormat, "", "unsupported or corrupted image", nil)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, itemErr(IOFailure, "", "cannot read source", err)
	}
	header, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, itemErr(UnsupportedFormat, "", "unsupported or corrupted image", err)
	}
	if !withinBudget(header.Width, header.Height) {
		return nil, itemErr(UnsupportedFormat, "", fmt.Sprintf("source is %dx%d, over the %d pixel limit", header.Width, header.Height, MaxPixels), nil)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, itemErr(IOFailure, "", "cannot read source", err)
	}
	return imaging.Decode(file)
}

// destination maps a source path to the converted file's path.
func destination(srcPath string, cfg ConversionConfig) string {
	ext := "." + cfg.Format.Extension()
	if cfg.Overwrite {
		return strings.TrimSuffix(srcPath, filepath.Ext(srcPath)) + ext
	}

	base := filepath.Base(srcPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(cfg.OutputDir, stem+ext)
}

func encode(w io.Writer, img image.Image, cfg ConversionConfig) error {
	switch cfg.Format {
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(cfg.Quality))
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	case FormatBMP:
		return imaging.Encode(w, img, imaging.BMP)
	case FormatTIFF:
		return imaging.Encode(w, img, imaging.TIFF)
	case FormatWEBP:
		return webp.Encode(w, img, &webp.Options{Quality: float32(cfg.Quality)})
	default:
		return errors.New("unsupported target format")
	}
}
