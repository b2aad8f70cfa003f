package processor

import (
	"fmt"
	"strings"
	"time"
)

type Format int

const (
	FormatJPEG Format = iota + 1
	FormatPNG
	FormatWEBP
	FormatBMP
	FormatTIFF
)

// Formats lists every supported target format in display order.
var Formats = []Format{FormatJPEG, FormatPNG, FormatWEBP, FormatBMP, FormatTIFF}

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "JPEG"
	case FormatPNG:
		return "PNG"
	case FormatWEBP:
		return "WEBP"
	case FormatBMP:
		return "BMP"
	case FormatTIFF:
		return "TIFF"
	default:
		return "UNKNOWN"
	}
}

// Extension returns the canonical file extension without the dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return strings.ToLower(f.String())
}

func (f Format) Valid() bool {
	return f >= FormatJPEG && f <= FormatTIFF
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "JPEG", "JPG":
		return FormatJPEG, nil
	case "PNG":
		return FormatPNG, nil
	case "WEBP":
		return FormatWEBP, nil
	case "BMP":
		return FormatBMP, nil
	case "TIFF", "TIF":
		return FormatTIFF, nil
	default:
		return 0, fmt.Errorf("unsupported format %q (must be one of JPEG, PNG, WEBP, BMP, TIFF)", s)
	}
}

// SizeSpec holds the size request exactly as the user typed it. Parsing is
// deferred to ResolveSize so bad text fails a single item, not the batch.
type SizeSpec struct {
	Scale      string
	Width      string
	Height     string
	KeepAspect bool
}

type ConversionConfig struct {
	Format     Format
	Quality    int
	Size       SizeSpec
	Overwrite  bool
	OutputDir  string
	AutoOrient bool
}

const (
	MinQuality = 1
	MaxQuality = 100
)

// Validate checks the batch-level preconditions.
func (c ConversionConfig) Validate() error {
	if !c.Format.Valid() {
		return &ConfigError{Field: "format", Message: "unsupported target format"}
	}
	if c.Quality < MinQuality || c.Quality > MaxQuality {
		return &ConfigError{Field: "quality", Message: fmt.Sprintf("quality must be an integer between %d and %d, got %d", MinQuality, MaxQuality, c.Quality)}
	}
	if !c.Overwrite && strings.TrimSpace(c.OutputDir) == "" {
		return &ConfigError{Field: "output", Message: "output directory required when not overwriting"}
	}
	return nil
}

type SourceItem struct {
	Path      string
	SizeBytes int64
}

type ItemOutcome struct {
	Path string
	Dest string
	Err  *ItemError
}

func (o ItemOutcome) OK() bool {
	return o.Err == nil
}

type BatchResult struct {
	RunID      string
	Attempted  int
	Succeeded  int
	Failed     int
	Cancelled  bool
	Items      []ItemOutcome
	StartedAt  time.Time
	FinishedAt time.Time
}

type UpdateKind int

const (
	UpdateStatus UpdateKind = iota
	UpdateProgress
	UpdateLog
	UpdateDone
)

// ProgressUpdate is one event on the ordered channel a run reports through.
// Done, Total and Failed are absolute counts, not deltas.
type ProgressUpdate struct {
	Kind    UpdateKind
	Message string
	Done    int
	Total   int
	Failed  int
}
