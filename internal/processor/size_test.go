package processor

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSizeScale(t *testing.T) {
	w, h, resize, err := ResolveSize(800, 600, SizeSpec{Scale: "50"})
	require.NoError(t, err)
	assert.True(t, resize)
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)
}

func TestResolveSizeScaleFormula(t *testing.T) {
	sizes := [][2]int{{1, 1}, {7, 3}, {800, 600}, {1920, 1080}, {13, 997}}
	scales := []float64{0.5, 1, 12.5, 33.3, 50, 100, 250}

	for _, sz := range sizes {
		for _, s := range scales {
			spec := SizeSpec{Scale: formatFloat(s), Width: "10", Height: "10", KeepAspect: true}
			w, h, resize, err := ResolveSize(sz[0], sz[1], spec)
			require.NoError(t, err)
			require.True(t, resize)

			wantW := max(1, int(math.Round(float64(sz[0])*s/100)))
			wantH := max(1, int(math.Round(float64(sz[1])*s/100)))
			assert.Equal(t, wantW, w, "width for %v at %v%%", sz, s)
			assert.Equal(t, wantH, h, "height for %v at %v%%", sz, s)
		}
	}
}

func TestResolveSizeInvalidScale(t *testing.T) {
	for _, scale := range []string{"0", "-10", "abc", "NaN", "Inf"} {
		_, _, _, err := ResolveSize(800, 600, SizeSpec{Scale: scale})
		var specErr *SpecificationError
		require.ErrorAs(t, err, &specErr, "scale %q", scale)
		assert.Contains(t, specErr.Message, "invalid scale")
	}
}

func TestResolveSizeNoRequest(t *testing.T) {
	w, h, resize, err := ResolveSize(640, 480, SizeSpec{KeepAspect: true})
	require.NoError(t, err)
	assert.False(t, resize)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestResolveSizeInvalidDimensions(t *testing.T) {
	specs := []SizeSpec{
		{Width: "12.5"},
		{Height: "tall"},
		{Width: "100", Height: "x"},
		{Width: "-5"},
		{Width: "0", KeepAspect: true},
	}
	for _, spec := range specs {
		_, _, _, err := ResolveSize(640, 480, spec)
		var specErr *SpecificationError
		require.ErrorAs(t, err, &specErr, "spec %+v", spec)
		assert.Contains(t, specErr.Message, "invalid dimensions")
	}
}

func TestResolveSizeIndependentAxes(t *testing.T) {
	w, h, _, err := ResolveSize(640, 480, SizeSpec{Width: "100"})
	require.NoError(t, err)
	assert.Equal(t, 100, w)
	assert.Equal(t, 480, h)

	w, h, _, err = ResolveSize(640, 480, SizeSpec{Height: "100"})
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 100, h)

	w, h, _, err = ResolveSize(640, 480, SizeSpec{Width: "10", Height: "900"})
	require.NoError(t, err)
	assert.Equal(t, 10, w)
	assert.Equal(t, 900, h)
}

func TestResolveSizeWidthOnlyKeepAspect(t *testing.T) {
	w, h, _, err := ResolveSize(1000, 500, SizeSpec{Width: "300", KeepAspect: true})
	require.NoError(t, err)
	assert.Equal(t, 300, w)
	assert.Equal(t, 150, h)

	for _, sz := range [][2]int{{1000, 500}, {333, 777}, {4032, 3024}} {
		for _, req := range []int{1, 50, 299, 1024} {
			w, h, _, err := ResolveSize(sz[0], sz[1], SizeSpec{Width: strconv.Itoa(req), KeepAspect: true})
			require.NoError(t, err)
			assert.Equal(t, req, w)
			assert.Equal(t, max(1, int(math.Round(float64(req)/float64(sz[0])*float64(sz[1])))), h)
		}
	}
}

func TestResolveSizeHeightOnlyKeepAspect(t *testing.T) {
	w, h, _, err := ResolveSize(1000, 500, SizeSpec{Height: "100", KeepAspect: true})
	require.NoError(t, err)
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)
}

func TestResolveSizeFitInsideBox(t *testing.T) {
	// wider box than the source: height limits
	w, h, _, err := ResolveSize(800, 600, SizeSpec{Width: "1000", Height: "300", KeepAspect: true})
	require.NoError(t, err)
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)

	// taller box than the source: width limits
	w, h, _, err = ResolveSize(800, 600, SizeSpec{Width: "200", Height: "900", KeepAspect: true})
	require.NoError(t, err)
	assert.Equal(t, 200, w)
	assert.Equal(t, 150, h)

	sizes := [][2]int{{800, 600}, {600, 800}, {1, 1000}, {1000, 1}, {333, 777}}
	boxes := [][2]int{{100, 100}, {1, 50}, {640, 480}, {1920, 200}, {7, 3000}}
	for _, sz := range sizes {
		for _, box := range boxes {
			spec := SizeSpec{Width: strconv.Itoa(box[0]), Height: strconv.Itoa(box[1]), KeepAspect: true}
			w, h, _, err := ResolveSize(sz[0], sz[1], spec)
			require.NoError(t, err)
			assert.True(t, w == box[0] || h == box[1], "one axis must match the box: src %v box %v got %dx%d", sz, box, w, h)
			assert.LessOrEqual(t, w, box[0], "src %v box %v", sz, box)
			assert.LessOrEqual(t, h, box[1], "src %v box %v", sz, box)
		}
	}
}

func TestResolveSizeClampsToOne(t *testing.T) {
	w, h, _, err := ResolveSize(1, 1000, SizeSpec{Height: "10", KeepAspect: true})
	require.NoError(t, err)
	assert.Equal(t, 1, w)
	assert.Equal(t, 10, h)

	w, h, _, err = ResolveSize(10, 10, SizeSpec{Scale: "0.001"})
	require.NoError(t, err)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func TestResolveSizeRejectsHugeScale(t *testing.T) {
	for _, scale := range []string{"1e300", "1e12", "2000000"} {
		_, _, _, err := ResolveSize(800, 600, SizeSpec{Scale: scale})
		var specErr *SpecificationError
		require.ErrorAs(t, err, &specErr, "scale %q", scale)
		assert.Contains(t, specErr.Message, "invalid scale")
	}

	// large but within the pixel budget
	w, h, _, err := ResolveSize(800, 600, SizeSpec{Scale: "1000"})
	require.NoError(t, err)
	assert.Equal(t, 8000, w)
	assert.Equal(t, 6000, h)
}

func TestResolveSizeRejectsHugeDimensions(t *testing.T) {
	specs := []SizeSpec{
		{Width: "100000000", Height: "100000000"},
		{Width: "100000000", Height: "100000000", KeepAspect: true},
		{Width: "99999999999999999999"},
		{Width: "2000000000", KeepAspect: true},
		{Height: "2000000000"},
	}
	for _, spec := range specs {
		_, _, _, err := ResolveSize(4, 4, spec)
		var specErr *SpecificationError
		require.ErrorAs(t, err, &specErr, "spec %+v", spec)
		assert.Contains(t, specErr.Message, "invalid dimensions")
	}

	w, h, _, err := ResolveSize(4, 4, SizeSpec{Width: "8192", Height: "8192"})
	require.NoError(t, err)
	assert.Equal(t, 8192, w)
	assert.Equal(t, 8192, h)
}

func TestWithinBudget(t *testing.T) {
	assert.True(t, withinBudget(MaxPixels, 1))
	assert.False(t, withinBudget(MaxPixels, 2))
	assert.False(t, withinBudget(math.MaxInt, math.MaxInt))
}
