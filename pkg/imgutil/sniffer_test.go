package imgutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pad(b []byte) []byte {
	out := make([]byte, HeaderSize)
	copy(out, b)
	return out
}

func TestDetectHeader(t *testing.T) {
	cases := []struct {
		name   string
		header []byte
		want   Kind
	}{
		{"jpeg", pad([]byte{0xff, 0xd8, 0xff, 0xe0}), KindJPEG},
		{"png", pad(pngSig), KindPNG},
		{"gif", pad([]byte("GIF89a")), KindGIF},
		{"bmp", pad([]byte("BM")), KindBMP},
		{"tiff le", pad(tiffSigLE), KindTIFF},
		{"tiff be", pad(tiffSigBE), KindTIFF},
		{"webp", []byte("RIFF\x10\x00\x00\x00WEBP"), KindWEBP},
		{"riff but not webp", []byte("RIFF\x10\x00\x00\x00WAVE"), KindUnknown},
		{"text", []byte("hello, world"), KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DetectHeader(tc.header)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSniffReaderShortInput(t *testing.T) {
	kind, err := SniffReader(bytes.NewReader([]byte{0xff, 0xd8}))
	assert.ErrorIs(t, err, ErrShortHeader)
	assert.Equal(t, KindUnknown, kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "webp", KindWEBP.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
