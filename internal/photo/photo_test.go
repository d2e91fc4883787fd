package photo

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodedSize(t *testing.T, s string) (int, int) {
	t.Helper()
	d, err := ParseDataURL(s)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", d.MIME)
	img, err := imaging.Decode(bytes.NewReader(d.Data))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestCompressPortraitLimitsHeight(t *testing.T) {
	out, err := CompressString(pngDataURL(t, 960, 1280))
	require.NoError(t, err)
	w, h := decodedSize(t, out)
	assert.Equal(t, 480, w)
	assert.Equal(t, 640, h)
}

func TestCompressLandscapeLimitsWidth(t *testing.T) {
	out, err := CompressString(pngDataURL(t, 1200, 600))
	require.NoError(t, err)
	w, h := decodedSize(t, out)
	assert.Equal(t, 480, w)
	assert.Equal(t, 240, h)
}

func TestCompressSmallImageKeepsSize(t *testing.T) {
	out, err := CompressString(pngDataURL(t, 100, 120))
	require.NoError(t, err)
	w, h := decodedSize(t, out)
	assert.Equal(t, 100, w)
	assert.Equal(t, 120, h)
}

func TestCompressPassesNonImagesThrough(t *testing.T) {
	in := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))
	out, err := CompressString(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseDataURL(t *testing.T) {
	_, err := ParseDataURL("  ")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ParseDataURL("data:image/png,notbase64")
	assert.ErrorIs(t, err, ErrNotDataURL)

	_, err = ParseDataURL("data:image/png;base64,@@@")
	assert.ErrorIs(t, err, ErrNotDataURL)

	d, err := ParseDataURL(base64.StdEncoding.EncodeToString([]byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", d.MIME)
	assert.Equal(t, []byte("abc"), d.Data)

	big := base64.StdEncoding.EncodeToString(make([]byte, MaxAttachmentBytes+10))
	_, err = ParseDataURL("data:application/pdf;base64," + big)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestCompressRejectsGarbageImage(t *testing.T) {
	_, err := CompressString("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("not a jpeg")))
	assert.Error(t, err)
}
