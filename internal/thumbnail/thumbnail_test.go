package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDecodeJPEGAndPNG(t *testing.T) {
	src := solid(20, 10, color.RGBA{R: 200, A: 255})

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, src, nil))
	img, err := Decode(jpg.Bytes())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 10), img.Bounds())

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, src))
	img, err = Decode(pngBuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())

	_, err = Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestSquareFitsWithPadding(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	out := Square(solid(320, 160, red), 160)

	require.Equal(t, image.Rect(0, 0, 160, 160), out.Bounds())
	// 320x160 scales to 160x80, centered vertically
	_, _, _, a := out.At(80, 10).RGBA()
	assert.Zero(t, a, "top padding is transparent")
	r, _, _, a := out.At(80, 80).RGBA()
	assert.NotZero(t, a)
	assert.Greater(t, r, uint32(0xf000))
}

func TestSquareNeverUpscales(t *testing.T) {
	out := Square(solid(40, 40, color.White), 160)

	require.Equal(t, 160, out.Bounds().Dx())
	_, _, _, a := out.At(10, 10).RGBA()
	assert.Zero(t, a, "small image is padded, not stretched")
	_, _, _, a = out.At(80, 80).RGBA()
	assert.NotZero(t, a)
}

func TestSquareSameSizeIsIdentity(t *testing.T) {
	src := solid(64, 64, color.Black)
	assert.Same(t, src, Square(src, 64))
}

func TestToken(t *testing.T) {
	tok := NewToken()
	assert.False(t, tok.Cancelled())
	tok.Cancel()
	tok.Cancel()
	assert.True(t, tok.Cancelled())
}

func TestIconsAreCachedPerKindAndSize(t *testing.T) {
	icons := NewIcons()

	a := icons.Icon(IconSharedFolder, 32)
	b := icons.Icon(IconSharedFolder, 32)
	assert.Same(t, a, b)
	assert.NotSame(t, a, icons.Icon(IconPersonalFolder, 32))
	assert.Equal(t, 32, icons.Icon(IconWebLink, 32).Bounds().Dx())
	assert.Equal(t, 3, icons.cache.Len())
}

func TestRenderIconColors(t *testing.T) {
	shared := RenderIcon(IconSharedFolder, 64)
	assert.Equal(t, sharedFolderColor, shared.RGBAAt(32, 40))

	doc := RenderIcon(IconGenericDocument, 64)
	assert.Equal(t, neutralColor, doc.RGBAAt(32, 32))
	assert.Zero(t, doc.RGBAAt(0, 0).A)

	link := RenderIcon(IconWebLink, 64)
	assert.Equal(t, neutralColor, link.RGBAAt(32, 32))
	assert.Zero(t, link.RGBAAt(1, 1).A)
}

func TestIconKindString(t *testing.T) {
	assert.Equal(t, "externalFolder", IconExternalFolder.String())
	assert.Equal(t, "IconKind(42)", IconKind(42).String())
}
