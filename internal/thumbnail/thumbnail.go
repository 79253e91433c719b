// Package thumbnail decodes, scales and caches the images shown next to
// listing rows.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync/atomic"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decode decodes a JPEG, PNG or WebP thumbnail.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode thumbnail: %w", err)
	}
	return img, nil
}

// Square fits img into a size x size square, centered, with transparent
// padding. Images are scaled down but never up. An image that already has
// the target size is returned as is.
func Square(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == size && h == size {
		return img
	}

	scale := 1.0
	if w > 0 && h > 0 {
		scale = min(float64(size)/float64(w), float64(size)/float64(h), 1)
	}
	nw := max(int(float64(w)*scale+0.5), 1)
	nh := max(int(float64(h)*scale+0.5), 1)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	x0 := (size - nw) / 2
	y0 := (size - nh) / 2
	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+nw, y0+nh), img, b, draw.Over, nil)
	return dst
}

// Token tracks one thumbnail request. Cancelling it suppresses delivery.
type Token struct {
	cancelled atomic.Bool
}

// NewToken returns a live token.
func NewToken() *Token {
	return &Token{}
}

// Cancel marks the request as no longer wanted. Safe to call more than once.
func (t *Token) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether Cancel was called.
func (t *Token) Cancelled() bool {
	return t.cancelled.Load()
}
