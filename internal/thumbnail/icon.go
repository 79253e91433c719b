package thumbnail

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/rescale/box-browse/internal/cache"
)

// IconKind selects the placeholder drawn for an item without a thumbnail.
type IconKind int

const (
	IconPersonalFolder IconKind = iota
	IconSharedFolder
	IconExternalFolder
	IconGenericDocument
	IconWebLink
)

func (k IconKind) String() string {
	switch k {
	case IconPersonalFolder:
		return "personalFolder"
	case IconSharedFolder:
		return "sharedFolder"
	case IconExternalFolder:
		return "externalFolder"
	case IconGenericDocument:
		return "genericDocument"
	case IconWebLink:
		return "weblink"
	}
	return fmt.Sprintf("IconKind(%d)", int(k))
}

var (
	personalFolderColor = color.RGBA{R: 0xf9, G: 0xd9, B: 0x8c, A: 0xff}
	sharedFolderColor   = color.RGBA{R: 0x79, G: 0xd6, B: 0xf9, A: 0xff}
	neutralColor        = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// IconCostLimit bounds the decoded size of the icon cache (512 KiB).
const IconCostLimit = 512 * 1024

type iconKey struct {
	kind IconKind
	size int
}

// Icons renders and caches placeholder icons.
type Icons struct {
	cache *cache.Cache[iconKey, image.Image]
}

// NewIcons returns an empty icon cache.
func NewIcons() *Icons {
	return &Icons{cache: cache.New[iconKey, image.Image](cache.Config{
		Name:       "icons",
		CountLimit: cache.DefaultCountLimit,
		CostLimit:  IconCostLimit,
	})}
}

// Icon returns the icon of kind at size x size pixels.
func (ic *Icons) Icon(kind IconKind, size int) image.Image {
	return ic.cache.GetOrCreate(iconKey{kind, size}, func() (image.Image, int64) {
		img := RenderIcon(kind, size)
		return img, cache.ImageCost(img)
	})
}

// RenderIcon draws an icon without caching it.
func RenderIcon(kind IconKind, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	pad := size / 8

	switch kind {
	case IconPersonalFolder, IconSharedFolder, IconExternalFolder:
		fill := &image.Uniform{C: folderColor(kind)}
		tabH := size / 8
		body := image.Rect(pad, pad+tabH, size-pad, size-pad)
		tab := image.Rect(pad, pad, pad+(size-2*pad)*2/5, pad+tabH)
		draw.Draw(dst, body, fill, image.Point{}, draw.Src)
		draw.Draw(dst, tab, fill, image.Point{}, draw.Src)

	case IconGenericDocument:
		w := (size - 2*pad) * 3 / 4
		x0 := (size - w) / 2
		draw.Draw(dst, image.Rect(x0, pad, x0+w, size-pad), &image.Uniform{C: neutralColor}, image.Point{}, draw.Src)

	case IconWebLink:
		r := float64(size-2*pad) / 2
		c := float64(size) / 2
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				dx, dy := float64(x)+0.5-c, float64(y)+0.5-c
				if dx*dx+dy*dy <= r*r {
					dst.Set(x, y, neutralColor)
				}
			}
		}
	}
	return dst
}

func folderColor(kind IconKind) color.Color {
	switch kind {
	case IconPersonalFolder:
		return personalFolderColor
	case IconSharedFolder:
		return sharedFolderColor
	}
	return neutralColor
}
