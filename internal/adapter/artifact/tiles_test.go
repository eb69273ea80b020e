package artifact

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceTiles(t *testing.T) {
	t.Run("exact multiple", func(t *testing.T) {
		img := solidImage(16, 16, color.NRGBA{R: 1, A: 255})
		tiles := SliceTiles(img, 8)
		require.Len(t, tiles, 4)
		for _, tile := range tiles {
			assert.Equal(t, 8, tile.Image.Rect.Dx())
			assert.Equal(t, 8, tile.Image.Rect.Dy())
		}
	})

	t.Run("edges are padded to full size", func(t *testing.T) {
		img := solidImage(20, 12, color.NRGBA{R: 1, A: 255})
		tiles := SliceTiles(img, 8)
		require.Len(t, tiles, 6, "3 columns x 2 rows")

		last := tiles[len(tiles)-1]
		assert.Equal(t, 2, last.Col)
		assert.Equal(t, 1, last.Row)
		assert.Equal(t, 8, last.Image.Rect.Dx(), "padded, not shrunk")

		// Source pixels land at the tile origin; padding stays transparent.
		assert.Equal(t, uint8(255), last.Image.NRGBAAt(0, 0).A)
		assert.Equal(t, uint8(0), last.Image.NRGBAAt(7, 7).A)
	})

	t.Run("pixel content is copied in place", func(t *testing.T) {
		img := solidImage(16, 8, color.NRGBA{A: 255})
		img.SetNRGBA(9, 3, color.NRGBA{R: 77, G: 66, B: 55, A: 255})

		tiles := SliceTiles(img, 8)
		require.Len(t, tiles, 2)
		assert.Equal(t, color.NRGBA{R: 77, G: 66, B: 55, A: 255}, tiles[1].Image.NRGBAAt(1, 3))
	})

	t.Run("zero size disables slicing", func(t *testing.T) {
		img := solidImage(16, 16, color.NRGBA{A: 255})
		assert.Nil(t, SliceTiles(img, 0))
	})

	t.Run("empty image", func(t *testing.T) {
		assert.Nil(t, SliceTiles(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 8))
	})
}

func TestTileTransparent(t *testing.T) {
	clear := Tile{Image: image.NewNRGBA(image.Rect(0, 0, 4, 4))}
	assert.True(t, clear.Transparent())

	dot := Tile{Image: image.NewNRGBA(image.Rect(0, 0, 4, 4))}
	dot.Image.SetNRGBA(3, 3, color.NRGBA{R: 1, A: 1})
	assert.False(t, dot.Transparent())
}
