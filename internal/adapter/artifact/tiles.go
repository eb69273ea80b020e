package artifact

import (
	"image"
	"image/draw"
)

// Tile is one fixed-size slice of a tier image, addressed by column and row
// from the top-left corner.
type Tile struct {
	Col, Row int
	Image    *image.NRGBA
}

// SliceTiles cuts img into size x size tiles. Edge tiles are padded with
// transparent pixels so every tile has identical dimensions.
func SliceTiles(img *image.NRGBA, size int) []Tile {
	b := img.Bounds()
	if size <= 0 || b.Empty() {
		return nil
	}

	cols := (b.Dx() + size - 1) / size
	rows := (b.Dy() + size - 1) / size
	tiles := make([]Tile, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			src := image.Rect(
				b.Min.X+col*size,
				b.Min.Y+row*size,
				min(b.Min.X+(col+1)*size, b.Max.X),
				min(b.Min.Y+(row+1)*size, b.Max.Y),
			)
			t := image.NewNRGBA(image.Rect(0, 0, size, size))
			draw.Draw(t, image.Rect(0, 0, src.Dx(), src.Dy()), img, src.Min, draw.Src)
			tiles = append(tiles, Tile{Col: col, Row: row, Image: t})
		}
	}
	return tiles
}

// Transparent reports whether every pixel in the tile has zero alpha. Fully
// transparent tiles cover pure land or masked water and are not worth
// publishing.
func (t Tile) Transparent() bool {
	for i := 3; i < len(t.Image.Pix); i += 4 {
		if t.Image.Pix[i] != 0 {
			return false
		}
	}
	return true
}
