package domain

import (
	"fmt"
	"math"
)

// DeriveMask computes the validity mask for raw values: a cell is valid when
// it is finite and not equal to the fill sentinel. Cells that fail either
// test are rewritten to NaN in place so the sentinel never leaks downstream
// as a number.
func DeriveMask(values []float64, fill float64) []bool {
	mask := make([]bool, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v == fill {
			values[i] = math.NaN()
			continue
		}
		mask[i] = true
	}
	return mask
}

// ValidCount returns the number of valid cells.
func ValidCount(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}

// RequireValidCells fails with ErrNoValidCells when the grid has no ocean
// data at all. Runs abort on this before any artifact is staged.
func RequireValidCells(g *RasterGrid) error {
	if ValidCount(g.Mask) == 0 {
		return ErrNoValidCells
	}
	return nil
}

// RequireSameMask verifies that a same-shape transform (smoothing) preserved
// the mask exactly: no cell gained or lost validity.
func RequireSameMask(before, after *RasterGrid) error {
	if before.Rows != after.Rows || before.Cols != after.Cols {
		return fmt.Errorf("%w: shape changed %dx%d -> %dx%d", ErrMask, before.Rows, before.Cols, after.Rows, after.Cols)
	}
	for i := range before.Mask {
		if before.Mask[i] != after.Mask[i] {
			return fmt.Errorf("%w: cell %d validity changed", ErrMask, i)
		}
	}
	return nil
}

// CoastalFill grows the valid region by up to margin cells: each pass fills
// every masked cell that has at least one valid 8-neighbor with the mean of
// its valid neighbors, then marks it valid. A margin of 0 is the default and
// leaves the grid untouched. Positive margins are an explicit opt-in that
// trades mask fidelity for shoreline coverage in the rendered image.
func CoastalFill(g *RasterGrid, margin int) *RasterGrid {
	if margin <= 0 {
		return g
	}
	out := g.Clone()
	for pass := 0; pass < margin; pass++ {
		filled := fillOnce(out)
		if filled == 0 {
			break
		}
	}
	return out
}

func fillOnce(g *RasterGrid) int {
	next := append([]float64(nil), g.Values...)
	nextMask := append([]bool(nil), g.Mask...)
	filled := 0
	for i := 0; i < g.Rows; i++ {
		for j := 0; j < g.Cols; j++ {
			idx := i*g.Cols + j
			if g.Mask[idx] {
				continue
			}
			sum, n := 0.0, 0
			for di := -1; di <= 1; di++ {
				for dj := -1; dj <= 1; dj++ {
					if di == 0 && dj == 0 {
						continue
					}
					ni, nj := i+di, j+dj
					if ni < 0 || ni >= g.Rows || nj < 0 || nj >= g.Cols {
						continue
					}
					if g.Mask[ni*g.Cols+nj] {
						sum += g.Values[ni*g.Cols+nj]
						n++
					}
				}
			}
			if n > 0 {
				next[idx] = sum / float64(n)
				nextMask[idx] = true
				filled++
			}
		}
	}
	g.Values = next
	g.Mask = nextMask
	return filled
}
