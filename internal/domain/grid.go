package domain

import (
	"fmt"
	"math"
	"sort"
)

// metersPerDegreeLat is the approximate north-south span of one degree of
// latitude. Good to ~0.5% everywhere, which is plenty for resolution policy.
const metersPerDegreeLat = 111320.0

// BBox is a geographic bounding box in decimal degrees.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the point lies inside the box (edges inclusive).
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// RasterGrid is a single-timestep temperature field in degrees Fahrenheit.
//
// Values is row-major (i*Cols + j). Cells without a valid measurement hold
// NaN and are false in Mask; they must never hold a fabricated number.
// Lat and Lon are either 1D axes (len Rows and len Cols) or, for curvilinear
// grids, full 2D arrays of len Rows*Cols each.
type RasterGrid struct {
	Values []float64
	Mask   []bool
	Rows   int
	Cols   int

	Lat         []float64
	Lon         []float64
	Curvilinear bool

	Bounds      BBox
	ResolutionM float64 // native cell spacing in meters

	// SourceHash is the sha256 of the originating source bytes, carried into
	// every artifact for downstream cache invalidation.
	SourceHash string
}

// At returns the value at row i, column j.
func (g *RasterGrid) At(i, j int) float64 {
	return g.Values[i*g.Cols+j]
}

// Valid reports whether the cell at row i, column j holds a real measurement.
func (g *RasterGrid) Valid(i, j int) bool {
	return g.Mask[i*g.Cols+j]
}

// LatAt returns the latitude of cell (i, j) for either axis layout.
func (g *RasterGrid) LatAt(i, j int) float64 {
	if g.Curvilinear {
		return g.Lat[i*g.Cols+j]
	}
	return g.Lat[i]
}

// LonAt returns the longitude of cell (i, j) for either axis layout.
func (g *RasterGrid) LonAt(i, j int) float64 {
	if g.Curvilinear {
		return g.Lon[i*g.Cols+j]
	}
	return g.Lon[j]
}

// Clone returns a deep copy. Transform stages operate on copies so that no
// stage mutates its input and concurrent runs never share raster state.
func (g *RasterGrid) Clone() *RasterGrid {
	c := *g
	c.Values = append([]float64(nil), g.Values...)
	c.Mask = append([]bool(nil), g.Mask...)
	c.Lat = append([]float64(nil), g.Lat...)
	c.Lon = append([]float64(nil), g.Lon...)
	return &c
}

// Validate checks the shape invariants and the value/mask alignment:
// every masked cell is NaN and every valid cell is finite.
func (g *RasterGrid) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("%w: grid is %dx%d", ErrUnexpectedDimensionality, g.Rows, g.Cols)
	}
	n := g.Rows * g.Cols
	if len(g.Values) != n || len(g.Mask) != n {
		return fmt.Errorf("%w: values/mask length %d/%d, want %d", ErrUnexpectedDimensionality, len(g.Values), len(g.Mask), n)
	}
	if g.Curvilinear {
		if len(g.Lat) != n || len(g.Lon) != n {
			return fmt.Errorf("%w: curvilinear coords length %d/%d, want %d", ErrUnexpectedDimensionality, len(g.Lat), len(g.Lon), n)
		}
	} else {
		if len(g.Lat) != g.Rows || len(g.Lon) != g.Cols {
			return fmt.Errorf("%w: axes length %d/%d, want %d/%d", ErrUnexpectedDimensionality, len(g.Lat), len(g.Lon), g.Rows, g.Cols)
		}
	}
	for i, v := range g.Values {
		finite := !math.IsNaN(v) && !math.IsInf(v, 0)
		if g.Mask[i] && !finite {
			return fmt.Errorf("%w: cell %d marked valid but holds %v", ErrMask, i, v)
		}
		if !g.Mask[i] && finite {
			return fmt.Errorf("%w: cell %d marked invalid but holds %v", ErrMask, i, v)
		}
	}
	return nil
}

// RecalcBounds recomputes Bounds from the coordinate arrays.
func (g *RasterGrid) RecalcBounds() {
	b := BBox{MinLat: math.Inf(1), MinLon: math.Inf(1), MaxLat: math.Inf(-1), MaxLon: math.Inf(-1)}
	for _, la := range g.Lat {
		b.MinLat = math.Min(b.MinLat, la)
		b.MaxLat = math.Max(b.MaxLat, la)
	}
	for _, lo := range g.Lon {
		b.MinLon = math.Min(b.MinLon, lo)
		b.MaxLon = math.Max(b.MaxLon, lo)
	}
	g.Bounds = b
}

// EstimateResolutionM derives the native cell spacing in meters from the
// median absolute latitude step. Used when the dataset does not declare its
// resolution.
func (g *RasterGrid) EstimateResolutionM() float64 {
	var steps []float64
	if g.Curvilinear {
		for i := 1; i < g.Rows; i++ {
			steps = append(steps, math.Abs(g.Lat[i*g.Cols]-g.Lat[(i-1)*g.Cols]))
		}
	} else {
		for i := 1; i < len(g.Lat); i++ {
			steps = append(steps, math.Abs(g.Lat[i]-g.Lat[i-1]))
		}
	}
	if len(steps) == 0 {
		return 0
	}
	return medianOf(steps) * metersPerDegreeLat
}

// Crop returns the sub-grid covering the intersection of the grid with box.
// The crop is index-rectangular: for curvilinear grids it keeps every row and
// column that has at least one coordinate inside the box.
func (g *RasterGrid) Crop(box BBox) (*RasterGrid, error) {
	i0, i1, j0, j1 := -1, -1, -1, -1
	if g.Curvilinear {
		for i := 0; i < g.Rows; i++ {
			for j := 0; j < g.Cols; j++ {
				if !box.Contains(g.Lat[i*g.Cols+j], g.Lon[i*g.Cols+j]) {
					continue
				}
				if i0 == -1 || i < i0 {
					i0 = i
				}
				if i > i1 {
					i1 = i
				}
				if j0 == -1 || j < j0 {
					j0 = j
				}
				if j > j1 {
					j1 = j
				}
			}
		}
	} else {
		for i, la := range g.Lat {
			if la >= box.MinLat && la <= box.MaxLat {
				if i0 == -1 {
					i0 = i
				}
				i1 = i
			}
		}
		for j, lo := range g.Lon {
			if lo >= box.MinLon && lo <= box.MaxLon {
				if j0 == -1 {
					j0 = j
				}
				j1 = j
			}
		}
	}
	if i0 == -1 || j0 == -1 {
		return nil, fmt.Errorf("%w: region %+v does not intersect grid bounds %+v", ErrInput, box, g.Bounds)
	}

	rows, cols := i1-i0+1, j1-j0+1
	out := &RasterGrid{
		Values:      make([]float64, rows*cols),
		Mask:        make([]bool, rows*cols),
		Rows:        rows,
		Cols:        cols,
		Curvilinear: g.Curvilinear,
		ResolutionM: g.ResolutionM,
		SourceHash:  g.SourceHash,
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			src := (i0+i)*g.Cols + (j0 + j)
			dst := i*cols + j
			out.Values[dst] = g.Values[src]
			out.Mask[dst] = g.Mask[src]
		}
	}
	if g.Curvilinear {
		out.Lat = make([]float64, rows*cols)
		out.Lon = make([]float64, rows*cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				src := (i0+i)*g.Cols + (j0 + j)
				out.Lat[i*cols+j] = g.Lat[src]
				out.Lon[i*cols+j] = g.Lon[src]
			}
		}
	} else {
		out.Lat = append([]float64(nil), g.Lat[i0:i1+1]...)
		out.Lon = append([]float64(nil), g.Lon[j0:j1+1]...)
	}
	out.RecalcBounds()
	return out, nil
}

func medianOf(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	if len(s)%2 == 1 {
		return s[len(s)/2]
	}
	return (s[len(s)/2-1] + s[len(s)/2]) / 2
}
