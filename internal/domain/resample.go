package domain

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// ResampleSpec carries the densification parameters for one tier.
type ResampleSpec struct {
	Multiplier float64
	Method     InterpolationMethod
}

// ResampleSpec extracts the resampling parameters from a tier.
func (t ZoomTierSpec) ResampleSpec() ResampleSpec {
	return ResampleSpec{Multiplier: t.Multiplier, Method: t.Interpolation}
}

// Resample densifies the grid by the spec's multiplier. The output has shape
// round(rows*m) x round(cols*m) and spans the same physical bounds.
//
// Grids with strictly monotonic 1D axes are interpolated bilinearly in index
// space; target positions are j/m, clamped to the last native node so the
// edge is replicated rather than extrapolated. A target cell is masked
// whenever any native cell of its interpolation support is masked, so values
// never bleed across land. A target landing exactly on a native node takes
// that node's value and mask, which makes multiplier 1 the identity.
//
// Curvilinear grids and 1D axes that change direction fall back to scattered
// nearest-neighbor interpolation over a kd-tree of the native points. Axes
// with duplicate coordinates are rejected with ErrSingularInterpolation.
func Resample(g *RasterGrid, spec ResampleSpec) (*RasterGrid, error) {
	if spec.Multiplier < 1 {
		return nil, fmt.Errorf("%w: multiplier %g < 1", ErrInput, spec.Multiplier)
	}
	outRows := int(math.Round(float64(g.Rows) * spec.Multiplier))
	outCols := int(math.Round(float64(g.Cols) * spec.Multiplier))

	scattered := g.Curvilinear
	if !scattered {
		_, latErr := axisDirection(g.Lat)
		_, lonErr := axisDirection(g.Lon)
		for _, err := range []error{latErr, lonErr} {
			if err == nil {
				continue
			}
			if errors.Is(err, ErrSingularInterpolation) {
				return nil, err
			}
			// Non-monotonic axis: the grid interpolator cannot be built,
			// fall back to scattered interpolation.
			scattered = true
		}
	}

	var out *RasterGrid
	switch {
	case scattered:
		out = resampleScattered(g, spec.Multiplier, outRows, outCols)
	case spec.Method == InterpNearest:
		out = resampleGridNearest(g, spec.Multiplier, outRows, outCols)
	default:
		out = resampleBilinear(g, spec.Multiplier, outRows, outCols)
	}

	out.ResolutionM = g.ResolutionM / spec.Multiplier
	out.SourceHash = g.SourceHash
	out.RecalcBounds()
	if ValidCount(out.Mask) == 0 {
		return nil, ErrInsufficientValidNeighbors
	}
	return out, nil
}

// axisDirection reports +1 for strictly ascending and -1 for strictly
// descending axes. Duplicate adjacent values or axes shorter than two points
// are ErrSingularInterpolation; a direction change is ErrNonMonotonicAxis.
func axisDirection(a []float64) (int, error) {
	if len(a) < 2 {
		return 0, fmt.Errorf("%w: axis has %d points", ErrSingularInterpolation, len(a))
	}
	dir := 0
	for i := 1; i < len(a); i++ {
		d := a[i] - a[i-1]
		switch {
		case d == 0:
			return 0, fmt.Errorf("%w: duplicate axis value %g at index %d", ErrSingularInterpolation, a[i], i)
		case d > 0:
			if dir < 0 {
				return 0, fmt.Errorf("%w: axis direction changes at index %d", ErrNonMonotonicAxis, i)
			}
			dir = 1
		default:
			if dir > 0 {
				return 0, fmt.Errorf("%w: axis direction changes at index %d", ErrNonMonotonicAxis, i)
			}
			dir = -1
		}
	}
	return dir, nil
}

// srcPos maps an output index to a fractional native index, clamping to the
// last node so the final row/column replicates the edge instead of
// extrapolating past it.
func srcPos(out int, m float64, n int) float64 {
	p := float64(out) / m
	if p > float64(n-1) {
		p = float64(n - 1)
	}
	return p
}

// splitPos decomposes a fractional index into its base node and fraction,
// keeping the base in range so base+1 is valid whenever frac > 0.
func splitPos(p float64, n int) (int, float64) {
	i := int(math.Floor(p))
	if i >= n-1 {
		return n - 1, 0
	}
	return i, p - float64(i)
}

func resampleBilinear(g *RasterGrid, m float64, outRows, outCols int) *RasterGrid {
	out := newResampleTarget(g, m, outRows, outCols)
	for oi := 0; oi < outRows; oi++ {
		pi := srcPos(oi, m, g.Rows)
		i0, di := splitPos(pi, g.Rows)
		i1 := i0
		if di > 0 {
			i1 = i0 + 1
		}
		for oj := 0; oj < outCols; oj++ {
			pj := srcPos(oj, m, g.Cols)
			j0, dj := splitPos(pj, g.Cols)
			j1 := j0
			if dj > 0 {
				j1 = j0 + 1
			}

			idx := oi*outCols + oj
			if !g.Valid(i0, j0) || !g.Valid(i0, j1) || !g.Valid(i1, j0) || !g.Valid(i1, j1) {
				out.Values[idx] = math.NaN()
				continue
			}
			v := (1-di)*(1-dj)*g.At(i0, j0) +
				(1-di)*dj*g.At(i0, j1) +
				di*(1-dj)*g.At(i1, j0) +
				di*dj*g.At(i1, j1)
			out.Values[idx] = v
			out.Mask[idx] = true
		}
	}
	return out
}

func resampleGridNearest(g *RasterGrid, m float64, outRows, outCols int) *RasterGrid {
	out := newResampleTarget(g, m, outRows, outCols)
	for oi := 0; oi < outRows; oi++ {
		i := int(math.Round(srcPos(oi, m, g.Rows)))
		for oj := 0; oj < outCols; oj++ {
			j := int(math.Round(srcPos(oj, m, g.Cols)))
			idx := oi*outCols + oj
			if g.Valid(i, j) {
				out.Values[idx] = g.At(i, j)
				out.Mask[idx] = true
			} else {
				out.Values[idx] = math.NaN()
			}
		}
	}
	return out
}

// newResampleTarget allocates the output grid with interpolated coordinate
// arrays; values start NaN/masked and are filled by the caller.
func newResampleTarget(g *RasterGrid, m float64, outRows, outCols int) *RasterGrid {
	out := &RasterGrid{
		Values:      make([]float64, outRows*outCols),
		Mask:        make([]bool, outRows*outCols),
		Rows:        outRows,
		Cols:        outCols,
		Curvilinear: g.Curvilinear,
	}
	for i := range out.Values {
		out.Values[i] = math.NaN()
	}
	if g.Curvilinear {
		out.Lat = make([]float64, outRows*outCols)
		out.Lon = make([]float64, outRows*outCols)
		for oi := 0; oi < outRows; oi++ {
			pi := srcPos(oi, m, g.Rows)
			i0, di := splitPos(pi, g.Rows)
			i1 := i0
			if di > 0 {
				i1 = i0 + 1
			}
			for oj := 0; oj < outCols; oj++ {
				pj := srcPos(oj, m, g.Cols)
				j0, dj := splitPos(pj, g.Cols)
				j1 := j0
				if dj > 0 {
					j1 = j0 + 1
				}
				idx := oi*outCols + oj
				out.Lat[idx] = bilerp(g.Lat, g.Cols, i0, i1, j0, j1, di, dj)
				out.Lon[idx] = bilerp(g.Lon, g.Cols, i0, i1, j0, j1, di, dj)
			}
		}
		return out
	}
	out.Lat = interpAxis(g.Lat, m, outRows)
	out.Lon = interpAxis(g.Lon, m, outCols)
	return out
}

func bilerp(a []float64, cols, i0, i1, j0, j1 int, di, dj float64) float64 {
	return (1-di)*(1-dj)*a[i0*cols+j0] +
		(1-di)*dj*a[i0*cols+j1] +
		di*(1-dj)*a[i1*cols+j0] +
		di*dj*a[i1*cols+j1]
}

// interpAxis produces the densified coordinate axis by linear interpolation
// at the same index positions used for the values.
func interpAxis(a []float64, m float64, outLen int) []float64 {
	out := make([]float64, outLen)
	for o := 0; o < outLen; o++ {
		p := srcPos(o, m, len(a))
		i0, d := splitPos(p, len(a))
		if d == 0 {
			out[o] = a[i0]
			continue
		}
		out[o] = a[i0] + d*(a[i0+1]-a[i0])
	}
	return out
}

// resampleScattered evaluates the target positions against a kd-tree of
// every native point. Each target inherits the value and mask of its nearest
// native cell, so masked regions keep their footprint instead of being
// interpolated across.
func resampleScattered(g *RasterGrid, m float64, outRows, outCols int) *RasterGrid {
	out := newResampleTarget(g, m, outRows, outCols)

	// Scale longitude by cos(mean latitude) so degree-space distances are
	// comparable in both directions.
	meanLat := (g.Bounds.MinLat + g.Bounds.MaxLat) / 2
	lonScale := math.Cos(meanLat * math.Pi / 180)
	if lonScale < 0.01 {
		lonScale = 0.01
	}

	points := make(samplePoints, 0, g.Rows*g.Cols)
	for i := 0; i < g.Rows; i++ {
		for j := 0; j < g.Cols; j++ {
			points = append(points, samplePoint{
				x:   g.LonAt(i, j) * lonScale,
				y:   g.LatAt(i, j),
				idx: i*g.Cols + j,
			})
		}
	}
	tree := kdtree.New(points, false)

	for oi := 0; oi < outRows; oi++ {
		for oj := 0; oj < outCols; oj++ {
			idx := oi*outCols + oj
			q := samplePoint{x: lonAtOut(out, oi, oj) * lonScale, y: latAtOut(out, oi, oj), idx: -1}
			got, _ := tree.Nearest(q)
			nearest := got.(samplePoint)
			if g.Mask[nearest.idx] {
				out.Values[idx] = g.Values[nearest.idx]
				out.Mask[idx] = true
			}
		}
	}
	return out
}

func latAtOut(g *RasterGrid, i, j int) float64 {
	if g.Curvilinear {
		return g.Lat[i*g.Cols+j]
	}
	return g.Lat[i]
}

func lonAtOut(g *RasterGrid, i, j int) float64 {
	if g.Curvilinear {
		return g.Lon[i*g.Cols+j]
	}
	return g.Lon[j]
}

// samplePoint is a native grid cell in scaled degree space, carrying its
// flat index as payload for the kd-tree lookup.
type samplePoint struct {
	x, y float64
	idx  int
}

func (p samplePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(samplePoint)
	switch d {
	case 0:
		return p.x - q.x
	default:
		return p.y - q.y
	}
}

func (p samplePoint) Dims() int { return 2 }

func (p samplePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(samplePoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

type samplePoints []samplePoint

func (p samplePoints) Index(i int) kdtree.Comparable { return p[i] }
func (p samplePoints) Len() int                      { return len(p) }
func (p samplePoints) Pivot(d kdtree.Dim) int {
	return samplePlane{points: p, Dim: d}.Pivot()
}
func (p samplePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// samplePlane sorts samplePoints along one dimension for tree construction.
type samplePlane struct {
	kdtree.Dim
	points samplePoints
}

func (p samplePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.points[i].x < p.points[j].x
	default:
		return p.points[i].y < p.points[j].y
	}
}
func (p samplePlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p samplePlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
func (p samplePlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}
func (p samplePlane) Len() int { return len(p.points) }
