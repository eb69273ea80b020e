package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SmoothSpec carries the kernel parameters for one smoothing pass.
type SmoothSpec struct {
	Method SmoothingMethod
	Sigma  float64 // Gaussian sigma in cells
	Window int     // Savitzky-Golay window length (odd)
	Order  int     // Savitzky-Golay polynomial order
}

// SmoothSpec extracts the smoothing parameters from a tier.
func (t ZoomTierSpec) SmoothSpec() SmoothSpec {
	return SmoothSpec{
		Method: t.Smoothing,
		Sigma:  t.GaussianSigma,
		Window: t.SavGolWindow,
		Order:  t.SavGolOrder,
	}
}

// Smooth applies the configured low-pass filter separably along rows then
// columns. Masked cells are prefilled with their nearest valid neighbor so
// convolution near a coastline stays well-conditioned, and are restored to
// NaN afterwards: the mask is preserved exactly.
//
// SmoothingNone returns the input grid unchanged.
func Smooth(g *RasterGrid, spec SmoothSpec) (*RasterGrid, error) {
	if spec.Method == SmoothingNone {
		return g, nil
	}
	if ValidCount(g.Mask) == 0 {
		return nil, ErrNoValidCells
	}
	kernel, err := kernelFor(spec)
	if err != nil {
		return nil, err
	}

	out := g.Clone()
	filled := nearestFill(out.Values, out.Mask, out.Rows, out.Cols)
	smoothed := convolveSeparable(filled, out.Rows, out.Cols, kernel)
	for i := range smoothed {
		if !out.Mask[i] {
			smoothed[i] = math.NaN()
		}
	}
	out.Values = smoothed
	return out, nil
}

func kernelFor(spec SmoothSpec) ([]float64, error) {
	switch spec.Method {
	case SmoothingGaussian:
		if spec.Sigma <= 0 {
			return nil, fmt.Errorf("%w: gaussian sigma %g must be positive", ErrInput, spec.Sigma)
		}
		return gaussianKernel(spec.Sigma), nil
	case SmoothingSavitzkyGolay:
		return savitzkyGolayKernel(spec.Window, spec.Order)
	}
	return nil, fmt.Errorf("%w: unsupported smoothing method %v", ErrInput, spec.Method)
}

// gaussianKernel builds a normalized 1D kernel truncated at three sigma.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	if radius < 1 {
		radius = 1
	}
	k := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range k {
		x := float64(i - radius)
		k[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// savitzkyGolayKernel computes the smoothing weights for a local polynomial
// fit: the center row of the hat matrix A(AᵀA)⁻¹Aᵀ for a Vandermonde design
// over positions -h..h.
func savitzkyGolayKernel(window, order int) ([]float64, error) {
	if window < 3 || window%2 == 0 {
		return nil, fmt.Errorf("%w: savitzky-golay window %d must be odd and >= 3", ErrInput, window)
	}
	if order < 0 || order >= window {
		return nil, fmt.Errorf("%w: savitzky-golay order %d invalid for window %d", ErrInput, order, window)
	}

	h := window / 2
	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - h)
		p := 1.0
		for k := 0; k <= order; k++ {
			a.Set(i, k, p)
			p *= x
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("%w: savitzky-golay design matrix not invertible: %v", ErrInput, err)
	}
	var hat mat.Dense
	hat.Product(a, &inv, a.T())
	return mat.Row(nil, h, &hat), nil
}

// nearestFill replaces every masked cell with the value of its nearest valid
// neighbor using a two-pass 3-4 chamfer distance transform that propagates
// source indices. The returned slice is fully finite as long as at least one
// cell is valid.
func nearestFill(values []float64, mask []bool, rows, cols int) []float64 {
	const inf = math.MaxInt32
	dist := make([]int32, len(values))
	src := make([]int32, len(values))
	for i := range values {
		if mask[i] {
			dist[i] = 0
			src[i] = int32(i)
		} else {
			dist[i] = inf
			src[i] = -1
		}
	}

	relax := func(idx, nIdx int, cost int32) {
		if src[nIdx] < 0 {
			return
		}
		if d := dist[nIdx] + cost; d < dist[idx] {
			dist[idx] = d
			src[idx] = src[nIdx]
		}
	}

	// Forward pass: upper-left neighborhood.
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			idx := i*cols + j
			if j > 0 {
				relax(idx, idx-1, 3)
			}
			if i > 0 {
				relax(idx, idx-cols, 3)
				if j > 0 {
					relax(idx, idx-cols-1, 4)
				}
				if j < cols-1 {
					relax(idx, idx-cols+1, 4)
				}
			}
		}
	}
	// Backward pass: lower-right neighborhood.
	for i := rows - 1; i >= 0; i-- {
		for j := cols - 1; j >= 0; j-- {
			idx := i*cols + j
			if j < cols-1 {
				relax(idx, idx+1, 3)
			}
			if i < rows-1 {
				relax(idx, idx+cols, 3)
				if j < cols-1 {
					relax(idx, idx+cols+1, 4)
				}
				if j > 0 {
					relax(idx, idx+cols-1, 4)
				}
			}
		}
	}

	filled := make([]float64, len(values))
	for i := range values {
		if src[i] >= 0 {
			filled[i] = values[src[i]]
		} else {
			filled[i] = math.NaN()
		}
	}
	return filled
}

// convolveSeparable applies the 1D kernel along rows and then columns with
// replicate padding at the borders.
func convolveSeparable(values []float64, rows, cols int, kernel []float64) []float64 {
	radius := len(kernel) / 2
	tmp := make([]float64, len(values))
	out := make([]float64, len(values))

	clampIdx := func(x, hi int) int {
		if x < 0 {
			return 0
		}
		if x >= hi {
			return hi - 1
		}
		return x
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			acc := 0.0
			for k, w := range kernel {
				jj := clampIdx(j+k-radius, cols)
				acc += w * values[i*cols+jj]
			}
			tmp[i*cols+j] = acc
		}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			acc := 0.0
			for k, w := range kernel {
				ii := clampIdx(i+k-radius, rows)
				acc += w * tmp[ii*cols+j]
			}
			out[i*cols+j] = acc
		}
	}
	return out
}
