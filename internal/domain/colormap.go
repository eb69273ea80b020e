package domain

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// RampColor is one anchor of a color ramp.
type RampColor struct {
	R, G, B uint8
}

// ColorMapSpec describes how temperatures map to pixels: an ordered
// cool-to-warm anchor list over a [Min, Max] Fahrenheit domain. Masked cells
// always render fully transparent, whatever their numeric value was.
type ColorMapSpec struct {
	Name    string
	Anchors []RampColor
	Min     float64
	Max     float64
}

// defaultRampHex is the reversed red-yellow-blue diverging ramp the maps
// have always shipped with: deep blue for cold water through neutral to dark
// red for warm.
var defaultRampHex = []string{
	"#313695", "#4575b4", "#74add1", "#abd9e9", "#e0f3f8",
	"#ffffbf",
	"#fee090", "#fdae61", "#f46d43", "#d73027", "#a50026",
}

// DefaultRamp returns the standard diverging anchor list.
func DefaultRamp() []RampColor {
	anchors, err := ParseRamp(defaultRampHex)
	if err != nil {
		panic(err) // built-in ramp is static
	}
	return anchors
}

// ParseRamp converts a list of #rrggbb strings into ramp anchors.
func ParseRamp(hexes []string) ([]RampColor, error) {
	anchors := make([]RampColor, len(hexes))
	for i, h := range hexes {
		c, err := ParseHexColor(h)
		if err != nil {
			return nil, err
		}
		anchors[i] = c
	}
	return anchors, nil
}

// ParseHexColor parses a #rrggbb color string.
func ParseHexColor(s string) (RampColor, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return RampColor{}, fmt.Errorf("%w: malformed hex color %q", ErrInput, s)
	}
	var c RampColor
	if _, err := fmt.Sscanf(h, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return RampColor{}, fmt.Errorf("%w: malformed hex color %q", ErrInput, s)
	}
	return c, nil
}

// AutoDomain derives a color domain from the distribution of valid values:
// the [loPct, hiPct] percentiles (conventionally 2 and 98), which keeps a few
// anomalous pixels from washing out the ramp.
func AutoDomain(g *RasterGrid, loPct, hiPct float64) (float64, float64, error) {
	valid := make([]float64, 0, len(g.Values))
	for i, v := range g.Values {
		if g.Mask[i] {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return 0, 0, ErrNoValidCells
	}
	sort.Float64s(valid)
	lo := stat.Quantile(loPct/100, stat.LinInterp, valid, nil)
	hi := stat.Quantile(hiPct/100, stat.LinInterp, valid, nil)
	return lo, hi, nil
}

// RampPosition returns the normalized [0,1] ramp position for a value,
// clamping outside the domain. Position is strictly monotonic in value
// within the domain.
func (s ColorMapSpec) RampPosition(v float64) float64 {
	t := (v - s.Min) / (s.Max - s.Min)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Colorize renders the grid to an RGBA image: pure data pixels, no legend or
// annotation, intended for compositing over an external basemap. The image
// is north-up: row 0 is the grid row with the highest latitude. Fails with
// ErrDegenerateDomain when the domain has no width.
func Colorize(g *RasterGrid, spec ColorMapSpec) (*image.NRGBA, error) {
	if len(spec.Anchors) < 2 {
		return nil, fmt.Errorf("%w: color ramp needs at least 2 anchors, got %d", ErrInput, len(spec.Anchors))
	}
	if math.IsNaN(spec.Min) || math.IsNaN(spec.Max) {
		return nil, fmt.Errorf("%w: color domain [%g, %g]", ErrDegenerateDomain, spec.Min, spec.Max)
	}
	if spec.Max <= spec.Min {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrDegenerateDomain, spec.Min, spec.Max)
	}

	flip := g.LatAt(0, 0) < g.LatAt(g.Rows-1, 0)
	img := image.NewNRGBA(image.Rect(0, 0, g.Cols, g.Rows))
	for i := 0; i < g.Rows; i++ {
		y := i
		if flip {
			y = g.Rows - 1 - i
		}
		for j := 0; j < g.Cols; j++ {
			if !g.Valid(i, j) {
				img.SetNRGBA(j, y, color.NRGBA{})
				continue
			}
			img.SetNRGBA(j, y, blendRamp(spec.Anchors, spec.RampPosition(g.At(i, j))))
		}
	}
	return img, nil
}

// blendRamp linearly interpolates between the two anchors bracketing t.
func blendRamp(anchors []RampColor, t float64) color.NRGBA {
	pos := t * float64(len(anchors)-1)
	k := int(math.Floor(pos))
	if k >= len(anchors)-1 {
		a := anchors[len(anchors)-1]
		return color.NRGBA{R: a.R, G: a.G, B: a.B, A: 255}
	}
	frac := pos - float64(k)
	a, b := anchors[k], anchors[k+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + frac*(float64(y)-float64(x))))
	}
	return color.NRGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}
