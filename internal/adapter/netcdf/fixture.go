package netcdf

import (
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
)

// Fixture describes a synthetic single-timestep snapshot to write as a
// NetCDF classic file. Values are row-major with len(Lat)*len(Lon) cells;
// NaN marks masked cells and is stored as the fill value.
type Fixture struct {
	Variable  string
	Units     string
	FillValue float64
	Lat       []float64
	Lon       []float64
	Values    []float64

	// WithTime wraps the variable in a length-1 leading time dimension.
	WithTime bool

	// Scale packs the variable as int16 with scale_factor/add_offset
	// attributes when non-zero, mimicking compressed satellite products.
	Scale  float64
	Offset float64
}

// WriteFixture writes the snapshot to w in NetCDF classic format.
func WriteFixture(w *os.File, fx Fixture) error {
	rows, cols := len(fx.Lat), len(fx.Lon)
	if rows == 0 || cols == 0 {
		return fmt.Errorf("%w: fixture needs both axes", domain.ErrInput)
	}
	if len(fx.Values) != rows*cols {
		return fmt.Errorf("%w: fixture has %d values for %dx%d grid", domain.ErrInput, len(fx.Values), rows, cols)
	}

	dims := []string{"lat", "lon"}
	lengths := []int{rows, cols}
	if fx.WithTime {
		dims = append([]string{"time"}, dims...)
		lengths = append([]int{1}, lengths...)
	}

	h := cdf.NewHeader(dims, lengths)
	if fx.Scale != 0 {
		h.AddVariable(fx.Variable, dims, []int16{0})
		h.AddAttribute(fx.Variable, "scale_factor", []float64{fx.Scale})
		h.AddAttribute(fx.Variable, "add_offset", []float64{fx.Offset})
		h.AddAttribute(fx.Variable, "_FillValue", []int16{int16(fx.FillValue)})
	} else {
		h.AddVariable(fx.Variable, dims, []float32{0})
		h.AddAttribute(fx.Variable, "_FillValue", []float32{float32(fx.FillValue)})
	}
	if fx.Units != "" {
		h.AddAttribute(fx.Variable, "units", fx.Units)
	}
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("%w: create fixture: %v", domain.ErrIO, err)
	}

	if fx.Scale != 0 {
		packed := make([]int16, len(fx.Values))
		for i, v := range fx.Values {
			if math.IsNaN(v) {
				packed[i] = int16(fx.FillValue)
				continue
			}
			packed[i] = int16(math.Round((v - fx.Offset) / fx.Scale))
		}
		if err := writeVar(f, fx.Variable, packed); err != nil {
			return err
		}
	} else {
		vals := make([]float32, len(fx.Values))
		for i, v := range fx.Values {
			if math.IsNaN(v) {
				vals[i] = float32(fx.FillValue)
				continue
			}
			vals[i] = float32(v)
		}
		if err := writeVar(f, fx.Variable, vals); err != nil {
			return err
		}
	}
	if err := writeVar(f, "lat", fx.Lat); err != nil {
		return err
	}
	if err := writeVar(f, "lon", fx.Lon); err != nil {
		return err
	}
	return cdf.UpdateNumRecs(w)
}

// WriteFixtureFile creates path and writes the snapshot into it.
func WriteFixtureFile(path string, fx Fixture) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrIO, path, err)
	}
	if err := WriteFixture(w, fx); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", domain.ErrIO, path, err)
	}
	return nil
}

func writeVar[T any](f *cdf.File, name string, data []T) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrIO, name, err)
	}
	return nil
}
