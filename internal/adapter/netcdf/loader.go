// Package netcdf reads single-timestep SST snapshots from NetCDF classic
// files into domain rasters, and writes synthetic snapshots for fixtures.
package netcdf

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ctessum/cdf"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
)

// Coordinate variable names accepted for the spatial dimensions.
var (
	latNames = []string{"lat", "latitude", "y", "nav_lat"}
	lonNames = []string{"lon", "longitude", "x", "nav_lon"}
)

// readOnlyReader adapts *bytes.Reader to cdf.ReaderWriterAt; the loader
// never writes, so WriteAt always fails.
type readOnlyReader struct{ *bytes.Reader }

func (readOnlyReader) WriteAt([]byte, int64) (int, error) {
	return 0, errors.New("netcdf: write on read-only reader")
}

// Loader reads NetCDF snapshots from the local filesystem.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a file-based grid loader.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the dataset's temperature variable from the file at source into
// a Fahrenheit RasterGrid.
//
// The variable may be laid out as (y, x), (time, y, x) or (time, level, y, x).
// A time dimension longer than one step is rejected: averaging snapshots
// would smear exactly the fronts the maps exist to show. A level dimension
// longer than one selects the surface (index 0).
func (l *Loader) Load(ctx context.Context, source string, spec domain.DatasetSpec) (*domain.RasterGrid, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: read source %s: %v", domain.ErrInput, source, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	f, err := cdf.Open(readOnlyReader{bytes.NewReader(data)})
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInput, source, err)
	}

	if !hasVariable(f, spec.Variable) {
		return nil, fmt.Errorf("%w: %q in %s", domain.ErrMissingVariable, spec.Variable, source)
	}
	dims := f.Header.Dimensions(spec.Variable)
	lengths := f.Header.Lengths(spec.Variable)

	rows, cols, start, end, err := sliceSingleTimestep(dims, lengths)
	if err != nil {
		return nil, fmt.Errorf("%s variable %q (dims %v): %w", source, spec.Variable, dims, err)
	}
	if len(dims) == 4 && lengths[1] > 1 {
		l.logger.Warn("variable has multiple levels, reading surface level",
			"variable", spec.Variable, "levels", lengths[1])
	}

	values, err := readNumeric(f, spec.Variable, start, end, rows*cols)
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %v", domain.ErrInput, spec.Variable, err)
	}

	fill := spec.FillValue
	if v, ok := attrFloat(f, spec.Variable, "_FillValue"); ok {
		fill = v
	} else if v, ok := attrFloat(f, spec.Variable, "missing_value"); ok {
		fill = v
	}
	mask := domain.DeriveMask(values, fill)

	// Packed variables store ints with a scale and offset; unpack after
	// masking since _FillValue is in packed units.
	scale, hasScale := attrFloat(f, spec.Variable, "scale_factor")
	offset, hasOffset := attrFloat(f, spec.Variable, "add_offset")
	if hasScale || hasOffset {
		if !hasScale {
			scale = 1
		}
		for i := range values {
			values[i] = values[i]*scale + offset
		}
	}

	unit := spec.Unit
	if unit == "" || unit == domain.UnitAuto {
		unit = resolveUnit(f, spec.Variable, values, l.logger)
	}
	if err := domain.ToFahrenheit(values, unit); err != nil {
		return nil, err
	}

	ydim, xdim := dims[len(dims)-2], dims[len(dims)-1]
	lat, lon, curvilinear, err := readCoordinates(f, ydim, xdim, rows, cols)
	if err != nil {
		return nil, err
	}

	g := &domain.RasterGrid{
		Values:      values,
		Mask:        mask,
		Rows:        rows,
		Cols:        cols,
		Lat:         lat,
		Lon:         lon,
		Curvilinear: curvilinear,
		ResolutionM: spec.ResolutionM,
		SourceHash:  hex.EncodeToString(sum[:]),
	}
	g.RecalcBounds()
	if g.ResolutionM == 0 {
		g.ResolutionM = g.EstimateResolutionM()
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	l.logger.Debug("grid loaded",
		"source", source,
		"variable", spec.Variable,
		"rows", rows, "cols", cols,
		"curvilinear", curvilinear,
		"unit", string(unit),
		"valid_cells", domain.ValidCount(mask),
		"resolution_m", g.ResolutionM,
	)
	return g, nil
}

// sliceSingleTimestep validates the dimension layout and returns the 2D
// shape plus the hyperslab selecting the single timestep and surface level.
func sliceSingleTimestep(dims []string, lengths []int) (rows, cols int, start, end []int, err error) {
	switch len(dims) {
	case 2:
		rows, cols = lengths[0], lengths[1]
		return rows, cols, nil, nil, nil
	case 3:
		if lengths[0] > 1 {
			return 0, 0, nil, nil, fmt.Errorf("%w: %d steps", domain.ErrMultipleTimesteps, lengths[0])
		}
		rows, cols = lengths[1], lengths[2]
		return rows, cols, []int{0, 0, 0}, []int{1, rows, cols}, nil
	case 4:
		if lengths[0] > 1 {
			return 0, 0, nil, nil, fmt.Errorf("%w: %d steps", domain.ErrMultipleTimesteps, lengths[0])
		}
		rows, cols = lengths[2], lengths[3]
		return rows, cols, []int{0, 0, 0, 0}, []int{1, 1, rows, cols}, nil
	}
	return 0, 0, nil, nil, fmt.Errorf("%w: %d dimensions", domain.ErrUnexpectedDimensionality, len(dims))
}

func hasVariable(f *cdf.File, name string) bool {
	for _, v := range f.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// readNumeric reads a variable slab into float64s regardless of the stored
// external type. NetCDF files in the wild pack SST as float32, float64, or
// scaled int16, so each candidate type gets a fresh reader until one fits.
func readNumeric(f *cdf.File, v string, start, end []int, n int) ([]float64, error) {
	out := make([]float64, n)

	if buf := make([]float32, n); tryRead(f, v, start, end, buf) {
		for i, x := range buf {
			out[i] = float64(x)
		}
		return out, nil
	}
	if buf := make([]float64, n); tryRead(f, v, start, end, buf) {
		copy(out, buf)
		return out, nil
	}
	if buf := make([]int32, n); tryRead(f, v, start, end, buf) {
		for i, x := range buf {
			out[i] = float64(x)
		}
		return out, nil
	}
	if buf := make([]int16, n); tryRead(f, v, start, end, buf) {
		for i, x := range buf {
			out[i] = float64(x)
		}
		return out, nil
	}
	if buf := make([]int8, n); tryRead(f, v, start, end, buf) {
		for i, x := range buf {
			out[i] = float64(x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported external type")
}

func tryRead[T any](f *cdf.File, v string, start, end []int, buf []T) bool {
	r := f.Reader(v, start, end)
	if r == nil {
		return false
	}
	_, err := r.Read(buf)
	return err == nil
}

// readCoordinates locates the latitude and longitude variables for the
// spatial dimensions, accepting 1D axes or 2D curvilinear arrays.
func readCoordinates(f *cdf.File, ydim, xdim string, rows, cols int) (lat, lon []float64, curvilinear bool, err error) {
	latVar, lat2D := findCoordVar(f, latNames, ydim, xdim)
	lonVar, lon2D := findCoordVar(f, lonNames, ydim, xdim)
	if latVar == "" || lonVar == "" {
		return nil, nil, false, fmt.Errorf("%w: coordinate variables for dims (%s, %s)", domain.ErrMissingVariable, ydim, xdim)
	}
	if lat2D != lon2D {
		return nil, nil, false, fmt.Errorf("%w: mixed 1D/2D coordinate variables", domain.ErrUnexpectedDimensionality)
	}

	if lat2D {
		lat, err = readNumeric(f, latVar, nil, nil, rows*cols)
		if err == nil {
			lon, err = readNumeric(f, lonVar, nil, nil, rows*cols)
		}
		if err != nil {
			return nil, nil, false, fmt.Errorf("%w: read coordinates: %v", domain.ErrInput, err)
		}
		return lat, lon, true, nil
	}

	lat, err = readNumeric(f, latVar, nil, nil, rows)
	if err == nil {
		lon, err = readNumeric(f, lonVar, nil, nil, cols)
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: read coordinates: %v", domain.ErrInput, err)
	}
	return lat, lon, false, nil
}

// findCoordVar returns the first variable whose name matches one of the
// aliases and whose dimensions are either [dim] or [ydim, xdim].
func findCoordVar(f *cdf.File, aliases []string, ydim, xdim string) (name string, is2D bool) {
	isLon := aliases[0] == "lon"
	want1D := ydim
	if isLon {
		want1D = xdim
	}
	for _, v := range f.Header.Variables() {
		if !nameMatches(v, aliases) {
			continue
		}
		dims := f.Header.Dimensions(v)
		switch len(dims) {
		case 1:
			if dims[0] == want1D {
				return v, false
			}
		case 2:
			if dims[0] == ydim && dims[1] == xdim {
				return v, true
			}
		}
	}
	return "", false
}

func nameMatches(v string, aliases []string) bool {
	lv := strings.ToLower(v)
	for _, a := range aliases {
		if lv == a {
			return true
		}
	}
	return false
}

// resolveUnit picks the temperature unit from the units attribute when it
// parses, otherwise from the value range.
func resolveUnit(f *cdf.File, v string, values []float64, logger *slog.Logger) domain.Unit {
	if s, ok := attrString(f, v, "units"); ok {
		if u, err := domain.ParseUnit(s); err == nil && u != domain.UnitAuto {
			return u
		}
		logger.Warn("unrecognized units attribute, detecting from values", "variable", v, "units", s)
	}
	return domain.DetectUnit(values)
}

func attrFloat(f *cdf.File, v, name string) (float64, bool) {
	switch a := f.Header.GetAttribute(v, name).(type) {
	case []float64:
		if len(a) > 0 {
			return a[0], true
		}
	case []float32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int16:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int8:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	}
	return 0, false
}

func attrString(f *cdf.File, v, name string) (string, bool) {
	if s, ok := f.Header.GetAttribute(v, name).(string); ok && s != "" {
		return s, true
	}
	return "", false
}
