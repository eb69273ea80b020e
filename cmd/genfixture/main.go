// Command genfixture writes synthetic SST NetCDF snapshots for tests and
// local runs. Fields are fully deterministic so pipeline output can be
// compared byte for byte across runs: a south-to-north temperature gradient,
// an optional sharp warm front, and a coastal land band stored as fill
// values.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -out testdata/blended_20260815.nc \
//	  -region gulf_of_maine -rows 120 -cols 160 \
//	  -pattern front -land-cols 12
package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/adapter/netcdf"
	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the NetCDF fixture (required)")
	regionID := flag.String("region", "gulf_of_maine", "region whose bounds the fixture covers")
	rows := flag.Int("rows", 120, "latitude cell count")
	cols := flag.Int("cols", 160, "longitude cell count")
	variable := flag.String("variable", "analysed_sst", "temperature variable name")
	units := flag.String("units", "celsius", "units attribute; empty omits the attribute")
	pattern := flag.String("pattern", "front", "field pattern: gradient, front, or checker")
	landCols := flag.Int("land-cols", 12, "width of the masked land band on the western edge")
	packed := flag.Bool("packed", false, "store as int16 with scale_factor/add_offset")
	withTime := flag.Bool("with-time", true, "wrap the variable in a length-1 time dimension")
	fill := flag.Float64("fill", -32768, "fill value marking masked cells")
	margin := flag.Float64("margin", 0.5, "degrees of slack past the region bounds")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *rows < 2 || *cols < 2 {
		return fmt.Errorf("grid must be at least 2x2, got %dx%d", *rows, *cols)
	}

	region, err := domain.DefaultRegions().Get(*regionID)
	if err != nil {
		return err
	}

	lat := linspace(region.Bounds.MinLat-*margin, region.Bounds.MaxLat+*margin, *rows)
	lon := linspace(region.Bounds.MinLon-*margin, region.Bounds.MaxLon+*margin, *cols)

	values, err := generateField(*pattern, *rows, *cols)
	if err != nil {
		return err
	}
	land := applyLandBand(values, *rows, *cols, *landCols)

	fx := netcdf.Fixture{
		Variable:  *variable,
		Units:     *units,
		FillValue: *fill,
		Lat:       lat,
		Lon:       lon,
		Values:    values,
		WithTime:  *withTime,
	}
	if *packed {
		fx.Scale = 0.01
		fx.Offset = 20
	}

	if err := netcdf.WriteFixtureFile(*out, fx); err != nil {
		return err
	}
	log.Printf("wrote %s: %dx%d cells, region %s, pattern %s", *out, *rows, *cols, region.ID, *pattern)

	printStats(values, land, *rows, *cols)
	return nil
}

// generateField builds the temperature field in Celsius. Every pattern rides
// on the same south-warm gradient so unit detection and color domains behave
// like real water.
func generateField(pattern string, rows, cols int) ([]float64, error) {
	values := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		latFrac := float64(i) / float64(rows-1) // 0 south, 1 north
		for j := 0; j < cols; j++ {
			lonFrac := float64(j) / float64(cols-1)
			base := 6 + 16*(1-latFrac) + 0.6*math.Sin(3*2*math.Pi*lonFrac)

			switch pattern {
			case "gradient":
				// base only
			case "front":
				// Warm tongue crossing the grid diagonally, sharp enough
				// to survive the 2nd and 98th percentile clip.
				d := latFrac - (0.3 + 0.4*lonFrac)
				base += 5 * math.Exp(-(d/0.08)*(d/0.08))
			case "checker":
				if ((i/8)+(j/8))%2 == 0 {
					base += 2
				} else {
					base -= 2
				}
			default:
				return nil, fmt.Errorf("unknown pattern %q", pattern)
			}
			values[i*cols+j] = base
		}
	}
	return values, nil
}

// applyLandBand masks the westernmost columns with a ragged coastline and
// returns the number of land cells.
func applyLandBand(values []float64, rows, cols, landCols int) int {
	if landCols <= 0 {
		return 0
	}
	land := 0
	for i := 0; i < rows; i++ {
		edge := landCols + (i*7)%4 - 2
		if edge < 0 {
			edge = 0
		}
		if edge > cols {
			edge = cols
		}
		for j := 0; j < edge; j++ {
			values[i*cols+j] = math.NaN()
			land++
		}
	}
	return land
}

func linspace(lo, hi float64, n int) []float64 {
	return floats.Span(make([]float64, n), lo, hi)
}

func printStats(values []float64, land, rows, cols int) {
	minV, maxV := math.Inf(1), math.Inf(-1)
	sum, n := 0.0, 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
		sum += v
		n++
	}

	fmt.Println("\n=== Fixture stats ===")
	fmt.Printf("Cells: %d (%dx%d)\n", rows*cols, rows, cols)
	fmt.Printf("Land: %d (%.1f%%)\n", land, 100*float64(land)/float64(rows*cols))
	if n > 0 {
		fmt.Printf("SST range: %.2f to %.2f C, mean %.2f C\n", minV, maxV, sum/float64(n))
		fmt.Printf("Fahrenheit range: %.2f to %.2f F\n",
			domain.CelsiusToFahrenheit(minV), domain.CelsiusToFahrenheit(maxV))
	}
}
