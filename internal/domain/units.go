package domain

import (
	"fmt"
	"math"
	"strings"
)

// Unit identifies the temperature unit of a source variable.
type Unit string

const (
	UnitCelsius    Unit = "celsius"
	UnitKelvin     Unit = "kelvin"
	UnitFahrenheit Unit = "fahrenheit"

	// UnitAuto resolves the unit from the variable's units attribute when
	// present, otherwise from the value range (see DetectUnit).
	UnitAuto Unit = "auto"
)

// ParseUnit normalizes the unit strings found in dataset configuration and
// NetCDF units attributes ("degree_C", "Kelvin", "degF", ...).
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return UnitAuto, nil
	case "c", "celsius", "degc", "deg_c", "degree_c", "degrees_c", "degree_celsius", "degrees_celsius":
		return UnitCelsius, nil
	case "k", "kelvin", "degk", "degree_k", "degrees_k", "degree_kelvin":
		return UnitKelvin, nil
	case "f", "fahrenheit", "degf", "degree_f", "degrees_f", "degree_fahrenheit":
		return UnitFahrenheit, nil
	}
	return "", fmt.Errorf("%w: unknown temperature unit %q", ErrInput, s)
}

// CelsiusToFahrenheit converts one value; NaN stays NaN.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// FahrenheitToCelsius is the inverse conversion.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// KelvinToFahrenheit converts one value; NaN stays NaN.
func KelvinToFahrenheit(k float64) float64 {
	return (k-273.15)*9/5 + 32
}

// DetectUnit guesses Celsius vs Kelvin from the valid value range. Ocean
// surface temperatures are below 40°C everywhere, so any maximum above 100
// can only be Kelvin (roughly 270 to 305 for open water).
func DetectUnit(values []float64) Unit {
	maxV := math.Inf(-1)
	for _, v := range values {
		if !math.IsNaN(v) && v > maxV {
			maxV = v
		}
	}
	if maxV > 100 {
		return UnitKelvin
	}
	return UnitCelsius
}

// ToFahrenheit converts values in place from the given unit. UnitAuto must be
// resolved by the caller first; it is rejected here so a loader bug cannot
// silently skip detection.
func ToFahrenheit(values []float64, from Unit) error {
	switch from {
	case UnitFahrenheit:
		return nil
	case UnitCelsius:
		for i, v := range values {
			values[i] = CelsiusToFahrenheit(v)
		}
		return nil
	case UnitKelvin:
		for i, v := range values {
			values[i] = KelvinToFahrenheit(v)
		}
		return nil
	}
	return fmt.Errorf("%w: cannot convert from unit %q", ErrInput, from)
}
