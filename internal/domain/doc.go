// Package domain models sea surface temperature rasters and the transforms
// that turn one gridded snapshot into map-overlay images.
//
// # Data Source
//
// Snapshots come from NOAA CoastWatch SST products: the 2 km blended analysis
// ("analysed_sst") and the 750 m East Coast multi-satellite composite ("sst").
// Each file holds a single timestep of a gridded temperature field with a
// latitude/longitude coordinate system, either as separable 1D axes or as 2D
// curvilinear arrays. The upstream fetcher downloads one file per (dataset,
// date); this package never touches the network.
//
// # The Mask
//
// A grid cell is valid when it holds a finite value that is not the product's
// fill sentinel. Everything else (land, cloud gaps, sensor dropouts) is masked
// and stored as NaN. The mask is the one invariant every transform must
// respect:
//
//	Smoothing preserves the mask exactly. Masked cells are prefilled with
//	their nearest valid neighbor so convolution near a coastline stays
//	well-conditioned, then restored to NaN.
//
//	Resampling may add masked cells but never removes them: a target cell
//	is masked whenever part of its interpolation support is masked, so no
//	value is ever fabricated across a shoreline.
//
//	Colorizing renders masked cells at alpha 0 unconditionally. The final
//	image is transparent over land and composites cleanly onto a basemap.
//
// Fronts matter more than absolute accuracy here: fishermen read the maps for
// 0.5–1°F temperature breaks, so the transforms are tuned to denoise without
// flattening gradients and to densify without inventing detail the source
// cannot back.
//
// # Units
//
// All values are converted to Fahrenheit at load time: F = C*9/5 + 32, with
// Kelvin sources shifted by 273.15 first. Auto-detection uses the variable's
// units attribute when present, otherwise the value range (ocean temperatures
// above 100 can only be Kelvin). NaN stays NaN through every conversion.
//
// # Zoom Tiers
//
// Each run renders a set of zoom tiers. A tier pairs a density multiplier
// with smoothing parameters: wide shows the native grid untouched,
// intermediate doubles density after a Gaussian pass, and fine derives its
// multiplier from the native spacing, capped so the output never claims more
// resolution than the densest supported source (750 m).
//
// # Determinism
//
// Identical source bytes and identical specs produce byte-identical
// artifacts. The sha256 of the source rides on every RasterGrid and artifact
// for downstream cache invalidation, and generation timestamps flow through
// the package clock so tests can freeze them.
package domain
