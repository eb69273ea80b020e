package domain

import (
	"fmt"
	"image"
	"time"
)

// RunRequest identifies one unit of work: a (dataset, region, date) triple,
// the source snapshot to read, and the rendering parameters.
type RunRequest struct {
	Dataset DatasetSpec
	Region  RegionSpec
	Date    string // YYYYMMDD
	Source  string // path of the source snapshot

	// Tiers to produce. Empty selects the default wide/intermediate/fine
	// set once the native resolution is known.
	Tiers []ZoomTierSpec

	// Color holds the ramp and domain. A zero-width domain requests the
	// percentile auto-domain.
	Color ColorMapSpec

	// CoastalFillMargin grows the valid region by up to this many cells
	// before smoothing. 0 preserves the mask strictly.
	CoastalFillMargin int
}

// Key is the run's identity in logs and error context.
func (r RunRequest) Key() string {
	return fmt.Sprintf("%s/%s/%s", r.Dataset.ID, r.Region.ID, r.Date)
}

// TileArtifact describes one published zoom-tier image.
type TileArtifact struct {
	Tier        string    `json:"tier"`
	Zoom        int       `json:"zoom"`
	Path        string    `json:"path"`
	TIFFPath    string    `json:"tiff_path,omitempty"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Bounds      BBox      `json:"bounds"`
	SourceHash  string    `json:"source_hash"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ManifestFile records one artifact file with its own digest so consumers
// can verify what they fetched.
type ManifestFile struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Bytes  int64  `json:"bytes"`
}

// ManifestTier aggregates the files of one zoom tier.
type ManifestTier struct {
	Tier       string         `json:"tier"`
	Zoom       int            `json:"zoom"`
	Multiplier float64        `json:"multiplier"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Bounds     BBox           `json:"bounds"`
	Files      []ManifestFile `json:"files"`
}

// RunManifest is the per-run metadata published next to the images, in the
// layout the tile-serving layer consumes.
type RunManifest struct {
	Dataset      string         `json:"dataset"`
	DatasetName  string         `json:"dataset_name"`
	Variable     string         `json:"variable"`
	Region       string         `json:"region"`
	RegionName   string         `json:"region_name"`
	Bounds       BBox           `json:"bounds"`
	Date         string         `json:"date"`
	SourceHash   string         `json:"source_hash"`
	ColorDomain  [2]float64     `json:"color_domain_f"`
	GeneratedAt  time.Time      `json:"generated_at"`
	ProcessingMS int64          `json:"processing_ms"`
	Tiers        []ManifestTier `json:"tiers"`
}

// RenderedTier is one colorized zoom-tier image ready for export.
type RenderedTier struct {
	Tier       ZoomTierSpec
	Image      *image.NRGBA
	Bounds     BBox
	SourceHash string
}

// RenderedRun carries a run's rendered tiers to the artifact store.
type RenderedRun struct {
	RunID       string
	Request     RunRequest
	SourceHash  string
	ColorDomain [2]float64
	Tiers       []RenderedTier

	// ProcessingMS is the transform time up to rendering, recorded in the
	// manifest for operational trending.
	ProcessingMS int64
}

// RunResult reports the outcome of one run. Err is nil only when every tier
// was produced and published.
type RunResult struct {
	Request      RunRequest
	RunID        string
	Artifacts    []TileArtifact
	ManifestPath string
	Duration     time.Duration
	Err          error
}
