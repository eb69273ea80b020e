package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
)

// ManifestName is the metadata file published inside every run directory.
const ManifestName = "manifest.json"

// buildManifest assembles the run metadata the tile-serving layer reads.
func buildManifest(run domain.RenderedRun, tiers []domain.ManifestTier, generatedAt time.Time) domain.RunManifest {
	req := run.Request
	return domain.RunManifest{
		Dataset:      req.Dataset.ID,
		DatasetName:  req.Dataset.Name,
		Variable:     req.Dataset.Variable,
		Region:       req.Region.ID,
		RegionName:   req.Region.Name,
		Bounds:       req.Region.Bounds,
		Date:         req.Date,
		SourceHash:   run.SourceHash,
		ColorDomain:  run.ColorDomain,
		GeneratedAt:  generatedAt,
		ProcessingMS: run.ProcessingMS,
		Tiers:        tiers,
	}
}

func encodeManifest(m domain.RunManifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode manifest: %v", domain.ErrRender, err)
	}
	return append(data, '\n'), nil
}

// LoadManifest reads and decodes a published manifest.json.
func LoadManifest(path string) (*domain.RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest %s: %v", domain.ErrIO, path, err)
	}
	var m domain.RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode manifest %s: %v", domain.ErrInput, path, err)
	}
	return &m, nil
}

func fileEntry(name string, data []byte) domain.ManifestFile {
	sum := sha256.Sum256(data)
	return domain.ManifestFile{
		Path:   name,
		SHA256: hex.EncodeToString(sum[:]),
		Bytes:  int64(len(data)),
	}
}
