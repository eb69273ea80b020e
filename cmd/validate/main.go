// Command validate performs integrity checks across a published artifact
// tree: run directory layout, manifest completeness, file digests, image
// decodability, and catalog alignment. Run it after a batch (or against a
// synced mirror) to prove the tree is exactly what the pipeline wrote.
//
// Usage:
//
//	go run ./cmd/validate -out output
//	go run ./cmd/validate -out /var/sst/tiles -regions /etc/sst/regions.json
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/image/tiff"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/adapter/artifact"
	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// runDir is one discovered (region, dataset, date) run directory.
type runDir struct {
	region   string
	dataset  string
	date     string
	path     string
	manifest *domain.RunManifest
}

func main() {
	outDir := flag.String("out", "", "artifact tree root to validate (required)")
	regionsFile := flag.String("regions", "", "optional JSON region catalog the tree was built with")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*outDir, *regionsFile); code != 0 {
		os.Exit(code)
	}
}

func run(outDir, regionsFile string) int {
	fmt.Println("=== SST Artifact Tree Validation ===")
	fmt.Println()

	catalog := domain.DefaultRegions()
	if regionsFile != "" {
		var err error
		catalog, err = domain.LoadRegions(regionsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load regions: %v\n", err)
			return 1
		}
	}

	layout := &phase{name: "Phase 1: Tree Layout"}
	runs := discoverRuns(layout, outDir)

	phases := []*phase{
		layout,
		validateManifests(runs),
		validateImages(runs),
		validateCatalogAlignment(runs, catalog),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	files, bytes := countFiles(runs)
	fmt.Println()
	fmt.Printf("Runs: %d, manifest files: %d, manifest bytes: %d\n", len(runs), files, bytes)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Tree Layout ──
// Walks <out>/<region>/<dataset>/<date> and checks every level is shaped as
// the writer publishes it: no stray files, no leftover staging or temp
// artifacts, a manifest in every run directory.

func discoverRuns(p *phase, outDir string) []runDir {
	var runs []runDir

	regions, err := os.ReadDir(outDir)
	if err != nil {
		p.errorf("read output root: %v", err)
		return nil
	}

	for _, regionEntry := range regions {
		if regionEntry.Name() == ".staging" {
			p.errorf("leftover staging directory %s (interrupted batch not cleaned)", filepath.Join(outDir, regionEntry.Name()))
			continue
		}
		if !regionEntry.IsDir() {
			p.errorf("unexpected file at region level: %s", regionEntry.Name())
			continue
		}

		regionPath := filepath.Join(outDir, regionEntry.Name())
		datasets, err := os.ReadDir(regionPath)
		if err != nil {
			p.errorf("read %s: %v", regionPath, err)
			continue
		}

		for _, datasetEntry := range datasets {
			if !datasetEntry.IsDir() {
				p.errorf("unexpected file at dataset level: %s", filepath.Join(regionEntry.Name(), datasetEntry.Name()))
				continue
			}

			datasetPath := filepath.Join(regionPath, datasetEntry.Name())
			dates, err := os.ReadDir(datasetPath)
			if err != nil {
				p.errorf("read %s: %v", datasetPath, err)
				continue
			}

			for _, dateEntry := range dates {
				rel := filepath.Join(regionEntry.Name(), datasetEntry.Name(), dateEntry.Name())
				if !dateEntry.IsDir() {
					p.errorf("unexpected file at date level: %s", rel)
					continue
				}
				if _, err := time.Parse("20060102", dateEntry.Name()); err != nil {
					p.errorf("run %s: date directory is not YYYYMMDD", rel)
				}

				run := runDir{
					region:  regionEntry.Name(),
					dataset: datasetEntry.Name(),
					date:    dateEntry.Name(),
					path:    filepath.Join(datasetPath, dateEntry.Name()),
				}
				manifestPath := filepath.Join(run.path, artifact.ManifestName)
				m, err := artifact.LoadManifest(manifestPath)
				if err != nil {
					p.errorf("run %s: %v", rel, err)
				} else {
					run.manifest = m
				}
				runs = append(runs, run)
			}
		}
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].path < runs[j].path })
	return runs
}

// ── Phase 2: Manifest Integrity ──
// Every file a manifest lists must exist with the recorded digest and size,
// and every file on disk must be listed. A mismatch either way means the run
// directory was modified after publishing.

func validateManifests(runs []runDir) *phase {
	p := &phase{name: "Phase 2: Manifest Integrity"}

	for _, run := range runs {
		if run.manifest == nil {
			continue
		}
		rel := filepath.Join(run.region, run.dataset, run.date)

		listed := map[string]domain.ManifestFile{}
		for _, tier := range run.manifest.Tiers {
			for _, f := range tier.Files {
				if _, dup := listed[f.Path]; dup {
					p.errorf("run %s: file %s listed twice in manifest", rel, f.Path)
				}
				listed[f.Path] = f
			}
		}
		if len(listed) == 0 {
			p.errorf("run %s: manifest lists no files", rel)
			continue
		}

		onDisk := map[string]bool{}
		err := filepath.WalkDir(run.path, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			name, _ := filepath.Rel(run.path, path)
			onDisk[name] = true
			return nil
		})
		if err != nil {
			p.errorf("run %s: walk: %v", rel, err)
			continue
		}
		delete(onDisk, artifact.ManifestName)

		for name, f := range listed {
			if !onDisk[name] {
				p.errorf("run %s: manifest lists %s but the file is missing", rel, name)
				continue
			}
			data, err := os.ReadFile(filepath.Join(run.path, name))
			if err != nil {
				p.errorf("run %s: read %s: %v", rel, name, err)
				continue
			}
			if int64(len(data)) != f.Bytes {
				p.errorf("run %s: %s is %d bytes, manifest says %d", rel, name, len(data), f.Bytes)
			}
			sum := sha256.Sum256(data)
			if got := hex.EncodeToString(sum[:]); got != f.SHA256 {
				p.errorf("run %s: %s digest mismatch: got %s, manifest says %s", rel, name, got[:12], f.SHA256[:12])
			}
		}

		for name := range onDisk {
			if _, ok := listed[name]; !ok {
				if strings.HasSuffix(name, ".tmp") {
					p.errorf("run %s: leftover temp file %s", rel, name)
				} else {
					p.errorf("run %s: file %s on disk but not in manifest", rel, name)
				}
			}
		}
	}
	return p
}

// ── Phase 3: Image Consistency ──
// Decodes image headers and checks dimensions against the manifest without
// loading pixel data.

func validateImages(runs []runDir) *phase {
	p := &phase{name: "Phase 3: Image Consistency"}

	for _, run := range runs {
		if run.manifest == nil {
			continue
		}
		rel := filepath.Join(run.region, run.dataset, run.date)

		for _, tier := range run.manifest.Tiers {
			for _, f := range tier.Files {
				path := filepath.Join(run.path, f.Path)
				switch {
				case strings.HasPrefix(f.Path, "tiles/"):
					w, h, err := pngConfig(path)
					if err != nil {
						p.errorf("run %s: tile %s: %v", rel, f.Path, err)
					} else if w != h {
						p.errorf("run %s: tile %s is %dx%d, tiles must be square", rel, f.Path, w, h)
					}
				case strings.HasSuffix(f.Path, ".png"):
					w, h, err := pngConfig(path)
					if err != nil {
						p.errorf("run %s: %s: %v", rel, f.Path, err)
					} else if w != tier.Width || h != tier.Height {
						p.errorf("run %s: %s is %dx%d, manifest tier %s says %dx%d",
							rel, f.Path, w, h, tier.Tier, tier.Width, tier.Height)
					}
				case strings.HasSuffix(f.Path, ".tiff"):
					w, h, err := tiffConfig(path)
					if err != nil {
						p.errorf("run %s: %s: %v", rel, f.Path, err)
					} else if w != tier.Width || h != tier.Height {
						p.errorf("run %s: %s is %dx%d, manifest tier %s says %dx%d",
							rel, f.Path, w, h, tier.Tier, tier.Width, tier.Height)
					}
				}

				if strings.HasPrefix(f.Path, "sst_zoom_") {
					want := fmt.Sprintf("sst_zoom_%d", tier.Zoom)
					if !strings.HasPrefix(f.Path, want+".") {
						p.errorf("run %s: %s filed under tier zoom %d", rel, f.Path, tier.Zoom)
					}
				}
			}
		}
	}
	return p
}

// ── Phase 4: Catalog Alignment ──
// Manifest identities must resolve against the dataset and region catalogs
// the tree claims to be built from.

func validateCatalogAlignment(runs []runDir, catalog *domain.RegionCatalog) *phase {
	p := &phase{name: "Phase 4: Catalog Alignment"}

	for _, run := range runs {
		if run.manifest == nil {
			continue
		}
		rel := filepath.Join(run.region, run.dataset, run.date)
		m := run.manifest

		if m.Region != run.region || m.Dataset != run.dataset || m.Date != run.date {
			p.errorf("run %s: manifest identity is %s/%s/%s", rel, m.Region, m.Dataset, m.Date)
		}

		region, err := catalog.Get(m.Region)
		if err != nil {
			p.errorf("run %s: region %q not in catalog", rel, m.Region)
		} else if !boundsEq(region.Bounds, m.Bounds) {
			p.errorf("run %s: manifest bounds %+v differ from catalog %+v", rel, m.Bounds, region.Bounds)
		}

		if _, err := domain.DatasetByID(m.Dataset); err != nil {
			p.errorf("run %s: dataset %q not in catalog", rel, m.Dataset)
		}

		if len(m.SourceHash) != 64 {
			p.errorf("run %s: source hash %q is not a sha256 hex digest", rel, m.SourceHash)
		}
		if m.ColorDomain[0] >= m.ColorDomain[1] {
			p.errorf("run %s: color domain [%g, %g] is not increasing", rel, m.ColorDomain[0], m.ColorDomain[1])
		}
		if m.GeneratedAt.IsZero() {
			p.errorf("run %s: generated_at is zero", rel)
		}

		lastZoom := 0
		for _, tier := range m.Tiers {
			if tier.Zoom <= lastZoom {
				p.errorf("run %s: tier zooms not strictly increasing at %s (z%d)", rel, tier.Tier, tier.Zoom)
			}
			lastZoom = tier.Zoom
			if tier.Multiplier < 1 {
				p.errorf("run %s: tier %s multiplier %g below 1", rel, tier.Tier, tier.Multiplier)
			}
		}
	}
	return p
}

// ── Helpers ──

func pngConfig(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode png: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func tiffConfig(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, err := tiff.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode tiff: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func boundsEq(a, b domain.BBox) bool {
	const eps = 1e-6
	return math.Abs(a.MinLat-b.MinLat) < eps &&
		math.Abs(a.MinLon-b.MinLon) < eps &&
		math.Abs(a.MaxLat-b.MaxLat) < eps &&
		math.Abs(a.MaxLon-b.MaxLon) < eps
}

func countFiles(runs []runDir) (int, int64) {
	files := 0
	var bytes int64
	for _, run := range runs {
		if run.manifest == nil {
			continue
		}
		for _, tier := range run.manifest.Tiers {
			files += len(tier.Files)
			for _, f := range tier.Files {
				bytes += f.Bytes
			}
		}
	}
	return files, bytes
}
