// Package batch fans a single source image out to one transform per preset.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/printcrop/internal/log"
	"github.com/menta2k/printcrop/pkg/types"
)

// Transformer produces one artifact for one preset
type Transformer interface {
	Produce(ctx context.Context, sourcePath string, preset types.Preset) (types.Artifact, error)
}

// InputChecker rejects sources that cannot be processed at all
type InputChecker interface {
	CheckSupported(path string) error
}

// Config holds configuration for the batch driver
type Config struct {
	Presets []types.Preset
	// Concurrency caps parallel transforms; 1 runs them in preset order
	Concurrency int
}

// Driver runs every configured preset against a source image
type Driver struct {
	engine  Transformer
	checker InputChecker
	presets []types.Preset
	limit   int
}

// NewDriver creates a driver. Empty presets fall back to types.DefaultPresets
// and repeated presets are run once.
func NewDriver(engine Transformer, checker InputChecker, cfg Config) *Driver {
	presets := uniquePresets(cfg.Presets)
	if len(presets) == 0 {
		presets = types.DefaultPresets
	}
	limit := cfg.Concurrency
	if limit < 1 {
		limit = len(presets)
	}
	return &Driver{
		engine:  engine,
		checker: checker,
		presets: append([]types.Preset(nil), presets...),
		limit:   limit,
	}
}

// uniquePresets keeps the first occurrence of each preset. Equal presets
// share an output path, so running both would race on one file.
func uniquePresets(presets []types.Preset) []types.Preset {
	seen := make(map[types.Preset]bool, len(presets))
	out := make([]types.Preset, 0, len(presets))
	for _, p := range presets {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Presets returns the presets this driver fans out to
func (d *Driver) Presets() []types.Preset {
	return append([]types.Preset(nil), d.presets...)
}

// Outcome is the result of one preset's transform
type Outcome struct {
	Preset   types.Preset
	Artifact types.Artifact
	Err      error
}

// Result is the outcome of processing one source image
type Result struct {
	RunID    string
	Source   string
	Outcomes []Outcome
	Duration time.Duration
}

// Artifacts returns the successfully written artifacts in preset order
func (r Result) Artifacts() []types.Artifact {
	var out []types.Artifact
	for _, o := range r.Outcomes {
		if o.Err == nil {
			out = append(out, o.Artifact)
		}
	}
	return out
}

// Failures returns the per-preset errors in preset order
func (r Result) Failures() []error {
	var out []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o.Err)
		}
	}
	return out
}

// Err joins all per-preset failures, or returns nil when every preset succeeded
func (r Result) Err() error {
	return errors.Join(r.Failures()...)
}

// ProcessImage checks the source and then runs every preset independently.
// The returned error is non-nil only when the source is rejected up front;
// per-preset failures are reported in the Result.
func (d *Driver) ProcessImage(ctx context.Context, sourcePath string) (Result, error) {
	result := Result{
		RunID:  uuid.NewString(),
		Source: sourcePath,
	}

	if d.checker != nil {
		if err := d.checker.CheckSupported(sourcePath); err != nil {
			log.Printf("run %s: rejected %s: %v", result.RunID, sourcePath, err)
			return result, err
		}
	}

	start := time.Now()
	result.Outcomes = make([]Outcome, len(d.presets))

	var g errgroup.Group
	g.SetLimit(d.limit)

	for i, preset := range d.presets {
		i, preset := i, preset
		g.Go(func() error {
			artifact, err := d.engine.Produce(ctx, sourcePath, preset)
			result.Outcomes[i] = Outcome{Preset: preset, Artifact: artifact, Err: err}
			if err != nil {
				log.Printf("run %s: %s failed: %v", result.RunID, preset, err)
			} else {
				log.Printf("run %s: wrote %s", result.RunID, artifact.Path)
			}
			// never cancel siblings, failures stay local to their preset
			return nil
		})
	}
	_ = g.Wait()

	result.Duration = time.Since(start)
	failed := len(result.Failures())
	log.Printf("run %s: %s done in %s, %d/%d written", result.RunID, sourcePath,
		result.Duration.Round(time.Millisecond), len(d.presets)-failed, len(d.presets))

	return result, nil
}

// Summary renders a one-line human readable status for the result
func (r Result) Summary() string {
	failed := len(r.Failures())
	if failed == 0 {
		return fmt.Sprintf("%s: %d prints written", r.Source, len(r.Outcomes))
	}
	return fmt.Sprintf("%s: %d of %d prints failed", r.Source, failed, len(r.Outcomes))
}
