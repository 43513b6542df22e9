package processing

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/menta2k/printcrop/internal/log"
	"github.com/menta2k/printcrop/internal/utils"
	"github.com/menta2k/printcrop/pkg/analyzer"
	"github.com/menta2k/printcrop/pkg/cropper"
	"github.com/menta2k/printcrop/pkg/types"
)

const (
	// DefaultDPI is the number of output pixels per preset unit
	DefaultDPI = 96
	// DefaultFilter is the resampling filter used when none is configured
	DefaultFilter = "lanczos"
)

var filters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"mitchell":   imaging.MitchellNetravali,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

// LookupFilter returns the resampling filter registered under name
func LookupFilter(name string) (imaging.ResampleFilter, error) {
	if name == "" {
		name = DefaultFilter
	}
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter %q", name)
	}
	return f, nil
}

// IsOutputFormat reports whether format can be written. The empty string
// means "same as the source".
func IsOutputFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", "jpg", "jpeg", "png", "gif", "webp":
		return true
	}
	return false
}

// Config holds configuration for the transform engine
type Config struct {
	DPI    int
	Filter string
	Output types.OutputOptions
	// Analyzer and Cropper default to fresh instances when nil
	Analyzer *analyzer.ImageAnalyzer
	Cropper  *cropper.CenterCropper
}

// Processor crops one source image to one preset, resizes it to print
// resolution and writes the result
type Processor struct {
	analyzer *analyzer.ImageAnalyzer
	cropper  *cropper.CenterCropper
	filter   imaging.ResampleFilter
	dpi      int
	output   types.OutputOptions
}

// NewProcessor creates a new transform engine
func NewProcessor(cfg Config) (*Processor, error) {
	if cfg.DPI == 0 {
		cfg.DPI = DefaultDPI
	}
	if cfg.DPI < 0 {
		return nil, fmt.Errorf("dpi must be positive, got %d", cfg.DPI)
	}
	filter, err := LookupFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}
	if !IsOutputFormat(cfg.Output.Format) {
		return nil, fmt.Errorf("unsupported output format %q", cfg.Output.Format)
	}
	if cfg.Output.Dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if cfg.Output.Quality == 0 {
		cfg.Output.Quality = 90
	}
	if cfg.Analyzer == nil {
		cfg.Analyzer = analyzer.New()
	}
	if cfg.Cropper == nil {
		cfg.Cropper = cropper.New()
	}

	return &Processor{
		analyzer: cfg.Analyzer,
		cropper:  cfg.Cropper,
		filter:   filter,
		dpi:      cfg.DPI,
		output:   cfg.Output,
	}, nil
}

// Analyzer returns the analyzer used to inspect sources
func (p *Processor) Analyzer() *analyzer.ImageAnalyzer {
	return p.analyzer
}

// OutputPath returns where the artifact for a source and preset is written
func (p *Processor) OutputPath(src types.ImageInfo, preset types.Preset) string {
	_, ext := p.outputFormat(src)
	return filepath.Join(p.output.Dir, utils.OutputFilename(preset.String(), src.Path, ext))
}

// outputFormat picks the codec to encode with and the extension to put on
// the output name. An empty extension keeps the source name as is.
func (p *Processor) outputFormat(src types.ImageInfo) (format, ext string) {
	if p.output.Format != "" {
		return p.output.Format, p.output.Format
	}
	format = utils.GetFileExtension(src.Path)
	if _, err := imaging.FormatFromExtension(format); err == nil {
		return format, ""
	}
	// extension missing or not an image type, use the sniffed codec
	return src.Format, src.Format
}

// PlanEntry describes what Produce would do for one preset
type PlanEntry struct {
	Preset types.Preset  `json:"preset"`
	Box    types.CropBox `json:"crop"`
	Width  int           `json:"output_width"`
	Height int           `json:"output_height"`
	Path   string        `json:"output_path"`
}

// Plan computes the crop box, output size and path without touching pixels
func (p *Processor) Plan(sourcePath string, preset types.Preset) (PlanEntry, error) {
	info, err := p.analyzer.ReadInfo(sourcePath)
	if err != nil {
		return PlanEntry{}, types.NewTransformError(preset, types.ErrMetadata, err)
	}
	return p.plan(info, preset)
}

func (p *Processor) plan(info types.ImageInfo, preset types.Preset) (PlanEntry, error) {
	box, err := cropper.ComputeCropBox(info.Width, info.Height, preset)
	if err != nil {
		return PlanEntry{}, types.NewTransformError(preset, types.ErrGeometry, err)
	}

	w, h := preset.PixelSize(p.dpi)
	return PlanEntry{
		Preset: preset,
		Box:    box,
		Width:  w,
		Height: h,
		Path:   p.OutputPath(info, preset),
	}, nil
}

// Produce runs the full transform for one preset. Every failure is a
// *types.TransformError whose kind is ErrMetadata, ErrGeometry or ErrWrite.
func (p *Processor) Produce(ctx context.Context, sourcePath string, preset types.Preset) (types.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return types.Artifact{}, types.NewTransformError(preset, err, nil)
	}

	info, err := p.analyzer.ReadInfo(sourcePath)
	if err != nil {
		return types.Artifact{}, types.NewTransformError(preset, types.ErrMetadata, err)
	}

	plan, err := p.plan(info, preset)
	if err != nil {
		return types.Artifact{}, err
	}

	img, err := p.analyzer.LoadImage(sourcePath)
	if err != nil {
		return types.Artifact{}, types.NewTransformError(preset, types.ErrMetadata, err)
	}

	// a GIF's first frame may be smaller than its logical screen
	if got := p.analyzer.GetImageInfo(img); got.Width != info.Width || got.Height != info.Height {
		return types.Artifact{}, types.NewTransformError(preset, types.ErrMetadata,
			fmt.Errorf("decoded image is %dx%d but header says %dx%d", got.Width, got.Height, info.Width, info.Height))
	}

	crop, err := p.cropper.CropToPreset(img, preset)
	if err != nil {
		return types.Artifact{}, types.NewTransformError(preset, types.ErrGeometry, err)
	}

	resized := imaging.Resize(crop.Image, plan.Width, plan.Height, p.filter)

	if p.output.CreateDir {
		if err := utils.EnsureDir(p.output.Dir); err != nil {
			return types.Artifact{}, types.NewTransformError(preset, types.ErrWrite, err)
		}
	}

	format, _ := p.outputFormat(info)
	if err := p.SaveImage(resized, plan.Path, format); err != nil {
		return types.Artifact{}, types.NewTransformError(preset, types.ErrWrite, err)
	}

	artifact := types.Artifact{
		Preset: preset,
		Path:   plan.Path,
		Width:  plan.Width,
		Height: plan.Height,
	}
	if fi, err := os.Stat(plan.Path); err == nil {
		artifact.Bytes = fi.Size()
	}

	log.Debugf("%s: crop %dx%d+%d+%d -> %dx%d %s (%s)", preset, crop.Box.Width, crop.Box.Height,
		crop.Box.Left, crop.Box.Top, plan.Width, plan.Height, plan.Path, utils.FormatFileSize(artifact.Bytes))
	return artifact, nil
}

// SaveImage writes img to path in the given format (jpg, png, gif or webp).
// A partially written file is removed on failure.
func (p *Processor) SaveImage(img image.Image, path, format string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	switch strings.ToLower(format) {
	case "webp":
		opts := &webp.Options{Lossless: p.output.Lossless, Quality: float32(p.output.Quality)}
		return webp.Encode(f, img, opts)
	default:
		imgFormat, ferr := imaging.FormatFromExtension(format)
		if ferr != nil {
			return fmt.Errorf("cannot encode %q: %w", format, ferr)
		}
		return imaging.Encode(f, img, imgFormat, imaging.JPEGQuality(p.output.Quality))
	}
}
