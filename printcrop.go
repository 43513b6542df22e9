// Package printcrop turns one photo into a set of standard print sizes.
//
// For every preset (24x36, 18x24, 16x20, 11x14 and 5x7 by default) the
// largest centered region with the preset's aspect ratio is cut out of the
// source, resized to the preset at 96 pixels per unit and written next to
// the others as "<W>x<H> <original name>".
//
// Basic usage:
//
//	cfg := printcrop.DefaultConfig()
//	cfg.Output.Dir = "prints"
//
//	app, err := printcrop.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer app.Close()
//
//	result, err := app.ProcessImage(context.Background(), "photo.jpg")
//	if err != nil {
//		log.Fatal(err) // not a GIF, PNG or JPEG
//	}
//	for _, a := range result.Artifacts() {
//		fmt.Println(a.Path)
//	}
//
// The package consists of four components:
//
// 1. Analyzer (pkg/analyzer): input sniffing and metadata
// 2. Cropper (pkg/cropper): centered crop box arithmetic and extraction
// 3. Processing (pkg/processing): the per-preset crop, resize and write
// 4. Batch (pkg/batch): fan-out of one source to every preset
//
// A failure for one preset never stops the others; only an unsupported
// source aborts a run, and it does so before any file is written.
package printcrop

import (
	"context"
	"fmt"
	"io"

	"github.com/menta2k/printcrop/internal/config"
	"github.com/menta2k/printcrop/internal/log"
	"github.com/menta2k/printcrop/pkg/analyzer"
	"github.com/menta2k/printcrop/pkg/batch"
	"github.com/menta2k/printcrop/pkg/cropper"
	"github.com/menta2k/printcrop/pkg/processing"
	"github.com/menta2k/printcrop/pkg/types"
)

// Version of the printcrop library
const Version = "1.0.0"

// Config is the application configuration
type Config = config.Config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads a JSON or YAML configuration file
func LoadConfig(path string) (*Config, error) {
	return config.LoadFromFile(path)
}

// App holds everything one process needs to turn images into prints
type App struct {
	config    *Config
	analyzer  *analyzer.ImageAnalyzer
	processor *processing.Processor
	driver    *batch.Driver
	logCloser io.Closer
}

// New validates cfg, configures logging and wires the components together.
// Call Close when done.
func New(cfg *Config) (*App, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logCloser, err := log.Setup(log.Options{File: cfg.Log.File, Verbose: cfg.Log.Verbose})
	if err != nil {
		return nil, err
	}

	imgAnalyzer := analyzer.NewWithConfig(analyzer.Config{SupportedTypes: cfg.Input.SupportedTypes})
	processor, err := processing.NewProcessor(processing.Config{
		DPI:      cfg.Transform.DPI,
		Filter:   cfg.Transform.Filter,
		Output:   cfg.OutputOptions(),
		Analyzer: imgAnalyzer,
		Cropper:  cropper.New(),
	})
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	driver := batch.NewDriver(processor, imgAnalyzer, batch.Config{
		Presets:     cfg.Transform.Presets,
		Concurrency: cfg.Batch.Concurrency,
	})

	log.Debugf("printcrop %s: output=%s presets=%v dpi=%d", Version, cfg.Output.Dir, cfg.Transform.Presets, cfg.Transform.DPI)

	return &App{
		config:    cfg,
		analyzer:  imgAnalyzer,
		processor: processor,
		driver:    driver,
		logCloser: logCloser,
	}, nil
}

// Config returns the configuration the app was built with
func (a *App) Config() *Config {
	return a.config
}

// Presets returns the presets every image is cropped to
func (a *App) Presets() []types.Preset {
	return a.driver.Presets()
}

// ProcessImage produces one print per preset from the image at path
func (a *App) ProcessImage(ctx context.Context, path string) (batch.Result, error) {
	return a.driver.ProcessImage(ctx, path)
}

// Plan reports the crop box and output of every preset without writing anything
func (a *App) Plan(path string) ([]processing.PlanEntry, error) {
	if err := a.analyzer.CheckSupported(path); err != nil {
		return nil, err
	}

	presets := a.Presets()
	entries := make([]processing.PlanEntry, 0, len(presets))
	for _, p := range presets {
		entry, err := a.processor.Plan(path, p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close releases the log file, if any
func (a *App) Close() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
