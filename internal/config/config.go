package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/printcrop/pkg/analyzer"
	"github.com/menta2k/printcrop/pkg/processing"
	"github.com/menta2k/printcrop/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Input     InputConfig     `json:"input" yaml:"input"`
	Transform TransformConfig `json:"transform" yaml:"transform"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Batch     BatchConfig     `json:"batch" yaml:"batch"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// InputConfig holds configuration for source validation
type InputConfig struct {
	SupportedTypes []string `json:"supported_types" yaml:"supported_types"`
}

// TransformConfig holds configuration for crop and resize
type TransformConfig struct {
	DPI     int            `json:"dpi" yaml:"dpi"`
	Filter  string         `json:"filter" yaml:"filter"`
	Presets []types.Preset `json:"presets" yaml:"presets"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Dir       string `json:"dir" yaml:"dir"`
	Format    string `json:"format" yaml:"format"`
	Quality   int    `json:"quality" yaml:"quality"`
	Lossless  bool   `json:"lossless" yaml:"lossless"`
	CreateDir bool   `json:"create_dir" yaml:"create_dir"`
}

// BatchConfig holds configuration for the per-image fan-out
type BatchConfig struct {
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	File    string `json:"file" yaml:"file"`
	Verbose bool   `json:"verbose" yaml:"verbose"`
}

// Default returns a configuration with default values
func Default() *Config {
	presets := make([]types.Preset, len(types.DefaultPresets))
	copy(presets, types.DefaultPresets)

	return &Config{
		Input: InputConfig{
			SupportedTypes: append([]string(nil), analyzer.DefaultSupportedTypes...),
		},
		Transform: TransformConfig{
			DPI:     processing.DefaultDPI,
			Filter:  processing.DefaultFilter,
			Presets: presets,
		},
		Output: OutputConfig{
			Dir:       DefaultOutputDir(),
			Format:    "",
			Quality:   90,
			Lossless:  false,
			CreateDir: true,
		},
		Batch: BatchConfig{
			Concurrency: len(presets),
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file. Fields
// missing from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isYAML(filename) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON or YAML file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(filename) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Input.SupportedTypes) == 0 {
		return fmt.Errorf("input.supported_types cannot be empty")
	}

	if c.Transform.DPI < 1 {
		return fmt.Errorf("transform.dpi must be positive")
	}

	if _, err := processing.LookupFilter(c.Transform.Filter); err != nil {
		return fmt.Errorf("transform.filter: %w", err)
	}

	if len(c.Transform.Presets) == 0 {
		return fmt.Errorf("transform.presets cannot be empty")
	}
	seen := make(map[types.Preset]bool, len(c.Transform.Presets))
	for _, p := range c.Transform.Presets {
		if !p.Valid() {
			return fmt.Errorf("transform.presets: %s must have positive sides", p)
		}
		if seen[p] {
			return fmt.Errorf("transform.presets: %s is listed more than once", p)
		}
		seen[p] = true
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir cannot be empty")
	}

	if !processing.IsOutputFormat(c.Output.Format) {
		return fmt.Errorf("output.format %q is not one of jpg, png, gif, webp", c.Output.Format)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be positive")
	}

	return nil
}

// OutputOptions converts the output section for the transform engine
func (c *Config) OutputOptions() types.OutputOptions {
	return types.OutputOptions{
		Dir:       c.Output.Dir,
		Format:    c.Output.Format,
		Quality:   c.Output.Quality,
		Lossless:  c.Output.Lossless,
		CreateDir: c.Output.CreateDir,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "printcrop", "config.json")
}

// DefaultOutputDir returns the directory artifacts are written to when
// none is configured
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./results"
	}
	return filepath.Join(home, "results")
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}
