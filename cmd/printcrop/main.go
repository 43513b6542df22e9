package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/menta2k/printcrop"
	"github.com/menta2k/printcrop/internal/config"
	"github.com/menta2k/printcrop/internal/log"
	"github.com/menta2k/printcrop/internal/utils"
	"github.com/menta2k/printcrop/pkg/types"
)

var rootCmd = &cobra.Command{
	Use:           "printcrop",
	Short:         "printcrop cuts a photo into standard print sizes",
	Long:          "printcrop cuts a photo into standard print sizes (24x36, 18x24, 16x20, 11x14, 5x7)\nby center cropping to each aspect ratio and resizing to 96 pixels per inch.",
	Version:       printcrop.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		os.Exit(1)
	},
}

var (
	configPath  string
	outDir      string
	format      string
	quality     int
	lossless    bool
	dpi         int
	filter      string
	presetArgs  []string
	concurrency int
	logFile     string
	verbose     bool
	noMkdir     bool
)

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, `config`, `c`, ``, `config file (json or yaml), defaults to `+config.GetConfigPath()+` if present`)
	f.StringVarP(&outDir, `out`, `o`, ``, `output directory`)
	f.StringVarP(&format, `format`, `f`, ``, `output format: jpg|png|gif|webp (default: same as source)`)
	f.IntVarP(&quality, `quality`, `q`, 90, `JPEG/WebP output quality (1-100)`)
	f.BoolVar(&lossless, `lossless`, false, `WebP lossless mode`)
	f.IntVar(&dpi, `dpi`, 96, `output pixels per preset unit`)
	f.StringVar(&filter, `filter`, `lanczos`, `resample filter: lanczos|catmullrom|mitchell|linear|box|nearest`)
	f.StringArrayVarP(&presetArgs, `preset`, `p`, nil, `print size WxH, repeatable; replaces the default set`)
	f.IntVarP(&concurrency, `concurrency`, `j`, 0, `parallel transforms per image (default: one per preset)`)
	f.StringVar(&logFile, `log-file`, ``, `also write logs to this rotating file`)
	f.BoolVar(&verbose, `verbose`, false, `debug logging`)
	f.BoolVar(&noMkdir, `no-mkdir`, false, `fail instead of creating a missing output directory`)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// loadConfig resolves the config file and applies flags the user set
func loadConfig(cmd *cobra.Command) (*printcrop.Config, error) {
	cfg := printcrop.DefaultConfig()

	path := configPath
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}
	if path != "" {
		loaded, err := printcrop.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed(`out`) {
		cfg.Output.Dir = outDir
	}
	if flags.Changed(`format`) {
		cfg.Output.Format = format
	}
	if flags.Changed(`quality`) {
		cfg.Output.Quality = quality
	}
	if flags.Changed(`lossless`) {
		cfg.Output.Lossless = lossless
	}
	if flags.Changed(`no-mkdir`) {
		cfg.Output.CreateDir = !noMkdir
	}
	if flags.Changed(`dpi`) {
		cfg.Transform.DPI = dpi
	}
	if flags.Changed(`filter`) {
		cfg.Transform.Filter = filter
	}
	if flags.Changed(`preset`) {
		presets := make([]types.Preset, 0, len(presetArgs))
		for _, s := range presetArgs {
			p, err := types.ParsePreset(s)
			if err != nil {
				return nil, err
			}
			presets = append(presets, p)
		}
		cfg.Transform.Presets = presets
		if !flags.Changed(`concurrency`) {
			cfg.Batch.Concurrency = len(presets)
		}
	}
	if flags.Changed(`concurrency`) {
		cfg.Batch.Concurrency = concurrency
	}
	if flags.Changed(`log-file`) {
		cfg.Log.File = logFile
	}
	if flags.Changed(`verbose`) {
		cfg.Log.Verbose = verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newApp builds the application from flags and config
func newApp(cmd *cobra.Command) (*printcrop.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return printcrop.New(cfg)
}
