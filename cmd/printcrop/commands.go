package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/printcrop/internal/config"
)

func init() {
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(presetsCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan <image>",
	Short: "print crop boxes and output sizes as JSON without writing images",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		entries, err := app.Plan(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "list the print sizes and their pixel dimensions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		for _, p := range cfg.Transform.Presets {
			w, h := p.PixelSize(cfg.Transform.DPI)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.4f\t%dx%d px\n", p, p.Ratio(), w, h)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "write the effective configuration to a file (json or yaml by extension)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path := config.GetConfigPath()
		if len(args) == 1 {
			path = args[0]
		}
		if err := cfg.SaveToFile(path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}
