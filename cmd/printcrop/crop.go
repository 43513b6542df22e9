package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/menta2k/printcrop/internal/log"
	"github.com/menta2k/printcrop/internal/utils"
)

func init() {
	rootCmd.AddCommand(cropCmd)
}

var cropCmd = &cobra.Command{
	Use:   "crop <image|dir>...",
	Short: "write one print per preset for each image",
	Long: `write one print per preset for each image

Each output is named "<W>x<H> <original name>" and written to the output
directory, overwriting earlier runs. Directories are searched recursively
for .jpg, .jpeg, .png and .gif files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrop,
}

func runCrop(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	sources, err := expandSources(args)
	if err != nil {
		return err
	}

	failed := 0
	for _, src := range sources {
		result, err := app.ProcessImage(cmd.Context(), src)
		if err != nil {
			log.Printf("%s: %v", src, err)
			failed++
			continue
		}
		for _, a := range result.Artifacts() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d\t%s\n", a.Path, a.Width, a.Height, utils.FormatFileSize(a.Bytes))
		}
		if result.Err() != nil {
			failed++
		}
		fmt.Fprintln(cmd.ErrOrStderr(), result.Summary())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images had failures", failed, len(sources))
	}
	return nil
}

// expandSources replaces directory arguments with the images they contain
func expandSources(args []string) ([]string, error) {
	var sources []string
	for _, arg := range args {
		if !utils.DirExists(arg) {
			sources = append(sources, arg)
			continue
		}
		files, err := utils.ListImageFiles(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", arg, err)
		}
		sources = append(sources, files...)
	}
	if len(sources) == 0 {
		return nil, errors.New("no images found")
	}
	for _, src := range sources {
		if _, err := os.Stat(src); err != nil {
			return nil, err
		}
	}
	return sources, nil
}
