package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/webconv/internal/config"
)

//go:embed templates/webconv.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a webconv configuration file",
		Long: `Init writes a commented .webconv configuration file with examples for
per-site headers, cookies, crawl depth, JavaScript rendering and URL
patterns. Nothing in the generated file is active until uncommented.

Examples:
  # Create .webconv in the current directory
  webconv init

  # Create the file in the XDG config directory
  webconv init -o ~/.config/webconv/config.yaml

  # Replace an existing file
  webconv init -f

  # Print the template instead of writing it
  webconv init --print`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Path of the configuration file to create")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite an existing configuration file")
	cmd.Flags().Bool("print", false,
		"Write the template to stdout")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	printOnly, err := cmd.Flags().GetBool("print")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if printOnly {
		_, err := out.Write(configTemplate)
		return err
	}

	if err := writeTemplate(outputPath, force); err != nil {
		return err
	}

	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nUncomment and edit the examples to set per-site:")
	fmt.Fprintln(out, "  - Authentication cookies and headers")
	fmt.Fprintln(out, "  - Crawl depth and JavaScript rendering")
	fmt.Fprintln(out, "  - URL patterns to ignore or follow")
	return nil
}

// writeTemplate writes the template to path. Without force, an existing
// file is left untouched and reported as an error.
func writeTemplate(path string, force bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o600) //nolint:gosec // user supplied output path
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
	}
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	if _, err := f.Write(configTemplate); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return f.Close()
}
