package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webconv.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webconv",
		Short: "Convert web pages and sites to Markdown or HTML",
		Long: `webconv downloads a web page, optionally follows links on the same site
up to a depth of 5, and converts every page to Markdown or cleaned HTML.

Pages are written one file per page, or combined into a single document.
JavaScript-rendered pages can be loaded with a headless Chrome browser.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewConvertCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
