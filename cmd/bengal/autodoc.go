package main

import (
	"fmt"
	"os"

	"github.com/lbliii/bengal/internal/contentmodel"
	"github.com/spf13/cobra"
)

var autodocCmd = &cobra.Command{
	Use:   "autodoc <source>",
	Short: "Generate content from a registered autodoc source",
	Long: "Run a registered AutodocSource (e.g. \"python\", \"api\", \"cli\") and print the " +
		"pages it would generate. Bengal ships the source interface and registry; a project " +
		"registers a concrete extractor from its own build tooling before this command has " +
		"anything to run.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determining project root: %w", err)
		}

		pages, err := contentmodel.RunAutodocSource(args[0], root)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(pages) == 0 {
			fmt.Fprintf(out, "autodoc source %q produced no pages\n", args[0])
			return nil
		}
		for _, p := range pages {
			fmt.Fprintf(out, "%s  %s\n", p.CanonicalKey, p.Title)
		}
		return nil
	},
}

func init() {
	autodocCmd.ValidArgs = contentmodel.AutodocSourceNames()
	rootCmd.AddCommand(autodocCmd)
}
