package main

import (
	"fmt"
	"os"

	"github.com/lbliii/bengal/internal/build"
	"github.com/lbliii/bengal/internal/config"
	"github.com/spf13/cobra"
)

// resolveIncremental decides whether this build should run incrementally.
// An explicit --incremental/--no-incremental flag always wins; otherwise it
// follows build.incremental in config. "auto" and "true" both enable it —
// cache.Open degrades silently to an empty cache when no prior build
// exists, so opportunistically enabling it is always safe.
func resolveIncremental(cmd *cobra.Command, cfgValue string) bool {
	if cmd.Flags().Changed("incremental") {
		v, _ := cmd.Flags().GetBool("incremental")
		return v
	}
	return cfgValue == "" || cfgValue == "auto" || cfgValue == "true"
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the static site",
	Long:  "Build transforms your content into a complete static website.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load config.
		configPath, _ := cmd.Root().PersistentFlags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// 2. Apply CLI flag overrides.
		overrides := make(map[string]any)
		if baseURL, _ := cmd.Flags().GetString("baseURL"); baseURL != "" {
			overrides["baseURL"] = baseURL
		}
		if minify, _ := cmd.Flags().GetBool("minify"); minify {
			overrides["minify"] = minify
		}
		cfg.WithOverrides(overrides)

		// 3. Build options from flags.
		drafts, _ := cmd.Flags().GetBool("drafts")
		future, _ := cmd.Flags().GetBool("future")
		expired, _ := cmd.Flags().GetBool("expired")
		destination, _ := cmd.Flags().GetString("destination")
		verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
		minify, _ := cmd.Flags().GetBool("minify")

		projectRoot, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determining project root: %w", err)
		}

		explain, _ := cmd.Flags().GetBool("explain")
		explainJSON, _ := cmd.Flags().GetBool("explain-json")
		strict, _ := cmd.Flags().GetBool("strict")

		opts := build.BuildOptions{
			IncludeDrafts:  drafts,
			IncludeFuture:  future,
			IncludeExpired: expired,
			OutputDir:      destination,
			Verbose:        verbose,
			Minify:         minify,
			BaseURL:        cfg.BaseURL,
			ProjectRoot:    projectRoot,
			Incremental:    resolveIncremental(cmd, cfg.Build.Incremental),
			Explain:        explain || explainJSON,
			Strict:         strict,
		}

		// 4. Create builder and run the build. A strict-mode failure still
		// returns a populated result (the output tree was written in
		// full); only report it as a build failure once the summary and
		// warnings have been printed.
		builder := build.NewBuilder(cfg, opts)
		result, buildErr := builder.Build()
		if result == nil {
			return fmt.Errorf("build failed: %w", buildErr)
		}

		// 5. Print build result summary.
		fmt.Fprintf(cmd.OutOrStdout(),
			"Build complete: %d pages rendered, %d files written, %d files copied in %s\n",
			result.PagesRendered,
			result.FilesWritten,
			result.FilesCopied,
			result.Duration.Round(1_000_000), // round to milliseconds
		)

		for _, w := range result.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", w.Kind, w.Message)
		}

		if result.Manifest != nil {
			if explainJSON {
				data, err := result.Manifest.JSON()
				if err != nil {
					return fmt.Errorf("encoding explain manifest: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else if explain {
				fmt.Fprint(cmd.OutOrStdout(), result.Manifest.Explain())
			}
		}

		return buildErr
	},
}

func init() {
	buildCmd.Flags().Bool("drafts", false, "include draft content")
	buildCmd.Flags().Bool("future", false, "include future-dated content")
	buildCmd.Flags().Bool("expired", false, "include expired content")
	buildCmd.Flags().String("baseURL", "", "override base URL")
	buildCmd.Flags().StringP("destination", "d", "public", "output directory")
	buildCmd.Flags().Bool("minify", false, "minify output")
	buildCmd.Flags().Bool("incremental", false, "force incremental build on/off (default: follow build.incremental config)")
	buildCmd.Flags().Bool("explain", false, "print which pages were rebuilt and why")
	buildCmd.Flags().Bool("explain-json", false, "print the rebuild manifest as JSON")
	buildCmd.Flags().Bool("strict", false, "fail the build if any non-fatal warnings were raised (e.g. broken cross-references)")

	rootCmd.AddCommand(buildCmd)
}
