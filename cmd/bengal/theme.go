package main

import (
	"fmt"

	"github.com/lbliii/bengal/embedded"
	"github.com/lbliii/bengal/internal/scaffold"
	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Manage themes",
	Long:  "Commands for managing site themes.",
}

var themeUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the default theme to the latest embedded version",
	Long: `Re-extract the default theme from the Bengal binary into themes/default/,
overwriting existing files. This brings your on-disk theme in sync with
the version embedded in the current bengal binary.

Run this from the site root (the directory containing bengal.yaml).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := scaffold.RefreshTheme(".", embedded.DefaultTheme); err != nil {
			return fmt.Errorf("updating theme: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Default theme updated successfully.")
		return nil
	},
}

var themeSwizzleCmd = &cobra.Command{
	Use:   "swizzle <theme-relative-path>",
	Short: "Copy a theme template into the project for local editing",
	Long: `Copy a template out of the embedded default theme into the site root, at the
same relative path, and record the copy in .bengal/themes/sources.json so
"theme swizzle-update" can later tell whether it is safe to refresh.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]
		if err := scaffold.SwizzleTemplate(".", embedded.DefaultTheme, "default", source, source); err != nil {
			return fmt.Errorf("swizzling %q: %w", source, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "swizzled %s\n", source)
		return nil
	},
}

var themeSwizzleListCmd = &cobra.Command{
	Use:   "swizzle-list",
	Short: "List swizzled templates and their update state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		statuses, err := scaffold.ListSwizzled(".", embedded.DefaultTheme)
		if err != nil {
			return fmt.Errorf("listing swizzled templates: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(statuses) == 0 {
			fmt.Fprintln(out, "no swizzled templates")
			return nil
		}
		for _, s := range statuses {
			state := "up to date"
			switch {
			case s.LocallyModified:
				state = "locally modified"
			case s.UpstreamChanged:
				state = "upstream changed"
			}
			fmt.Fprintf(out, "%-50s %s\n", s.Target, state)
		}
		return nil
	},
}

var themeSwizzleUpdateCmd = &cobra.Command{
	Use:   "swizzle-update",
	Short: "Re-copy swizzled templates whose upstream changed and local copy is untouched",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		updated, skipped, err := scaffold.SwizzleUpdate(".", embedded.DefaultTheme)
		if err != nil {
			return fmt.Errorf("updating swizzled templates: %w", err)
		}
		out := cmd.OutOrStdout()
		for _, t := range updated {
			fmt.Fprintf(out, "updated %s\n", t)
		}
		for _, t := range skipped {
			fmt.Fprintf(out, "skipped %s (locally modified or already current)\n", t)
		}
		return nil
	},
}

func init() {
	themeCmd.AddCommand(themeUpdateCmd)
	themeCmd.AddCommand(themeSwizzleCmd)
	themeCmd.AddCommand(themeSwizzleListCmd)
	themeCmd.AddCommand(themeSwizzleUpdateCmd)
	rootCmd.AddCommand(themeCmd)
}
