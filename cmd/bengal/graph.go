package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/lbliii/bengal/internal/cache"
	"github.com/spf13/cobra"
)

var (
	graphTree  bool
	graphStats bool
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the persisted dependency graph from the last build",
	Long: "Reads the dependency graph saved in .bengal/cache by the last incremental build " +
		"and prints it either as a per-page tree (--tree) or as aggregate stats (--stats, the default).",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determining project root: %w", err)
		}

		buildCache, err := cache.Open(filepath.Join(root, ".bengal", "cache", "buildcache.db"))
		if err != nil {
			return fmt.Errorf("opening build cache: %w", err)
		}
		defer buildCache.Close()

		snapshot, err := buildCache.LoadDependencyGraph()
		if err != nil {
			return fmt.Errorf("loading dependency graph: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(snapshot) == 0 {
			fmt.Fprintln(out, "no dependency graph recorded yet (run a build first)")
			return nil
		}

		if graphTree {
			printGraphTree(out, snapshot)
			return nil
		}
		printGraphStats(out, snapshot)
		return nil
	},
}

func printGraphTree(out interface{ Write([]byte) (int, error) }, snapshot map[string][]string) {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, pageKey := range keys {
		fmt.Fprintln(out, pageKey)
		inputs := append([]string(nil), snapshot[pageKey]...)
		sort.Strings(inputs)
		for _, in := range inputs {
			fmt.Fprintf(out, "  -> %s\n", in)
		}
	}
}

func printGraphStats(out interface{ Write([]byte) (int, error) }, snapshot map[string][]string) {
	reverse := make(map[string]int)
	totalEdges := 0
	for _, inputs := range snapshot {
		totalEdges += len(inputs)
		for _, in := range inputs {
			reverse[in]++
		}
	}

	fmt.Fprintf(out, "pages:  %d\n", len(snapshot))
	fmt.Fprintf(out, "inputs: %d\n", len(reverse))
	fmt.Fprintf(out, "edges:  %d\n", totalEdges)

	type fanIn struct {
		input string
		count int
	}
	top := make([]fanIn, 0, len(reverse))
	for in, count := range reverse {
		top = append(top, fanIn{in, count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].count != top[j].count {
			return top[i].count > top[j].count
		}
		return top[i].input < top[j].input
	})
	if len(top) > 10 {
		top = top[:10]
	}
	if len(top) > 0 {
		fmt.Fprintln(out, "\nmost depended-on inputs:")
		for _, f := range top {
			fmt.Fprintf(out, "  %-6d %s\n", f.count, f.input)
		}
	}
}

func init() {
	graphCmd.Flags().BoolVar(&graphTree, "tree", false, "print the full page -> inputs tree")
	graphCmd.Flags().BoolVar(&graphStats, "stats", true, "print aggregate fan-in/fan-out stats (default)")
	rootCmd.AddCommand(graphCmd)
}
