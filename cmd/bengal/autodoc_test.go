package main

import "testing"

func TestAutodocAndGraphRegistered(t *testing.T) {
	commands := rootCmd.Commands()

	nameSet := make(map[string]bool)
	for _, cmd := range commands {
		nameSet[cmd.Name()] = true
	}

	for _, expected := range []string{"autodoc", "graph"} {
		if !nameSet[expected] {
			t.Errorf("expected root command to have subcommand %q", expected)
		}
	}
}

func TestAutodocRequiresSourceArg(t *testing.T) {
	if autodocCmd.Args == nil {
		t.Error("expected autodoc command to validate its source argument")
	}
}

func TestGraphFlags(t *testing.T) {
	for _, name := range []string{"tree", "stats"} {
		if flag := graphCmd.Flags().Lookup(name); flag == nil {
			t.Errorf("expected graph command to have flag %q", name)
		}
	}
}
