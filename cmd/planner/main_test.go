package main

import "testing"

func TestRootCommandName(t *testing.T) {
	if rootCmd.Use != "planner" {
		t.Fatalf("expected root command name planner, got %q", rootCmd.Use)
	}
}

func TestRootRegistersSubcommands(t *testing.T) {
	for _, name := range []string{"task", "serve", "subscribe", "verify", "unsubscribe", "subscribers", "remind"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected %s subcommand, got %v (err %v)", name, cmd, err)
		}
	}
}
