package listflags

import "github.com/spf13/cobra"

// AddJSONFlag adds a shared --json flag to list commands.
func AddJSONFlag(cmd *cobra.Command, target *bool, usage string) {
	if usage == "" {
		usage = "Output as JSON"
	}
	cmd.Flags().BoolVar(target, "json", false, usage)
}

// AddPendingFlag adds a shared --pending flag that hides completed tasks.
func AddPendingFlag(cmd *cobra.Command, target *bool) {
	cmd.Flags().BoolVar(target, "pending", false, "Only show tasks that are not completed")
}
