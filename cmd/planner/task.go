package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/amonks/taskplanner/internal/ids"
	"github.com/amonks/taskplanner/internal/listflags"
	internalstrings "github.com/amonks/taskplanner/internal/strings"
	"github.com/amonks/taskplanner/internal/ui"
	"github.com/amonks/taskplanner/report"
	"github.com/amonks/taskplanner/task"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage the task list",
}

// task add
var taskAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskAdd,
}

// task list
var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Args:    cobra.NoArgs,
	RunE:    runTaskList,
}

var (
	taskListJSON    bool
	taskListPending bool
)

// task done
var taskDoneCmd = &cobra.Command{
	Use:   "done <id>...",
	Short: "Mark one or more tasks as completed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskDone,
}

// task undo
var taskUndoCmd = &cobra.Command{
	Use:   "undo <id>...",
	Short: "Mark one or more tasks as not completed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskUndo,
}

// task rm
var taskRmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete one or more tasks",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runTaskRm,
}

// task export
var taskExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the task list as JSON, CSV or PDF",
	Args:  cobra.NoArgs,
	RunE:  runTaskExport,
}

var (
	taskExportFormat string
	taskExportOutput string
)

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskDoneCmd, taskUndoCmd, taskRmCmd, taskExportCmd)

	listflags.AddJSONFlag(taskListCmd, &taskListJSON, "")
	listflags.AddPendingFlag(taskListCmd, &taskListPending)

	taskExportCmd.Flags().StringVarP(&taskExportFormat, "format", "f", "json", "Export format (json, csv, pdf)")
	taskExportCmd.Flags().StringVarP(&taskExportOutput, "output", "o", "", "Write to file instead of stdout")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	p, err := openPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	name := args[0]
	created, err := p.Tasks.Add(cmd.Context(), internalstrings.TrimSpace(name))
	if err != nil {
		return err
	}

	highlight := taskHighlighter(p.Tasks.All(cmd.Context()))
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s\n", highlight(created.ID), created.Name)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	p, err := openPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	all := p.Tasks.All(cmd.Context())
	shown := all
	if taskListPending {
		shown = task.Pending(all)
	}

	out := cmd.OutOrStdout()
	if taskListJSON {
		return encodeJSON(out, shown)
	}
	if len(shown) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return nil
	}
	fmt.Fprint(out, formatTaskTable(shown, taskHighlighter(all)))
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	return setTasksCompleted(cmd, args, true, "Completed")
}

func runTaskUndo(cmd *cobra.Command, args []string) error {
	return setTasksCompleted(cmd, args, false, "Reopened")
}

func setTasksCompleted(cmd *cobra.Command, args []string, completed bool, verb string) error {
	p, err := openPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	highlight := taskHighlighter(p.Tasks.All(cmd.Context()))
	for _, arg := range args {
		resolved, err := p.Tasks.Resolve(cmd.Context(), arg)
		if err != nil {
			return err
		}
		updated, err := p.Tasks.SetCompleted(cmd.Context(), resolved.ID, completed)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", verb, highlight(updated.ID), updated.Name)
	}
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	p, err := openPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	highlight := taskHighlighter(p.Tasks.All(cmd.Context()))
	for _, arg := range args {
		resolved, err := p.Tasks.Resolve(cmd.Context(), arg)
		if err != nil {
			return err
		}
		if err := p.Tasks.Delete(cmd.Context(), resolved.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s: %s\n", highlight(resolved.ID), resolved.Name)
	}
	return nil
}

func runTaskExport(cmd *cobra.Command, args []string) (err error) {
	format, err := report.ParseFormat(taskExportFormat)
	if err != nil {
		return err
	}

	p, err := openPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	var out io.Writer = cmd.OutOrStdout()
	if taskExportOutput != "" && taskExportOutput != "-" {
		file, err := os.Create(taskExportOutput)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer func() {
			err = errors.Join(err, file.Close())
		}()
		out = file
	}
	return p.Exporter.Export(cmd.Context(), out, format)
}

// taskHighlighter highlights the shortest unique prefix of each id among
// all tasks.
func taskHighlighter(all []task.Task) func(string) string {
	taskIDs := make([]string, 0, len(all))
	for _, t := range all {
		taskIDs = append(taskIDs, t.ID)
	}
	lengths := ids.UniquePrefixLengths(taskIDs)
	return func(id string) string {
		return ui.HighlightID(id, ui.PrefixLength(lengths, id))
	}
}

func formatTaskTable(tasks []task.Task, highlight func(string) string) string {
	builder := ui.NewTableBuilder([]string{"ID", "STATUS", "NAME"}, len(tasks))
	for _, t := range tasks {
		builder.AddRow([]string{
			highlight(t.ID),
			ui.TaskStatus(t.Completed),
			ui.TruncateTableCell(t.Name),
		})
	}
	return builder.String()
}
