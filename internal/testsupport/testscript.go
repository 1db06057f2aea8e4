package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/amonks/taskplanner/subscription"
	"github.com/amonks/taskplanner/task"
	"github.com/rogpeppe/go-internal/testscript"
)

var (
	buildOnce   sync.Once
	plannerPath string
	buildErr    error
)

// BuildPlanner builds the planner binary once and returns its path.
func BuildPlanner(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "planner-bin-")
		if err != nil {
			buildErr = err
			return
		}

		plannerPath = filepath.Join(binDir, "planner")
		cmd := exec.Command("go", "build", "-o", plannerPath, "./cmd/planner")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build planner: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return plannerPath
}

// SetupScriptEnv configures common environment variables for testscript.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("PLANNER", BuildPlanner(t))

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := EnsureHomeDirs(homeDir); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("XDG_CONFIG_HOME", "")
	env.Setenv("TASKPLANNER_CONFIG", "")
	env.Setenv("NO_COLOR", "1")
	return nil
}

// CmdEnvSet stores the trimmed contents of a file in an env var.
func CmdEnvSet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("envset does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: envset VAR FILE")
	}

	value := strings.TrimSpace(ts.ReadFile(args[1]))
	ts.Setenv(args[0], value)
}

// CmdTaskID finds a task by name in a JSON task list and stores its ID in
// an env var.
func CmdTaskID(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("taskid does not support negation")
	}
	if len(args) != 3 {
		ts.Fatalf("usage: taskid FILE NAME VAR")
	}

	var items []task.Task
	data := ts.ReadFile(args[0])
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		ts.Fatalf("parse task list: %v", err)
	}

	name := args[1]
	for _, item := range items {
		if item.Name == name {
			ts.Setenv(args[2], item.ID)
			return
		}
	}

	ts.Fatalf("task named %q not found", name)
}

// CmdPendingCode reads the verification code issued to an email from
// `planner subscribers --json` output and stores it in an env var.
func CmdPendingCode(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("pendingcode does not support negation")
	}
	if len(args) != 3 {
		ts.Fatalf("usage: pendingcode FILE EMAIL VAR")
	}

	var listing struct {
		Pending map[string]subscription.Pending `json:"pending"`
	}
	if err := json.Unmarshal([]byte(ts.ReadFile(args[0])), &listing); err != nil {
		ts.Fatalf("parse subscribers: %v", err)
	}

	entry, ok := listing.Pending[args[1]]
	if !ok {
		ts.Fatalf("no pending subscription for %q", args[1])
	}
	ts.Setenv(args[2], entry.Code)
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}
