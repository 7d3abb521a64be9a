package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := New().WithOutput(&stdout, &stderr).ExecuteWithArgs(context.Background(), args)
	return stdout.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "solver.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestApp_Version(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "decpomdp version") {
		t.Errorf("version output = %q", out)
	}
}

func TestApp_Help(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, want := range []string{"policy iteration", "solve", "validate", "problems", "inspect", "schema"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestApp_Problems(t *testing.T) {
	out, err := execute(t, "problems")
	if err != nil {
		t.Fatalf("problems command failed: %v", err)
	}
	for _, want := range []string{"NAME", "broadcast", "dectiger", "twostate", "agent-1,agent-2"} {
		if !strings.Contains(out, want) {
			t.Errorf("problems output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "problems", "--json")
	if err != nil {
		t.Fatalf("problems --json failed: %v", err)
	}
	var infos []problemInfo
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatalf("problems --json output is not JSON: %v", err)
	}
	if len(infos) != 3 {
		t.Errorf("problems = %d, want 3", len(infos))
	}
}

func TestApp_SolveTwoState(t *testing.T) {
	out, err := execute(t, "solve", "twostate", "--json", "--log-level", "error")
	if err != nil {
		t.Fatalf("solve failed: %v\n%s", err, out)
	}

	var res solveOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("solve output is not JSON: %v\n%s", err, out)
	}
	if res.Status != "converged" {
		t.Errorf("Status = %s, want converged", res.Status)
	}
	if math.Abs(res.Value-10) > 1e-6 {
		t.Errorf("Value = %v, want 10", res.Value)
	}
	if res.Nodes["agent"] != 1 {
		t.Errorf("Nodes = %v, want agent: 1", res.Nodes)
	}
}

func TestApp_SolveText(t *testing.T) {
	out, err := execute(t, "solve", "twostate", "-n", "1", "--threshold", "0", "--log-level", "error")
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	for _, want := range []string{"Problem: twostate", "Status: exhausted", "Iterations: 1", "History: 5 10"} {
		if !strings.Contains(out, want) {
			t.Errorf("solve output missing %q:\n%s", want, out)
		}
	}
}

func TestApp_SolveErrors(t *testing.T) {
	if _, err := execute(t, "solve"); err == nil {
		t.Error("solve without a problem succeeded")
	}
	if _, err := execute(t, "solve", "nosuch"); err == nil {
		t.Error("solve with an unknown problem succeeded")
	}
	if _, err := execute(t, "solve", "twostate", "--beliefs", "0"); err == nil {
		t.Error("solve with zero beliefs succeeded")
	}
}

func TestApp_SolveAndInspect(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	cfg := writeConfig(t, `
problem: twostate
logging:
  level: error
storage:
  backend: filesystem
  path: `+dir+`
`)

	out, err := execute(t, "solve", "-c", cfg, "--json")
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	var res solveOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Snapshots) != 2 {
		t.Fatalf("Snapshots = %v, want 2", res.Snapshots)
	}

	out, err = execute(t, "inspect", "run", res.RunID, "-c", cfg, "-f", "dot")
	if err != nil {
		t.Fatalf("inspect run failed: %v", err)
	}
	if !strings.Contains(out, "digraph") || !strings.Contains(out, `"agent/`) {
		t.Errorf("inspect run output:\n%s", out)
	}

	out, err = execute(t, "inspect", "history", res.RunID, "--store", "filesystem", "--store-path", dir)
	if err != nil {
		t.Fatalf("inspect history failed: %v", err)
	}
	if !strings.Contains(out, `"iteration": 2`) {
		t.Errorf("inspect history output:\n%s", out)
	}

	out, err = execute(t, "inspect", "list", "-c", cfg, "--run", res.RunID)
	if err != nil {
		t.Fatalf("inspect list failed: %v", err)
	}
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("inspect list lines = %d, want 2:\n%s", got, out)
	}

	if _, err := execute(t, "inspect", "snapshot", "missing", "-c", cfg); err == nil {
		t.Error("inspect snapshot missing succeeded")
	}
}

func TestApp_InspectPhases(t *testing.T) {
	out, err := execute(t, "inspect", "phases", "-f", "mermaid")
	if err != nil {
		t.Fatalf("inspect phases failed: %v", err)
	}
	if !strings.HasPrefix(out, "stateDiagram-v2") {
		t.Errorf("inspect phases output:\n%s", out)
	}

	if _, err := execute(t, "inspect", "run", "x"); err == nil {
		t.Error("inspect without a store succeeded")
	}
}

func TestApp_Validate(t *testing.T) {
	cfg := writeConfig(t, `
name: tiger
problem: dectiger
solver:
  improvement_threshold: 0
beliefs:
  count: 5
`)

	out, err := execute(t, "validate", "-c", cfg)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	for _, want := range []string{"valid", "dectiger (2 agents, 2 states)", "fixed iterations", "5 points"} {
		if !strings.Contains(out, want) {
			t.Errorf("validate output missing %q:\n%s", want, out)
		}
	}
}

func TestApp_ValidateInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no problem", "name: x\n"},
		{"unknown problem", "problem: chess\n"},
		{"bad storage", "problem: dectiger\nstorage:\n  backend: tape\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, "validate", "-c", writeConfig(t, tt.content)); err == nil {
				t.Error("validate succeeded, want error")
			}
		})
	}

	if _, err := execute(t, "validate"); err == nil {
		t.Error("validate without -c succeeded")
	}
}

func TestApp_ValidateWatch(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantStdout string
		wantStderr string
	}{
		{"valid", "problem: dectiger\n", "Configuration is valid", ""},
		{"invalid", "problem: chess\n", "", "✗"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
			defer cancel()

			var stdout, stderr bytes.Buffer
			err := New().WithOutput(&stdout, &stderr).
				ExecuteWithArgs(ctx, []string{"validate", "-c", writeConfig(t, tt.content), "--watch"})
			if err != nil {
				t.Fatalf("validate --watch error = %v, want nil after cancel", err)
			}
			if !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout missing %q:\n%s", tt.wantStdout, stdout.String())
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantStderr, stderr.String())
			}
		})
	}
}

func TestApp_Schema(t *testing.T) {
	out, err := execute(t, "schema")
	if err != nil {
		t.Fatalf("schema failed: %v", err)
	}
	if !json.Valid([]byte(out)) {
		t.Errorf("schema output is not JSON")
	}

	path := filepath.Join(t.TempDir(), "schema.json")
	if _, err := execute(t, "schema", "-o", path); err != nil {
		t.Fatalf("schema -o failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Solver Configuration") {
		t.Error("schema file missing title")
	}
}
