package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, configName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMerge(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[program]
max_var_size = 32
default_data = "unknown"

[output]
format = "json"
`)
	sub := filepath.Join(root, "a", "b")
	writeConfig(t, sub, `
[program]
max_var_size = 8

[solver]
trace = true
`)

	cfg, err := Load(sub)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		Program: ProgramConfig{MaxVarSize: 8, DefaultData: "unknown"},
		Solver:  SolverConfig{Trace: true},
		Output:  OutputConfig{Format: "json"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	// A directory in between without a file of its own sees only the
	// root file.
	cfg, err = Load(filepath.Join(root, "a"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Program.MaxVarSize != 32 || cfg.Solver.Trace {
		t.Errorf("got %+v, want settings of the root file only", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"syntax", "[program\n", "couldn't parse"},
		{"unknown key", "[program]\nsize = 3\n", "unknown keys program.size"},
		{"range", "[program]\nmax_var_size = 65\n", "max_var_size"},
		{"zero", "[program]\nmax_var_size = 0\n", "max_var_size"},
		{"format", "[output]\nformat = \"xml\"\n", "unsupported output.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("error %q doesn't mention %q", err, tt.errText)
			}
		})
	}
}

func TestProgramOptions(t *testing.T) {
	cfg := Default()
	cfg.Program.MaxVarSize = 4
	if got := len(cfg.ProgramOptions(log.Default())); got != 2 {
		t.Errorf("got %d options without tracing, want 2", got)
	}
	cfg.Solver.Trace = true
	if got := len(cfg.ProgramOptions(log.Default())); got != 3 {
		t.Errorf("got %d options with tracing, want 3", got)
	}
	if got := len(cfg.ProgramOptions(nil)); got != 2 {
		t.Errorf("got %d options with tracing but no logger, want 2", got)
	}
}
