package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trepro/internal/chart"
	"trepro/internal/config"
	"trepro/internal/testsupport"
)

const (
	testCommit = "4f1c2a9be07d3e5f60718293a4b5c6d7e8f90123"
	testRemote = "git@example.com:team/plots.git"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	plotDir    string
	definition string
	figure     *chart.Figure
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := []testsupport.ConfigOption{
		testsupport.WithStubbedGit(testCommit, testRemote),
		testsupport.WithCatalog(),
		testsupport.WithMetricsTextfile(),
	}
	cfg := testsupport.NewConfig(t, append(base, opts...)...)
	root := testsupport.BaseDir(cfg)

	configPath := filepath.Join(root, "config.toml")
	testsupport.WriteConfig(t, configPath, cfg)

	plotDir := filepath.Join(root, "plots")
	if err := os.MkdirAll(plotDir, 0o755); err != nil {
		t.Fatalf("mkdir plots: %v", err)
	}

	fig := testsupport.NewFigure("Loss curve")
	data, err := chart.EncodeDefinition(fig, chart.DefinitionJSON)
	if err != nil {
		t.Fatalf("encode definition: %v", err)
	}
	definition := filepath.Join(root, "loss.json")
	if err := os.WriteFile(definition, data, 0o644); err != nil {
		t.Fatalf("write definition: %v", err)
	}

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		plotDir:    plotDir,
		definition: definition,
		figure:     fig,
	}
}

func (e *cliTestEnv) plot(name string) string {
	return filepath.Join(e.plotDir, name)
}

// render saves the test definition to name inside the plot directory.
func (e *cliTestEnv) render(t *testing.T, name string, extra ...string) string {
	t.Helper()
	dest := e.plot(name)
	args := append([]string{"render", e.definition, "-o", dest}, extra...)
	if _, stderr, err := runCLI(t, args, e.configPath); err != nil {
		t.Fatalf("render %s: %v\nstderr: %s", name, err, stderr)
	}
	return dest
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
