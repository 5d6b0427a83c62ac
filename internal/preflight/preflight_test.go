package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trepro/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckGitWorkTree_MissingBinary(t *testing.T) {
	cfg := config.Default()
	cfg.Provenance.GitBinary = filepath.Join(t.TempDir(), "no-git-here")
	cfg.Provenance.WorkDir = t.TempDir()

	result := CheckGitWorkTree(context.Background(), &cfg)
	if result.Passed {
		t.Fatalf("expected failure without git, got %#v", result)
	}
	if result.Detail == "" {
		t.Fatal("expected detail for failed git check")
	}
}

func TestCheckGitWorkTree_StubbedGit(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "git")
	script := "#!/bin/sh\n" +
		"case \"$1\" in\n" +
		"log) echo '0123456789abcdef0123 || 2026-01-02 03:04:05 +0000 || Ada' ;;\n" +
		"remote) echo 'git@example.com:charts.git' ;;\n" +
		"*) exit 1 ;;\n" +
		"esac\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	cfg := config.Default()
	cfg.Provenance.GitBinary = bin
	cfg.Provenance.WorkDir = t.TempDir()

	result := CheckGitWorkTree(context.Background(), &cfg)
	if !result.Passed {
		t.Fatalf("expected pass with stubbed git, got %#v", result)
	}
	if result.Detail != "commit 0123456789ab (git@example.com:charts.git)" {
		t.Fatalf("unexpected detail: %q", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_DisabledFeatures(t *testing.T) {
	cfg := config.Default()
	cfg.Provenance.Enabled = false
	cfg.Catalog.Enabled = false

	if results := RunAll(context.Background(), &cfg); len(results) != 0 {
		t.Fatalf("expected no checks, got %#v", results)
	}
}

func TestRunAll_ChecksConfiguredSinks(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Provenance.Enabled = false
	cfg.Catalog.Enabled = true
	cfg.Catalog.Path = filepath.Join(base, "catalog.db")
	cfg.Metrics.Textfile = filepath.Join(base, "metrics", "trepro.prom")
	cfg.Logging.File = filepath.Join(base, "trepro.log")

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %#v", results)
	}
	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	if !byName["Catalog directory"].Passed || !byName["Log directory"].Passed {
		t.Fatalf("expected catalog and log directories to pass: %#v", results)
	}
	if byName["Metrics directory"].Passed {
		t.Fatalf("expected missing metrics directory to fail: %#v", byName["Metrics directory"])
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := config.Default()
	cfg.Provenance.GitBinary = "clearly-not-present-git"
	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 1 {
		t.Fatalf("expected one status, got %#v", statuses)
	}
	if statuses[0].Available || !statuses[0].Optional {
		t.Fatalf("unexpected git status: %#v", statuses[0])
	}
}
