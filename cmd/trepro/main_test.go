package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"trepro/internal/catalog"
	"trepro/internal/chart"
	"trepro/internal/codec"
	"trepro/internal/faults"
	"trepro/internal/frame"
	"trepro/internal/provenance"
	"trepro/internal/testsupport"
)

func TestRenderEmbedsAndShowReportsMetadata(t *testing.T) {
	env := setupCLITestEnv(t)
	dest := env.plot("loss.png")

	out, stderr, err := runCLI(t, []string{"render", env.definition, "-o", dest}, env.configPath)
	if err != nil {
		t.Fatalf("render: %v\nstderr: %s", err, stderr)
	}
	requireContains(t, out, "metadata embedded")
	requireContains(t, stderr, "metadata saved")

	out, _, err = runCLI(t, []string{"show", dest, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var view inspectionJSON
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode show output: %v\n%s", err, out)
	}
	if view.Metadata[codec.KeySaveVersion] != codec.CurrentVersion {
		t.Fatalf("unexpected save version in %#v", view.Metadata)
	}
	if view.Metadata[provenance.KeyGitHash] != testCommit {
		t.Fatalf("expected stubbed commit, got %#v", view.Metadata)
	}
	if view.Metadata[provenance.KeyGitRemote] != testRemote {
		t.Fatalf("expected stubbed remote, got %#v", view.Metadata)
	}
	if !reflect.DeepEqual(view.Chart, env.figure) {
		t.Fatalf("chart mismatch:\n got %#v\nwant %#v", view.Chart, env.figure)
	}
	if view.Frame.PayloadBytes <= 0 || view.Frame.PayloadBytes >= int(view.Size) {
		t.Fatalf("unexpected frame layout %#v (size %d)", view.Frame, view.Size)
	}

	out, _, err = runCLI(t, []string{"show", dest, "--table"}, env.configPath)
	if err != nil {
		t.Fatalf("show --table: %v", err)
	}
	requireContains(t, out, "save_version")
	requireContains(t, out, "Loss curve")
}

func TestRenderRecordsCatalogAndMetrics(t *testing.T) {
	env := setupCLITestEnv(t)
	dest := env.render(t, "catalogued.png")

	out, _, err := runCLI(t, []string{"catalog", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	var entries []catalog.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode catalog list: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].Path != dest {
		t.Fatalf("expected catalog entry for %s, got %#v", dest, entries)
	}
	if entries[0].GitHash != testCommit || entries[0].Title != "Loss curve" {
		t.Fatalf("unexpected entry %#v", entries[0])
	}

	out, _, err = runCLI(t, []string{"catalog", "list", "--json", "--commit", "ffff"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog list --commit: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected no entries for unknown commit, got %s", out)
	}

	metrics, err := os.ReadFile(env.cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("read metrics textfile: %v", err)
	}
	requireContains(t, string(metrics), "trepro_saves_total")
	requireContains(t, string(metrics), `outcome="embedded"`)
}

func TestRenderUnsupportedExtensionSavesPlainly(t *testing.T) {
	env := setupCLITestEnv(t)
	dest := env.plot("loss.svg")

	out, stderr, err := runCLI(t, []string{"render", env.definition, "-o", dest}, env.configPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	requireContains(t, out, "metadata not supported")
	requireContains(t, stderr, "metadata will not be saved")

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if frame.HasFrame(data) {
		t.Fatal("svg should not carry a frame")
	}

	_, _, err = runCLI(t, []string{"show", dest}, env.configPath)
	if !errors.Is(err, faults.ErrFormat) {
		t.Fatalf("expected format error from show, got %v", err)
	}
}

func TestRenderNoEmbed(t *testing.T) {
	env := setupCLITestEnv(t)
	dest := env.render(t, "plain.png", "--no-embed")

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.HasFrame(data) {
		t.Fatal("--no-embed output should not carry a frame")
	}
}

func TestRenderInvalidDefinition(t *testing.T) {
	env := setupCLITestEnv(t)
	bad := filepath.Join(testsupport.BaseDir(env.cfg), "bad.yaml")
	if err := os.WriteFile(bad, []byte("title: broken\nseries: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := runCLI(t, []string{"render", bad, "-o", env.plot("bad.png")}, env.configPath)
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestShowMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"show", env.plot("absent.png")}, env.configPath)
	if !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFailedCommandIsLoggedToFile(t *testing.T) {
	env := setupCLITestEnv(t)
	logFile := filepath.Join(testsupport.BaseDir(env.cfg), "logs", "trepro.log")
	env.cfg.Logging.File = logFile
	testsupport.WriteConfig(t, env.configPath, env.cfg)

	_, stderr, err := runCLI(t, []string{"show", env.plot("absent.png")}, env.configPath)
	if !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	requireContains(t, stderr, "command failed")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	requireContains(t, string(data), `"event_type":"command_failed"`)
	requireContains(t, string(data), "trepro show")
}

func TestExtractAndRenderRoundTrip(t *testing.T) {
	env := setupCLITestEnv(t)
	dest := env.render(t, "source.pdf")
	definition := filepath.Join(testsupport.BaseDir(env.cfg), "extracted.yaml")

	if _, _, err := runCLI(t, []string{"extract", dest, "-o", definition}, env.configPath); err != nil {
		t.Fatalf("extract: %v", err)
	}
	fig, err := chart.LoadDefinition(definition)
	if err != nil {
		t.Fatalf("load extracted definition: %v", err)
	}
	if !reflect.DeepEqual(fig, env.figure) {
		t.Fatalf("extracted figure mismatch:\n got %#v\nwant %#v", fig, env.figure)
	}

	out, _, err := runCLI(t, []string{"extract", dest, "--format", "toml"}, env.configPath)
	if err != nil {
		t.Fatalf("extract toml: %v", err)
	}
	requireContains(t, out, "title = ")
	requireContains(t, out, "Loss curve")
}

func TestRerenderReproducesChart(t *testing.T) {
	env := setupCLITestEnv(t)
	source := env.render(t, "original.png")
	copyPath := env.plot("copy.jpg")

	if _, _, err := runCLI(t, []string{"rerender", source, "-o", copyPath}, env.configPath); err != nil {
		t.Fatalf("rerender: %v", err)
	}
	out, _, err := runCLI(t, []string{"show", copyPath, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("show copy: %v", err)
	}
	var view inspectionJSON
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(view.Chart, env.figure) {
		t.Fatalf("rerendered chart mismatch: %#v", view.Chart)
	}

	if _, _, err := runCLI(t, []string{"rerender", source, "-o", source}, env.configPath); err == nil {
		t.Fatal("expected rerender onto the source file to be refused")
	}
}

func TestStripRemovesFrameAndCatalogEntry(t *testing.T) {
	env := setupCLITestEnv(t)
	dest := env.render(t, "strip.png")
	framed, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	out, _, err := runCLI(t, []string{"strip", dest, "--backup"}, env.configPath)
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	requireContains(t, out, "Removed")

	stripped, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read stripped: %v", err)
	}
	if frame.HasFrame(stripped) {
		t.Fatal("stripped file still has a frame")
	}
	if want := framed[:frame.PayloadEnd(framed)]; string(stripped) != string(want) {
		t.Fatal("stripped file differs from the original payload")
	}
	backup, err := os.ReadFile(dest + ".bak")
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(backup) != string(framed) {
		t.Fatal("backup differs from the framed original")
	}

	out, _, err = runCLI(t, []string{"catalog", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected stripped file to leave the catalog, got %s", out)
	}

	if _, _, err := runCLI(t, []string{"strip", dest}, env.configPath); !errors.Is(err, faults.ErrFormat) {
		t.Fatalf("expected format error stripping an unframed file, got %v", err)
	}
}

func TestListFiltersWithExpressions(t *testing.T) {
	env := setupCLITestEnv(t)
	env.render(t, "a.png")
	env.render(t, "b.pdf")
	testsupport.WriteFile(t, env.plot("foreign.png"), 2048)

	cases := []struct {
		name  string
		where string
		want  int
	}{
		{name: "all", where: "", want: 2},
		{name: "remote", where: `meta["git-remote"] contains "plots"`, want: 2},
		{name: "extension", where: `ext == ".pdf"`, want: 1},
		{name: "points", where: `points > 1000`, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := []string{"ls", env.plotDir, "--json"}
			if tc.where != "" {
				args = append(args, "--where", tc.where)
			}
			out, _, err := runCLI(t, args, env.configPath)
			if err != nil {
				t.Fatalf("ls: %v", err)
			}
			var files []listedFile
			if err := json.Unmarshal([]byte(out), &files); err != nil {
				t.Fatalf("decode: %v\n%s", err, out)
			}
			if len(files) != tc.want {
				t.Fatalf("expected %d files, got %#v", tc.want, files)
			}
		})
	}

	if _, _, err := runCLI(t, []string{"ls", env.plotDir, "--where", "meta +"}, env.configPath); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error for a malformed expression, got %v", err)
	}
}

func TestCatalogRebuildAndForget(t *testing.T) {
	env := setupCLITestEnv(t)
	dest := env.render(t, "kept.png")
	testsupport.WriteFile(t, env.plot("noise.jpg"), 512)

	if _, _, err := runCLI(t, []string{"catalog", "forget", dest}, env.configPath); err != nil {
		t.Fatalf("catalog forget: %v", err)
	}
	if _, _, err := runCLI(t, []string{"catalog", "forget", dest}, env.configPath); err == nil {
		t.Fatal("expected forgetting an unknown path to fail")
	}

	out, _, err := runCLI(t, []string{"catalog", "rebuild", env.plotDir}, env.configPath)
	if err != nil {
		t.Fatalf("catalog rebuild: %v", err)
	}
	requireContains(t, out, "1 recorded")
	requireContains(t, out, "1 skipped")

	out, _, err = runCLI(t, []string{"catalog", "list", "--table"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	requireContains(t, out, "kept.png")
}

func TestProvenanceCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"provenance", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("provenance: %v", err)
	}
	var record map[string]string
	if err := json.Unmarshal([]byte(out), &record); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if record[provenance.KeyGitHash] != testCommit {
		t.Fatalf("expected stubbed commit, got %#v", record)
	}
	if wd, err := os.Getwd(); err == nil && record[provenance.KeyCwd] != wd {
		t.Fatalf("expected cwd %s, got %#v", wd, record)
	}
	if _, ok := record[provenance.KeyGitDiff]; ok {
		t.Fatalf("diff should only be collected on request: %#v", record)
	}
}

func TestDoctorCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "Embedding")
	requireContains(t, out, ".png, .pdf, .jpg, .jpeg")
	requireContains(t, out, "Git provenance")
	requireContains(t, out, "commit 4f1c2a9be07d")
	requireContains(t, out, "Catalog directory")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Catalog: enabled")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected config init to refuse overwriting")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}
