package provenance

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type stubExecutor struct {
	outputs     map[string]string
	errs        map[string]error
	calls       [][]string
	dirs        []string
	binary      string
	sawDeadline bool
}

func (s *stubExecutor) Run(ctx context.Context, dir, binary string, args []string) ([]byte, error) {
	s.calls = append(s.calls, append([]string(nil), args...))
	s.dirs = append(s.dirs, dir)
	s.binary = binary
	if _, ok := ctx.Deadline(); ok {
		s.sawDeadline = true
	}
	if err := s.errs[args[0]]; err != nil {
		return nil, err
	}
	return []byte(s.outputs[args[0]]), nil
}

const sampleDiff = `diff --git a/plot.go b/plot.go
index 1111111..2222222 100644
--- a/plot.go
+++ b/plot.go
@@ -1,3 +1,4 @@
 package main
-var scale = 1
+var scale = 2
+var offset = 3
 func main() {}
`

func newTestCollector(exec Executor) *Collector {
	c := New(WithExecutor(exec))
	c.getwd = func() (string, error) { return "/work/project", nil }
	c.platform = func() (string, error) { return "Linux", nil }
	return c
}

func TestCollectAllSources(t *testing.T) {
	stub := &stubExecutor{outputs: map[string]string{
		"log":    "0123abcd || 2024-05-01 10:00:00 +0200 || Ada Lovelace\n",
		"remote": "git@example.com:team/plots.git\n",
		"diff":   sampleDiff,
	}}
	rec := newTestCollector(stub).Collect(context.Background(), true)

	want := map[string]string{
		KeyCwd:       "/work/project",
		KeyOS:        "Linux",
		KeyGitHash:   "0123abcd",
		KeyGitDate:   "2024-05-01 10:00:00 +0200",
		KeyGitAuthor: "Ada Lovelace",
		KeyGitRemote: "git@example.com:team/plots.git",
		KeyGitDiff:   sampleDiff,
		KeyDiffStat:  "1 files, +2 -1",
	}
	for key, value := range want {
		if rec[key] != value {
			t.Errorf("%s = %q, want %q", key, rec[key], value)
		}
	}
	if len(rec) != len(want) {
		t.Fatalf("unexpected keys: %v", rec)
	}

	wantArgs := []string{
		"log -1 --date=iso8601 --format=%H || %ad || %an",
		"remote get-url origin",
		"diff",
	}
	for i, args := range stub.calls {
		if got := strings.Join(args, " "); got != wantArgs[i] {
			t.Errorf("call %d = %q, want %q", i, got, wantArgs[i])
		}
	}
	if stub.binary != "git" {
		t.Fatalf("binary = %q", stub.binary)
	}
}

func TestCollectSourcesFailIndependently(t *testing.T) {
	tests := []struct {
		name    string
		failing string
		missing []string
		present []string
	}{
		{name: "log fails", failing: "log", missing: []string{KeyGitHash, KeyGitDate, KeyGitAuthor}, present: []string{KeyGitRemote, KeyGitDiff}},
		{name: "remote fails", failing: "remote", missing: []string{KeyGitRemote}, present: []string{KeyGitHash, KeyGitDiff}},
		{name: "diff fails", failing: "diff", missing: []string{KeyGitDiff, KeyDiffStat}, present: []string{KeyGitHash, KeyGitRemote}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubExecutor{
				outputs: map[string]string{
					"log":    "abc || 2024-01-01 || Someone",
					"remote": "https://example.com/repo.git",
					"diff":   sampleDiff,
				},
				errs: map[string]error{tt.failing: errors.New("exit status 128")},
			}
			rec := newTestCollector(stub).Collect(context.Background(), true)
			for _, key := range tt.missing {
				if _, ok := rec[key]; ok {
					t.Errorf("expected %s to be omitted", key)
				}
			}
			for _, key := range append(tt.present, KeyCwd, KeyOS) {
				if _, ok := rec[key]; !ok {
					t.Errorf("expected %s to be present", key)
				}
			}
		})
	}
}

func TestCollectWithoutGitKeepsEnvironment(t *testing.T) {
	stub := &stubExecutor{errs: map[string]error{
		"log":    exec.ErrNotFound,
		"remote": exec.ErrNotFound,
		"diff":   exec.ErrNotFound,
	}}
	rec := newTestCollector(stub).Collect(context.Background(), true)
	if len(rec) != 2 || rec[KeyCwd] == "" || rec[KeyOS] == "" {
		t.Fatalf("expected only cwd and os, got %v", rec)
	}
}

func TestCollectOmitsFailedEnvironmentCalls(t *testing.T) {
	stub := &stubExecutor{errs: map[string]error{"log": errors.New("x"), "remote": errors.New("x")}}
	c := newTestCollector(stub)
	c.getwd = func() (string, error) { return "", errors.New("getwd: removed") }
	c.platform = func() (string, error) { return "", errors.New("uname failed") }

	if rec := c.Collect(context.Background(), false); len(rec) != 0 {
		t.Fatalf("expected empty record, got %v", rec)
	}
}

func TestCollectSkipsDiffUnlessRequested(t *testing.T) {
	stub := &stubExecutor{outputs: map[string]string{"diff": sampleDiff}}
	rec := newTestCollector(stub).Collect(context.Background(), false)
	if _, ok := rec[KeyGitDiff]; ok {
		t.Fatal("diff should not be captured")
	}
	for _, call := range stub.calls {
		if call[0] == "diff" {
			t.Fatal("git diff should not run")
		}
	}
}

func TestCollectCleanTreeOmitsDiff(t *testing.T) {
	stub := &stubExecutor{outputs: map[string]string{"diff": "\n"}}
	rec := newTestCollector(stub).Collect(context.Background(), true)
	if _, ok := rec[KeyGitDiff]; ok {
		t.Fatal("empty diff should be omitted")
	}
}

func TestCollectKeepsUnparseableDiffWithoutStat(t *testing.T) {
	garbled := "--- a/x\n+++ b/x\n@@ -a,b +c,d @@\n-old\n+new\n"
	stub := &stubExecutor{outputs: map[string]string{"diff": garbled}}
	rec := newTestCollector(stub).Collect(context.Background(), true)
	if rec[KeyGitDiff] != garbled {
		t.Fatalf("git-diff = %q", rec[KeyGitDiff])
	}
	if _, ok := rec[KeyDiffStat]; ok {
		t.Fatalf("expected stat to be omitted, got %q", rec[KeyDiffStat])
	}
}

func TestCollectPartialLogLine(t *testing.T) {
	stub := &stubExecutor{outputs: map[string]string{"log": "deadbeef\n"}}
	rec := newTestCollector(stub).Collect(context.Background(), false)
	if rec[KeyGitHash] != "deadbeef" {
		t.Fatalf("git-hash = %q", rec[KeyGitHash])
	}
	if _, ok := rec[KeyGitDate]; ok {
		t.Fatal("git-date should be absent")
	}
}

func TestOptionsApplyToQueries(t *testing.T) {
	stub := &stubExecutor{}
	c := New(
		WithExecutor(stub),
		WithGitBinary("/opt/git/bin/git"),
		WithRemote("upstream"),
		WithWorkDir("/srv/repo"),
		WithQueryTimeout(5*time.Second),
	)
	c.Collect(context.Background(), false)

	if stub.binary != "/opt/git/bin/git" {
		t.Fatalf("binary = %q", stub.binary)
	}
	if got := strings.Join(stub.calls[1], " "); got != "remote get-url upstream" {
		t.Fatalf("remote call = %q", got)
	}
	if stub.dirs[0] != "/srv/repo" {
		t.Fatalf("dir = %q", stub.dirs[0])
	}
	if !stub.sawDeadline {
		t.Fatal("expected per-query deadline")
	}
}

func TestDiffStat(t *testing.T) {
	stat, err := DiffStat([]byte(sampleDiff))
	if err != nil {
		t.Fatalf("DiffStat: %v", err)
	}
	if stat != (Stat{Files: 1, Added: 2, Removed: 1}) {
		t.Fatalf("stat = %+v", stat)
	}
}

func TestCollectAgainstRealRepository(t *testing.T) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not available")
	}
	repo := t.TempDir()
	t.Setenv("GIT_AUTHOR_NAME", "Plot Tester")
	t.Setenv("GIT_AUTHOR_EMAIL", "plots@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Plot Tester")
	t.Setenv("GIT_COMMITTER_EMAIL", "plots@example.com")
	t.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(repo, ".gitconfig-none"))

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command(gitPath, args...)
		cmd.Dir = repo
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-q")
	if err := os.WriteFile(filepath.Join(repo, "plot.txt"), []byte("one\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "plot.txt")
	run("commit", "-q", "-m", "initial")
	run("remote", "add", "origin", "https://example.com/plots.git")
	if err := os.WriteFile(filepath.Join(repo, "plot.txt"), []byte("two\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := New(WithWorkDir(repo)).Collect(context.Background(), true)
	if len(rec[KeyGitHash]) != 40 {
		t.Fatalf("git-hash = %q", rec[KeyGitHash])
	}
	if rec[KeyGitAuthor] != "Plot Tester" {
		t.Fatalf("git-author = %q", rec[KeyGitAuthor])
	}
	if rec[KeyGitRemote] != "https://example.com/plots.git" {
		t.Fatalf("git-remote = %q", rec[KeyGitRemote])
	}
	if rec[KeyDiffStat] != "1 files, +1 -1" {
		t.Fatalf("git-diff-stat = %q", rec[KeyDiffStat])
	}
}
