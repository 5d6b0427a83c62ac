package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"trepro/internal/config"
	"trepro/internal/deps"
	"trepro/internal/logging"
	"trepro/internal/provenance"
)

// GitCheckName labels the CheckGitWorkTree result. A failure there is a
// warning: saves still succeed with reduced provenance.
const GitCheckName = "Git provenance"

const gitCheckTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckGitWorkTree runs the provenance collector the same way a save would and
// reports whether a commit could be recorded.
func CheckGitWorkTree(ctx context.Context, cfg *config.Config) Result {
	const name = GitCheckName

	checkCtx, cancel := context.WithTimeout(ctx, gitCheckTimeout)
	defer cancel()

	record := provenance.NewFromConfig(cfg, logging.NewNop()).Collect(checkCtx, false)
	hash, ok := record[provenance.KeyGitHash]
	if !ok {
		return Result{Name: name, Detail: "no commit recorded (git missing or not a work tree)"}
	}
	if len(hash) > 12 {
		hash = hash[:12]
	}
	detail := "commit " + hash
	if remote, ok := record[provenance.KeyGitRemote]; ok {
		detail += " (" + remote + ")"
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the external binaries the configuration relies on.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}
