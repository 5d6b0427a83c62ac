package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"trepro/internal/config"
)

// Requirement defines an external binary trepro shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries the given configuration relies on. Git is
// optional: without it provenance degrades to cwd and os.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil || !cfg.Provenance.Enabled {
		return nil
	}
	binary := strings.TrimSpace(cfg.Provenance.GitBinary)
	if binary == "" {
		binary = config.DefaultGitBinary
	}
	return []Requirement{
		{
			Name:        "git",
			Command:     binary,
			Description: "Records commit, remote and diff provenance",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Command = resolved
		results = append(results, status)
	}
	return results
}
