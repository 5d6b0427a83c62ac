package chart

import (
	"runtime/debug"
	"sync"
)

const (
	libraryModule = "github.com/wcharczuk/go-chart/v2"
	// fallbackLibraryVersion matches the go.mod requirement and is used when the
	// binary carries no module build info.
	fallbackLibraryVersion = "v2.1.2"
)

var (
	libraryVersionOnce sync.Once
	libraryVersion     string
)

// LibraryVersion reports the version of the charting library linked into the
// binary.
func LibraryVersion() string {
	libraryVersionOnce.Do(func() {
		libraryVersion = fallbackLibraryVersion
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, dep := range info.Deps {
			if dep.Path != libraryModule {
				continue
			}
			if dep.Replace != nil && dep.Replace.Version != "" {
				libraryVersion = dep.Replace.Version
			} else if dep.Version != "" && dep.Version != "(devel)" {
				libraryVersion = dep.Version
			}
			return
		}
	})
	return libraryVersion
}
