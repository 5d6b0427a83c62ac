package savefig

import (
	"sync"

	"trepro/internal/chart"
)

var (
	registryMu   sync.Mutex
	active       *Interceptor
	defaultSaver chart.Saver = chart.NewRenderer()
)

// Patch installs an interceptor around saver as the process-wide saver and
// returns it. While one is installed further calls return it unchanged. A nil
// saver wraps the default renderer.
func Patch(saver chart.Saver, opts ...Option) *Interceptor {
	registryMu.Lock()
	defer registryMu.Unlock()
	if active != nil {
		return active
	}
	if saver == nil {
		saver = defaultSaver
	}
	active = NewInterceptor(saver, opts...)
	return active
}

// Unpatch removes the installed interceptor, restoring plain saves.
func Unpatch() {
	registryMu.Lock()
	defer registryMu.Unlock()
	active = nil
}

// Patched reports whether an interceptor is installed.
func Patched() bool {
	registryMu.Lock()
	defer registryMu.Unlock()
	return active != nil
}

// Active returns the installed interceptor, or the plain default saver.
func Active() chart.Saver {
	registryMu.Lock()
	defer registryMu.Unlock()
	if active != nil {
		return active
	}
	return defaultSaver
}
