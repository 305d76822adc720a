package detect

import (
	"strings"
	"sync"
)

// EchoSuppressor filters the spurious re-detection that happens when the
// variant picker panel closes: the screen briefly re-renders the panel's
// base name (possibly with a variant suffix) even though the player never
// hovered anything new. While the panel is open nothing updates; right
// after it closes, one detection that extends the remembered base name is
// swallowed. A genuinely different name clears the memory and passes.
type EchoSuppressor struct {
	mu   sync.Mutex
	open bool
	base string
}

// Open records the base name the panel was opened for.
func (e *EchoSuppressor) Open(base string) {
	e.mu.Lock()
	e.open = true
	e.base = base
	e.mu.Unlock()
}

// Close marks the panel closed; the remembered base name stays armed for
// the next Allow decision.
func (e *EchoSuppressor) Close() {
	e.mu.Lock()
	e.open = false
	e.mu.Unlock()
}

// Allow reports whether a detected name should be processed.
func (e *EchoSuppressor) Allow(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open {
		return false
	}
	if e.base != "" {
		base := e.base
		e.base = ""
		if strings.HasPrefix(name, base) {
			return false
		}
	}
	return true
}
