package jobenv

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Environ is an explicit snapshot of environment variables. Job paths and the
// bash variable synthesizer read from an Environ instead of the process
// environment, so callers control exactly which state is visible and nothing
// mutates the process environment behind their back. Changes only reach the
// real environment through an explicit Apply call.
type Environ struct {
	mutex sync.RWMutex
	vars  map[string]string
}

// SnapshotEnviron captures the current process environment.
func SnapshotEnviron() *Environ {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			vars[kv[:i]] = kv[i+1:]
		}
	}
	return &Environ{vars: vars}
}

// NewEnviron builds a snapshot from an explicit variable map.
func NewEnviron(vars map[string]string) *Environ {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return &Environ{vars: copied}
}

// Lookup returns the value of a variable and whether it is set.
func (e *Environ) Lookup(name string) (string, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	value, exists := e.vars[name]
	return value, exists
}

// Get returns the value of a variable, or "" when unset.
func (e *Environ) Get(name string) string {
	value, _ := e.Lookup(name)
	return value
}

// Has reports whether a variable name is set in the snapshot.
func (e *Environ) Has(name string) bool {
	_, exists := e.Lookup(name)
	return exists
}

// Set overrides a variable in the snapshot only.
func (e *Environ) Set(name, value string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.vars[name] = value
}

// Names returns all variable names in the snapshot, sorted.
func (e *Environ) Names() []string {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Environ returns the snapshot in "key=value" form, sorted by name.
func (e *Environ) Environ() []string {
	e.mutex.RLock()
	kvs := make([]string, 0, len(e.vars))
	for name, value := range e.vars {
		kvs = append(kvs, name+"="+value)
	}
	e.mutex.RUnlock()

	sort.Strings(kvs)
	return kvs
}

// Apply exports the snapshot into the process environment. This is the only
// operation that touches process-wide state.
func (e *Environ) Apply() error {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	for name, value := range e.vars {
		if err := os.Setenv(name, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", name, err)
		}
	}
	return nil
}
