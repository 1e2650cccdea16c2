package engine

import (
	"sort"
	"sync"
)

// Factory builds a variant from string parameters. Unknown keys are ignored
// and invalid values fall back to defaults.
type Factory func(params map[string]string) *Variant

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a variant factory under name. Empty names and nil factories
// are ignored.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Variants lists the registered variant names in sorted order.
func Variants() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
