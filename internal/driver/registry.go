package driver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a ConnectionProvider for one database software.
type Factory func(cfg Config) (ConnectionProvider, error)

// The registry maps a chain document's software selector to a provider
// factory. It is written during init and read per chain; the lock makes
// late registration safe against concurrent first use.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register installs a factory for a software name. Registering the same
// name twice panics: the registry is meant to be written once at startup.
func Register(software string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	key := strings.ToLower(software)
	if _, dup := factories[key]; dup {
		panic(fmt.Sprintf("driver: provider %q already registered", software))
	}
	factories[key] = f
}

// New builds a provider for the configured software.
func New(cfg Config) (ConnectionProvider, error) {
	registryMu.RLock()
	f, ok := factories[strings.ToLower(cfg.Software)]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("driver: unknown software %q (registered: %s)",
			cfg.Software, strings.Join(Registered(), ", "))
	}
	return f(cfg.withDefaults())
}

// Registered returns the registered software names, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
