package suite

import (
	"fmt"
	"sort"
	"sync"
)

var (
	mu     sync.RWMutex
	suites = map[string]Suite{}
)

// Register registers a suite under its Name.
func Register(s Suite) error {
	if s == nil {
		return fmt.Errorf("suite: nil suite")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("suite: name is required")
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := suites[name]; exists {
		return fmt.Errorf("suite: %q already registered", name)
	}
	suites[name] = s
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(s Suite) {
	if err := Register(s); err != nil {
		panic(err)
	}
}

// Lookup returns the registered suite with the given name.
// An empty name selects DefaultName.
func Lookup(name string) (Suite, error) {
	if name == "" {
		name = DefaultName
	}
	mu.RLock()
	s, ok := suites[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("suite: unknown suite %q (linked: %v)", name, Names())
	}
	return s, nil
}

// List returns registered suites sorted by name.
func List() []Suite {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Suite, 0, len(suites))
	for _, s := range suites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Names returns registered suite names, sorted.
func Names() []string {
	ss := List()
	n := make([]string, 0, len(ss))
	for _, s := range ss {
		n = append(n, s.Name())
	}
	return n
}
