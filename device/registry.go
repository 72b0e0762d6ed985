package device

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownProfile is returned by Lookup for unregistered names.
var ErrUnknownProfile = errors.New("device: unknown profile")

// Registry state - protected by mutex for thread-safe access.
var (
	registryMu sync.RWMutex
	profiles   = make(map[string]Profile)
)

// Register adds a profile. It is typically called from init() in packages
// that describe additional targets:
//
//	func init() {
//	    device.Register(device.Profile{Name: "myaccel", Constraints: ...})
//	}
//
// Register panics if the name is empty or already registered.
func Register(p Profile) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if p.Name == "" {
		panic("device: Register profile name is empty")
	}
	if _, dup := profiles[p.Name]; dup {
		panic("device: Register called twice for " + p.Name)
	}
	profiles[p.Name] = p
}

// Unregister removes a profile. If it is not registered, this is a no-op.
// This is primarily useful for tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(profiles, name)
}

// Lookup returns the profile registered under name. The returned
// constraints are a copy and may be modified by the caller.
func Lookup(name string) (Profile, error) {
	registryMu.RLock()
	p, ok := profiles[name]
	registryMu.RUnlock()

	if !ok {
		return Profile{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownProfile, name, Names())
	}
	p.Constraints = p.Constraints.Merge(nil)
	return p, nil
}

// Names returns the registered profile names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
