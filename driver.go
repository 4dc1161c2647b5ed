package auth

import (
	"sort"
	"strings"
	"sync"
)

// DriverFactory builds a Driver from configuration. Factories are resolved
// once when an Auther is created.
type DriverFactory func(cfg Config, hasher *Hasher) (Driver, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]DriverFactory{
		DriverFile:   staticDriverFactory,
		DriverStatic: staticDriverFactory,
	}
)

const (
	// DriverFile is the static username/digest table driver
	DriverFile = "file"
	// DriverStatic is an alias of DriverFile
	DriverStatic = "static"
)

// RegisterDriver makes a driver factory available under name.
// Registering an existing name replaces the previous factory.
func RegisterDriver(name string, factory DriverFactory) {
	name = normalizeDriverName(name)
	if name == "" || factory == nil {
		return
	}

	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = factory
}

// Drivers lists the registered driver names
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	out := make([]string, 0, len(drivers))
	for name := range drivers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NewDriver resolves the configured driver. An empty selector falls back
// to the file driver.
func NewDriver(cfg Config, hasher *Hasher) (Driver, error) {
	name := normalizeDriverName(cfg.Driver)
	if name == "" {
		name = DriverFile
	}

	driversMu.RLock()
	factory, ok := drivers[name]
	driversMu.RUnlock()

	if !ok {
		return nil, annotate(ErrUnknownDriver, map[string]any{
			"driver":     cfg.Driver,
			"registered": Drivers(),
		})
	}

	return factory(cfg, hasher)
}

func normalizeDriverName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
