package coresvc

import (
	"maps"
	"slices"
	"sync"

	"github.com/joho/godotenv"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Change describes the update of one configuration key.
type Change struct {
	Key     string
	Old     any
	New     any
	Existed bool
}

// Configuration holds runtime settings and notifies subscribers of updates.
// It is safe for concurrent use.
type Configuration struct {
	mu       sync.RWMutex
	values   map[string]any
	handlers []*handler
}

type handler struct {
	fn func(Change)
}

// NewConfiguration creates a [Configuration] holding a copy of values.
func NewConfiguration(values map[string]any) *Configuration {
	c := &Configuration{values: make(map[string]any, len(values))}
	maps.Copy(c.values, values)
	return c
}

// LoadEnvConfiguration reads dotenv files into a new [Configuration].
// Later files override earlier ones. Without files ".env" is read.
func LoadEnvConfiguration(files ...string) (*Configuration, error) {
	values := make(map[string]any)

	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		env, err := godotenv.Read(file)
		if err != nil {
			return nil, errors.Wrapf(err, "coresvc.LoadEnvConfiguration %s", file)
		}
		for k, v := range env {
			values[k] = v
		}
	}

	return NewConfiguration(values), nil
}

// Values returns a copy of every setting.
func (c *Configuration) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return maps.Clone(c.values)
}

// Get returns the setting stored under key.
func (c *Configuration) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, ok := c.values[key]
	return val, ok
}

// String returns the setting stored under key formatted as a string, or def.
func (c *Configuration) String(key, def string) string {
	val, ok := c.Get(key)
	if !ok {
		return def
	}
	if s, ok := val.(string); ok {
		return s
	}
	return def
}

// OnDidUpdate registers fn to be called for every updated key.
// The returned function removes the subscription.
func (c *Configuration) OnDidUpdate(fn func(Change)) func() {
	h := &handler{fn: fn}

	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.handlers = slices.DeleteFunc(c.handlers, func(other *handler) bool { return other == h })
	}
}

// Update stores values and notifies the subscribers once per key, in key order.
func (c *Configuration) Update(values map[string]any) {
	c.mu.Lock()
	changes := make([]Change, 0, len(values))
	for _, key := range slices.Sorted(maps.Keys(values)) {
		old, existed := c.values[key]
		c.values[key] = values[key]
		changes = append(changes, Change{Key: key, Old: old, New: values[key], Existed: existed})
	}
	handlers := slices.Clone(c.handlers)
	c.mu.Unlock()

	for _, change := range changes {
		for _, h := range handlers {
			h.fn(change)
		}
	}
}
