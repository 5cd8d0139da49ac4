package robot

import (
	"reflect"

	"github.com/cornelk/hashmap"
)

// ValueCache remembers the last value seen per channel so repeated readings are dropped.
type ValueCache struct {
	values *hashmap.Map[string, any]
}

// NewValueCache returns an empty cache.
func NewValueCache() *ValueCache {
	return &ValueCache{values: hashmap.New[string, any]()}
}

// Changed stores v under key and reports whether it differs from the previous value.
// The first value for a key always counts as a change.
func (c *ValueCache) Changed(key string, v any) bool {
	if prev, ok := c.values.Get(key); ok && reflect.DeepEqual(prev, v) {
		return false
	}
	c.values.Set(key, v)
	return true
}

// Get returns the last value stored under key.
func (c *ValueCache) Get(key string) (any, bool) {
	return c.values.Get(key)
}

// Len returns the number of tracked channels.
func (c *ValueCache) Len() int {
	return c.values.Len()
}

// Reset forgets every value.
func (c *ValueCache) Reset() {
	var keys []string
	c.values.Range(func(k string, _ any) bool {
		keys = append(keys, k)
		return true
	})
	for _, k := range keys {
		c.values.Del(k)
	}
}
