package library

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// orderedMap is a string-keyed map that remembers insertion order
type orderedMap[V any] struct {
	m *orderedmap.OrderedMap[string, V]
}

func newOrderedMap[V any]() *orderedMap[V] {
	return &orderedMap[V]{m: orderedmap.New[string, V]()}
}

func (m *orderedMap[V]) Get(key string) (V, bool) {
	return m.m.Get(key)
}

func (m *orderedMap[V]) Has(key string) bool {
	_, ok := m.m.Get(key)
	return ok
}

// Set inserts or replaces a value. Replacing keeps the original position.
func (m *orderedMap[V]) Set(key string, value V) {
	m.m.Set(key, value)
}

func (m *orderedMap[V]) Delete(key string) (V, bool) {
	return m.m.Delete(key)
}

func (m *orderedMap[V]) Len() int {
	return m.m.Len()
}

// Keys returns a fresh slice of the keys in insertion order
func (m *orderedMap[V]) Keys() []string {
	keys := make([]string, 0, m.m.Len())
	for pair := m.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
