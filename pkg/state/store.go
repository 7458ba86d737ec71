package state

import "sort"

// Store is the mutable mapping from variable names to typed values owned by a
// single runtime instance. It is not safe for concurrent use; the runtime
// serializes access.
type Store struct {
	values map[string]Value
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]Value)}
}

// Get returns the value for key, or a zero string value when absent. Reads
// never fail; typed zero values fall out of the coercion helpers (empty text
// reads as 0 / false / "").
func (s *Store) Get(key string) Value {
	return s.values[key]
}

// Set stores a typed value under key.
func (s *Store) Set(key string, value Value) {
	s.values[key] = value
}

// SetText stores text under key, preserving the declared kind of an existing
// entry. Keys created at runtime are typed as string.
func (s *Store) SetText(key, text string) {
	if prev, ok := s.values[key]; ok {
		s.values[key] = Value{Kind: prev.Kind, Text: text}
		return
	}
	s.values[key] = String(text)
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Remove deletes key, reporting whether it was present.
func (s *Store) Remove(key string) bool {
	if _, ok := s.values[key]; !ok {
		return false
	}
	delete(s.values, key)
	return true
}

// ReplaceAll atomically swaps the full contents of the store. Used by reset
// and restore; the previous contents are discarded wholesale, never merged.
func (s *Store) ReplaceAll(values map[string]Value) {
	next := make(map[string]Value, len(values))
	for k, v := range values {
		next[k] = v
	}
	s.values = next
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.values)
}

// Keys returns the stored keys in lexicographic order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToSnapshot renders the store as a plain name -> text mapping.
func (s *Store) ToSnapshot() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v.Text
	}
	return out
}
