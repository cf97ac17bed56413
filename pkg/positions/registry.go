// Package positions keeps the ordered list of scene objects whose world
// positions seed the fracture. Names are unique and the order is exactly
// what the user arranged; nothing here ever sorts.
package positions

import "slices"

// Registry is an ordered set of object names. It is not safe for
// concurrent use; the owning session serialises access.
type Registry struct {
	names []string
	index map[string]int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add appends every name not already present, in the order given.
// Present names, repeats within names and empty names are skipped, so
// calling Add twice with the same input is a no-op the second time.
// It returns the names that were appended.
func (r *Registry) Add(names ...string) []string {
	var added []string
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := r.index[name]; ok {
			continue
		}
		r.index[name] = len(r.names)
		r.names = append(r.names, name)
		added = append(added, name)
	}
	return added
}

// Remove deletes name if present. Removing an absent name is a silent
// no-op; the return value says whether anything was removed.
func (r *Registry) Remove(name string) bool {
	i, ok := r.index[name]
	if !ok {
		return false
	}
	r.RemoveAt(i)
	return true
}

// RemoveAt deletes the entry at index i. Out-of-range indices are ignored.
func (r *Registry) RemoveAt(i int) (string, bool) {
	if i < 0 || i >= len(r.names) {
		return "", false
	}
	name := r.names[i]
	r.names = slices.Delete(r.names, i, i+1)
	delete(r.index, name)
	r.reindex(i)
	return name, true
}

// MoveUp swaps entry i with its predecessor. Index 0 and out-of-range
// indices leave the registry untouched.
func (r *Registry) MoveUp(i int) bool {
	if i <= 0 || i >= len(r.names) {
		return false
	}
	r.swap(i, i-1)
	return true
}

// MoveDown swaps entry i with its successor. The last index and
// out-of-range indices leave the registry untouched.
func (r *Registry) MoveDown(i int) bool {
	if i < 0 || i >= len(r.names)-1 {
		return false
	}
	r.swap(i, i+1)
	return true
}

// Clear empties the registry.
func (r *Registry) Clear() {
	r.names = nil
	clear(r.index)
}

// Names returns a copy of the current order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.names)
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Index returns the position of name, or -1.
func (r *Registry) Index(name string) int {
	if i, ok := r.index[name]; ok {
		return i
	}
	return -1
}

func (r *Registry) swap(a, b int) {
	r.names[a], r.names[b] = r.names[b], r.names[a]
	r.index[r.names[a]] = a
	r.index[r.names[b]] = b
}

// reindex refreshes index entries from position from onwards.
func (r *Registry) reindex(from int) {
	for i := from; i < len(r.names); i++ {
		r.index[r.names[i]] = i
	}
}
