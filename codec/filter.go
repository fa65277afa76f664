package codec

import (
	"sort"

	"github.com/c360/streamkit/message"
)

// TypeSet is an immutable set of accepted message types, fixed at stage
// construction. Matching is a set-membership test on the dotted type key;
// no reflection is involved. The empty set is the universal set: it accepts
// every unit.
type TypeSet struct {
	keys map[string]struct{}
}

// NewTypeSet builds a TypeSet from the given type descriptors.
// Invalid (incomplete) types are ignored.
func NewTypeSet(types ...message.Type) TypeSet {
	if len(types) == 0 {
		return TypeSet{}
	}
	keys := make(map[string]struct{}, len(types))
	for _, t := range types {
		if t.IsValid() {
			keys[t.Key()] = struct{}{}
		}
	}
	return TypeSet{keys: keys}
}

// AcceptsAll reports whether the set is empty and therefore universal.
func (s TypeSet) AcceptsAll() bool {
	return len(s.keys) == 0
}

// Contains reports whether the given type is a member of the set.
// A universal set contains every type.
func (s TypeSet) Contains(t message.Type) bool {
	if s.AcceptsAll() {
		return true
	}
	_, ok := s.keys[t.Key()]
	return ok
}

// Accepts is the stage's type filter: true if the unit's runtime type is a
// member of the set. Nil units are never accepted.
func (s TypeSet) Accepts(msg message.Message) bool {
	if msg == nil {
		return false
	}
	return s.Contains(msg.Type())
}

// Keys returns the sorted member keys, for logging and diagnostics.
func (s TypeSet) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
