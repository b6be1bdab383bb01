package branchedlist

import "maps"

// BranchSet is an unordered set of branch ids.
type BranchSet[B comparable] map[B]struct{}

// NewBranchSet creates a set holding ids.
func NewBranchSet[B comparable](ids ...B) BranchSet[B] {
	s := make(BranchSet[B], len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s BranchSet[B]) Contains(id B) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids in the set.
func (s BranchSet[B]) Len() int { return len(s) }

// Union returns a new set with the ids of s and ids.
func (s BranchSet[B]) Union(ids ...B) BranchSet[B] {
	out := make(BranchSet[B], len(s)+len(ids))
	maps.Copy(out, s)
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// Intersects reports whether s and other share at least one id.
func (s BranchSet[B]) Intersects(other BranchSet[B]) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for id := range small {
		if _, ok := large[id]; ok {
			return true
		}
	}
	return false
}

// IsSupersetOf reports whether every id of other is also in s.
func (s BranchSet[B]) IsSupersetOf(other BranchSet[B]) bool {
	for id := range other {
		if _, ok := s[id]; !ok {
			return false
		}
	}
	return true
}

// Slice returns the ids in unspecified order.
func (s BranchSet[B]) Slice() []B {
	out := make([]B, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Entry is one keyed position of a branched list. Entries are immutable:
// Merge returns a new Entry and never touches the receiver.
type Entry[K, V any, B comparable] struct {
	key       K
	value     V
	branchIDs BranchSet[B]
}

// NewEntry creates an entry produced by at least one branch.
func NewEntry[K, V any, B comparable](key K, value V, branchID B, more ...B) Entry[K, V, B] {
	return Entry[K, V, B]{key: key, value: value, branchIDs: NewBranchSet(more...).Union(branchID)}
}

// NewEntryOf creates an entry from a collection of branch ids. It panics if ids
// is empty since an entry always belongs to some branch.
func NewEntryOf[K, V any, B comparable](key K, value V, ids []B) Entry[K, V, B] {
	if len(ids) == 0 {
		panic("branchedlist: entry requires at least one branch id")
	}
	return Entry[K, V, B]{key: key, value: value, branchIDs: NewBranchSet(ids...)}
}

// Key returns the alignment key.
func (e Entry[K, V, B]) Key() K { return e.key }

// Value returns the payload.
func (e Entry[K, V, B]) Value() V { return e.value }

// BranchIDs returns a copy of the branch ids that produced this entry.
func (e Entry[K, V, B]) BranchIDs() BranchSet[B] { return maps.Clone(e.branchIDs) }

// HasBranch reports whether id produced this entry.
func (e Entry[K, V, B]) HasBranch(id B) bool { return e.branchIDs.Contains(id) }

// Unpack returns key, value and a copy of the branch ids.
func (e Entry[K, V, B]) Unpack() (K, V, BranchSet[B]) {
	return e.key, e.value, e.BranchIDs()
}

// Merge returns a new entry with the same key, value as its payload and the
// union of the existing and given branch ids.
func (e Entry[K, V, B]) Merge(value V, ids ...B) Entry[K, V, B] {
	return Entry[K, V, B]{key: e.key, value: value, branchIDs: e.branchIDs.Union(ids...)}
}
