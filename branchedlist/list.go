package branchedlist

import (
	"fmt"
	"iter"
	"slices"
)

// OffsetStrategy chooses where the next anchor search starts after a match.
type OffsetStrategy int

const (
	// OffsetMatchIndex restarts at selfIndex+1, where selfIndex is the anchor
	// position before the other list's prefix was inserted.
	OffsetMatchIndex OffsetStrategy = iota
	// OffsetAfterMatch restarts at selfIndex+otherIndex+1, the slot right after
	// the anchor once the prefix has been inserted in front of it.
	OffsetAfterMatch
)

func (s OffsetStrategy) String() string {
	switch s {
	case OffsetMatchIndex:
		return "matchIndex"
	case OffsetAfterMatch:
		return "afterMatch"
	default:
		return fmt.Sprintf("OffsetStrategy(%d)", int(s))
	}
}

// ParseOffsetStrategy maps a configuration name to an OffsetStrategy.
func ParseOffsetStrategy(name string) (OffsetStrategy, error) {
	switch name {
	case "", "matchIndex":
		return OffsetMatchIndex, nil
	case "afterMatch":
		return OffsetAfterMatch, nil
	}
	return 0, fmt.Errorf("unknown offset strategy %q", name)
}

// Options customises a List. Zero fields fall back to defaults.
type Options[K, V any] struct {
	// ConflictResolve picks the surviving value when a key is present in both
	// lists. Defaults to keeping the existing value.
	ConflictResolve func(existing, incoming V) V
	// Equal compares keys during alignment. Required when K is not comparable.
	Equal func(a, b K) bool
	// Offset selects the search cursor behaviour after an anchor is merged.
	Offset OffsetStrategy
}

// List is an ordered sequence of entries tagged with the branch id of its
// owner. Entries added through Add carry that id; entries merged in from
// another list keep their own ids.
type List[K, V any, B comparable] struct {
	entries  []Entry[K, V, B]
	branchID B
	resolve  func(existing, incoming V) V
	equal    func(a, b K) bool
	offset   OffsetStrategy
}

// New creates an empty list for branchID that compares keys with == and keeps
// existing values on conflict.
func New[K comparable, V any, B comparable](branchID B) *List[K, V, B] {
	return NewWithOptions[K, V, B](branchID, Options[K, V]{})
}

// NewWithOptions creates an empty list for branchID. If opts.Equal is nil, K
// must be comparable at run time or NewWithOptions panics.
func NewWithOptions[K, V any, B comparable](branchID B, opts Options[K, V]) *List[K, V, B] {
	l := &List[K, V, B]{
		branchID: branchID,
		resolve:  opts.ConflictResolve,
		equal:    opts.Equal,
		offset:   opts.Offset,
	}
	if l.resolve == nil {
		l.resolve = func(existing, _ V) V { return existing }
	}
	if l.equal == nil {
		l.equal = func(a, b K) bool { return any(a) == any(b) }
	}
	return l
}

// BranchID returns the id stamped on entries added through Add.
func (l *List[K, V, B]) BranchID() B { return l.branchID }

// Offset returns the configured search cursor strategy.
func (l *List[K, V, B]) Offset() OffsetStrategy { return l.offset }

// Add appends key/value tagged with the list's own branch id.
func (l *List[K, V, B]) Add(key K, value V) {
	l.entries = append(l.entries, NewEntry(key, value, l.branchID))
}

// AddEntry appends e unchanged.
func (l *List[K, V, B]) AddEntry(e Entry[K, V, B]) {
	l.entries = append(l.entries, e)
}

// Len returns the number of entries.
func (l *List[K, V, B]) Len() int { return len(l.entries) }

// At returns the entry at index i.
func (l *List[K, V, B]) At(i int) Entry[K, V, B] { return l.entries[i] }

// Entries returns a copy of the entries in order.
func (l *List[K, V, B]) Entries() []Entry[K, V, B] { return slices.Clone(l.entries) }

// All iterates over index/entry pairs.
func (l *List[K, V, B]) All() iter.Seq2[int, Entry[K, V, B]] {
	return slices.All(l.entries)
}

// Values returns the payloads in order.
func (l *List[K, V, B]) Values() []V {
	out := make([]V, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.value
	}
	return out
}

// Pairs iterates over each payload together with a copy of its branch ids.
func (l *List[K, V, B]) Pairs() iter.Seq2[V, BranchSet[B]] {
	return func(yield func(V, BranchSet[B]) bool) {
		for _, e := range l.entries {
			if !yield(e.value, e.BranchIDs()) {
				return
			}
		}
	}
}

// KeyIndexOf returns the first index at or after from whose key equals key,
// or -1.
func (l *List[K, V, B]) KeyIndexOf(key K, from int) int {
	for i := max(from, 0); i < len(l.entries); i++ {
		if l.equal(key, l.entries[i].key) {
			return i
		}
	}
	return -1
}

// Match finds the earliest entry of other, in other's order, whose key occurs
// in l at or after searchFrom. It returns the index in l, the index in other
// and whether a match exists.
func (l *List[K, V, B]) Match(other *List[K, V, B], searchFrom int) (selfIndex, otherIndex int, ok bool) {
	return l.match(other.entries, searchFrom)
}

func (l *List[K, V, B]) match(other []Entry[K, V, B], searchFrom int) (int, int, bool) {
	for i, e := range other {
		if idx := l.KeyIndexOf(e.key, searchFrom); idx >= 0 {
			return idx, i, true
		}
	}
	return -1, -1, false
}

// Merge folds other into l. Shared keys collapse into one entry whose value is
// chosen by the conflict resolver and whose branch ids gain other's branch id.
// Entries of other in front of each anchor are inserted ahead of it. When no
// anchor is left, the remainder is appended on the first round; on later
// rounds it is inserted at the search cursor if mergeToFrontIfNotFound is set.
// other is only read.
func (l *List[K, V, B]) Merge(other *List[K, V, B], mergeToFrontIfNotFound bool) {
	rest := slices.Clone(other.entries)
	searchFrom := 0
	toFront := false

	for len(rest) > 0 {
		if len(l.entries) == 0 {
			l.entries = append(l.entries, rest...)
			return
		}
		selfIndex, otherIndex, ok := l.match(rest, searchFrom)
		if !ok {
			if toFront {
				l.entries = slices.Insert(l.entries, min(searchFrom, len(l.entries)), rest...)
			} else {
				l.entries = append(l.entries, rest...)
			}
			return
		}

		anchor := l.entries[selfIndex]
		l.entries[selfIndex] = anchor.Merge(l.resolve(anchor.value, rest[otherIndex].value), other.branchID)
		l.entries = slices.Insert(l.entries, selfIndex, rest[:otherIndex]...)

		switch l.offset {
		case OffsetAfterMatch:
			searchFrom = selfIndex + otherIndex + 1
		default:
			searchFrom = selfIndex + 1
		}
		rest = rest[otherIndex+1:]
		toFront = mergeToFrontIfNotFound
	}
}
