package filter

import (
	"bytes"

	"github.com/pharos-watch/pharos/entry"
)

// SlotSize is the width in bytes of a single data filter slot.
const SlotSize = 32

// DataFilter is one tuple of slot constraints over an entry payload. Each
// slot is either an exact 32-byte value or nil, the wildcard marker. A
// payload matches a tuple when its length is exactly SlotSize*len(tuple)
// and every non-wildcard slot equals the corresponding payload segment.
type DataFilter []*entry.Hash

// DataFilterSet is an alternation of tuples: a payload matches the set when
// it matches at least one tuple.
type DataFilterSet []DataFilter

// DataMatcher evaluates a compiled DataFilterSet against raw entry payloads.
// A nil *DataMatcher matches every payload. Immutable after Compile and safe
// for concurrent use.
type DataMatcher struct {
	set DataFilterSet
}

// Compile builds a matcher from the given set. It returns nil when the set
// is empty or contains no non-empty tuple; callers treat a nil matcher as
// match-all and skip payload comparison entirely.
func Compile(set DataFilterSet) *DataMatcher {
	for _, tuple := range set {
		if len(tuple) > 0 {
			return &DataMatcher{set: set}
		}
	}
	return nil
}

// MatchData reports whether the payload matches any tuple in the set.
func (m *DataMatcher) MatchData(data []byte) bool {
	if m == nil {
		return true
	}
	for _, tuple := range m.set {
		if matchTuple(tuple, data) {
			return true
		}
	}
	return false
}

// Match implements Filter by evaluating the entry's Data payload.
func (m *DataMatcher) Match(e entry.Entry) bool {
	return m.MatchData(e.Data)
}

func matchTuple(tuple DataFilter, data []byte) bool {
	// Anchored at both ends: the tuple must account for the whole payload.
	if len(data) != len(tuple)*SlotSize {
		return false
	}
	for i, slot := range tuple {
		if slot == nil {
			continue
		}
		if !bytes.Equal(data[i*SlotSize:(i+1)*SlotSize], slot[:]) {
			return false
		}
	}
	return true
}
