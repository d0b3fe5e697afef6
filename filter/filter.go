// Package filter provides remote filter parameter construction and local
// entry matching.
//
// A remote ledger node only matches fixed-width indexed fields (topics),
// addresses, and block ranges. Constraints on non-indexed payload content
// are compiled into a DataMatcher and evaluated locally after fetching.
package filter

import (
	"github.com/pharos-watch/pharos/entry"
)

// Filter decides whether a fetched entry should reach callbacks.
type Filter interface {
	Match(e entry.Entry) bool
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(e entry.Entry) bool

// Match calls f.
func (f FilterFunc) Match(e entry.Entry) bool { return f(e) }

// AddressFilter matches entries emitted by any of the specified addresses.
type AddressFilter struct {
	addresses map[entry.Address]struct{}
}

// NewAddressFilter creates a filter that matches the given addresses.
func NewAddressFilter(addrs ...entry.Address) *AddressFilter {
	m := make(map[entry.Address]struct{}, len(addrs))
	for _, a := range addrs {
		m[a] = struct{}{}
	}
	return &AddressFilter{addresses: m}
}

// Match reports whether the entry's address is in the filter set.
func (f *AddressFilter) Match(e entry.Entry) bool {
	_, ok := f.addresses[e.Address]
	return ok
}

// TopicFilter matches entries whose topics contain any of the specified
// hashes at the configured position.
type TopicFilter struct {
	position int
	hashes   map[entry.Hash]struct{}
}

// NewTopicFilter creates a filter that matches entries with any of the given
// hashes at the specified topic position (0-based).
func NewTopicFilter(position int, hashes ...entry.Hash) *TopicFilter {
	m := make(map[entry.Hash]struct{}, len(hashes))
	for _, h := range hashes {
		m[h] = struct{}{}
	}
	return &TopicFilter{position: position, hashes: m}
}

// Match reports whether the entry has a matching topic at the configured position.
func (f *TopicFilter) Match(e entry.Entry) bool {
	if f.position >= len(e.Topics) {
		return false
	}
	_, ok := f.hashes[e.Topics[f.position]]
	return ok
}

// BlockRangeFilter matches entries within a block number range (inclusive).
type BlockRangeFilter struct {
	from *uint64
	to   *uint64
}

// NewBlockRangeFilter creates a filter matching entries within [from, to].
// A nil value means unbounded on that side.
func NewBlockRangeFilter(from, to *uint64) *BlockRangeFilter {
	return &BlockRangeFilter{from: from, to: to}
}

// Match reports whether the entry's block number falls within the range.
func (f *BlockRangeFilter) Match(e entry.Entry) bool {
	if f.from != nil && e.BlockNumber < *f.from {
		return false
	}
	if f.to != nil && e.BlockNumber > *f.to {
		return false
	}
	return true
}

// CompositeMode determines how child filters are combined.
type CompositeMode int

const (
	// And requires all child filters to match.
	And CompositeMode = iota
	// Or requires at least one child filter to match.
	Or
)

// CompositeFilter combines multiple filters using AND or OR logic.
type CompositeFilter struct {
	mode    CompositeMode
	filters []Filter
}

// NewCompositeFilter creates a composite filter with the given mode and children.
func NewCompositeFilter(mode CompositeMode, filters ...Filter) *CompositeFilter {
	return &CompositeFilter{mode: mode, filters: filters}
}

// AllOf is a convenience constructor for AND composition.
func AllOf(filters ...Filter) *CompositeFilter {
	return NewCompositeFilter(And, filters...)
}

// AnyOf is a convenience constructor for OR composition.
func AnyOf(filters ...Filter) *CompositeFilter {
	return NewCompositeFilter(Or, filters...)
}

// Match applies the composite logic to the entry.
func (f *CompositeFilter) Match(e entry.Entry) bool {
	if len(f.filters) == 0 {
		return true
	}

	switch f.mode {
	case And:
		for _, child := range f.filters {
			if !child.Match(e) {
				return false
			}
		}
		return true
	case Or:
		for _, child := range f.filters {
			if child.Match(e) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
