package filter

import (
	"errors"
	"fmt"

	"github.com/pharos-watch/pharos/entry"
	"github.com/pharos-watch/pharos/internal/hex"
)

// ErrUnsupportedAddressType is returned by BuildEventParams when the address
// parameter is neither a sequence nor a string-like value and cannot be
// merged with a contract address.
var ErrUnsupportedAddressType = errors.New("filter: unsupported type for address parameter")

// Handle is the opaque remote-side identifier for an installed filter. It is
// owned by exactly one engine for its lifetime.
type Handle string

// BlockRef names a block for a filter's range bounds: a hex quantity
// produced by Block, or one of the tag constants.
type BlockRef string

// Block range tags understood by the remote node.
const (
	Latest   BlockRef = "latest"
	Earliest BlockRef = "earliest"
	Pending  BlockRef = "pending"
)

// Block returns the BlockRef for a concrete block number.
func Block(n uint64) BlockRef {
	return BlockRef(hex.EncodeUint64(n))
}

// Params is the remote filter parameter object. Its JSON encoding carries
// exactly the keys {topics, address, fromBlock, toBlock}, each present only
// when set; this shape is the wire contract consumed by the RPC transport.
// Built once by BuildEventParams and immutable thereafter.
type Params struct {
	// Topics is an ordered sequence whose elements are an entry.Hash, nil
	// (wildcard), or a nested sequence of alternatives.
	Topics []any `json:"topics,omitempty"`

	// Address is a single address value or a sequence of them.
	Address any `json:"address,omitempty"`

	FromBlock BlockRef `json:"fromBlock,omitempty"`
	ToBlock   BlockRef `json:"toBlock,omitempty"`
}

// Encoder turns argument constraints into the primitives a remote filter
// understands. An event descriptor bound to its constraints implements this;
// see the abi package for the standard implementation.
type Encoder interface {
	// TopicSet returns the ordered topic sequence for the event with the
	// given argument constraints applied to indexed parameters. Elements
	// are an entry.Hash, nil, or a sequence of alternative hashes.
	TopicSet(args map[string]any) ([]any, error)

	// DataFilterSet returns the tuple set constraining non-indexed
	// parameters. An empty set means no payload constraint.
	DataFilterSet(args map[string]any) (DataFilterSet, error)
}

// BuildOption configures a BuildEventParams call.
type BuildOption func(*buildConfig)

type buildConfig struct {
	args            map[string]any
	topics          []any
	hasTopics       bool
	address         any
	contractAddress string
	fromBlock       BlockRef
	toBlock         BlockRef
}

// WithArgs supplies argument constraints keyed by parameter name. Values may
// be single values or slices of alternatives.
func WithArgs(args map[string]any) BuildOption {
	return func(c *buildConfig) {
		c.args = args
	}
}

// WithTopics supplies an explicit topic sequence, prepended as the first
// element ahead of the encoded topic set.
func WithTopics(topics ...any) BuildOption {
	return func(c *buildConfig) {
		c.topics = topics
		c.hasTopics = true
	}
}

// WithAddress restricts the filter to the given address value: a single
// hex string, an entry.Address, or a sequence of either.
func WithAddress(address any) BuildOption {
	return func(c *buildConfig) {
		c.address = address
	}
}

// WithContractAddress restricts the filter to a contract address, merged
// with any WithAddress value.
func WithContractAddress(addr string) BuildOption {
	return func(c *buildConfig) {
		c.contractAddress = addr
	}
}

// WithFromBlock sets the starting block bound.
func WithFromBlock(ref BlockRef) BuildOption {
	return func(c *buildConfig) {
		c.fromBlock = ref
	}
}

// WithToBlock sets the ending block bound.
func WithToBlock(ref BlockRef) BuildOption {
	return func(c *buildConfig) {
		c.toBlock = ref
	}
}

// BuildEventParams combines an encoder-bound event descriptor with the given
// options into the local data filter set and the remote filter parameters.
// It performs no I/O and is deterministic for equal inputs.
func BuildEventParams(enc Encoder, opts ...BuildOption) (DataFilterSet, Params, error) {
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	encoded, err := enc.TopicSet(cfg.args)
	if err != nil {
		return nil, Params{}, fmt.Errorf("filter: encode topic set: %w", err)
	}

	var combined []any
	if cfg.hasTopics {
		combined = append([]any{cfg.topics}, encoded...)
	} else {
		combined = encoded
	}

	var params Params

	// A single element that is itself a sequence is unwrapped so a caller
	// supplying a fully-formed topic list does not end up double-nested.
	if len(combined) == 1 {
		if inner, ok := asSequence(combined[0]); ok {
			params.Topics = inner
		} else {
			params.Topics = combined
		}
	} else {
		params.Topics = combined
	}

	addr, err := mergeAddress(cfg.address, cfg.contractAddress)
	if err != nil {
		return nil, Params{}, err
	}
	params.Address = addr

	params.FromBlock = cfg.fromBlock
	params.ToBlock = cfg.toBlock

	dataFilters, err := enc.DataFilterSet(cfg.args)
	if err != nil {
		return nil, Params{}, fmt.Errorf("filter: encode data filter set: %w", err)
	}

	return dataFilters, params, nil
}

// mergeAddress resolves the address/contractAddress precedence: both given
// merges them into a sequence, a single one is used as-is, neither leaves
// the key unset.
func mergeAddress(address any, contractAddress string) (any, error) {
	switch {
	case address != nil && contractAddress != "":
		if seq, ok := asSequence(address); ok {
			return append(seq, contractAddress), nil
		}
		if s, ok := asString(address); ok {
			return []any{s, contractAddress}, nil
		}
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedAddressType, address)
	case address != nil:
		return address, nil
	case contractAddress != "":
		return contractAddress, nil
	default:
		return nil, nil
	}
}

// asSequence normalizes the sequence shapes a caller may supply into []any.
func asSequence(v any) ([]any, bool) {
	switch seq := v.(type) {
	case []any:
		return seq, true
	case []string:
		out := make([]any, len(seq))
		for i, s := range seq {
			out[i] = s
		}
		return out, true
	case []entry.Hash:
		out := make([]any, len(seq))
		for i, h := range seq {
			out[i] = h
		}
		return out, true
	case []entry.Address:
		out := make([]any, len(seq))
		for i, a := range seq {
			out[i] = a
		}
		return out, true
	default:
		return nil, false
	}
}

// asString normalizes the string-like address shapes into a hex string.
func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case entry.Address:
		return s.Hex(), true
	default:
		return "", false
	}
}
