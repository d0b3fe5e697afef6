package abi

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/pharos-watch/pharos/entry"
	"github.com/pharos-watch/pharos/filter"
	"github.com/pharos-watch/pharos/internal/hex"
)

// maxUint256 is used to two's-complement negative integer arguments.
var maxUint256 = new(big.Int).Lsh(big.NewInt(1), 256)

// TopicSet returns the remote topic sequence for the event: the signature
// hash followed by one element per indexed parameter. An unconstrained
// parameter yields nil (wildcard); a slice constraint yields a sequence of
// alternative hashes.
func (ev *Event) TopicSet(args map[string]any) ([]any, error) {
	topics := []any{ev.SignatureHash()}

	for _, p := range ev.Params {
		if !p.Indexed {
			continue
		}

		values, ok := constraintValues(args, p.Name)
		if !ok {
			topics = append(topics, nil)
			continue
		}

		encoded := make([]entry.Hash, len(values))
		for i, v := range values {
			h, err := encodeTopicValue(p.Type, v)
			if err != nil {
				return nil, fmt.Errorf("abi: argument %q: %w", p.Name, err)
			}
			encoded[i] = h
		}

		if len(encoded) == 1 {
			topics = append(topics, encoded[0])
		} else {
			topics = append(topics, encoded)
		}
	}

	return topics, nil
}

// DataFilterSet returns the tuple set constraining non-indexed parameters.
// Each tuple is one combination of the constrained values, with nil slots
// for unconstrained parameters. When no non-indexed parameter is
// constrained the set is empty, meaning match-all.
func (ev *Event) DataFilterSet(args map[string]any) (filter.DataFilterSet, error) {
	var dataParams []Param
	for _, p := range ev.Params {
		if !p.Indexed {
			dataParams = append(dataParams, p)
		}
	}

	constrained := false
	alternatives := make([][]*entry.Hash, len(dataParams))
	for i, p := range dataParams {
		values, ok := constraintValues(args, p.Name)
		if !ok {
			alternatives[i] = []*entry.Hash{nil}
			continue
		}
		constrained = true

		if isDynamicType(p.Type) {
			return nil, fmt.Errorf("abi: argument %q: dynamic type %s cannot be matched in payload data", p.Name, p.Type)
		}

		slots := make([]*entry.Hash, len(values))
		for j, v := range values {
			h, err := encodeStaticValue(p.Type, v)
			if err != nil {
				return nil, fmt.Errorf("abi: argument %q: %w", p.Name, err)
			}
			slots[j] = &h
		}
		alternatives[i] = slots
	}

	if !constrained {
		return nil, nil
	}

	return cartesianTuples(alternatives), nil
}

// cartesianTuples expands per-slot alternatives into the OR-of-AND tuple set.
func cartesianTuples(alternatives [][]*entry.Hash) filter.DataFilterSet {
	set := filter.DataFilterSet{filter.DataFilter{}}
	for _, alts := range alternatives {
		var next filter.DataFilterSet
		for _, tuple := range set {
			for _, slot := range alts {
				grown := make(filter.DataFilter, len(tuple), len(tuple)+1)
				copy(grown, tuple)
				next = append(next, append(grown, slot))
			}
		}
		set = next
	}
	return set
}

// constraintValues normalizes an argument constraint to a value list.
// A missing key means unconstrained.
func constraintValues(args map[string]any, name string) ([]any, bool) {
	if args == nil {
		return nil, false
	}
	v, ok := args[name]
	if !ok || v == nil {
		return nil, false
	}

	switch vs := v.(type) {
	case []any:
		return vs, true
	case []string:
		out := make([]any, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out, true
	default:
		return []any{v}, true
	}
}

// encodeTopicValue encodes an argument value for topic matching. Dynamic
// types (string, bytes) are hashed, matching how the node indexes them.
func encodeTopicValue(typ string, v any) (entry.Hash, error) {
	if isDynamicType(typ) {
		switch s := v.(type) {
		case string:
			return keccak256([]byte(s)), nil
		case []byte:
			return keccak256(s), nil
		default:
			return entry.Hash{}, fmt.Errorf("cannot hash %T as %s", v, typ)
		}
	}
	return encodeStaticValue(typ, v)
}

// encodeStaticValue encodes a static-typed argument value into a 32-byte slot.
func encodeStaticValue(typ string, v any) (entry.Hash, error) {
	switch {
	case typ == "address":
		return encodeAddress(v)
	case typ == "bool":
		b, ok := v.(bool)
		if !ok {
			return entry.Hash{}, fmt.Errorf("cannot encode %T as bool", v)
		}
		var h entry.Hash
		if b {
			h[31] = 1
		}
		return h, nil
	case strings.HasPrefix(typ, "uint"), strings.HasPrefix(typ, "int"):
		return encodeInteger(v)
	case strings.HasPrefix(typ, "bytes"):
		return encodeFixedBytes(v)
	default:
		return entry.Hash{}, fmt.Errorf("unsupported argument type %s", typ)
	}
}

func encodeAddress(v any) (entry.Hash, error) {
	var addr entry.Address
	switch a := v.(type) {
	case entry.Address:
		addr = a
	case string:
		parsed, err := entry.HexToAddress(a)
		if err != nil {
			return entry.Hash{}, err
		}
		addr = parsed
	default:
		return entry.Hash{}, fmt.Errorf("cannot encode %T as address", v)
	}

	var h entry.Hash
	copy(h[12:], addr[:])
	return h, nil
}

func encodeInteger(v any) (entry.Hash, error) {
	var x *big.Int
	switch n := v.(type) {
	case *big.Int:
		x = new(big.Int).Set(n)
	case uint64:
		x = new(big.Int).SetUint64(n)
	case uint:
		x = new(big.Int).SetUint64(uint64(n))
	case int64:
		x = big.NewInt(n)
	case int:
		x = big.NewInt(int64(n))
	default:
		return entry.Hash{}, fmt.Errorf("cannot encode %T as integer", v)
	}

	if x.Sign() < 0 {
		x.Add(x, maxUint256)
	}
	if x.BitLen() > 256 {
		return entry.Hash{}, fmt.Errorf("integer overflows 256 bits")
	}

	var h entry.Hash
	x.FillBytes(h[:])
	return h, nil
}

func encodeFixedBytes(v any) (entry.Hash, error) {
	var b []byte
	switch bs := v.(type) {
	case []byte:
		b = bs
	case entry.Hash:
		return bs, nil
	case string:
		decoded, err := hex.Decode(bs)
		if err != nil {
			return entry.Hash{}, err
		}
		b = decoded
	default:
		return entry.Hash{}, fmt.Errorf("cannot encode %T as fixed bytes", v)
	}

	if len(b) > 32 {
		return entry.Hash{}, fmt.Errorf("fixed bytes value longer than 32 bytes")
	}

	// Fixed-size bytes are right-padded.
	var h entry.Hash
	copy(h[:], b)
	return h, nil
}

// isDynamicType reports whether the Solidity type has no fixed 32-byte
// encoding ("string", "bytes", and any array form).
func isDynamicType(typ string) bool {
	if typ == "string" || typ == "bytes" {
		return true
	}
	return strings.Contains(typ, "[")
}
