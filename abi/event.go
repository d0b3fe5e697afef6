// Package abi parses Solidity event signatures and encodes argument
// constraints into topic sets and data filter sets.
package abi

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/pharos-watch/pharos/entry"
)

// Param is a single parameter of an event signature.
type Param struct {
	Type    string
	Name    string
	Indexed bool
}

// Event is a parsed event descriptor. It implements filter.Encoder.
type Event struct {
	Name   string
	Params []Param
}

// Canonical returns the canonical signature string
// (e.g. "Transfer(address,address,uint256)").
func (ev *Event) Canonical() string {
	types := make([]string, len(ev.Params))
	for i, p := range ev.Params {
		types[i] = p.Type
	}
	return fmt.Sprintf("%s(%s)", ev.Name, strings.Join(types, ","))
}

// SignatureHash returns the Keccak-256 hash of the canonical signature,
// i.e. the event's topic zero.
func (ev *Event) SignatureHash() entry.Hash {
	return keccak256([]byte(ev.Canonical()))
}

func keccak256(data []byte) entry.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out entry.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// ParseEvent parses a Solidity event signature string.
// Supported formats:
//   - "Transfer(address,address,uint256)"
//   - "Transfer(address indexed from, address indexed to, uint256 value)"
func ParseEvent(sig string) (*Event, error) {
	sig = strings.TrimSpace(sig)

	parenOpen := strings.IndexByte(sig, '(')
	parenClose := strings.LastIndexByte(sig, ')')
	if parenOpen < 0 || parenClose < 0 || parenClose <= parenOpen {
		return nil, fmt.Errorf("abi: malformed event signature: %q", sig)
	}

	name := strings.TrimSpace(sig[:parenOpen])
	if name == "" {
		return nil, fmt.Errorf("abi: empty event name in signature: %q", sig)
	}

	paramsStr := strings.TrimSpace(sig[parenOpen+1 : parenClose])
	if paramsStr == "" {
		return &Event{Name: name}, nil
	}

	parts := splitParams(paramsStr)
	params := make([]Param, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		p, err := parseParam(part)
		if err != nil {
			return nil, fmt.Errorf("abi: %w in signature %q", err, sig)
		}
		params = append(params, p)
	}

	return &Event{Name: name, Params: params}, nil
}

// MustParseEvent is like ParseEvent but panics on error.
func MustParseEvent(sig string) *Event {
	ev, err := ParseEvent(sig)
	if err != nil {
		panic(err)
	}
	return ev
}

func parseParam(s string) (Param, error) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return Param{}, fmt.Errorf("empty parameter")
	}

	var p Param
	p.Type = tokens[0]

	for i := 1; i < len(tokens); i++ {
		if tokens[i] == "indexed" {
			p.Indexed = true
		} else {
			p.Name = tokens[i]
		}
	}

	return p, nil
}

// splitParams splits a parameter list string, respecting nested parentheses
// (e.g. tuples).
func splitParams(s string) []string {
	var parts []string
	depth := 0
	start := 0

	for i, ch := range s {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
