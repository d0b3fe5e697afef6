package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pharos-watch/pharos/entry"
	"github.com/pharos-watch/pharos/filter"
)

// LogSource fetches from the primary log/transaction stream namespace.
// It satisfies engine.Source.
type LogSource struct {
	node *Node
}

// FetchChanges returns the entries recorded for the filter since the
// previous fetch.
func (s *LogSource) FetchChanges(ctx context.Context, h filter.Handle) ([]entry.Entry, error) {
	return s.node.fetchLogs(ctx, "eth_getFilterChanges", h)
}

// FetchAll returns every entry matching the filter's criteria.
func (s *LogSource) FetchAll(ctx context.Context, h filter.Handle) ([]entry.Entry, error) {
	return s.node.fetchLogs(ctx, "eth_getFilterLogs", h)
}

// Release uninstalls the filter on the node.
func (s *LogSource) Release(ctx context.Context, h filter.Handle) error {
	return s.node.releaseFilter(ctx, "eth_uninstallFilter", h)
}

// MessageSource fetches from the secondary message stream namespace.
// It satisfies engine.Source.
type MessageSource struct {
	node *Node
}

// FetchChanges returns the messages received for the filter since the
// previous fetch.
func (s *MessageSource) FetchChanges(ctx context.Context, h filter.Handle) ([]entry.Entry, error) {
	return s.node.fetchMessages(ctx, "shh_getFilterChanges", h)
}

// FetchAll returns every message held for the filter.
func (s *MessageSource) FetchAll(ctx context.Context, h filter.Handle) ([]entry.Entry, error) {
	return s.node.fetchMessages(ctx, "shh_getMessages", h)
}

// Release uninstalls the filter on the node.
func (s *MessageSource) Release(ctx context.Context, h filter.Handle) error {
	return s.node.releaseFilter(ctx, "shh_uninstallFilter", h)
}

func (n *Node) fetchLogs(ctx context.Context, method string, h filter.Handle) ([]entry.Entry, error) {
	result, err := n.t.Call(ctx, method, string(h))
	if err != nil {
		return nil, fmt.Errorf("rpc: %s: %w", method, err)
	}

	var rawLogs []rpcLog
	if err := json.Unmarshal(result, &rawLogs); err != nil {
		return nil, fmt.Errorf("rpc: parse logs: %w", err)
	}

	entries := make([]entry.Entry, len(rawLogs))
	for i, rl := range rawLogs {
		e, err := rl.toEntry()
		if err != nil {
			return nil, fmt.Errorf("rpc: convert log %d: %w", i, err)
		}
		entries[i] = e
	}
	return entries, nil
}

func (n *Node) fetchMessages(ctx context.Context, method string, h filter.Handle) ([]entry.Entry, error) {
	result, err := n.t.Call(ctx, method, string(h))
	if err != nil {
		return nil, fmt.Errorf("rpc: %s: %w", method, err)
	}

	var rawMsgs []rpcMessage
	if err := json.Unmarshal(result, &rawMsgs); err != nil {
		return nil, fmt.Errorf("rpc: parse messages: %w", err)
	}

	entries := make([]entry.Entry, len(rawMsgs))
	for i, rm := range rawMsgs {
		e, err := rm.toEntry()
		if err != nil {
			return nil, fmt.Errorf("rpc: convert message %d: %w", i, err)
		}
		entries[i] = e
	}
	return entries, nil
}

func (n *Node) releaseFilter(ctx context.Context, method string, h filter.Handle) error {
	if _, err := n.t.Call(ctx, method, string(h)); err != nil {
		return fmt.Errorf("rpc: %s: %w", method, err)
	}
	n.log.Debug().Str("handle", string(h)).Msg("released filter")
	return nil
}
