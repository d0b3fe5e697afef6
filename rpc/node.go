// Package rpc binds the filter API of a remote ledger node: filter
// installation plus the log-stream and message-stream fetch namespaces.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pharos-watch/pharos/filter"
	"github.com/pharos-watch/pharos/internal/hex"
	"github.com/pharos-watch/pharos/transport"
)

// Node is a JSON-RPC binding to a single remote ledger node.
type Node struct {
	t   transport.Transport
	log zerolog.Logger
}

// NewNode creates a node binding over the given transport.
func NewNode(t transport.Transport) *Node {
	return &Node{t: t, log: zerolog.Nop()}
}

// Dial creates a node binding for the given endpoint, selecting the
// WebSocket transport for ws:// and wss:// URLs and HTTP otherwise.
func Dial(endpoint string) *Node {
	var t transport.Transport
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		t = transport.NewWebSocket(endpoint)
	} else {
		t = transport.NewHTTP(endpoint)
	}
	return NewNode(t)
}

// SetLogger replaces the node's logger. The default logger is disabled.
func (n *Node) SetLogger(log zerolog.Logger) {
	n.log = log
}

// Close releases the underlying transport.
func (n *Node) Close() error {
	return n.t.Close()
}

// BlockNumber returns the node's latest block number.
func (n *Node) BlockNumber(ctx context.Context) (uint64, error) {
	result, err := n.t.Call(ctx, "eth_blockNumber")
	if err != nil {
		return 0, fmt.Errorf("rpc: eth_blockNumber: %w", err)
	}

	var quantity string
	if err := json.Unmarshal(result, &quantity); err != nil {
		return 0, fmt.Errorf("rpc: parse block number: %w", err)
	}
	return hex.DecodeUint64(quantity)
}

// InstallLogFilter installs a log filter on the node and returns its handle.
func (n *Node) InstallLogFilter(ctx context.Context, params filter.Params) (filter.Handle, error) {
	h, err := n.installFilter(ctx, "eth_newFilter", params)
	if err != nil {
		return "", err
	}
	n.log.Debug().Str("handle", string(h)).Msg("installed log filter")
	return h, nil
}

// MessageParams is the parameter object for message-stream filters.
type MessageParams struct {
	To     string `json:"to,omitempty"`
	Topics []any  `json:"topics,omitempty"`
}

// InstallMessageFilter installs a message filter on the node and returns
// its handle.
func (n *Node) InstallMessageFilter(ctx context.Context, params MessageParams) (filter.Handle, error) {
	h, err := n.installFilter(ctx, "shh_newFilter", params)
	if err != nil {
		return "", err
	}
	n.log.Debug().Str("handle", string(h)).Msg("installed message filter")
	return h, nil
}

func (n *Node) installFilter(ctx context.Context, method string, params any) (filter.Handle, error) {
	result, err := n.t.Call(ctx, method, params)
	if err != nil {
		return "", fmt.Errorf("rpc: %s: %w", method, err)
	}

	var id string
	if err := json.Unmarshal(result, &id); err != nil {
		return "", fmt.Errorf("rpc: parse filter handle: %w", err)
	}
	return filter.Handle(id), nil
}

// LogSource returns the log-stream fetch binding for this node.
func (n *Node) LogSource() *LogSource {
	return &LogSource{node: n}
}

// MessageSource returns the message-stream fetch binding for this node.
func (n *Node) MessageSource() *MessageSource {
	return &MessageSource{node: n}
}
