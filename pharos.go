// Package pharos is a client-side event subscription layer for EVM-style
// JSON-RPC ledger nodes. It installs filters on a remote node, polls them
// in the background, applies local payload matching the node cannot
// express, and delivers matching entries to registered callbacks.
//
// Usage:
//
//	c := pharos.New("https://mainnet.example.org/rpc",
//	    pharos.WithPollInterval(2*time.Second),
//	)
//
//	ev := abi.MustParseEvent("Transfer(address indexed from, address indexed to, uint256 value)")
//
//	eng, err := c.WatchEvent(ctx, ev, func(e entry.Entry) {
//	    fmt.Println("transfer at block", e.BlockNumber)
//	}, filter.WithContractAddress(token))
package pharos

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pharos-watch/pharos/abi"
	"github.com/pharos-watch/pharos/engine"
	"github.com/pharos-watch/pharos/entry"
	"github.com/pharos-watch/pharos/filter"
	"github.com/pharos-watch/pharos/middleware"
	"github.com/pharos-watch/pharos/retry"
	"github.com/pharos-watch/pharos/rpc"
)

// Handler receives formatted entries from a watched filter.
type Handler func(e entry.Entry)

// Client installs filters on a single remote node and manages the engines
// watching them.
type Client struct {
	node  *rpc.Node
	cfg   Config
	log   zerolog.Logger
	mws   []middleware.Middleware
	retry retry.Strategy

	mu       sync.Mutex
	engines  []*engine.Engine
	shutdown bool
}

// New creates a Client for the given JSON-RPC endpoint. WebSocket transport
// is selected for ws:// and wss:// URLs, HTTP otherwise.
func New(endpoint string, opts ...Option) *Client {
	return NewWithNode(rpc.Dial(endpoint), opts...)
}

// NewWithNode creates a Client over an existing node binding.
func NewWithNode(node *rpc.Node, opts ...Option) *Client {
	c := &Client{
		node: node,
		cfg:  DefaultConfig(),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	node.SetLogger(c.log)
	return c
}

// Node returns the underlying node binding for lower-level use.
func (c *Client) Node() *rpc.Node {
	return c.node
}

// Use appends middleware to the dispatch pipeline. Must be called before
// the watch methods whose handlers it should wrap.
func (c *Client) Use(mws ...middleware.Middleware) {
	c.mws = append(c.mws, mws...)
}

// WatchEvent builds filter parameters for the event, installs the filter on
// the node, and starts a live engine dispatching matching entries to the
// handler. Constraints on non-indexed arguments are compiled into a local
// matcher applied before dispatch.
func (c *Client) WatchEvent(ctx context.Context, ev *abi.Event, handler Handler, opts ...filter.BuildOption) (*engine.Engine, error) {
	return c.watchEvent(ctx, ev, handler, false, opts)
}

// ReplayEvent is the one-shot variant of WatchEvent: the engine performs a
// single full fetch, dispatches matching entries, and returns to idle.
// Bound the range with filter.WithFromBlock and filter.WithToBlock.
func (c *Client) ReplayEvent(ctx context.Context, ev *abi.Event, handler Handler, opts ...filter.BuildOption) (*engine.Engine, error) {
	return c.watchEvent(ctx, ev, handler, true, opts)
}

func (c *Client) watchEvent(ctx context.Context, ev *abi.Event, handler Handler, oneShot bool, opts []filter.BuildOption) (*engine.Engine, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}

	dataFilters, params, err := filter.BuildEventParams(ev, opts...)
	if err != nil {
		return nil, err
	}

	var handle filter.Handle
	err = retry.Do(ctx, c.retry, func(ctx context.Context) error {
		var installErr error
		handle, installErr = c.node.InstallLogFilter(ctx, params)
		return installErr
	})
	if err != nil {
		return nil, err
	}

	engOpts := []engine.Option{
		engine.WithPollInterval(c.cfg.PollInterval),
		engine.WithDataFilters(dataFilters),
		engine.WithLogger(c.log),
	}

	var eng *engine.Engine
	if oneShot {
		eng = engine.NewOneShot(c.node.LogSource(), handle, engOpts...)
	} else {
		eng = engine.New(c.node.LogSource(), handle, engOpts...)
	}

	if err := c.adopt(eng); err != nil {
		return nil, err
	}
	if err := eng.Watch(c.wrapHandler(handler)); err != nil {
		return nil, err
	}
	return eng, nil
}

// WatchMessages installs a filter on the node's message stream and starts a
// live engine dispatching received messages to the handler.
func (c *Client) WatchMessages(ctx context.Context, params rpc.MessageParams, handler Handler) (*engine.Engine, error) {
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}

	var handle filter.Handle
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		var installErr error
		handle, installErr = c.node.InstallMessageFilter(ctx, params)
		return installErr
	})
	if err != nil {
		return nil, err
	}

	eng := engine.New(c.node.MessageSource(), handle,
		engine.WithPollInterval(c.cfg.PollInterval),
		engine.WithLogger(c.log),
	)

	if err := c.adopt(eng); err != nil {
		return nil, err
	}
	if err := eng.Watch(c.wrapHandler(handler)); err != nil {
		return nil, err
	}
	return eng, nil
}

// Shutdown stops every engine the client created, waiting up to the
// configured stop timeout for each, and closes the transport. It returns
// early with the context's error if ctx expires first.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.shutdown = true
	engines := make([]*engine.Engine, len(c.engines))
	copy(engines, c.engines)
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, eng := range engines {
			if err := eng.Stop(c.cfg.StopTimeout); err != nil {
				c.log.Warn().Err(err).Msg("engine stop failed during shutdown")
			}
		}
	}()

	select {
	case <-done:
		return c.node.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) ensureOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown {
		return ErrShutdown
	}
	return nil
}

func (c *Client) adopt(eng *engine.Engine) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shutdown {
		return ErrShutdown
	}
	c.engines = append(c.engines, eng)
	return nil
}

// wrapHandler builds the middleware pipeline with the user handler at the end.
func (c *Client) wrapHandler(handler Handler) engine.Callback {
	terminal := func(e entry.Entry) *entry.Entry {
		handler(e)
		return &e
	}
	chained := middleware.Chain(terminal, c.mws...)
	return func(e entry.Entry) {
		chained(e)
	}
}
