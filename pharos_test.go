package pharos

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharos-watch/pharos/abi"
	"github.com/pharos-watch/pharos/engine"
	"github.com/pharos-watch/pharos/entry"
	"github.com/pharos-watch/pharos/filter"
	"github.com/pharos-watch/pharos/middleware"
	"github.com/pharos-watch/pharos/rpc"
)

const transferLog = `{
	"address": "0x1111111111111111111111111111111111111111",
	"topics": ["0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"],
	"data": "0x0000000000000000000000000000000000000000000000000000000000000005",
	"blockNumber": "0x10",
	"blockHash": "0x2222222222222222222222222222222222222222222222222222222222222222",
	"transactionHash": "0x3333333333333333333333333333333333333333333333333333333333333333",
	"transactionIndex": "0x0",
	"logIndex": "0x0",
	"removed": false
}`

// fakeTransport is a scripted in-process transport. Change responses are
// returned once; subsequent change fetches yield an empty batch.
type fakeTransport struct {
	mu       sync.Mutex
	methods  []string
	params   map[string][]interface{}
	changes  map[string]string // consumed on first fetch
	results  map[string]string
	closed   bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		params:  make(map[string][]interface{}),
		changes: make(map[string]string),
		results: make(map[string]string),
	}
}

func (f *fakeTransport) Call(ctx context.Context, method string, params ...interface{}) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.methods = append(f.methods, method)
	f.params[method] = params

	if batch, ok := f.changes[method]; ok {
		delete(f.changes, method)
		return []byte(batch), nil
	}
	if result, ok := f.results[method]; ok {
		return []byte(result), nil
	}
	return []byte(`[]`), nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.methods {
		if m == method {
			n++
		}
	}
	return n
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestClient(ft *fakeTransport, opts ...Option) *Client {
	base := []Option{WithPollInterval(5 * time.Millisecond)}
	return NewWithNode(rpc.NewNode(ft), append(base, opts...)...)
}

func transferEvent(t *testing.T) *abi.Event {
	t.Helper()
	ev, err := abi.ParseEvent("Transfer(address indexed from, address indexed to, uint256 value)")
	require.NoError(t, err)
	return ev
}

func TestWatchEventDeliversEntries(t *testing.T) {
	ft := newFakeTransport()
	ft.results["eth_newFilter"] = `"0x1"`
	ft.results["eth_uninstallFilter"] = `true`
	ft.changes["eth_getFilterChanges"] = `[` + transferLog + `]`

	c := newTestClient(ft)
	got := make(chan entry.Entry, 1)

	eng, err := c.WatchEvent(context.Background(), transferEvent(t), func(e entry.Entry) {
		got <- e
	})
	require.NoError(t, err)
	assert.Equal(t, engine.Running, eng.State())

	select {
	case e := <-got:
		assert.Equal(t, uint64(16), e.BlockNumber)
	case <-time.After(2 * time.Second):
		t.Fatal("entry was not delivered")
	}

	require.NoError(t, eng.Stop(time.Second))
	assert.Equal(t, 1, ft.called("eth_uninstallFilter"))
}

func TestWatchEventInstallsFilterParams(t *testing.T) {
	ft := newFakeTransport()
	ft.results["eth_newFilter"] = `"0x1"`

	c := newTestClient(ft)
	eng, err := c.WatchEvent(context.Background(), transferEvent(t), func(entry.Entry) {},
		filter.WithContractAddress("0x1111111111111111111111111111111111111111"),
		filter.WithFromBlock(filter.Block(16)),
	)
	require.NoError(t, err)
	defer eng.Stop(time.Second)

	ft.mu.Lock()
	params := ft.params["eth_newFilter"]
	ft.mu.Unlock()
	require.Len(t, params, 1)

	raw, err := json.Marshal(params[0])
	require.NoError(t, err)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(raw, &sent))
	assert.Equal(t, "0x1111111111111111111111111111111111111111", sent["address"])
	assert.Equal(t, "0x10", sent["fromBlock"])
	assert.NotContains(t, sent, "toBlock")
}

func TestReplayEventRunsOnceAndIdles(t *testing.T) {
	ft := newFakeTransport()
	ft.results["eth_newFilter"] = `"0x1"`
	ft.results["eth_getFilterLogs"] = `[` + transferLog + `, ` + transferLog + `]`

	c := newTestClient(ft)
	got := make(chan entry.Entry, 4)

	eng, err := c.ReplayEvent(context.Background(), transferEvent(t), func(e entry.Entry) {
		got <- e
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return eng.State() == engine.Idle
	}, 2*time.Second, 5*time.Millisecond)

	assert.Len(t, got, 2)
	assert.Equal(t, 1, ft.called("eth_getFilterLogs"))
	assert.Zero(t, ft.called("eth_getFilterChanges"))
}

func TestWatchMessagesUsesMessageNamespace(t *testing.T) {
	ft := newFakeTransport()
	ft.results["shh_newFilter"] = `"0x2"`
	ft.results["shh_uninstallFilter"] = `true`
	ft.changes["shh_getFilterChanges"] = `[{
		"hash": "0x4444444444444444444444444444444444444444444444444444444444444444",
		"topics": ["0x5555555555555555555555555555555555555555555555555555555555555555"],
		"payload": "0xdeadbeef"
	}]`

	c := newTestClient(ft)
	got := make(chan entry.Entry, 1)

	eng, err := c.WatchMessages(context.Background(), rpc.MessageParams{Topics: []any{"0x5555"}}, func(e entry.Entry) {
		got <- e
	})
	require.NoError(t, err)

	select {
	case e := <-got:
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, e.Data)
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}

	require.NoError(t, eng.Stop(time.Second))
	assert.Equal(t, 1, ft.called("shh_newFilter"))
	assert.Equal(t, 1, ft.called("shh_uninstallFilter"))
	assert.Zero(t, ft.called("eth_newFilter"))
}

func TestMiddlewareDropsEntries(t *testing.T) {
	ft := newFakeTransport()
	ft.results["eth_newFilter"] = `"0x1"`
	ft.changes["eth_getFilterChanges"] = `[` + transferLog + `]`

	drop := middlewareFunc(func(next middleware.Handler) middleware.Handler {
		return func(e entry.Entry) *entry.Entry {
			return nil
		}
	})

	c := newTestClient(ft, WithMiddleware(drop))
	delivered := make(chan struct{}, 1)

	eng, err := c.WatchEvent(context.Background(), transferEvent(t), func(entry.Entry) {
		delivered <- struct{}{}
	})
	require.NoError(t, err)
	defer eng.Stop(time.Second)

	// Wait for at least one change fetch, then confirm nothing got through.
	require.Eventually(t, func() bool {
		return ft.called("eth_getFilterChanges") > 0
	}, 2*time.Second, 5*time.Millisecond)

	select {
	case <-delivered:
		t.Fatal("middleware should have dropped the entry")
	case <-time.After(50 * time.Millisecond):
	}
}

// middlewareFunc adapts a function to the Middleware interface.
type middlewareFunc func(middleware.Handler) middleware.Handler

func (f middlewareFunc) Wrap(next middleware.Handler) middleware.Handler {
	return f(next)
}

func TestShutdownStopsEngines(t *testing.T) {
	ft := newFakeTransport()
	ft.results["eth_newFilter"] = `"0x1"`
	ft.results["eth_uninstallFilter"] = `true`

	c := newTestClient(ft, WithStopTimeout(time.Second))
	eng, err := c.WatchEvent(context.Background(), transferEvent(t), func(entry.Entry) {})
	require.NoError(t, err)

	require.NoError(t, c.Shutdown(context.Background()))
	assert.Equal(t, engine.Stopped, eng.State())
	assert.True(t, ft.isClosed())

	_, err = c.WatchEvent(context.Background(), transferEvent(t), func(entry.Entry) {})
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestShutdownRespectsContext(t *testing.T) {
	ft := newFakeTransport()
	c := newTestClient(ft)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No engines to stop, but the canceled context may still win the race;
	// either outcome is acceptable as long as Shutdown returns promptly.
	err := c.Shutdown(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
	_, err = c.WatchEvent(context.Background(), transferEvent(t), func(entry.Entry) {})
	assert.ErrorIs(t, err, ErrShutdown)
}
