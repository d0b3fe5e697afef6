// Example: replay — one-shot fetch of historical Transfer events over a
// fixed block range.
//
// Usage:
//
//	ETH_RPC_URL=https://eth-mainnet.alchemyapi.io/v2/YOUR_KEY go run ./example/replay
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pharos-watch/pharos"
	"github.com/pharos-watch/pharos/abi"
	"github.com/pharos-watch/pharos/engine"
	"github.com/pharos-watch/pharos/entry"
	"github.com/pharos-watch/pharos/filter"
)

func main() {
	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		log.Fatal("ETH_RPC_URL environment variable is required")
	}

	c := pharos.New(rpcURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	latest, err := c.Node().BlockNumber(ctx)
	if err != nil {
		log.Fatal(err)
	}

	transfer := abi.MustParseEvent("Transfer(address indexed from, address indexed to, uint256 value)")

	// Replay the last 100 blocks of USDT transfers. The engine performs a
	// single full fetch, dispatches, and returns to idle.
	eng, err := c.ReplayEvent(ctx, transfer, func(e entry.Entry) {
		fmt.Printf("[block %d] log %d: %s\n", e.BlockNumber, e.LogIndex, e.TxHash.Hex())
	},
		filter.WithContractAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"),
		filter.WithFromBlock(filter.Block(latest-100)),
		filter.WithToBlock(filter.Latest),
	)
	if err != nil {
		log.Fatal(err)
	}

	for eng.State() == engine.Running {
		time.Sleep(100 * time.Millisecond)
	}
	if err := eng.Err(); err != nil {
		log.Fatal(err)
	}

	c.Shutdown(context.Background())
}
