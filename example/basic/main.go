// Example: basic — watch ERC-20 Transfer events on a remote node.
//
// Usage:
//
//	ETH_RPC_URL=https://eth-mainnet.alchemyapi.io/v2/YOUR_KEY go run ./example/basic
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pharos-watch/pharos"
	"github.com/pharos-watch/pharos/abi"
	"github.com/pharos-watch/pharos/entry"
	"github.com/pharos-watch/pharos/filter"
	mw "github.com/pharos-watch/pharos/middleware"
	"github.com/pharos-watch/pharos/retry"
)

func main() {
	rpcURL := os.Getenv("ETH_RPC_URL")
	if rpcURL == "" {
		log.Fatal("ETH_RPC_URL environment variable is required")
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// 1. Create the client
	c := pharos.New(rpcURL,
		pharos.WithPollInterval(5*time.Second),
		pharos.WithRetry(retry.Exponential(3)),
		pharos.WithLogger(logger),
	)

	// 2. Add logging middleware
	c.Use(mw.NewLogger(logger))

	// 3. Describe the event to watch
	transfer := abi.MustParseEvent("Transfer(address indexed from, address indexed to, uint256 value)")

	// 4. Watch USDT transfers
	_, err := c.WatchEvent(context.Background(), transfer, func(e entry.Entry) {
		fmt.Printf("[block %d] tx=%s addr=%s topics=%d data=%d bytes\n",
			e.BlockNumber,
			e.TxHash.Hex(),
			e.Address.Hex(),
			len(e.Topics),
			len(e.Data),
		)
	}, filter.WithContractAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Watching for transfers... Press Ctrl+C to stop.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.Shutdown(ctx)
}
