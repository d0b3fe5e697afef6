// Example: messages — watch the node's whisper message stream by topic.
//
// Usage:
//
//	SHH_RPC_URL=http://localhost:8545 go run ./example/messages
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pharos-watch/pharos"
	"github.com/pharos-watch/pharos/entry"
	"github.com/pharos-watch/pharos/rpc"
)

func main() {
	rpcURL := os.Getenv("SHH_RPC_URL")
	if rpcURL == "" {
		log.Fatal("SHH_RPC_URL environment variable is required")
	}

	c := pharos.New(rpcURL, pharos.WithPollInterval(2*time.Second))

	_, err := c.WatchMessages(context.Background(), rpc.MessageParams{
		Topics: []any{"0x12340000"},
	}, func(e entry.Entry) {
		fmt.Printf("message: %d topics, %d payload bytes\n", len(e.Topics), len(e.Data))
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Watching messages... Press Ctrl+C to stop.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.Shutdown(ctx)
}
