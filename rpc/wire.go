package rpc

import (
	"fmt"

	"github.com/pharos-watch/pharos/entry"
	"github.com/pharos-watch/pharos/internal/hex"
)

// rpcLog is the wire representation of a log-stream entry.
type rpcLog struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockNumber string   `json:"blockNumber"`
	BlockHash   string   `json:"blockHash"`
	TxHash      string   `json:"transactionHash"`
	TxIndex     string   `json:"transactionIndex"`
	LogIndex    string   `json:"logIndex"`
	Removed     bool     `json:"removed"`
}

func (rl *rpcLog) toEntry() (entry.Entry, error) {
	var e entry.Entry
	e.Removed = rl.Removed

	var err error
	if rl.Address != "" {
		e.Address, err = entry.HexToAddress(rl.Address)
		if err != nil {
			return e, fmt.Errorf("parse address: %w", err)
		}
	}

	e.Topics = make([]entry.Hash, len(rl.Topics))
	for i, t := range rl.Topics {
		e.Topics[i], err = entry.HexToHash(t)
		if err != nil {
			return e, fmt.Errorf("parse topic %d: %w", i, err)
		}
	}

	if rl.Data != "" && rl.Data != "0x" {
		e.Data, err = hex.Decode(rl.Data)
		if err != nil {
			return e, fmt.Errorf("parse data: %w", err)
		}
	}

	if rl.BlockNumber != "" {
		e.BlockNumber, err = hex.DecodeUint64(rl.BlockNumber)
		if err != nil {
			return e, fmt.Errorf("parse blockNumber: %w", err)
		}
	}

	if rl.BlockHash != "" {
		e.BlockHash, err = entry.HexToHash(rl.BlockHash)
		if err != nil {
			return e, fmt.Errorf("parse blockHash: %w", err)
		}
	}

	if rl.TxHash != "" {
		e.TxHash, err = entry.HexToHash(rl.TxHash)
		if err != nil {
			return e, fmt.Errorf("parse txHash: %w", err)
		}
	}

	if rl.TxIndex != "" {
		idx, err := hex.DecodeUint64(rl.TxIndex)
		if err != nil {
			return e, fmt.Errorf("parse txIndex: %w", err)
		}
		e.TxIndex = uint(idx)
	}

	if rl.LogIndex != "" {
		idx, err := hex.DecodeUint64(rl.LogIndex)
		if err != nil {
			return e, fmt.Errorf("parse logIndex: %w", err)
		}
		e.LogIndex = uint(idx)
	}

	return e, nil
}

// rpcMessage is the wire representation of a message-stream entry. Only the
// topics and payload carry over; message entries leave the block and
// transaction fields zero.
type rpcMessage struct {
	Hash    string   `json:"hash"`
	From    string   `json:"from"`
	To      string   `json:"to"`
	Topics  []string `json:"topics"`
	Payload string   `json:"payload"`
	TTL     string   `json:"ttl"`
	Sent    string   `json:"sent"`
}

func (rm *rpcMessage) toEntry() (entry.Entry, error) {
	var e entry.Entry

	var err error
	if rm.Hash != "" {
		e.TxHash, err = entry.HexToHash(rm.Hash)
		if err != nil {
			return e, fmt.Errorf("parse hash: %w", err)
		}
	}

	e.Topics = make([]entry.Hash, len(rm.Topics))
	for i, t := range rm.Topics {
		e.Topics[i], err = entry.HexToHash(t)
		if err != nil {
			return e, fmt.Errorf("parse topic %d: %w", i, err)
		}
	}

	if rm.Payload != "" && rm.Payload != "0x" {
		e.Data, err = hex.Decode(rm.Payload)
		if err != nil {
			return e, fmt.Errorf("parse payload: %w", err)
		}
	}

	return e, nil
}
