// Package entry defines the records delivered by a watched filter.
package entry

// Hash represents a 32-byte hash or topic value.
type Hash [32]byte

// Address represents a 20-byte ledger address.
type Address [20]byte

// Entry is a single record returned by a remote filter fetch. Log-stream
// entries populate every field; message-stream entries carry only Topics
// and Data (the message payload).
type Entry struct {
	// Address is the contract that emitted the log.
	Address Address

	// Topics contains the indexed fields. Topics[0] is the event
	// signature hash for log entries.
	Topics []Hash

	// Data holds the non-indexed payload bytes.
	Data []byte

	// BlockNumber is the block in which the entry was recorded.
	BlockNumber uint64

	// BlockHash is the hash of that block.
	BlockHash Hash

	// TxHash is the transaction that produced the entry.
	TxHash Hash

	// TxIndex is the transaction's position in the block.
	TxIndex uint

	// LogIndex is the entry's position in the block.
	LogIndex uint

	// Removed reports whether the entry was reverted by a chain
	// reorganization.
	Removed bool
}

// Signature returns the first topic, or a zero hash if none exist.
func (e Entry) Signature() Hash {
	if len(e.Topics) > 0 {
		return e.Topics[0]
	}
	return Hash{}
}
