package middleware

import (
	"github.com/rs/zerolog"

	"github.com/pharos-watch/pharos/entry"
)

// Logger logs each entry that passes through the pipeline.
type Logger struct {
	log zerolog.Logger
}

// NewLogger creates a logging middleware using the provided logger.
func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

// Wrap decorates the handler with entry logging.
func (l *Logger) Wrap(next Handler) Handler {
	return func(e entry.Entry) *entry.Entry {
		l.log.Debug().
			Uint64("block", e.BlockNumber).
			Str("tx", e.TxHash.Hex()).
			Uint("logIndex", e.LogIndex).
			Str("address", e.Address.Hex()).
			Str("topic0", e.Signature().Hex()).
			Msg("entry")
		return next(e)
	}
}
