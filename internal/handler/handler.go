package handler

import "github.com/twine-network/bridge-indexer/internal/chainclient"

// EventContext carries the per-log metadata a handler needs beyond the raw
// log itself: which chain it came from and the block range of the batch
// currently being processed, for batch-number derivation.
type EventContext struct {
	ChainID    uint64
	StartBlock uint64
	EndBlock   uint64
}

// ChainConfig is the subset of a chain's configuration the indexer core
// needs from its handler: where a cold start resumes from and how wide a
// historical range to fetch at a time.
type ChainConfig struct {
	StartBlock         uint64
	BlockSyncBatchSize uint64
	BlockTimeMs        uint64
}

// ChainEventHandler is the pure decoder for one chain: it never performs
// I/O, it only maps a raw log to zero or more DbOps (or a DecodeError).
type ChainEventHandler interface {
	// ChainID is the identifier this handler decodes events for.
	ChainID() uint64

	// ChainConfig returns this chain's configured cold-start height and
	// historical batching size, read by the indexer core on a cold start
	// and for sizing each historical fetch.
	ChainConfig() ChainConfig

	// RelevantTopics returns the log topic0 signatures this handler watches;
	// a ChainClient uses this to build its eth_getLogs/subscribe filter.
	RelevantTopics() [][]byte

	// HandleLog decodes a single log into its write-plan entries. A soft
	// DecodeError means the log is dropped; any other error fails the batch.
	HandleLog(ctx EventContext, log chainclient.Log) ([]DbOp, error)
}
