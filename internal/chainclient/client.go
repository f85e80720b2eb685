// Package chainclient defines the per-chain I/O capability every adapter
// (EVM, Solana, Celestia) implements. It is the only part of the pipeline
// that touches a network.
package chainclient

import "context"

// Log is the chain-agnostic envelope the indexer core passes to a
// ChainEventHandler. Adapters translate their native log/event shape into
// this before handing it to the core.
type Log struct {
	BlockNumber uint64
	TxHash      []byte
	TxIndex     uint32
	LogIndex    uint32
	Address     []byte
	Topics      [][]byte
	Data        []byte
	Timestamp   int64 // unix seconds; 0 if the adapter couldn't attach one
}

// ChainClient is the per-chain I/O capability: fetch a historical range,
// subscribe to new logs live, and report the chain's current height.
type ChainClient interface {
	// ChainID identifies which chain this client talks to.
	ChainID() uint64

	// LatestHeight returns the chain's current confirmed height.
	LatestHeight(ctx context.Context) (uint64, error)

	// FetchHistorical returns every watched log in [from, to], inclusive.
	FetchHistorical(ctx context.Context, from, to uint64) ([]Log, error)

	// SubscribeLive streams newly observed logs onto the returned channel
	// until ctx is cancelled or the subscription drops; the channel is
	// closed when the subscription ends, which the caller must detect to
	// decide whether to resubscribe or fall back to historical sync.
	SubscribeLive(ctx context.Context) (<-chan Log, <-chan error, error)
}
