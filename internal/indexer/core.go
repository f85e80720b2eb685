// Package indexer implements the historical-catch-up / live-subscription
// state machine that drives one chain's ChainClient + ChainEventHandler
// pair into the Writer. Grounded on
// original_source/crates/indexer/generic/src/indexer.rs for control flow,
// and on okx-cdk-erigon's zk/syncer/l1_syncer.go (worker-pool log fetch,
// atomic state flags, progress ticker) and
// zk/stages/stage_l1syncer.go (drain-then-checkpoint loop) for the
// idiomatic-Go realization of that control flow.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/ledgerwatch/log/v3"

	"github.com/twine-network/bridge-indexer/internal/chainclient"
	"github.com/twine-network/bridge-indexer/internal/handler"
)

const (
	// maxRetries bounds the attempts per historical range.
	maxRetries = 20
	// rpcRetryDelay is the base of the historical-range backoff and the
	// default delay between live-resubscribe attempts.
	rpcRetryDelay = 5 * time.Second
	// maxConsecutiveReconnects is how many live-subscription drops in a row
	// are tolerated; the next one triggers a fallback to historical sync
	// (spec.md §4.3).
	maxConsecutiveReconnects = 5
)

// Writer is the subset of store.Writer the core depends on.
type Writer interface {
	Commit(ctx context.Context, chainID uint64, height uint64, ops []handler.DbOp) error
}

// Checkpoints is the subset of store.CheckpointStore the core depends on.
type Checkpoints interface {
	LastSyncedHeight(ctx context.Context, chainID uint64) (uint64, bool, error)
}

// Settings bounds batching and concurrency, mirroring
// original_source/crates/common/src/config.rs's IndexerSettings.
type Settings struct {
	MaxLogBatchSize             int
	MaxLogBatchTime             time.Duration
	MaxConcurrencyForLogProcess int
}

// Core drives a single chain's historical-then-live sync loop.
type Core struct {
	client   chainclient.ChainClient
	handler  handler.ChainEventHandler
	writer   Writer
	checkpts Checkpoints
	settings Settings
	logger   log.Logger

	// liveReconnectDelay is the backoff between live-resubscribe attempts;
	// defaults to rpcRetryDelay, overridable by tests.
	liveReconnectDelay time.Duration
}

func NewCore(client chainclient.ChainClient, h handler.ChainEventHandler, w Writer, c Checkpoints, s Settings, logger log.Logger) *Core {
	return &Core{
		client: client, handler: h, writer: w, checkpts: c, settings: s, logger: logger,
		liveReconnectDelay: rpcRetryDelay,
	}
}

// Run executes the full state machine: read the checkpoint, catch up
// historically to the chain's current height, then switch to live
// subscription. It returns only on a fatal, non-retryable error or when ctx
// is cancelled.
func (c *Core) Run(ctx context.Context) error {
	chainID := c.client.ChainID()
	chainCfg := c.handler.ChainConfig()

	start, found, err := c.checkpts.LastSyncedHeight(ctx, chainID)
	if err != nil {
		return fmt.Errorf("indexer[%d]: read checkpoint: %w", chainID, err)
	}
	if !found {
		c.logger.Info("cold start, no checkpoint found", "chain_id", chainID, "start_block", chainCfg.StartBlock)
		start = chainCfg.StartBlock
	} else {
		start++ // resume just past the last committed height
	}

	next, err := c.runHistorical(ctx, start)
	if err != nil {
		return fmt.Errorf("indexer[%d]: historical sync: %w", chainID, err)
	}

	for {
		lastCommitted, err := c.runLive(ctx, next)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			continue
		}
		c.logger.Warn("live sync dropped, falling back to historical", "chain_id", chainID, "err", err)
		next, err = c.runHistorical(ctx, lastCommitted)
		if err != nil {
			return fmt.Errorf("indexer[%d]: historical resync: %w", chainID, err)
		}
	}
}
