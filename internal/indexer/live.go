package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/twine-network/bridge-indexer/internal/chainclient"
)

// runLive keeps the chain's live subscription alive across transient drops:
// every stream close/error re-subscribes after liveReconnectDelay, and only
// after more than maxConsecutiveReconnects drops in a row does it give up
// and return an error so the caller falls back to historical sync. This
// matches original_source/crates/indexer/generic/src/indexer.rs's
// sync_live, whose `reconnect_attempts` counter lives across repeated
// subscribe attempts inside one long-running loop rather than resetting on
// every call (spec.md §4.3 step 1, §8 boundary, scenario S6).
//
// Returns nil only when ctx is cancelled; any other return means the
// reconnect budget was exhausted and the caller should fall back to
// historical sync starting at the returned height.
func (c *Core) runLive(ctx context.Context, from uint64) (uint64, error) {
	lastCommitted := from
	consecutiveReconnects := 0

	for {
		committed, err := c.runLiveSession(ctx, lastCommitted, &consecutiveReconnects)
		lastCommitted = committed
		if err == nil {
			return lastCommitted, nil
		}

		consecutiveReconnects++
		c.logger.Warn("live subscription dropped, reconnecting", "chain_id", c.client.ChainID(),
			"attempt", consecutiveReconnects, "err", err)
		if consecutiveReconnects > maxConsecutiveReconnects {
			return lastCommitted, fmt.Errorf("exceeded %d consecutive reconnects: %w", maxConsecutiveReconnects, err)
		}

		select {
		case <-ctx.Done():
			return lastCommitted, nil
		case <-time.After(c.liveReconnectDelay):
		}
	}
}

// runLiveSession subscribes once and buffers logs until either
// settings.MaxLogBatchSize logs accumulate or MaxLogBatchTime elapses,
// flushing a batch each time. maxSeenBlock tracks the highest block number
// observed during this session (a flush empties the buffer but keeps it)
// and is reset to 0 only when the
// subscription stream itself closes -- never on the timer/flush branch.
// This corrects original_source's sync_live(), which incorrectly zeroed it
// on the timeout branch too (spec.md §9 / DESIGN.md Open Question 1).
//
// consecutiveReconnects is reset to 0 as soon as the session delivers a
// log, so a brief hiccup after a healthy stream doesn't count toward the
// drop-to-historical threshold, while a stream that closes right after
// opening without delivering anything still counts as a drop.
//
// Returns nil only when ctx is cancelled; any other return means this
// session's subscription dropped and the caller should decide whether to
// resubscribe or give up.
func (c *Core) runLiveSession(ctx context.Context, from uint64, consecutiveReconnects *int) (uint64, error) {
	logsCh, errCh, err := c.client.SubscribeLive(ctx)
	if err != nil {
		return from, fmt.Errorf("subscribe: %w", err)
	}

	var buffer []chainclient.Log
	var maxSeenBlock uint64
	lastCommitted := from

	ticker := time.NewTicker(c.settings.MaxLogBatchTime)
	defer ticker.Stop()

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		from := lastCommitted + 1
		to := maxSeenBlock
		ops, err := c.processLogs(ctx, buffer, from, to)
		if err != nil {
			return err
		}
		if err := c.writer.Commit(ctx, c.client.ChainID(), to, ops); err != nil {
			return err
		}
		lastCommitted = to
		buffer = nil
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return lastCommitted, nil

		case l, ok := <-logsCh:
			if !ok {
				// Stream closed: this is the only point where the buffer's
				// max-seen marker resets, per the fix above.
				maxSeenBlock = 0
				return lastCommitted, fmt.Errorf("subscription stream closed")
			}
			*consecutiveReconnects = 0
			buffer = append(buffer, l)
			if l.BlockNumber > maxSeenBlock {
				maxSeenBlock = l.BlockNumber
			}
			if len(buffer) >= c.settings.MaxLogBatchSize {
				if err := flush(); err != nil {
					return lastCommitted, fmt.Errorf("flush on size: %w", err)
				}
			}

		case err := <-errCh:
			return lastCommitted, fmt.Errorf("subscription error: %w", err)

		case <-ticker.C:
			if err := flush(); err != nil {
				return lastCommitted, fmt.Errorf("flush on timer: %w", err)
			}
		}
	}
}
