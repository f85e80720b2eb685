package indexer

import (
	"context"
	"fmt"
	"time"
)

// runHistorical fetches and commits log ranges from `from` up to the
// chain's current height, advancing the cursor by end_block+1 after every
// range regardless of whether it was empty (original_source's
// sync_historical). Each range retries with exponential backoff
// (5s * 2^attempt) up to maxRetries before giving up as fatal. Returns the
// height live sync should resume from.
func (c *Core) runHistorical(ctx context.Context, from uint64) (uint64, error) {
	chainID := c.client.ChainID()

	latest, err := c.client.LatestHeight(ctx)
	if err != nil {
		return from, fmt.Errorf("fetch latest height: %w", err)
	}
	if from > latest {
		return from, nil
	}

	batchSize := c.handler.ChainConfig().BlockSyncBatchSize
	if batchSize == 0 {
		batchSize = uint64(c.settings.MaxLogBatchSize)
	}

	cursor := from
	for cursor <= latest {
		end := cursor + batchSize - 1
		if end > latest {
			end = latest
		}

		if err := c.processRange(ctx, cursor, end); err != nil {
			return cursor, fmt.Errorf("chain %d range [%d,%d]: %w", chainID, cursor, end, err)
		}

		cursor = end + 1
	}
	return cursor, nil
}

// processRange fetches logs for [from, to] with retry, then runs them
// through processLogs and commits.
func (c *Core) processRange(ctx context.Context, from, to uint64) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := rpcRetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		logs, err := c.client.FetchHistorical(ctx, from, to)
		if err != nil {
			lastErr = err
			c.logger.Warn("historical fetch failed, retrying", "chain_id", c.client.ChainID(), "attempt", attempt, "from", from, "to", to, "err", err)
			continue
		}

		ops, err := c.processLogs(ctx, logs, from, to)
		if err != nil {
			lastErr = err
			c.logger.Warn("log processing failed, retrying range", "chain_id", c.client.ChainID(), "attempt", attempt, "from", from, "to", to, "err", err)
			continue
		}

		if err := c.writer.Commit(ctx, c.client.ChainID(), to, ops); err != nil {
			lastErr = err
			c.logger.Warn("commit failed, retrying range", "chain_id", c.client.ChainID(), "attempt", attempt, "from", from, "to", to, "err", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("exceeded %d retries: %w", maxRetries, lastErr)
}
