package indexer

import (
	"context"
	"fmt"
	"sync"

	"github.com/twine-network/bridge-indexer/internal/chainclient"
	"github.com/twine-network/bridge-indexer/internal/handler"
)

// processLogs decodes logs concurrently, bounded by
// settings.MaxConcurrencyForLogProcess. Soft decode errors (UnknownEvent,
// SkipLog) drop the offending log; any other error fails the whole range,
// matching original_source's process_logs. A panic inside a decode
// goroutine is recovered and converted into the same fatal-range error a
// JoinSet panic would surface in the original Rust.
func (c *Core) processLogs(ctx context.Context, logs []chainclient.Log, from, to uint64) ([]handler.DbOp, error) {
	if len(logs) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	evCtx := handler.EventContext{ChainID: c.client.ChainID(), StartBlock: from, EndBlock: to}

	sem := make(chan struct{}, c.settings.MaxConcurrencyForLogProcess)
	results := make([][]handler.DbOp, len(logs))
	errs := make([]error, len(logs))

	var wg sync.WaitGroup
	for i, l := range logs {
		i, l := i, l
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic decoding log at index %d: %v", i, r)
				}
			}()
			ops, err := c.handler.HandleLog(evCtx, l)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = ops
		}()
	}
	wg.Wait()

	var all []handler.DbOp
	for i, err := range errs {
		if err == nil {
			all = append(all, results[i]...)
			continue
		}
		var decodeErr *handler.DecodeError
		if de, ok := err.(*handler.DecodeError); ok {
			decodeErr = de
		}
		if decodeErr != nil && decodeErr.IsSoft() {
			c.logger.Debug("dropping log", "chain_id", c.client.ChainID(), "index", i, "reason", decodeErr.Kind)
			continue
		}
		return nil, fmt.Errorf("decode log at index %d: %w", i, err)
	}

	return all, nil
}
