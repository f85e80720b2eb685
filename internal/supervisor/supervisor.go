// Package supervisor boots one indexer core per configured chain and waits
// for all of them, surfacing the first fatal error. Grounded on the
// teacher's process-boot shape (construct dependencies, spawn workers,
// wait on an error channel) used throughout cmd/rpcdaemon's entrypoint.
package supervisor

import (
	"context"
	"fmt"
	"sync"

	"github.com/ledgerwatch/log/v3"
)

// Indexer is the subset of *indexer.Core the supervisor depends on.
type Indexer interface {
	Run(ctx context.Context) error
}

// ChainIndexer pairs a named chain with its core, for log/error attribution.
type ChainIndexer struct {
	Name    string
	Indexer Indexer
}

// Supervisor runs every configured chain's indexer core concurrently.
type Supervisor struct {
	chains []ChainIndexer
	logger log.Logger
}

func New(logger log.Logger, chains ...ChainIndexer) *Supervisor {
	return &Supervisor{chains: chains, logger: logger}
}

// Run blocks until every chain indexer has returned. A chain indexer's own
// failure never stops its
// siblings: ctx is the only shutdown signal shared across chains, and each
// chain keeps running until ctx is cancelled or it fails on its own
// (spec.md §4.5/§7 -- a single chain's failure never aborts the others).
// The first non-nil error observed is returned once every chain has exited.
func (s *Supervisor) Run(ctx context.Context) error {
	errCh := make(chan error, len(s.chains))
	var wg sync.WaitGroup
	for _, ci := range s.chains {
		ci := ci
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.logger.Info("starting chain indexer", "chain", ci.Name)
			if err := ci.Indexer.Run(ctx); err != nil {
				errCh <- fmt.Errorf("chain %s: %w", ci.Name, err)
				return
			}
			errCh <- nil
		}()
	}

	go func() {
		wg.Wait()
		close(errCh)
	}()

	var firstErr error
	for err := range errCh {
		if err != nil {
			s.logger.Error("chain indexer failed", "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
