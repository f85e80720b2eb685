package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingIndexer runs until ctx is cancelled.
type blockingIndexer struct {
	cancelled chan struct{}
}

func (b *blockingIndexer) Run(ctx context.Context) error {
	<-ctx.Done()
	close(b.cancelled)
	return ctx.Err()
}

// failingIndexer returns immediately with a fixed error.
type failingIndexer struct {
	err error
}

func (f *failingIndexer) Run(ctx context.Context) error { return f.err }

func TestRun_OneFailureDoesNotCancelSiblings(t *testing.T) {
	boom := errors.New("boom")
	blocker := &blockingIndexer{cancelled: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := New(log.New(),
		ChainIndexer{Name: "keeps-running", Indexer: blocker},
		ChainIndexer{Name: "fails-fast", Indexer: &failingIndexer{err: boom}},
	)

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	// The failing chain returns immediately; give it time to be observed
	// and confirm it does NOT tear down the still-running sibling.
	select {
	case <-blocker.cancelled:
		t.Fatal("a sibling's failure must not cancel this chain's context")
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case <-done:
		t.Fatal("Run must not return before every chain has exited")
	default:
	}

	// Only the caller's own ctx cancellation (or the chain's own failure)
	// ends the blocking indexer.
	cancel()

	select {
	case <-blocker.cancelled:
	case <-time.After(time.Second):
		t.Fatal("expected the blocking indexer to observe its own ctx cancellation")
	}

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRun_AllChainsCleanShutdownReturnsNil(t *testing.T) {
	sup := New(log.New(),
		ChainIndexer{Name: "a", Indexer: &failingIndexer{err: nil}},
		ChainIndexer{Name: "b", Indexer: &failingIndexer{err: nil}},
	)

	require.NoError(t, sup.Run(context.Background()))
}
