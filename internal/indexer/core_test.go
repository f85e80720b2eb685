package indexer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twine-network/bridge-indexer/internal/chainclient"
	"github.com/twine-network/bridge-indexer/internal/handler"
)

// fakeSubscription is one simulated live-subscription session: a pair of
// channels a test drives directly (send a log, close to simulate a drop).
type fakeSubscription struct {
	logs chan chainclient.Log
	errs chan error
}

// fakeClient is an in-memory ChainClient: historical logs are served from a
// fixed slice; each SubscribeLive call hands out the next configured
// fakeSubscription in order, so a test can script a sequence of drops and
// reconnects. Calls beyond the configured sequence get a session that never
// produces anything and only ends when ctx is cancelled.
type fakeClient struct {
	chainID uint64
	logs    []chainclient.Log
	latest  uint64

	subscriptions []*fakeSubscription

	historicalCalls int
	subscribeCalls  int
	mu              sync.Mutex
}

func (f *fakeClient) ChainID() uint64 { return f.chainID }

func (f *fakeClient) LatestHeight(ctx context.Context) (uint64, error) {
	return f.latest, nil
}

func (f *fakeClient) FetchHistorical(ctx context.Context, from, to uint64) ([]chainclient.Log, error) {
	f.mu.Lock()
	f.historicalCalls++
	f.mu.Unlock()

	var out []chainclient.Log
	for _, l := range f.logs {
		if l.BlockNumber >= from && l.BlockNumber <= to {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeClient) SubscribeLive(ctx context.Context) (<-chan chainclient.Log, <-chan error, error) {
	f.mu.Lock()
	idx := f.subscribeCalls
	f.subscribeCalls++
	f.mu.Unlock()

	if idx < len(f.subscriptions) {
		sub := f.subscriptions[idx]
		return sub.logs, sub.errs, nil
	}
	return make(chan chainclient.Log), make(chan error), nil
}

func (f *fakeClient) SubscribeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribeCalls
}

// fakeHandler turns every log into one SourceTx keyed by block number.
type fakeHandler struct {
	chainID uint64
	cfg     handler.ChainConfig
}

func (h *fakeHandler) ChainID() uint64                      { return h.chainID }
func (h *fakeHandler) ChainConfig() handler.ChainConfig     { return h.cfg }
func (h *fakeHandler) RelevantTopics() [][]byte             { return nil }
func (h *fakeHandler) HandleLog(ctx handler.EventContext, l chainclient.Log) ([]handler.DbOp, error) {
	return []handler.DbOp{handler.SourceTx{ChainID: h.chainID, Nonce: l.BlockNumber, BlockNumber: l.BlockNumber}}, nil
}

// fakeWriter records every Commit call.
type fakeWriter struct {
	mu      sync.Mutex
	commits []commitCall
}

type commitCall struct {
	chainID uint64
	height  uint64
	ops     []handler.DbOp
}

func (w *fakeWriter) Commit(ctx context.Context, chainID uint64, height uint64, ops []handler.DbOp) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.commits = append(w.commits, commitCall{chainID, height, ops})
	return nil
}

// fakeCheckpoints is an in-memory checkpoint store.
type fakeCheckpoints struct {
	height uint64
	found  bool
}

func (c *fakeCheckpoints) LastSyncedHeight(ctx context.Context, chainID uint64) (uint64, bool, error) {
	return c.height, c.found, nil
}

func testSettings() Settings {
	return Settings{MaxLogBatchSize: 10, MaxLogBatchTime: 50 * time.Millisecond, MaxConcurrencyForLogProcess: 4}
}

func TestRunHistorical_ColdStartCatchesUpToLatest(t *testing.T) {
	client := &fakeClient{chainID: 1, latest: 5, logs: []chainclient.Log{
		{BlockNumber: 1}, {BlockNumber: 3}, {BlockNumber: 5},
	}}
	writer := &fakeWriter{}
	core := NewCore(client, &fakeHandler{chainID: 1}, writer, &fakeCheckpoints{}, testSettings(), log.New())

	next, err := core.runHistorical(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), next, "cursor should advance past the latest height")
	require.Len(t, writer.commits, 1)
	assert.Len(t, writer.commits[0].ops, 3)
}

func TestRunHistorical_AdvancesEvenOnEmptyRange(t *testing.T) {
	client := &fakeClient{chainID: 1, latest: 25}
	writer := &fakeWriter{}
	core := NewCore(client, &fakeHandler{chainID: 1}, writer, &fakeCheckpoints{}, testSettings(), log.New())

	next, err := core.runHistorical(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(26), next)
}

func TestProcessLogs_SoftErrorDropsLogButHardErrorFailsBatch(t *testing.T) {
	h := &mixedHandler{chainID: 1}
	core := NewCore(&fakeClient{chainID: 1}, h, &fakeWriter{}, &fakeCheckpoints{}, testSettings(), log.New())

	ops, err := core.processLogs(context.Background(), []chainclient.Log{
		{BlockNumber: 1}, // soft unknown-event, dropped
		{BlockNumber: 2}, // decodes fine
	}, 1, 2)
	require.NoError(t, err)
	require.Len(t, ops, 1)

	_, err = core.processLogs(context.Background(), []chainclient.Log{
		{BlockNumber: 3}, // hard error, fails the whole batch
	}, 3, 3)
	require.Error(t, err)
}

// mixedHandler returns a soft UnknownEvent for block 1, a hard Decode error
// for block 3, and a normal op otherwise.
type mixedHandler struct {
	chainID uint64
}

func (h *mixedHandler) ChainID() uint64                  { return h.chainID }
func (h *mixedHandler) ChainConfig() handler.ChainConfig { return handler.ChainConfig{} }
func (h *mixedHandler) RelevantTopics() [][]byte         { return nil }
func (h *mixedHandler) HandleLog(ctx handler.EventContext, l chainclient.Log) ([]handler.DbOp, error) {
	switch l.BlockNumber {
	case 1:
		return nil, &handler.DecodeError{Kind: handler.UnknownEvent, Err: fmt.Errorf("unknown")}
	case 3:
		return nil, &handler.DecodeError{Kind: handler.Decode, Err: fmt.Errorf("bad payload")}
	default:
		return []handler.DbOp{handler.SourceTx{ChainID: h.chainID, Nonce: l.BlockNumber}}, nil
	}
}

func TestRunLive_FlushesOnSize(t *testing.T) {
	sub := &fakeSubscription{logs: make(chan chainclient.Log), errs: make(chan error, 1)}
	client := &fakeClient{chainID: 1, subscriptions: []*fakeSubscription{sub}}
	writer := &fakeWriter{}
	settings := testSettings()
	settings.MaxLogBatchSize = 2
	settings.MaxLogBatchTime = time.Hour // disable timer flush for this test
	core := NewCore(client, &fakeHandler{chainID: 1}, writer, &fakeCheckpoints{}, settings, log.New())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		core.runLive(ctx, 0)
		close(done)
	}()

	sub.logs <- chainclient.Log{BlockNumber: 10}
	sub.logs <- chainclient.Log{BlockNumber: 11}

	require.Eventually(t, func() bool {
		writer.mu.Lock()
		defer writer.mu.Unlock()
		return len(writer.commits) == 1
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	writer.mu.Lock()
	defer writer.mu.Unlock()
	require.Len(t, writer.commits, 1)
	assert.Equal(t, uint64(11), writer.commits[0].height)
}

func TestRunLive_ReconnectsAfterStreamCloseWithoutFallingBackToHistorical(t *testing.T) {
	session1 := &fakeSubscription{logs: make(chan chainclient.Log), errs: make(chan error, 1)}
	session2 := &fakeSubscription{logs: make(chan chainclient.Log), errs: make(chan error, 1)}

	client := &fakeClient{chainID: 1, subscriptions: []*fakeSubscription{session1, session2}}
	writer := &fakeWriter{}
	settings := testSettings()
	settings.MaxLogBatchSize = 5 // big enough that one log alone won't flush
	settings.MaxLogBatchTime = time.Hour
	core := NewCore(client, &fakeHandler{chainID: 1}, writer, &fakeCheckpoints{}, settings, log.New())
	core.liveReconnectDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	var lastCommitted uint64
	var runErr error
	go func() {
		lastCommitted, runErr = core.runLive(ctx, 0)
		close(done)
	}()

	session1.logs <- chainclient.Log{BlockNumber: 10}
	close(session1.logs) // drop the first session before it ever flushes

	require.Eventually(t, func() bool {
		return client.SubscribeCalls() >= 2
	}, time.Second, time.Millisecond, "a single drop should trigger a reconnect, not a fatal error")

	cancel()
	<-done

	assert.NoError(t, runErr, "a single drop must not exceed the reconnect budget and fall back to historical")
	assert.Equal(t, uint64(0), lastCommitted, "the unflushed buffer from the dropped session is discarded")
}

func TestRunLive_EscalatesAfterExceedingMaxConsecutiveReconnects(t *testing.T) {
	var subs []*fakeSubscription
	for i := 0; i < maxConsecutiveReconnects+1; i++ {
		sub := &fakeSubscription{logs: make(chan chainclient.Log), errs: make(chan error, 1)}
		close(sub.logs)
		subs = append(subs, sub)
	}

	client := &fakeClient{chainID: 1, subscriptions: subs}
	writer := &fakeWriter{}
	core := NewCore(client, &fakeHandler{chainID: 1}, writer, &fakeCheckpoints{}, testSettings(), log.New())
	core.liveReconnectDelay = time.Millisecond

	_, err := core.runLive(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, maxConsecutiveReconnects+1, client.SubscribeCalls())
}
