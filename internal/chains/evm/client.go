package evm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ledgerwatch/log/v3"

	"github.com/twine-network/bridge-indexer/internal/chainclient"
)

// rangeWorkers bounds how many concurrent eth_getLogs calls a single
// historical fetch issues, following zk/syncer/l1_syncer.go's fixed
// batchWorkers = 2 pattern with a fixed count of four.
const rangeWorkers = 4

// maxRangeSpan is the largest single eth_getLogs block span requested per
// worker job; FetchHistorical splits [from, to] into chunks of this size.
const maxRangeSpan = 1000

// Client is a ChainClient over a plain EVM JSON-RPC/WS endpoint.
type Client struct {
	chainID uint64
	http    *ethclient.Client
	ws      *ethclient.Client // nil if no WS endpoint was configured
	topics  [][]byte
	address *common.Address

	logger log.Logger
}

// Dial connects to httpURL (and wsURL, if non-empty, for live subscription).
func Dial(ctx context.Context, chainID uint64, httpURL, wsURL string, address *common.Address, topics [][]byte, logger log.Logger) (*Client, error) {
	httpClient, err := ethclient.DialContext(ctx, httpURL)
	if err != nil {
		return nil, fmt.Errorf("evm client: dial http %s: %w", httpURL, err)
	}

	var wsClient *ethclient.Client
	if wsURL != "" {
		wsClient, err = ethclient.DialContext(ctx, wsURL)
		if err != nil {
			return nil, fmt.Errorf("evm client: dial ws %s: %w", wsURL, err)
		}
	}

	return &Client{
		chainID: chainID,
		http:    httpClient,
		ws:      wsClient,
		topics:  topics,
		address: address,
		logger:  logger,
	}, nil
}

func (c *Client) ChainID() uint64 { return c.chainID }

func (c *Client) LatestHeight(ctx context.Context) (uint64, error) {
	height, err := c.http.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("evm client: BlockNumber: %w", err)
	}
	return height, nil
}

func (c *Client) filterQuery(from, to uint64) ethereum.FilterQuery {
	q := ethereum.FilterQuery{
		FromBlock: bigFromUint64(from),
		ToBlock:   bigFromUint64(to),
		Topics:    [][]common.Hash{toHashes(c.topics)},
	}
	if c.address != nil {
		q.Addresses = []common.Address{*c.address}
	}
	return q
}

func (c *Client) liveFilterQuery() ethereum.FilterQuery {
	q := ethereum.FilterQuery{Topics: [][]common.Hash{toHashes(c.topics)}}
	if c.address != nil {
		q.Addresses = []common.Address{*c.address}
	}
	return q
}

// FetchHistorical fans the [from, to] range out across rangeWorkers
// goroutines in maxRangeSpan chunks, matching zk/syncer/l1_syncer.go's
// fetchJob/jobResult worker pool, and retries an individual chunk up to 5
// times with a fixed sleep before giving up (same policy as
// l1_syncer.go's queryBlocks retry > 5 bailout).
func (c *Client) FetchHistorical(ctx context.Context, from, to uint64) ([]chainclient.Log, error) {
	type job struct{ from, to uint64 }
	var jobs []job
	for start := from; start <= to; start += maxRangeSpan {
		end := start + maxRangeSpan - 1
		if end > to {
			end = to
		}
		jobs = append(jobs, job{start, end})
	}

	jobCh := make(chan job, len(jobs))
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	type result struct {
		logs []ethtypes.Log
		err  error
	}
	results := make(chan result, len(jobs))

	var wg sync.WaitGroup
	workers := rangeWorkers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				logs, err := c.fetchRangeWithRetry(ctx, j.from, j.to)
				results <- result{logs: logs, err: err}
			}
		}()
	}
	wg.Wait()
	close(results)

	var all []chainclient.Log
	for r := range results {
		if r.err != nil {
			return nil, r.err
		}
		all = append(all, toChainLogs(r.logs)...)
	}
	return all, nil
}

func (c *Client) fetchRangeWithRetry(ctx context.Context, from, to uint64) ([]ethtypes.Log, error) {
	const retryLimit = 5
	const retryDelay = 5 * time.Second

	var lastErr error
	for attempt := 0; attempt <= retryLimit; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
		logs, err := c.http.FilterLogs(ctx, c.filterQuery(from, to))
		if err == nil {
			return logs, nil
		}
		lastErr = err
		c.logger.Warn("FilterLogs failed, retrying", "chain_id", c.chainID, "from", from, "to", to, "attempt", attempt, "err", err)
	}
	return nil, fmt.Errorf("FilterLogs [%d,%d]: exhausted retries: %w", from, to, lastErr)
}

// SubscribeLive opens a log subscription over the WS endpoint. The returned
// log channel is closed when the underlying subscription ends (error or
// context cancellation), which runLiveSession treats as a dropped
// subscription: runLive resubscribes, and falls back to historical sync
// only after more than maxConsecutiveReconnects drops in a row.
func (c *Client) SubscribeLive(ctx context.Context) (<-chan chainclient.Log, <-chan error, error) {
	if c.ws == nil {
		return nil, nil, fmt.Errorf("evm client: no ws endpoint configured for live subscription")
	}

	rawCh := make(chan ethtypes.Log)
	sub, err := c.ws.SubscribeFilterLogs(ctx, c.liveFilterQuery(), rawCh)
	if err != nil {
		return nil, nil, fmt.Errorf("evm client: SubscribeFilterLogs: %w", err)
	}

	outCh := make(chan chainclient.Log)
	errCh := make(chan error, 1)
	go func() {
		defer sub.Unsubscribe()
		defer close(outCh)
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				errCh <- err
				return
			case l, ok := <-rawCh:
				if !ok {
					return
				}
				outCh <- toChainLog(l)
			}
		}
	}()
	return outCh, errCh, nil
}
