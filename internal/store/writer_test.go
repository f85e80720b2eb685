package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/twine-network/bridge-indexer/internal/handler"
)

func TestPartition_SplitsOpsByStore(t *testing.T) {
	ops := []handler.DbOp{
		handler.SourceTx{ChainID: 1, Nonce: 1},
		handler.FlowHandled{ChainID: 1, Nonce: 1},
		handler.FlowExecuted{ChainID: 1, Nonce: 1},
		handler.BatchCommit{ChainID: 2, BatchNumber: 7},
		handler.BatchFinalize{ChainID: 2, BatchNumber: 7},
		handler.DaAvailable{ChainID: 2, BatchNumber: 7},
	}

	primary, blockscout := partition(ops)

	assert.Len(t, primary, 3, "source/flow ops belong to the primary store")
	assert.Len(t, blockscout, 3, "batch lifecycle and DA ops belong to the blockscout store")
}

func TestChunkSourceTxs_SplitsAtBoundary(t *testing.T) {
	rows := make([]handler.SourceTx, 7)
	chunks := chunkSourceTxs(rows, 3)

	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[1], 3)
	assert.Len(t, chunks[2], 1)
}

func TestChunkSourceTxs_EmptyInputYieldsOneEmptyChunk(t *testing.T) {
	chunks := chunkSourceTxs(nil, 3)
	assert.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 0)
}
