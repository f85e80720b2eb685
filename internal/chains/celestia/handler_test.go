package celestia

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twine-network/bridge-indexer/internal/batchid"
	"github.com/twine-network/bridge-indexer/internal/chainclient"
	"github.com/twine-network/bridge-indexer/internal/handler"
)

func TestHandler_HandleLog_EmitsDaAvailableKeyedToTheL2BatchNumber(t *testing.T) {
	h := NewHandler(7, handler.ChainConfig{})
	ctx := handler.EventContext{ChainID: 7, StartBlock: 100, EndBlock: 199}
	log := chainclient.Log{BlockNumber: 42, Data: []byte("blob-commitment"), Timestamp: 1700000000}

	ops, err := h.HandleLog(ctx, log)
	require.NoError(t, err)
	require.Len(t, ops, 1)

	da, ok := ops[0].(handler.DaAvailable)
	require.True(t, ok)
	assert.Equal(t, uint64(7), da.ChainID)
	assert.Equal(t, uint64(42), da.Height)
	assert.Equal(t, []byte("blob-commitment"), da.Commitment)
	assert.Equal(t, batchid.Derive(100, 199), da.BatchNumber)
}

func TestHandler_RelevantTopicsIsNil(t *testing.T) {
	assert.Nil(t, NewHandler(7, handler.ChainConfig{}).RelevantTopics())
}
