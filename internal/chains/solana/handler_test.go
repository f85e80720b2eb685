package solana

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twine-network/bridge-indexer/internal/chainclient"
	"github.com/twine-network/bridge-indexer/internal/handler"
)

func TestHandler_HandleLog_DecodesOneOpPerInstruction(t *testing.T) {
	h := NewHandler(101, handler.ChainConfig{})
	l := chainclient.Log{
		BlockNumber: 55,
		TxHash:      []byte{0xAB, 0xCD},
		Timestamp:   1700000000,
		Data: []byte(`{"bridgeInstructions":[
			{"kind":"deposit","nonce":1,"token":"mintA","from":"userA","to":"vault","amount":"1000"},
			{"kind":"deposit","nonce":2,"token":"mintB","from":"userB","to":"vault","amount":"2000"}
		]}`),
	}

	ops, err := h.HandleLog(handler.EventContext{}, l)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	first, ok := ops[0].(handler.SourceTx)
	require.True(t, ok)
	assert.Equal(t, uint64(101), first.ChainID)
	assert.Equal(t, uint64(1), first.Nonce)
	assert.True(t, decimal.NewFromInt(1000).Equal(first.Amount))
}

func TestHandler_HandleLog_MissingTxHashIsHardError(t *testing.T) {
	h := NewHandler(101, handler.ChainConfig{})
	_, err := h.HandleLog(handler.EventContext{}, chainclient.Log{})

	var decodeErr *handler.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, handler.MissingTxHash, decodeErr.Kind)
	assert.False(t, decodeErr.IsSoft())
}

func TestHandler_HandleLog_NoInstructionsIsSoftSkip(t *testing.T) {
	h := NewHandler(101, handler.ChainConfig{})
	l := chainclient.Log{TxHash: []byte{0x01}, Data: []byte(`{"bridgeInstructions":[]}`)}

	_, err := h.HandleLog(handler.EventContext{}, l)

	var decodeErr *handler.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, handler.SkipLog, decodeErr.Kind)
	assert.True(t, decodeErr.IsSoft())
}

func TestHandler_HandleLog_BadAmountIsNumberOverflow(t *testing.T) {
	h := NewHandler(101, handler.ChainConfig{})
	l := chainclient.Log{
		TxHash: []byte{0x01},
		Data:   []byte(`{"bridgeInstructions":[{"kind":"deposit","nonce":1,"amount":"not-a-number"}]}`),
	}

	_, err := h.HandleLog(handler.EventContext{}, l)

	var decodeErr *handler.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, handler.NumberOverflow, decodeErr.Kind)
}
