package evm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twine-network/bridge-indexer/internal/batchid"
	"github.com/twine-network/bridge-indexer/internal/chainclient"
	"github.com/twine-network/bridge-indexer/internal/handler"
)

func wordPad(b []byte) []byte {
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func sourceTxPayload(nonce uint64, token, from, to [20]byte, amount uint64) []byte {
	var data []byte
	data = append(data, wordPad(new(big.Int).SetUint64(nonce).Bytes())...)
	data = append(data, wordPad(token[:])...)
	data = append(data, wordPad(from[:])...)
	data = append(data, wordPad(to[:])...)
	data = append(data, wordPad(new(big.Int).SetUint64(amount).Bytes())...)
	return data
}

func TestHandler_HandleLog(t *testing.T) {
	h := NewHandler(1, RoleL1, handler.ChainConfig{})

	var token, from, to [20]byte
	token[19] = 0xAA
	from[19] = 0xBB
	to[19] = 0xCC

	type testScenario struct {
		name      string
		log       chainclient.Log
		wantKind  any
		wantErr   bool
		wantSoft  bool
	}

	scenarios := []testScenario{
		{
			name: "deposit decodes to SourceTx",
			log: chainclient.Log{
				BlockNumber: 100,
				TxHash:      []byte{0x01},
				Topics:      [][]byte{DepositTopic.Bytes()},
				Data:        sourceTxPayload(42, token, from, to, 1000),
			},
			wantKind: handler.SourceTx{},
		},
		{
			name: "unknown topic is a soft error",
			log: chainclient.Log{
				BlockNumber: 100,
				TxHash:      []byte{0x01},
				Topics:      [][]byte{{0xde, 0xad, 0xbe, 0xef}},
			},
			wantErr:  true,
			wantSoft: true,
		},
		{
			name: "missing tx hash is a hard error",
			log: chainclient.Log{
				BlockNumber: 100,
				Topics:      [][]byte{DepositTopic.Bytes()},
			},
			wantErr:  true,
			wantSoft: false,
		},
		{
			name: "short payload is a hard decode error",
			log: chainclient.Log{
				BlockNumber: 100,
				TxHash:      []byte{0x01},
				Topics:      [][]byte{DepositTopic.Bytes()},
				Data:        []byte{0x01},
			},
			wantErr:  true,
			wantSoft: false,
		},
	}

	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			ops, err := h.HandleLog(handler.EventContext{ChainID: 1, StartBlock: 100, EndBlock: 200}, sc.log)
			if sc.wantErr {
				require.Error(t, err)
				decodeErr, ok := err.(*handler.DecodeError)
				require.True(t, ok, "expected a *handler.DecodeError")
				assert.Equal(t, sc.wantSoft, decodeErr.IsSoft())
				return
			}
			require.NoError(t, err)
			require.Len(t, ops, 1)
			assert.IsType(t, sc.wantKind, ops[0])
		})
	}
}

func TestDeriveBatchNumber_StableAndBounded(t *testing.T) {
	a := batchid.Derive(100, 200)
	b := batchid.Derive(100, 200)
	c := batchid.Derive(100, 201)

	assert.Equal(t, a, b, "same range must hash to the same batch number")
	assert.NotEqual(t, a, c, "different ranges should not collide in this test")
	assert.GreaterOrEqual(t, a, int32(0), "batch number must fit a signed i32")
}
