package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/twine-network/bridge-indexer/internal/chainclient"
)

func bigFromUint64(n uint64) *big.Int {
	return new(big.Int).SetUint64(n)
}

func toHashes(topics [][]byte) []common.Hash {
	hashes := make([]common.Hash, len(topics))
	for i, t := range topics {
		hashes[i] = common.BytesToHash(t)
	}
	return hashes
}

func toChainLog(l ethtypes.Log) chainclient.Log {
	topics := make([][]byte, len(l.Topics))
	for i, t := range l.Topics {
		topics[i] = t.Bytes()
	}
	return chainclient.Log{
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash.Bytes(),
		TxIndex:     uint32(l.TxIndex),
		LogIndex:    uint32(l.Index),
		Address:     l.Address.Bytes(),
		Topics:      topics,
		Data:        l.Data,
	}
}

func toChainLogs(logs []ethtypes.Log) []chainclient.Log {
	out := make([]chainclient.Log, len(logs))
	for i, l := range logs {
		out[i] = toChainLog(l)
	}
	return out
}
