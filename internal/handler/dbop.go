// Package handler defines the chain-agnostic write plan (DbOp) and the
// per-chain decoder contract (ChainEventHandler) that turn raw logs into it.
package handler

import (
	"time"

	"github.com/shopspring/decimal"
)

// DbOp is one entry of a batch's write plan. Concrete variants below are the
// only implementations; a type switch on DbOp is the dispatch mechanism the
// multi-store writer uses.
type DbOp interface {
	dbOp()
}

// SourceTx records a bridge-originating transaction observed on a source
// chain (deposit, withdraw, forced-withdraw, message-send, ...).
type SourceTx struct {
	ChainID     uint64
	Nonce       uint64
	Kind        string
	BlockNumber uint64
	TokenIn     []byte
	TokenOut    []byte
	AddressFrom []byte
	AddressTo   []byte
	Amount      decimal.Decimal
	TxHash      []byte
	Timestamp   time.Time
}

// FlowHandled records the destination-side acknowledgement of a bridge flow
// (e.g. a message relayed and accepted on the counterparty chain).
type FlowHandled struct {
	ChainID     uint64
	Nonce       uint64
	BlockNumber uint64
	TxHash      []byte
	Timestamp   time.Time
}

// FlowExecuted records the terminal execution of a bridge flow (funds
// released, message applied).
type FlowExecuted struct {
	ChainID     uint64
	Nonce       uint64
	BlockNumber uint64
	TxHash      []byte
	Timestamp   time.Time
}

// BatchCommit records an L2 batch being sequenced/committed on L1.
type BatchCommit struct {
	ChainID      uint64
	BatchNumber  int32
	StartBlock   uint64
	EndBlock     uint64
	CommitTxHash []byte
	CommittedAt  time.Time
}

// BatchFinalize records an L2 batch reaching a finalized/verified state.
type BatchFinalize struct {
	ChainID        uint64
	BatchNumber    int32
	FinalizeTxHash []byte
	FinalizedAt    time.Time
}

func (SourceTx) dbOp()      {}
func (FlowHandled) dbOp()   {}
func (FlowExecuted) dbOp()  {}
func (BatchCommit) dbOp()   {}
func (BatchFinalize) dbOp() {}

// DaAvailable records a batch's data-availability blob landing on an
// optional DA layer (Celestia-like). Supplements spec.md's core DbOp set;
// written to the blockscout store alongside BatchCommit/BatchFinalize rows.
type DaAvailable struct {
	ChainID     uint64
	BatchNumber int32
	Height      uint64
	Commitment  []byte
	ObservedAt  time.Time
}

func (DaAvailable) dbOp() {}
