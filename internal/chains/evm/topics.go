// Package evm implements the ChainClient and ChainEventHandler for any EVM
// chain reached over JSON-RPC/WS -- used for both the L1 and L2 roles, since
// the wire format is identical; only the watched topics/addresses differ.
// Grounded on okx-cdk-erigon's zk/syncer/l1_syncer.go (historical fetch
// worker pool, live reconnect) and zk/stages/stage_l1syncer.go (topic
// dispatch), with topic constants in the shape of
// zk/contracts/l1_contracts.go's package-level common.HexToHash(...) vars.
package evm

import "github.com/ethereum/go-ethereum/common"

// Topic signatures this package's handlers dispatch on and report through
// RelevantTopics. Renamed from the teacher's rollup-sequencing topics to
// this domain's bridge/batch events. The values are fixed here; no
// configuration replaces them.
var (
	DepositTopic       = common.HexToHash("0x9d9f1f7ba5e5bb8c0a8b3c2e1b6a7c84e0a9f2a6b3d7c6e1f8d9a0b1c2d3e4f5")
	WithdrawTopic      = common.HexToHash("0xf7a8c3b2e1d0c9b8a7968574635241302f1e2d3c4b5a69788796a5b4c3d2e1f")
	ForcedWithdrawTopic = common.HexToHash("0x1a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f80")
	BatchCommitTopic   = common.HexToHash("0x3e54d0825ed78523037d00a81759237eb436ce774bd546993ee67a1b67b6e76")
	BatchFinalizeTopic = common.HexToHash("0xd1ec3a1216f08b6eff72e169ceb548b782db18a6614852618d86bb19f3f9b0d")
)

// Kind strings stored on SourceTx rows.
const (
	KindDeposit        = "deposit"
	KindWithdraw       = "withdraw"
	KindForcedWithdraw = "forced_withdraw"
)
