package handler

import "fmt"

// DecodeErrorKind classifies a decode failure as soft (drop the log, keep
// processing the batch) or hard (fail the whole batch, retry from the last
// checkpoint).
type DecodeErrorKind int

const (
	// UnknownEvent is a log whose topic0 isn't one this handler watches.
	UnknownEvent DecodeErrorKind = iota
	// SkipLog is a log the handler recognizes but intentionally ignores.
	SkipLog
	// MissingTxHash is a log with an empty transaction hash field.
	MissingTxHash
	// MissingBlockNumber is a log with no block number set.
	MissingBlockNumber
	// InvalidTimestamp is a block/log timestamp that fails to parse.
	InvalidTimestamp
	// Decode is a failure unpacking the event payload itself.
	Decode
	// NumberOverflow is an amount or count that doesn't fit its target type.
	NumberOverflow
	// BatchNotFound is a BatchFinalize referencing a batch never committed.
	BatchNotFound
	// FinalizedBeforeCommit is a BatchFinalize observed before its BatchCommit.
	FinalizedBeforeCommit
)

// DecodeError is the error type every ChainEventHandler.HandleLog implementation
// returns on failure.
type DecodeError struct {
	Kind      DecodeErrorKind
	EventType string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.EventType != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.EventType, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsSoft reports whether this error should drop the single log rather than
// fail the batch.
func (e *DecodeError) IsSoft() bool {
	return e.Kind == UnknownEvent || e.Kind == SkipLog
}

func (k DecodeErrorKind) String() string {
	switch k {
	case UnknownEvent:
		return "unknown_event"
	case SkipLog:
		return "skip_log"
	case MissingTxHash:
		return "missing_tx_hash"
	case MissingBlockNumber:
		return "missing_block_number"
	case InvalidTimestamp:
		return "invalid_timestamp"
	case Decode:
		return "decode"
	case NumberOverflow:
		return "number_overflow"
	case BatchNotFound:
		return "batch_not_found"
	case FinalizedBeforeCommit:
		return "finalized_before_commit"
	default:
		return "unknown"
	}
}
