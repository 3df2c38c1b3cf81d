package workflow

import (
	"errors"
	"fmt"
)

// Kind categorizes a run failure by the contract that was broken.
type Kind string

const (
	// KindClassification reports that the oracle produced no valid label
	// for a routing or disambiguation decision.
	KindClassification Kind = "classification"

	// KindExtraction reports that the oracle could not produce well-formed
	// structured fields (email fields, meeting time, file path).
	KindExtraction Kind = "extraction"

	// KindAuth reports a credential acquisition, refresh or persist failure.
	KindAuth Kind = "auth"

	// KindSend reports a mail transport failure.
	KindSend Kind = "send"

	// KindSort reports a failure while listing or labeling mail.
	KindSort Kind = "sort"

	// KindSchedule reports a calendar API failure.
	KindSchedule Kind = "schedule"

	// KindTranscription reports a failure reading or transcribing audio.
	KindTranscription Kind = "transcription"

	// KindSearch reports a web search failure.
	KindSearch Kind = "search"
)

// Error is a run failure annotated with its kind and the node it originated
// from. Node-level errors abort the run at that node; there is no automatic
// retry, and side effects already committed are not undone.
type Error struct {
	Kind Kind
	Node NodeID
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("node %s: %s error: %v", e.Node, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" if err is not a workflow error.
func KindOf(err error) Kind {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return ""
}

// nodeErr wraps err with the failing node and error kind.
func nodeErr(node NodeID, kind Kind, err error) error {
	return &Error{Kind: kind, Node: node, Err: err}
}
