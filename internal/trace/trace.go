// Package trace records a canonical, deterministic account of a
// scheduling run: which reach reached which terminal disposition, and
// why. Narrowed from a generic build-cache execution-trace engine's task
// events down to the five dispositions a reach can reach.
//
// Invariants carried over unchanged:
//   - No timestamps, pointers, or other runtime-dependent values: two
//     runs of the same catchment under different worker counts must
//     produce byte-identical canonical traces.
//   - Events are canonicalized into a total order before hashing, so the
//     trace is independent of dispatch or goroutine scheduling order.
package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ReachTrace is the canonical, deterministic record of one scheduling
// run.
type ReachTrace struct {
	CatchmentHash string
	Events        []ReachEvent
}

// ReachEventKind is the stable, canonical discriminator for ReachEvent.
// The string values are part of the trace's canonical bytes; do not
// rename them independently of a deliberate format change.
type ReachEventKind string

const (
	EventReachInitialized ReachEventKind = "ReachInitialized"
	EventReachSkipped     ReachEventKind = "ReachSkipped"
	EventReachCompleted   ReachEventKind = "ReachCompleted"
	EventReachFailed      ReachEventKind = "ReachFailed"
	EventReachCleaned     ReachEventKind = "ReachCleaned"
)

// ReachEvent is a single logical disposition reached by one reach.
type ReachEvent struct {
	Kind ReachEventKind

	// ReachID identifies the reach this event refers to. Required.
	ReachID string

	// Reason is a stable, logical reason code (e.g. "SkipExist",
	// "UpstreamFailed"). The set of allowed values is open; producers
	// must keep them stable across runs.
	Reason string

	// CauseReachID records a related upstream reach, e.g. the reach
	// whose failure propagated an UpstreamError.
	CauseReachID string
}

// Validate checks basic invariants and returns a descriptive error.
func (t *ReachTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.CatchmentHash == "" {
		return errors.New("catchmentHash is required")
	}
	for i := range t.Events {
		e := t.Events[i]
		if e.Kind == "" {
			return fmt.Errorf("events[%d].kind is required", i)
		}
		if e.ReachID == "" {
			return fmt.Errorf("events[%d].reachId is required for kind %q", i, e.Kind)
		}
	}
	return nil
}

// Canonicalize sorts the trace into its canonical form: a total order
// over events keyed by (reachId, kindOrder, reason, causeReachId),
// independent of the order events were recorded in.
func (t *ReachTrace) Canonicalize() {
	if t == nil {
		return
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		a := t.Events[i]
		b := t.Events[j]

		if a.ReachID != b.ReachID {
			return a.ReachID < b.ReachID
		}
		if kindOrder(a.Kind) != kindOrder(b.Kind) {
			return kindOrder(a.Kind) < kindOrder(b.Kind)
		}
		if a.Reason != b.Reason {
			return a.Reason < b.Reason
		}
		return a.CauseReachID < b.CauseReachID
	})
}

func kindOrder(k ReachEventKind) int {
	switch k {
	case EventReachInitialized:
		return 10
	case EventReachSkipped:
		return 20
	case EventReachCompleted:
		return 30
	case EventReachFailed:
		return 40
	case EventReachCleaned:
		return 50
	default:
		return 1000
	}
}

// CanonicalJSON returns the canonical JSON encoding of the trace. It
// canonicalizes a copy of the trace to avoid mutating the caller's
// slice.
func (t ReachTrace) CanonicalJSON() ([]byte, error) {
	cp := ReachTrace{CatchmentHash: t.CatchmentHash}
	cp.Events = make([]ReachEvent, len(t.Events))
	copy(cp.Events, t.Events)
	cp.Canonicalize()
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&cp)
}

// Hash returns the deterministic trace hash (sha256 hex) of the
// canonical JSON bytes.
func (t ReachTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}

// MarshalJSON fixes field order so the canonical bytes are stable
// regardless of struct field declaration order.
func (t ReachTrace) MarshalJSON() ([]byte, error) {
	if t.CatchmentHash == "" {
		return nil, errors.New("catchmentHash is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString("\"catchmentHash\":")
	gh, _ := json.Marshal(t.CatchmentHash)
	buf.Write(gh)
	buf.WriteByte(',')

	buf.WriteString("\"events\":[")
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteByte(']')

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON fixes field order and omits absent optional fields.
func (e ReachEvent) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString("\"kind\":")
	kb, _ := json.Marshal(string(e.Kind))
	buf.Write(kb)

	buf.WriteByte(',')
	buf.WriteString("\"reachId\":")
	rb, _ := json.Marshal(e.ReachID)
	buf.Write(rb)

	if e.Reason != "" {
		buf.WriteByte(',')
		buf.WriteString("\"reason\":")
		reb, _ := json.Marshal(e.Reason)
		buf.Write(reb)
	}

	if e.CauseReachID != "" {
		buf.WriteByte(',')
		buf.WriteString("\"causeReachId\":")
		cb, _ := json.Marshal(e.CauseReachID)
		buf.Write(cb)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
