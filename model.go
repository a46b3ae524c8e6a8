package simnet

//
// Data model
//

import (
	"errors"
	"fmt"
)

// Priority is a strict-priority level in the range 0..=7, where 7 is
// served ahead of every lower level.
type Priority uint8

// MinPriority and MaxPriority bound the legal range of a [Priority].
const (
	MinPriority = Priority(0)
	MaxPriority = Priority(7)
)

// ErrInvalidPriority indicates a [Priority] outside [MinPriority, MaxPriority].
var ErrInvalidPriority = errors.New("simnet: priority out of range [0, 7]")

// checkPriority validates p, returning [ErrInvalidPriority] if it is out of range.
func checkPriority(p Priority) error {
	if p < MinPriority || p > MaxPriority {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, p)
	}
	return nil
}

// Stream is an immutable periodic source of messages from one node to
// another, with a fixed priority, size, and interval. The zero value is
// invalid; use [NewStream] to construct.
type Stream struct {
	// ID uniquely identifies this stream.
	ID string

	// Priority is the strict-priority level in 0..=7 used by every
	// message this stream generates.
	Priority Priority

	// Src is the name of the originating [Node].
	Src string

	// Dst is the name of the destination [Node].
	Dst string

	// IntervalSec is the time between successive message generations,
	// in simulation seconds. MUST be > 0.
	IntervalSec float64

	// SizeBytes is the size of every message this stream generates.
	// MUST be > 0 (zero-size messages are a valid size, see [Stream.SizeBytes]
	// boundary behavior, but a stream must still generate non-degenerate
	// traffic so callers that want zero-size messages should construct
	// a Message directly rather than through a generator).
	SizeBytes int

	// Description is a human-readable label, used only for diagnostics.
	Description string
}

// NewStream validates its arguments and returns a new [Stream], or an
// error if the configuration is invalid. Construction errors are
// configuration errors per the engine's error-handling policy: they fail
// fast rather than surfacing as a simulation-time event.
func NewStream(id string, priority Priority, src, dst string, intervalSec float64, sizeBytes int, description string) (*Stream, error) {
	if err := checkPriority(priority); err != nil {
		return nil, err
	}
	if intervalSec <= 0 {
		return nil, fmt.Errorf("simnet: stream %s: interval_sec must be > 0", id)
	}
	if sizeBytes <= 0 {
		return nil, fmt.Errorf("simnet: stream %s: size_bytes must be > 0", id)
	}
	if src == "" || dst == "" {
		return nil, fmt.Errorf("simnet: stream %s: src and dst must be set", id)
	}
	return &Stream{
		ID:          id,
		Priority:    priority,
		Src:         src,
		Dst:         dst,
		IntervalSec: intervalSec,
		SizeBytes:   sizeBytes,
		Description: description,
	}, nil
}

// Drop reasons, as specified by the results CSV contract.
const (
	// DropReasonNone means the message was not dropped.
	DropReasonNone = ""

	// DropReasonNoForwardingEntry means a [Switch] had no forwarding-table
	// entry for the message's destination.
	DropReasonNoForwardingEntry = "No forwarding entry"

	// DropReasonBufferOverflowTailDrop means a [Switch] queue was full and
	// the incoming message's priority did not exceed the lowest-priority
	// queued message's, so the incoming message itself was dropped.
	DropReasonBufferOverflowTailDrop = "Buffer overflow (tail drop)"

	// DropReasonPreemptedByHigherPriority means a [Switch] queue was full
	// and a lower-priority queued message was evicted to make room for a
	// higher-priority arrival.
	DropReasonPreemptedByHigherPriority = "Preempted by higher priority"

	// DropReasonBufferOverflow is a generic buffer-overflow reason used by
	// callers outside the queue-capacity path (e.g. an unbounded sink
	// rejecting a message for resource reasons external to this engine).
	DropReasonBufferOverflow = "Buffer overflow"
)

// Message is a single unit of traffic generated by a [Stream]. Messages are
// created by [Node] generators, identified globally by [Message.ID], and
// terminate either at a destination [Node] (arrival recorded) or by being
// dropped somewhere along the path (drop reason recorded).
type Message struct {
	// ID is the simulator-wide unique message identifier.
	ID uint64

	// StreamID is the [Stream.ID] that generated this message.
	StreamID string

	// SeqNum is the 0-based sequence number of this message within its stream.
	SeqNum uint64

	// Priority is copied from the originating stream at creation time.
	Priority Priority

	// Src is the originating node's name.
	Src string

	// Dst is the destination node's name.
	Dst string

	// SizeBytes is the message size in bytes.
	SizeBytes int

	// CreationTime is the simulation time at which the message was generated.
	CreationTime float64

	// ArrivalTime is set exactly once, when the message is delivered to its
	// destination node. It is nil until then, and stays nil forever if the
	// message is dropped.
	ArrivalTime *float64

	// Dropped is true if the message never reached its destination.
	Dropped bool

	// DropReason explains why Dropped is true. Empty when Dropped is false.
	DropReason string
}

// Delay returns the end-to-end delay (ArrivalTime - CreationTime) and true,
// or (0, false) if the message was dropped or has not yet arrived.
func (m *Message) Delay() (float64, bool) {
	if m.ArrivalTime == nil {
		return 0, false
	}
	return *m.ArrivalTime - m.CreationTime, true
}

// markDelivered records a successful delivery at simulation time now.
func (m *Message) markDelivered(now float64) {
	arrival := now
	m.ArrivalTime = &arrival
}

// markDropped records a drop with the given reason. A message MUST NOT be
// marked dropped after having been delivered, and vice versa; callers are
// expected to uphold this since the scheduler is single-threaded and each
// message has exactly one terminal transition.
func (m *Message) markDropped(reason string) {
	m.Dropped = true
	m.DropReason = reason
}
