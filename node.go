package simnet

//
// Stream-driven message generation and arrival sink
//

import "fmt"

// ErrNodeNotConfigured indicates that [Node.AddStream] was called before
// [Node.SetOutputLink] and [Node.SetNextHop]. Per the engine's strict
// configuration policy, a generator with nowhere to send traffic is a
// configuration error rather than a silent no-op.
var ErrNodeNotConfigured = fmt.Errorf("simnet: node has no output link / next hop configured")

// Node is a named endpoint that generates traffic for its outgoing
// [Stream]s and receives traffic addressed to it. The zero value is
// invalid; use [NewNode].
type Node struct {
	name        string
	network     *Network
	logger      Logger
	outputLink  *Link
	nextHop     string
	streams     map[string]*Stream
	seqCounters map[string]uint64
	received    []*Message
}

// NewNode creates a [Node] named name, owned by network. logger may be
// nil, in which case a [NullLogger] is used.
func NewNode(name string, network *Network, logger Logger) *Node {
	if logger == nil {
		logger = &NullLogger{}
	}
	return &Node{
		name:        name,
		network:     network,
		logger:      logger,
		streams:     map[string]*Stream{},
		seqCounters: map[string]uint64{},
	}
}

// Name returns the node's name.
func (n *Node) Name() string {
	return n.name
}

// SetOutputLink configures the [Link] this node transmits on.
func (n *Node) SetOutputLink(link *Link) {
	n.outputLink = link
}

// SetNextHop configures the name of the entity ([Node] or [Switch])
// reachable through the node's output link.
func (n *Node) SetNextHop(name string) {
	n.nextHop = name
}

// Received returns every [Message] this node has successfully received,
// in arrival order.
func (n *Node) Received() []*Message {
	return n.received
}

// AddStream registers stream as one this node originates, and schedules
// its first generation event at startTime. stream.Src MUST equal the
// node's name. The node MUST already have an output link and next hop
// configured (see [ErrNodeNotConfigured]), per the strict resolution of
// the spec's open question about unconfigured generators.
func (n *Node) AddStream(stream *Stream, startTime float64) error {
	if stream.Src != n.name {
		return fmt.Errorf("simnet: node %s: stream %s has src %s", n.name, stream.ID, stream.Src)
	}
	if n.outputLink == nil || n.nextHop == "" {
		return ErrNodeNotConfigured
	}
	n.streams[stream.ID] = stream
	n.seqCounters[stream.ID] = 0
	n.network.scheduler.Schedule(startTime, func(now float64) {
		n.generate(stream, now)
	})
	return nil
}

// generate fires one message for stream at simulation time now, then
// reschedules itself for stream.IntervalSec later, unless now has already
// reached the simulation's configured duration.
func (n *Node) generate(stream *Stream, now float64) {
	if now >= n.network.simDuration {
		return
	}
	seq := n.seqCounters[stream.ID]
	n.seqCounters[stream.ID] = seq + 1

	msg := &Message{
		ID:           n.network.nextMsgID(),
		StreamID:     stream.ID,
		SeqNum:       seq,
		Priority:     stream.Priority,
		Src:          stream.Src,
		Dst:          stream.Dst,
		SizeBytes:    stream.SizeBytes,
		CreationTime: now,
	}
	n.network.trackGenerated(msg)

	arrival := n.outputLink.StartTransmission(now, msg.SizeBytes)
	n.network.scheduler.Schedule(arrival, func(t float64) {
		n.network.deliver(msg, n.nextHop, t)
	})
	n.network.scheduler.Schedule(now+stream.IntervalSec, func(t float64) {
		n.generate(stream, t)
	})
}

// Receive records the successful arrival of msg at simulation time now.
// This is the terminal state for a message: it is appended to the node's
// receive log and the network's completed-messages sink.
func (n *Node) Receive(msg *Message, now float64) {
	msg.markDelivered(now)
	n.received = append(n.received, msg)
	n.network.trackCompleted(msg)
}
