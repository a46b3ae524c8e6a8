package simnet

//
// Network facade: owns the topology registries, runs the scheduler, and
// aggregates per-message and per-stream telemetry.
//

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// receiver is satisfied by every entity that can be the target of
// [Network.deliver]: [Node] and [Switch] (including [PreemptiveSwitch],
// which embeds [Switch] and overrides Receive).
type receiver interface {
	Receive(msg *Message, now float64)
}

// NetworkConfig contains config for creating a [Network]. Make sure you
// initialize SimDurationSec.
type NetworkConfig struct {
	// SimDurationSec is the MANDATORY simulation duration, in seconds.
	// MUST be > 0.
	SimDurationSec float64

	// Logger is the OPTIONAL logger to use. Defaults to [NullLogger].
	Logger Logger
}

// Network is the simulation facade: it owns every [Node], [Switch], and
// [Stream], the global [Scheduler], and the message-id allocator, and it
// aggregates completed/dropped messages into per-stream and global
// telemetry. The zero value is invalid; use [NewNetwork].
type Network struct {
	logger      Logger
	scheduler   *Scheduler
	simDuration float64

	nodes     map[string]*Node
	switches  map[string]*Switch
	receivers map[string]receiver
	streams   map[string]*Stream

	msgIDSeq uint64

	allMessages    []*Message
	byStream       map[string][]*Message
	completedCount int
	droppedCount   int
}

// NewNetwork validates cfg and returns a new, empty [Network].
func NewNetwork(cfg *NetworkConfig) (*Network, error) {
	if cfg.SimDurationSec <= 0 {
		return nil, fmt.Errorf("simnet: network: sim_duration_sec must be > 0")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &NullLogger{}
	}
	return &Network{
		logger:      logger,
		scheduler:   NewScheduler(logger),
		simDuration: cfg.SimDurationSec,
		nodes:       map[string]*Node{},
		switches:    map[string]*Switch{},
		receivers:   map[string]receiver{},
		streams:     map[string]*Stream{},
		byStream:    map[string][]*Message{},
	}, nil
}

// MustNewNetwork is like [NewNetwork] but panics on error.
func MustNewNetwork(cfg *NetworkConfig) *Network {
	return Must1(NewNetwork(cfg))
}

// SimDuration returns the configured simulation duration, in seconds.
func (n *Network) SimDuration() float64 {
	return n.simDuration
}

// Scheduler returns the network's [Scheduler], for advanced callers (e.g.
// tests) that need to schedule auxiliary events directly.
func (n *Network) Scheduler() *Scheduler {
	return n.scheduler
}

// AddNode creates and registers a new [Node] named name.
func (n *Network) AddNode(name string) (*Node, error) {
	if err := n.checkNameAvailable(name); err != nil {
		return nil, err
	}
	node := NewNode(name, n, n.logger)
	n.nodes[name] = node
	n.receivers[name] = node
	return node, nil
}

// AddSwitch creates and registers a new basic [Switch] named name, with
// an optional maxQueueSize (nil means unbounded).
func (n *Network) AddSwitch(name string, maxQueueSize *int) (*Switch, error) {
	if err := n.checkNameAvailable(name); err != nil {
		return nil, err
	}
	sw := NewSwitch(name, n, maxQueueSize, n.logger)
	n.switches[name] = sw
	n.receivers[name] = sw
	return sw, nil
}

// AddPreemptiveSwitch creates and registers a new [PreemptiveSwitch] named
// name, with an optional maxQueueSize (nil means unbounded) and the given
// preemption configuration.
func (n *Network) AddPreemptiveSwitch(name string, maxQueueSize *int, pcfg *PreemptionConfig) (*PreemptiveSwitch, error) {
	if err := n.checkNameAvailable(name); err != nil {
		return nil, err
	}
	sw := NewPreemptiveSwitch(name, n, maxQueueSize, pcfg, n.logger)
	n.switches[name] = sw.Switch
	n.receivers[name] = sw
	return sw, nil
}

func (n *Network) checkNameAvailable(name string) error {
	if _, ok := n.receivers[name]; ok {
		return fmt.Errorf("simnet: network: name %q already registered", name)
	}
	return nil
}

// AddStream registers stream (which MUST have already been validated by
// [NewStream]) and schedules its first message generation at startTime on
// its source [Node].
func (n *Network) AddStream(stream *Stream, startTime float64) error {
	node, ok := n.nodes[stream.Src]
	if !ok {
		return fmt.Errorf("simnet: network: stream %s: no such source node %q", stream.ID, stream.Src)
	}
	if _, dup := n.streams[stream.ID]; dup {
		return fmt.Errorf("simnet: network: duplicate stream id %q", stream.ID)
	}
	n.streams[stream.ID] = stream
	n.byStream[stream.ID] = nil
	return node.AddStream(stream, startTime)
}

// Run executes the simulation to completion (or until simulation time
// exceeds the configured duration).
func (n *Network) Run() {
	n.scheduler.Run(n.simDuration)
}

// nextMsgID allocates the next globally-unique message id.
func (n *Network) nextMsgID() uint64 {
	n.msgIDSeq++
	return n.msgIDSeq
}

// trackGenerated records a newly-generated message for later aggregation.
func (n *Network) trackGenerated(msg *Message) {
	n.allMessages = append(n.allMessages, msg)
	n.byStream[msg.StreamID] = append(n.byStream[msg.StreamID], msg)
}

// trackCompleted records that msg reached its destination.
func (n *Network) trackCompleted(msg *Message) {
	n.completedCount++
}

// trackDropped records that msg was dropped somewhere along its path.
func (n *Network) trackDropped(msg *Message) {
	n.droppedCount++
}

// deliver dispatches msg to the entity registered under dstName. An
// unknown destination is a routing error: the message is dropped and a
// warning is logged, but the simulation continues (see spec §7).
func (n *Network) deliver(msg *Message, dstName string, now float64) {
	r, ok := n.receivers[dstName]
	if !ok {
		msg.markDropped(DropReasonNoForwardingEntry)
		n.trackDropped(msg)
		n.logger.Warnf("simnet: network: deliver: unknown destination %q", dstName)
		return
	}
	r.Receive(msg, now)
}

// AllMessages returns every message generated during the run, in
// generation order, whether it was delivered or dropped. This is exactly
// the set of rows the results CSV must contain.
func (n *Network) AllMessages() []*Message {
	return n.allMessages
}

// CompletedCount and DroppedCount return the running totals tracked by
// the network; their sum is the conservation invariant of spec §8.5.
func (n *Network) CompletedCount() int { return n.completedCount }
func (n *Network) DroppedCount() int   { return n.droppedCount }

// StreamStats summarizes delay, jitter, throughput, and delivery counts
// for a single stream.
type StreamStats struct {
	StreamID string

	Delivered int
	Dropped   int

	MeanDelayMs float64
	MinDelayMs  float64
	MaxDelayMs  float64
	MeanJitterMs float64

	ThroughputMbps float64
}

// StreamStats computes [StreamStats] for the stream identified by
// streamID, or an error if no such stream was registered.
func (n *Network) StreamStats(streamID string) (*StreamStats, error) {
	msgs, ok := n.byStream[streamID]
	if !ok {
		return nil, fmt.Errorf("simnet: network: no such stream %q", streamID)
	}

	result := &StreamStats{StreamID: streamID}
	var delaysMs []float64
	var sumBytes int
	haveBounds := false
	var firstCreation, lastArrival float64

	for _, m := range msgs {
		if m.Dropped {
			result.Dropped++
			continue
		}
		delay, ok := m.Delay()
		if !ok {
			// still in flight when the run ended; not delivered, not
			// dropped -- excluded from both counts and stats.
			continue
		}
		result.Delivered++
		delaysMs = append(delaysMs, delay*1000)
		sumBytes += m.SizeBytes
		if !haveBounds {
			firstCreation, lastArrival = m.CreationTime, *m.ArrivalTime
			haveBounds = true
		} else {
			if m.CreationTime < firstCreation {
				firstCreation = m.CreationTime
			}
			if *m.ArrivalTime > lastArrival {
				lastArrival = *m.ArrivalTime
			}
		}
	}

	if len(delaysMs) > 0 {
		result.MeanDelayMs, _ = stats.Mean(delaysMs)
		result.MinDelayMs, _ = stats.Min(delaysMs)
		result.MaxDelayMs, _ = stats.Max(delaysMs)
		result.MeanJitterMs = meanAbsSuccessiveDiff(delaysMs)
	}
	if haveBounds && lastArrival > firstCreation {
		result.ThroughputMbps = (8 * float64(sumBytes)) / (lastArrival - firstCreation) / 1e6
	}
	return result, nil
}

// meanAbsSuccessiveDiff computes the mean of |x[i] - x[i-1]| over
// consecutive elements, i.e. the jitter formula of spec §4.7. It is not a
// primitive offered by github.com/montanaflynn/stats, so it is computed
// directly.
func meanAbsSuccessiveDiff(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(xs); i++ {
		sum += math.Abs(xs[i] - xs[i-1])
	}
	return sum / float64(len(xs)-1)
}

// GlobalStats summarizes totals across every registered stream.
type GlobalStats struct {
	TotalDelivered int
	TotalDropped   int
	PerStream      map[string]*StreamStats
}

// GlobalStats computes [GlobalStats] across every registered stream.
func (n *Network) GlobalStats() *GlobalStats {
	g := &GlobalStats{PerStream: map[string]*StreamStats{}}
	for id := range n.streams {
		st, err := n.StreamStats(id)
		if err != nil {
			continue
		}
		g.PerStream[id] = st
		g.TotalDelivered += st.Delivered
		g.TotalDropped += st.Dropped
	}
	return g
}
