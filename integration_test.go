package simnet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScenarioS1SingleLinkSerialization: a single sender on a slow link
// generating faster than the link can serialize builds up a serialization
// backlog, and every message still arrives in order with increasing delay.
func TestScenarioS1SingleLinkSerialization(t *testing.T) {
	net := newTestNetwork(t, 0.5)
	a := Must1(net.AddNode("A"))
	b := Must1(net.AddNode("B"))

	link := MustNewLink(&LinkConfig{BandwidthBps: 8e4, PropagationSec: 0.001}) // 10000 B/s
	a.SetOutputLink(link)
	a.SetNextHop("B")

	// 1000-byte messages every 0.01s (0.1s to serialize) -> backlog grows.
	stream := Must1(NewStream("s1", 0, "A", "B", 0.01, 1000, ""))
	require.NoError(t, net.AddStream(stream, 0))

	net.Run()

	received := b.Received()
	require.Greater(t, len(received), 1)
	var lastDelay float64
	for i, m := range received {
		require.False(t, m.Dropped)
		delay, ok := m.Delay()
		require.True(t, ok)
		if i > 0 {
			require.GreaterOrEqual(t, delay, lastDelay)
		}
		lastDelay = delay
		require.Equal(t, uint64(i), m.SeqNum)
	}
}

// TestScenarioS2StrictPriorityAtSwitch: a high-priority and a low-priority
// stream converge on a congested switch; the high-priority stream's
// messages are consistently served ahead of queued low-priority ones.
func TestScenarioS2StrictPriorityAtSwitch(t *testing.T) {
	net := newTestNetwork(t, 0.2)
	a := Must1(net.AddNode("A"))
	b := Must1(net.AddNode("B"))
	c := Must1(net.AddNode("C"))

	fastLink := func() *Link { return MustNewLink(&LinkConfig{BandwidthBps: 1e9}) }
	a.SetOutputLink(fastLink())
	a.SetNextHop("SW")
	b.SetOutputLink(fastLink())
	b.SetNextHop("SW")

	maxQueue := 1000
	sw := Must1(net.AddSwitch("SW", &maxQueue))
	slow := MustNewLink(&LinkConfig{BandwidthBps: 8e5}) // 100000 B/s, serialized output
	sw.AddLink("toC", slow, "C")
	sw.SetForwardingEntry("C", "toC")

	high := Must1(NewStream("high", 7, "A", "C", 0.001, 5000, ""))
	low := Must1(NewStream("low", 1, "B", "C", 0.001, 5000, ""))
	require.NoError(t, net.AddStream(high, 0))
	require.NoError(t, net.AddStream(low, 0))

	net.Run()

	_ = c
	var highDelays, lowDelays []float64
	for _, m := range c.Received() {
		delay, ok := m.Delay()
		require.True(t, ok)
		if m.StreamID == "high" {
			highDelays = append(highDelays, delay)
		} else {
			lowDelays = append(lowDelays, delay)
		}
	}
	require.NotEmpty(t, highDelays)
	require.NotEmpty(t, lowDelays)

	meanHigh := mean(highDelays)
	meanLow := mean(lowDelays)
	require.Less(t, meanHigh, meanLow)
}

// TestScenarioS3PriorityAwareTailDrop: a bounded switch queue under
// overload drops low-priority traffic via eviction to make room for
// higher-priority arrivals, rather than blindly tail-dropping everything.
func TestScenarioS3PriorityAwareTailDrop(t *testing.T) {
	net := newTestNetwork(t, 0.05)
	a := Must1(net.AddNode("A"))
	b := Must1(net.AddNode("B"))
	c := Must1(net.AddNode("C"))

	fastLink := func() *Link { return MustNewLink(&LinkConfig{BandwidthBps: 1e9}) }
	a.SetOutputLink(fastLink())
	a.SetNextHop("SW")
	b.SetOutputLink(fastLink())
	b.SetNextHop("SW")

	maxQueue := 2
	sw := Must1(net.AddSwitch("SW", &maxQueue))
	slow := MustNewLink(&LinkConfig{BandwidthBps: 1e5})
	sw.AddLink("toC", slow, "C")
	sw.SetForwardingEntry("C", "toC")

	high := Must1(NewStream("high", 7, "A", "C", 0.001, 5000, ""))
	low := Must1(NewStream("low", 0, "B", "C", 0.001, 5000, ""))
	require.NoError(t, net.AddStream(high, 0))
	require.NoError(t, net.AddStream(low, 0))

	net.Run()

	require.Greater(t, sw.Counters().DroppedPreempted+sw.Counters().DroppedTailDrop, 0)

	droppedLow, droppedHigh := 0, 0
	for _, m := range net.AllMessages() {
		if !m.Dropped {
			continue
		}
		if m.StreamID == "low" {
			droppedLow++
		} else {
			droppedHigh++
		}
	}
	require.Greater(t, droppedLow, droppedHigh)
}

// TestScenarioS4PreemptionEnabled: with preemption enabled, a small
// high-priority message arriving mid-transmission of a large low-priority
// frame preempts it and is delivered long before that frame's full
// serialization time would have elapsed.
func TestScenarioS4PreemptionEnabled(t *testing.T) {
	net := newTestNetwork(t, 1)
	a := Must1(net.AddNode("A"))
	c := Must1(net.AddNode("C"))
	a.SetOutputLink(MustNewLink(&LinkConfig{BandwidthBps: 1e9}))
	a.SetNextHop("SW")

	sw := Must1(net.AddPreemptiveSwitch("SW", nil, &PreemptionConfig{
		Enabled:                  true,
		MinPreemptionIntervalSec: 0,
		PriorityDiffThreshold:    2,
	}))
	link := MustNewLink(&LinkConfig{BandwidthBps: 1e6})
	sw.AddLink("toC", link, "C")
	sw.SetForwardingEntry("C", "toC")

	bigLow := &Message{ID: 1, Dst: "C", SizeBytes: 100000, Priority: 0, CreationTime: 0}
	sw.Receive(bigLow, 0)
	smallHigh := &Message{ID: 2, Dst: "C", SizeBytes: 100, Priority: 7, CreationTime: 0.01}
	sw.Receive(smallHigh, 0.01)

	net.Run()

	require.Equal(t, 1, sw.PreemptionCounters().PreemptionCount)
	delay, ok := smallHigh.Delay()
	require.True(t, ok)
	// delivered shortly after preemption, nowhere near the full 0.8s it
	// would have taken to wait out bigLow's undisturbed transmission.
	require.Less(t, delay, 0.1)
	_ = c
}

// TestScenarioS5PreemptionDisabledParity: a switch with preemption
// configured but disabled behaves identically to a basic [Switch] given the
// same arrivals.
func TestScenarioS5PreemptionDisabledParity(t *testing.T) {
	build := func(net *Network, preemptive bool) (receiver, *Node) {
		c := Must1(net.AddNode("C"))
		link := MustNewLink(&LinkConfig{BandwidthBps: 1e6})
		if !preemptive {
			basic := Must1(net.AddSwitch("SW", nil))
			basic.AddLink("toC", link, "C")
			basic.SetForwardingEntry("C", "toC")
			return basic, c
		}
		var sw receiver
		if psw, err := net.AddPreemptiveSwitch("SW", nil, &PreemptionConfig{Enabled: false}); err == nil {
			psw.AddLink("toC", link, "C")
			psw.SetForwardingEntry("C", "toC")
			sw = psw
		}
		return sw, c
	}

	net1 := newTestNetwork(t, 1)
	sw1, c1 := build(net1, true)
	m1a := &Message{ID: 1, Dst: "C", SizeBytes: 5000, Priority: 1}
	m1b := &Message{ID: 2, Dst: "C", SizeBytes: 100, Priority: 7}
	sw1.Receive(m1a, 0)
	sw1.Receive(m1b, 0.001)
	net1.Run()

	net2 := newTestNetwork(t, 1)
	sw2, c2 := build(net2, false)
	m2a := &Message{ID: 1, Dst: "C", SizeBytes: 5000, Priority: 1}
	m2b := &Message{ID: 2, Dst: "C", SizeBytes: 100, Priority: 7}
	sw2.Receive(m2a, 0)
	sw2.Receive(m2b, 0.001)
	net2.Run()

	require.Equal(t, len(c1.Received()), len(c2.Received()))
	for i := range c1.Received() {
		d1, _ := c1.Received()[i].Delay()
		d2, _ := c2.Received()[i].Delay()
		require.InDelta(t, d1, d2, 1e-12)
	}
}

// TestScenarioS6ConservationOnCongestedTree builds a tree of 7 nodes and 4
// switches (one root switch feeding a shared receiver node, and three leaf
// switches under it, each serving two sender nodes) under heavy overload and checks the conservation
// invariant: every generated message is accounted for as either delivered
// or dropped, exactly once.
func TestScenarioS6ConservationOnCongestedTree(t *testing.T) {
	net := newTestNetwork(t, 0.2)

	root := Must1(net.AddSwitch("root", intPtr(4)))
	rx := Must1(net.AddNode("receiver"))
	rootToReceiver := MustNewLink(&LinkConfig{BandwidthBps: 2e6})
	root.AddLink("out", rootToReceiver, "receiver")
	root.SetForwardingEntry("receiver", "out")

	leafNames := []string{"leaf0", "leaf1", "leaf2"}
	var senders []*Node
	for _, leafName := range leafNames {
		leaf := Must1(net.AddSwitch(leafName, intPtr(4)))
		leafToRoot := MustNewLink(&LinkConfig{BandwidthBps: 1e6})
		leaf.AddLink("up", leafToRoot, "root")
		leaf.SetForwardingEntry("receiver", "up")

		for i := 0; i < 2; i++ {
			name := leafName + "-sender" + string(rune('a'+i))
			n := Must1(net.AddNode(name))
			n.SetOutputLink(MustNewLink(&LinkConfig{BandwidthBps: 5e5}))
			n.SetNextHop(leafName)
			senders = append(senders, n)

			stream := Must1(NewStream(name+"-s", Priority(i*3), name, "receiver", 0.002, 2000, ""))
			require.NoError(t, net.AddStream(stream, 0))
		}
	}

	net.Run()

	totalGenerated := len(net.AllMessages())
	require.Equal(t, totalGenerated, net.CompletedCount()+net.DroppedCount())

	accounted := 0
	for _, m := range net.AllMessages() {
		if m.Dropped {
			require.NotEmpty(t, m.DropReason)
			accounted++
		} else if _, ok := m.Delay(); ok {
			accounted++
		}
	}
	require.Equal(t, totalGenerated, accounted)
	require.Greater(t, len(rx.Received()), 0)
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func intPtr(v int) *int { return &v }
