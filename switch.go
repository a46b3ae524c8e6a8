package simnet

//
// Basic store-and-forward switch: eight-level strict-priority queuing
// with priority-aware tail-drop.
//

// SwitchCounters summarizes a [Switch]'s drop and delivery activity,
// useful for conservation checks and diagnostics.
type SwitchCounters struct {
	Forwarded              int
	DroppedNoForwardingEntry int
	DroppedTailDrop        int
	DroppedPreempted       int
}

// switchPort binds an output port name to the [Link] it serializes onto
// and the name of the entity ([Node] or [Switch]) reachable through it.
type switchPort struct {
	link    *Link
	nextHop string
}

// Switch is a store-and-forward switch with a single shared eight-level
// [PriorityQueue] and a single in-flight transmission slot: at most one
// message is being serialized at any time, regardless of which output
// port it is destined for. The zero value is invalid; use [NewSwitch].
type Switch struct {
	name            string
	network         *Network
	logger          Logger
	forwardingTable map[string]string // dst node name -> port name
	ports           map[string]*switchPort
	queue           *PriorityQueue
	maxQueueSize    *int
	isTransmitting  bool
	counters        SwitchCounters
}

// NewSwitch creates a [Switch] named name, owned by network, with an
// optional maxQueueSize (nil means unbounded). logger may be nil, in
// which case a [NullLogger] is used.
func NewSwitch(name string, network *Network, maxQueueSize *int, logger Logger) *Switch {
	if logger == nil {
		logger = &NullLogger{}
	}
	return &Switch{
		name:            name,
		network:         network,
		logger:          logger,
		forwardingTable: map[string]string{},
		ports:           map[string]*switchPort{},
		queue:           NewPriorityQueue(),
		maxQueueSize:    maxQueueSize,
	}
}

// Name returns the switch's name.
func (s *Switch) Name() string {
	return s.name
}

// Counters returns a snapshot of the switch's drop/forward counters.
func (s *Switch) Counters() SwitchCounters {
	return s.counters
}

// AddLink attaches link as the output for port, which leads to the named
// entity nextHop (a [Node] or [Switch] name registered with the same
// [Network]).
func (s *Switch) AddLink(port string, link *Link, nextHop string) {
	s.ports[port] = &switchPort{link: link, nextHop: nextHop}
}

// SetForwardingEntry routes traffic addressed to dst out of port.
func (s *Switch) SetForwardingEntry(dst string, port string) {
	s.forwardingTable[dst] = port
}

// Receive is the switch's entry point for an arriving message: it looks
// up the outgoing port, applies capacity and priority-aware drop rules,
// enqueues, and kicks off the forwarding loop if the switch is idle.
func (s *Switch) Receive(msg *Message, now float64) {
	port, ok := s.forwardingTable[msg.Dst]
	if !ok {
		msg.markDropped(DropReasonNoForwardingEntry)
		s.counters.DroppedNoForwardingEntry++
		s.network.trackDropped(msg)
		s.logger.Warnf("simnet: switch %s: no forwarding entry for %s", s.name, msg.Dst)
		return
	}
	if !s.admit(msg, port) {
		return
	}
	if !s.isTransmitting {
		s.forwardNext(now)
	}
}

// admit applies the capacity / priority-aware drop policy and, if the
// message survives, enqueues it. It returns false if msg itself ended up
// dropped.
func (s *Switch) admit(msg *Message, port string) bool {
	if s.maxQueueSize != nil && s.queue.Len() >= *s.maxQueueSize {
		plow, _, _, ok := s.queue.PeekLowest()
		if ok && msg.Priority > plow {
			evicted := s.queue.DropLowest()
			evicted.markDropped(DropReasonPreemptedByHigherPriority)
			s.counters.DroppedPreempted++
			s.network.trackDropped(evicted)
		} else {
			msg.markDropped(DropReasonBufferOverflowTailDrop)
			s.counters.DroppedTailDrop++
			s.network.trackDropped(msg)
			return false
		}
	}
	s.queue.Enqueue(msg, port)
	return true
}

// forwardNext dequeues the next message (if any) and starts transmitting
// it on its resolved port's link, scheduling both the delivery event and
// the next forwarding-slot event for when the link becomes free again.
func (s *Switch) forwardNext(now float64) {
	msg, port, ok := s.queue.Dequeue()
	if !ok {
		s.isTransmitting = false
		return
	}
	sp := s.ports[port]
	arrival := sp.link.StartTransmission(now, msg.SizeBytes)
	s.counters.Forwarded++
	dst := sp.nextHop
	s.network.scheduler.Schedule(arrival, func(t float64) {
		s.network.deliver(msg, dst, t)
	})
	busyUntil := sp.link.BusyUntil()
	s.network.scheduler.Schedule(busyUntil, func(t float64) {
		s.forwardNext(t)
	})
	s.isTransmitting = true
}
