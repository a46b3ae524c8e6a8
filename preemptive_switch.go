package simnet

//
// PreemptiveSwitch: extends Switch with a pause/resume transmission state
// machine that lets a higher-priority arrival interrupt an in-flight,
// lower-priority frame.
//

import (
	"math"
	"sort"
)

// Defaults for [PreemptionConfig], per spec.
const (
	// DefaultMinPreemptionIntervalSec is the minimum time that must
	// elapse between two preemptions on the same switch.
	DefaultMinPreemptionIntervalSec = 0.001

	// DefaultPriorityDiffThreshold is the minimum priority gap required
	// for an arrival to preempt the in-flight transmission.
	DefaultPriorityDiffThreshold = 2
)

// PreemptionConfig configures a [PreemptiveSwitch]'s preemption policy.
type PreemptionConfig struct {
	// Enabled turns preemption on or off. When false, the switch behaves
	// exactly like a basic [Switch].
	Enabled bool

	// MinPreemptionIntervalSec is the OPTIONAL minimum time between two
	// preemptions on this switch. Zero or negative selects
	// [DefaultMinPreemptionIntervalSec].
	MinPreemptionIntervalSec float64

	// PriorityDiffThreshold is the OPTIONAL minimum priority gap (arrival
	// priority minus in-flight priority) required to trigger a
	// preemption. Zero or negative selects [DefaultPriorityDiffThreshold].
	PriorityDiffThreshold int
}

// currentTransmission describes the frame presently occupying a
// [PreemptiveSwitch]'s single transmission slot.
type currentTransmission struct {
	message          *Message
	port             string
	link             *Link
	startTime        float64
	bytesTransmitted int // bytes already accounted for before this segment started (0 unless resumed)
	completionHandle EventHandle
	slotHandle       EventHandle
	resumed          bool
}

// pausedTransmission describes a frame that was interrupted mid-flight
// and is waiting to be resumed.
type pausedTransmission struct {
	message   *Message
	port      string
	link      *Link
	bytesDone int
	bytesLeft int
	pausedAt  float64
}

// PreemptionCounters summarizes a [PreemptiveSwitch]'s preemption activity.
type PreemptionCounters struct {
	PreemptionCount      int
	PreemptionOverheadMs float64
}

// PreemptiveSwitch extends [Switch] with the ability to pause an
// in-flight, lower-priority transmission in favor of a sufficiently
// higher-priority arrival, then resume the paused remainder later. At
// most one transmission is ever in flight (the embedded [Switch]'s
// isTransmitting/queue invariants still hold); once the slot frees up,
// forwardNext resumes a paused transmission only if it is not
// outranked by the queue's current head, so a fresh higher-priority
// arrival is never starved behind already-paused work. The zero value
// is invalid; use [NewPreemptiveSwitch].
type PreemptiveSwitch struct {
	*Switch

	preemptionEnabled        bool
	minPreemptionIntervalSec float64
	priorityDiffThreshold    int
	lastPreemptionTime       float64

	current *currentTransmission
	paused  []*pausedTransmission

	preemptionCounters PreemptionCounters
}

// NewPreemptiveSwitch creates a [PreemptiveSwitch] named name, owned by
// network, with an optional maxQueueSize (nil means unbounded) and the
// given preemption policy. pcfg may be nil to disable preemption with
// default thresholds. logger may be nil, in which case a [NullLogger] is
// used.
func NewPreemptiveSwitch(name string, network *Network, maxQueueSize *int, pcfg *PreemptionConfig, logger Logger) *PreemptiveSwitch {
	if pcfg == nil {
		pcfg = &PreemptionConfig{}
	}
	minInterval := pcfg.MinPreemptionIntervalSec
	if minInterval <= 0 {
		minInterval = DefaultMinPreemptionIntervalSec
	}
	threshold := pcfg.PriorityDiffThreshold
	if threshold <= 0 {
		threshold = DefaultPriorityDiffThreshold
	}
	return &PreemptiveSwitch{
		Switch:                   NewSwitch(name, network, maxQueueSize, logger),
		preemptionEnabled:        pcfg.Enabled,
		minPreemptionIntervalSec: minInterval,
		priorityDiffThreshold:    threshold,
	}
}

// PreemptionCounters returns a snapshot of the switch's preemption activity.
func (ps *PreemptiveSwitch) PreemptionCounters() PreemptionCounters {
	return ps.preemptionCounters
}

// Receive is the preemptive switch's entry point: it checks whether the
// arriving message should preempt the in-flight transmission before
// applying the usual capacity / priority-aware drop policy.
func (ps *PreemptiveSwitch) Receive(msg *Message, now float64) {
	port, ok := ps.forwardingTable[msg.Dst]
	if !ok {
		msg.markDropped(DropReasonNoForwardingEntry)
		ps.counters.DroppedNoForwardingEntry++
		ps.network.trackDropped(msg)
		ps.logger.Warnf("simnet: switch %s: no forwarding entry for %s", ps.name, msg.Dst)
		return
	}

	if ps.preemptionEnabled && ps.current != nil {
		diff := int(msg.Priority) - int(ps.current.message.Priority)
		dt := now - ps.lastPreemptionTime
		if diff >= ps.priorityDiffThreshold && dt >= ps.minPreemptionIntervalSec {
			ps.preempt(now)
			ps.lastPreemptionTime = now
		}
	}

	if !ps.admit(msg, port) {
		return
	}
	if !ps.isTransmitting {
		ps.forwardNext(now)
	}
}

// preempt interrupts the in-flight transmission: it cancels both of its
// pending events, computes how many bytes were actually serialized,
// frees the link immediately, and parks the remainder in paused.
func (ps *PreemptiveSwitch) preempt(now float64) {
	cur := ps.current
	cur.completionHandle.Cancel()
	cur.slotHandle.Cancel()

	elapsed := now - cur.startTime
	bytesDone := cur.bytesTransmitted + int(math.Floor(elapsed*cur.link.BandwidthBps()/8))
	if bytesDone > cur.message.SizeBytes {
		bytesDone = cur.message.SizeBytes
	}
	if bytesDone < 0 {
		bytesDone = 0
	}
	bytesLeft := cur.message.SizeBytes - bytesDone

	cur.link.resetBusyUntil(now)

	ps.paused = append(ps.paused, &pausedTransmission{
		message:   cur.message,
		port:      cur.port,
		link:      cur.link,
		bytesDone: bytesDone,
		bytesLeft: bytesLeft,
		pausedAt:  now,
	})
	ps.current = nil
	ps.isTransmitting = false
	ps.preemptionCounters.PreemptionCount++
}

// forwardNext picks whichever of (best paused transmission, queue head)
// has the higher priority, so a fresh higher-priority arrival is not
// starved behind a paused frame, and the paused frame does not starve
// behind the queue when its priority is at least as high. Ties favor
// the paused transmission, since it already holds partial progress.
func (ps *PreemptiveSwitch) forwardNext(now float64) {
	if len(ps.paused) > 0 {
		sort.SliceStable(ps.paused, func(i, j int) bool {
			return ps.paused[i].message.Priority > ps.paused[j].message.Priority
		})
		headPriority, _, _, queueHasHead := ps.queue.PeekHighest()
		if !queueHasHead || ps.paused[0].message.Priority >= headPriority {
			p := ps.paused[0]
			ps.paused = ps.paused[1:]
			ps.resume(p, now)
			return
		}
	}

	msg, port, ok := ps.queue.Dequeue()
	if !ok {
		ps.isTransmitting = false
		return
	}
	sp := ps.ports[port]
	arrival := sp.link.StartTransmission(now, msg.SizeBytes)

	cur := &currentTransmission{
		message:   msg,
		port:      port,
		link:      sp.link,
		startTime: now,
	}
	dst := sp.nextHop
	cur.completionHandle = ps.network.scheduler.Schedule(arrival, func(t float64) {
		ps.onCompletion(cur, dst, t)
	})
	busyUntil := sp.link.BusyUntil()
	cur.slotHandle = ps.network.scheduler.Schedule(busyUntil, func(t float64) {
		ps.onSlot(t)
	})
	ps.current = cur
	ps.isTransmitting = true
}

// resume restarts transmission of a previously-paused frame's remaining
// bytes, accumulating the preemption overhead the frame incurred while
// parked.
func (ps *PreemptiveSwitch) resume(p *pausedTransmission, now float64) {
	completion := p.link.StartTransmission(now, p.bytesLeft)
	ps.preemptionCounters.PreemptionOverheadMs += (now - p.pausedAt) * 1000

	cur := &currentTransmission{
		message:          p.message,
		port:             p.port,
		link:             p.link,
		startTime:        now,
		bytesTransmitted: p.bytesDone,
		resumed:          true,
	}
	dst := ps.ports[p.port].nextHop
	cur.completionHandle = ps.network.scheduler.Schedule(completion, func(t float64) {
		ps.onCompletion(cur, dst, t)
	})
	busyUntil := p.link.BusyUntil()
	cur.slotHandle = ps.network.scheduler.Schedule(busyUntil, func(t float64) {
		ps.onSlot(t)
	})
	ps.current = cur
	ps.isTransmitting = true
}

// onCompletion fires when a transmission (fresh or resumed) finishes
// without being preempted. It is idempotent with respect to ps.current,
// per spec's guidance that handlers must tolerate firing after their
// target state has already advanced.
func (ps *PreemptiveSwitch) onCompletion(cur *currentTransmission, dstName string, now float64) {
	if ps.current == cur {
		ps.current = nil
	}
	ps.counters.Forwarded++
	ps.network.deliver(cur.message, dstName, now)
}

// onSlot fires when the link becomes free again, whether because a
// transmission completed or because it was resumed and later completes;
// it hands control back to forwardNext to either resume the next paused
// frame or dequeue a fresh one.
func (ps *PreemptiveSwitch) onSlot(now float64) {
	ps.isTransmitting = false
	ps.forwardNext(now)
}
