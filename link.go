package simnet

//
// Link bandwidth and propagation model
//

import "fmt"

// LinkConfig contains config for creating a [Link]. Make sure you
// initialize all the fields marked as MANDATORY.
type LinkConfig struct {
	// Name is an OPTIONAL human-readable label used in diagnostics.
	Name string

	// BandwidthBps is the MANDATORY link bandwidth, in bits per second.
	// MUST be > 0.
	BandwidthBps float64

	// PropagationSec is the OPTIONAL one-way propagation delay, in
	// seconds. Defaults to 0.
	PropagationSec float64
}

// Link models the bandwidth and propagation delay of a unidirectional
// point-to-point connection. A Link is pure bookkeeping: it never
// schedules events itself, it only computes the times its caller should
// use to do so. The zero value is invalid; use [NewLink].
//
// busy_until is monotonically non-decreasing under normal operation; a
// [PreemptiveSwitch] may reset it to the current time when it preempts an
// in-flight transmission (see preemptive_switch.go).
type Link struct {
	name           string
	bandwidthBps   float64
	propagationSec float64
	busyUntil      float64
}

// NewLink validates cfg and returns a new [Link].
func NewLink(cfg *LinkConfig) (*Link, error) {
	if cfg.BandwidthBps <= 0 {
		return nil, fmt.Errorf("simnet: link %q: bandwidth_bps must be > 0", cfg.Name)
	}
	if cfg.PropagationSec < 0 {
		return nil, fmt.Errorf("simnet: link %q: propagation_sec must be >= 0", cfg.Name)
	}
	return &Link{
		name:           cfg.Name,
		bandwidthBps:   cfg.BandwidthBps,
		propagationSec: cfg.PropagationSec,
	}, nil
}

// MustNewLink is like [NewLink] but panics on error.
func MustNewLink(cfg *LinkConfig) *Link {
	return Must1(NewLink(cfg))
}

// Name returns the link's diagnostic name.
func (l *Link) Name() string {
	return l.name
}

// BandwidthBps returns the link's bandwidth in bits per second.
func (l *Link) BandwidthBps() float64 {
	return l.bandwidthBps
}

// PropagationSec returns the link's one-way propagation delay in seconds.
func (l *Link) PropagationSec() float64 {
	return l.propagationSec
}

// BusyUntil returns the simulation time at which the link becomes idle.
func (l *Link) BusyUntil() float64 {
	return l.busyUntil
}

// TransmissionTime returns how long it takes to serialize sizeBytes onto
// the link, in seconds.
func (l *Link) TransmissionTime(sizeBytes int) float64 {
	return float64(sizeBytes) * 8 / l.bandwidthBps
}

// StartTransmission begins transmitting sizeBytes at simulation time now
// and returns the time the bytes will have arrived at the far end,
// accounting for both serialization and propagation delay. It updates
// busy_until to the time serialization completes (before propagation).
func (l *Link) StartTransmission(now float64, sizeBytes int) float64 {
	start := now
	if l.busyUntil > start {
		start = l.busyUntil
	}
	l.busyUntil = start + l.TransmissionTime(sizeBytes)
	return l.busyUntil + l.propagationSec
}

// resetBusyUntil forcibly sets busy_until to now. Only [PreemptiveSwitch]
// calls this, when it preempts an in-flight transmission and frees the
// link immediately for the preempting frame.
func (l *Link) resetBusyUntil(now float64) {
	l.busyUntil = now
}
