// Package simnet is a discrete-event network simulator for evaluating
// collective-communication traffic patterns (all-to-all, all-reduce, and
// hierarchical variants) under strict-priority scheduling with optional
// frame preemption.
//
// The simulator models [Node]s, point-to-point [Link]s (bandwidth and
// propagation delay), and store-and-forward [Switch]es that each hold one
// eight-level strict-priority FIFO queue shared by all their output ports,
// with a single transmission in flight at a time. A [Network] owns a
// [Scheduler] and drives the whole simulation forward one event at a time;
// there is no concurrency inside the engine, so a simulation run is fully
// deterministic given identical configuration.
//
// Use [NewNetwork] to create a simulation, [Network.AddNode],
// [Network.AddSwitch], and [Network.AddStream] to build a topology, and
// [Network.Run] to execute it. [Network.AllMessages], [Network.StreamStats],
// and [Network.GlobalStats] return per-message and per-stream telemetry
// once the run has completed; the csvreport subpackage knows how to render
// [Network.AllMessages] as CSV.
//
// Topology builders, collective pattern generators, and analysis tooling
// are intentionally not part of this package: it exposes only the plumbing
// (nodes, links, switches, streams) that such tools need to drive.
package simnet
