// Command simnet runs a collective-communication traffic simulation and
// writes a results CSV. It is a thin runner around the simnet engine,
// grounded in the teacher's cmd/calibrate and cmd/throttle shape (flag
// parsing + apex/log + a hand-built topology), not part of the core
// simulation engine itself.
package main

import (
	"os"

	"github.com/apex/log"
	apexcli "github.com/apex/log/handlers/cli"
	"github.com/spf13/pflag"

	"github.com/bassosimone/simnet"
	"github.com/bassosimone/simnet/csvreport"
)

func main() {
	log.SetHandler(apexcli.Default)

	var (
		scenarioPath = pflag.String("scenario", "", "path to a scenario YAML file (default: built-in demo topology)")
		outPath      = pflag.String("out", "", "path to write the results CSV (default: stdout)")
		simDuration  = pflag.Float64("sim-duration", 1.0, "simulation duration in seconds (ignored when --scenario sets sim_duration_sec)")
	)
	pflag.Parse()

	net, err := buildNetwork(*scenarioPath, *simDuration)
	if err != nil {
		log.WithError(err).Fatal("simnet: failed to build network")
	}

	net.Run()

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.WithError(err).Fatal("simnet: failed to open output file")
		}
		defer f.Close()
		out = f
	}
	if err := csvreport.Write(out, net.AllMessages()); err != nil {
		log.WithError(err).Fatal("simnet: failed to write CSV")
	}

	gs := net.GlobalStats()
	log.Infof("simnet: delivered=%d dropped=%d streams=%d", gs.TotalDelivered, gs.TotalDropped, len(gs.PerStream))
	for id, st := range gs.PerStream {
		log.Infof("simnet: stream %s: delivered=%d dropped=%d mean_delay_ms=%.3f mean_jitter_ms=%.3f throughput_mbps=%.3f",
			id, st.Delivered, st.Dropped, st.MeanDelayMs, st.MeanJitterMs, st.ThroughputMbps)
	}
}

// buildNetwork constructs a *simnet.Network either from a scenario file
// or, if scenarioPath is empty, from a small built-in demo topology
// (equivalent in shape to the spec's S2 strict-priority scenario).
func buildNetwork(scenarioPath string, fallbackSimDuration float64) (*simnet.Network, error) {
	if scenarioPath != "" {
		sf, err := loadScenario(scenarioPath)
		if err != nil {
			return nil, err
		}
		if sf.SimDurationSec == 0 {
			sf.SimDurationSec = fallbackSimDuration
		}
		return buildFromScenario(sf)
	}
	return buildDemoNetwork(fallbackSimDuration)
}

// buildDemoNetwork builds the built-in fallback topology: two senders A
// (priority 7) and B (priority 1) feeding a single switch SW forwarding
// to receiver C, mirroring spec scenario S2.
func buildDemoNetwork(simDuration float64) (*simnet.Network, error) {
	net, err := simnet.NewNetwork(&simnet.NetworkConfig{
		SimDurationSec: simDuration,
		Logger:         log.Log,
	})
	if err != nil {
		return nil, err
	}

	a, err := net.AddNode("A")
	if err != nil {
		return nil, err
	}
	b, err := net.AddNode("B")
	if err != nil {
		return nil, err
	}
	c, err := net.AddNode("C")
	if err != nil {
		return nil, err
	}

	maxQueue := 1000
	sw, err := net.AddSwitch("SW", &maxQueue)
	if err != nil {
		return nil, err
	}

	linkCfg := &simnet.LinkConfig{BandwidthBps: 100e6, PropagationSec: 0.001}

	aLink := simnet.MustNewLink(linkCfg)
	a.SetOutputLink(aLink)
	a.SetNextHop("SW")

	bLink := simnet.MustNewLink(linkCfg)
	b.SetOutputLink(bLink)
	b.SetNextHop("SW")

	swLink := simnet.MustNewLink(linkCfg)
	sw.AddLink("toC", swLink, "C")
	sw.SetForwardingEntry("C", "toC")

	streamP7 := simnet.Must1(simnet.NewStream("p7", 7, "A", "C", 0.01, 1000, "high-priority demo stream"))
	streamP1 := simnet.Must1(simnet.NewStream("p1", 1, "B", "C", 0.005, 1000, "low-priority demo stream"))

	if err := net.AddStream(streamP7, 0); err != nil {
		return nil, err
	}
	if err := net.AddStream(streamP1, 0); err != nil {
		return nil, err
	}

	_ = c // C only needs to be registered with the network; no further setup.
	return net, nil
}

// buildFromScenario constructs a *simnet.Network from a parsed scenario file.
func buildFromScenario(sf *scenarioFile) (*simnet.Network, error) {
	net, err := simnet.NewNetwork(&simnet.NetworkConfig{
		SimDurationSec: sf.SimDurationSec,
		Logger:         log.Log,
	})
	if err != nil {
		return nil, err
	}

	links := map[string]*simnet.Link{}
	for name, lc := range sf.Links {
		l, err := simnet.NewLink(&simnet.LinkConfig{
			Name:           name,
			BandwidthBps:   lc.BandwidthMbps * 1e6,
			PropagationSec: lc.DelayMs / 1000,
		})
		if err != nil {
			return nil, err
		}
		links[name] = l
	}

	nodes := map[string]*simnet.Node{}
	for _, ns := range sf.Nodes {
		n, err := net.AddNode(ns.Name)
		if err != nil {
			return nil, err
		}
		if l, ok := links[ns.OutputLink]; ok {
			n.SetOutputLink(l)
		}
		n.SetNextHop(ns.NextHop)
		nodes[ns.Name] = n
	}

	for _, ss := range sf.Switches {
		var sw *simnet.Switch
		if ss.Preemption != nil {
			pc := &simnet.PreemptionConfig{
				Enabled:                  ss.Preemption.Enabled,
				MinPreemptionIntervalSec: ss.Preemption.MinPreemptionIntervalSec,
				PriorityDiffThreshold:    ss.Preemption.PriorityDiffThreshold,
			}
			psw, err := net.AddPreemptiveSwitch(ss.Name, ss.MaxQueueSize, pc)
			if err != nil {
				return nil, err
			}
			sw = psw.Switch
		} else {
			s, err := net.AddSwitch(ss.Name, ss.MaxQueueSize)
			if err != nil {
				return nil, err
			}
			sw = s
		}
		for _, p := range ss.Ports {
			l, ok := links[p.Link]
			if !ok {
				continue
			}
			sw.AddLink(p.Port, l, p.NextHop)
		}
		for dst, port := range ss.Forwarding {
			sw.SetForwardingEntry(dst, port)
		}
	}

	for _, sp := range sf.Streams {
		st, err := simnet.NewStream(sp.ID, simnet.Priority(sp.Priority), sp.Src, sp.Dst, sp.IntervalSec, sp.SizeBytes, sp.Description)
		if err != nil {
			return nil, err
		}
		if err := net.AddStream(st, sp.StartTime); err != nil {
			return nil, err
		}
	}

	return net, nil
}
