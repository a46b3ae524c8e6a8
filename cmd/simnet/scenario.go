package main

//
// Scenario file format: a small YAML description of a topology and its
// streams, for --scenario. Grounded in doismellburning-samoyed's YAML
// config-file convention (gopkg.in/yaml.v3 struct tags over a plain Go
// config tree).
//

import (
	"os"

	"gopkg.in/yaml.v3"
)

// scenarioFile is the root of a --scenario YAML document.
type scenarioFile struct {
	SimDurationSec float64          `yaml:"sim_duration_sec"`
	Links          map[string]link  `yaml:"links"`
	Nodes          []nodeSpec       `yaml:"nodes"`
	Switches       []switchSpec     `yaml:"switches"`
	Streams        []streamSpec     `yaml:"streams"`
}

type link struct {
	BandwidthMbps  float64 `yaml:"bandwidth_mbps"`
	DelayMs        float64 `yaml:"delay_ms"`
}

type nodeSpec struct {
	Name       string `yaml:"name"`
	OutputLink string `yaml:"output_link"`
	NextHop    string `yaml:"next_hop"`
}

type portSpec struct {
	Port    string `yaml:"port"`
	Link    string `yaml:"link"`
	NextHop string `yaml:"next_hop"`
}

type preemptionSpec struct {
	Enabled               bool    `yaml:"enabled"`
	MinPreemptionIntervalSec float64 `yaml:"min_preemption_interval_sec"`
	PriorityDiffThreshold int     `yaml:"priority_diff_threshold"`
}

type switchSpec struct {
	Name          string            `yaml:"name"`
	MaxQueueSize  *int              `yaml:"max_queue_size"`
	Preemption    *preemptionSpec   `yaml:"preemption"`
	Ports         []portSpec        `yaml:"ports"`
	Forwarding    map[string]string `yaml:"forwarding"` // dst node name -> port
}

type streamSpec struct {
	ID          string  `yaml:"id"`
	Priority    int     `yaml:"priority"`
	Src         string  `yaml:"src"`
	Dst         string  `yaml:"dst"`
	IntervalSec float64 `yaml:"interval_sec"`
	SizeBytes   int     `yaml:"size_bytes"`
	Description string  `yaml:"description"`
	StartTime   float64 `yaml:"start_time"`
}

// loadScenario reads and parses a scenario file from path.
func loadScenario(path string) (*scenarioFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf scenarioFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	return &sf, nil
}
