// Package csvreport renders a [simnet.Network]'s message results as CSV,
// one row per message (delivered or dropped), per the simulator's results
// contract. It is a thin, independently-testable consumer of the engine's
// public surface, kept out of the core package the same way topology
// builders and collective-pattern generators are.
package csvreport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/bassosimone/simnet"
)

// Header is the exact column header emitted by [Write].
var Header = []string{
	"msg_id",
	"stream_id",
	"seq_num",
	"priority",
	"src_node",
	"dst_node",
	"size_bytes",
	"creation_time",
	"arrival_time",
	"end_to_end_delay_ms",
	"dropped",
	"drop_reason",
}

// Write renders every message in messages as a CSV row onto w, preceded
// by [Header]. Dropped messages leave arrival_time and
// end_to_end_delay_ms empty; dropped is rendered as "True" or "False".
// Calling Write twice with the same messages produces byte-identical
// output (spec §8 property 8).
func Write(w io.Writer, messages []*simnet.Message) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("csvreport: write header: %w", err)
	}
	for _, m := range messages {
		if err := cw.Write(row(m)); err != nil {
			return fmt.Errorf("csvreport: write row for message %d: %w", m.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csvreport: flush: %w", err)
	}
	return nil
}

// row renders a single message as a CSV record.
func row(m *simnet.Message) []string {
	arrivalTime := ""
	delayMs := ""
	if delay, ok := m.Delay(); ok {
		arrivalTime = strconv.FormatFloat(*m.ArrivalTime, 'f', -1, 64)
		delayMs = strconv.FormatFloat(delay*1000, 'f', -1, 64)
	}
	dropped := "False"
	if m.Dropped {
		dropped = "True"
	}
	return []string{
		strconv.FormatUint(m.ID, 10),
		m.StreamID,
		strconv.FormatUint(m.SeqNum, 10),
		strconv.FormatUint(uint64(m.Priority), 10),
		m.Src,
		m.Dst,
		strconv.Itoa(m.SizeBytes),
		strconv.FormatFloat(m.CreationTime, 'f', -1, 64),
		arrivalTime,
		delayMs,
		dropped,
		m.DropReason,
	}
}
