package speedtest

import (
	"fmt"
	"time"

	"github.com/relvacode/iso8601"
)

// Measurement is one speed test sample after unit conversion.
type Measurement struct {
	Timestamp         time.Time
	DownloadMbps      float64
	UploadMbps        float64
	LatencyMs         float64
	PacketLossPercent float64
}

// rawRecord mirrors the JSON shape the Ookla speedtest CLI writes, one object
// per line. Pointer fields keep "absent" distinguishable from zero; sibling
// keys we do not use (server, interface, result, ...) are ignored.
type rawRecord struct {
	Timestamp  string       `json:"timestamp"`
	Download   *rawTransfer `json:"download"`
	Upload     *rawTransfer `json:"upload"`
	Ping       *rawPing     `json:"ping"`
	PacketLoss *float64     `json:"packetLoss"`
}

type rawTransfer struct {
	Bandwidth *float64 `json:"bandwidth"` // bytes per second
}

type rawPing struct {
	Latency *float64 `json:"latency"` // milliseconds
}

// mbps converts the CLI's bytes-per-second bandwidth to megabits per second.
func mbps(bytesPerSec float64) float64 {
	return bytesPerSec * 8 / 1e6
}

// measurement validates the raw record and converts it into a Measurement.
// packetLoss is the only optional field and defaults to zero.
func (r *rawRecord) measurement() (Measurement, error) {
	if r.Timestamp == "" {
		return Measurement{}, fmt.Errorf("missing timestamp")
	}
	if r.Download == nil || r.Download.Bandwidth == nil {
		return Measurement{}, fmt.Errorf("missing download.bandwidth")
	}
	if r.Upload == nil || r.Upload.Bandwidth == nil {
		return Measurement{}, fmt.Errorf("missing upload.bandwidth")
	}
	if r.Ping == nil || r.Ping.Latency == nil {
		return Measurement{}, fmt.Errorf("missing ping.latency")
	}
	ts, err := iso8601.ParseString(r.Timestamp)
	if err != nil {
		return Measurement{}, fmt.Errorf("bad timestamp %q: %w", r.Timestamp, err)
	}
	m := Measurement{
		Timestamp:    ts,
		DownloadMbps: mbps(*r.Download.Bandwidth),
		UploadMbps:   mbps(*r.Upload.Bandwidth),
		LatencyMs:    *r.Ping.Latency,
	}
	if r.PacketLoss != nil {
		m.PacketLossPercent = *r.PacketLoss
	}
	return m, nil
}
