package speedtest

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MetricSummary aggregates a single plotted metric.
type MetricSummary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Median float64
	Max    float64
}

func (m MetricSummary) String() string {
	return fmt.Sprintf("avg=%.2f stddev=%.2f min=%.2f median=%.2f max=%.2f",
		m.Mean, m.StdDev, m.Min, m.Median, m.Max)
}

// Summary holds aggregate statistics over one plotted window.
type Summary struct {
	Count    int
	Download MetricSummary
	Upload   MetricSummary
	Latency  MetricSummary
	Loss     MetricSummary
}

// Summarize computes per-metric aggregates over the given measurements.
func Summarize(ms []Measurement) Summary {
	n := len(ms)
	down := make([]float64, 0, n)
	up := make([]float64, 0, n)
	lat := make([]float64, 0, n)
	loss := make([]float64, 0, n)
	for _, m := range ms {
		down = append(down, m.DownloadMbps)
		up = append(up, m.UploadMbps)
		lat = append(lat, m.LatencyMs)
		loss = append(loss, m.PacketLossPercent)
	}
	return Summary{
		Count:    n,
		Download: summarize(down),
		Upload:   summarize(up),
		Latency:  summarize(lat),
		Loss:     summarize(loss),
	}
}

func summarize(xs []float64) MetricSummary {
	if len(xs) == 0 {
		return MetricSummary{}
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		// Sample stddev is undefined for a single value.
		std = 0
	}
	return MetricSummary{
		Mean:   mean,
		StdDev: std,
		Min:    sorted[0],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}
