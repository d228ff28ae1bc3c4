// Package graph renders measurement series into a dual-axis PNG chart:
// throughput on the left axis, latency and packet loss dashed on the right.
package graph

import (
	"bytes"
	"fmt"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ivahos/isp-info/src/speedtest"
)

// Options control the rendered image.
type Options struct {
	// HeightPx is the image height in pixels.
	HeightPx int
	// WidthPx fixes the image width in pixels when positive. Samples are
	// then spread at evenly spaced index positions instead of true time
	// positions.
	WidthPx int
	// MaxMbps fixes the upper bound of the speed axis when positive;
	// otherwise the axis scales to the data.
	MaxMbps float64
	// Title is drawn above the chart when non-empty.
	Title string
	// Caption is stamped onto the bottom-left of the finished image when
	// non-empty.
	Caption string
	// Location is the timezone for tick labels. Nil means UTC.
	Location *time.Location
}

// Render draws the measurements and returns the finished PNG bytes.
func Render(ms []speedtest.Measurement, opts Options) ([]byte, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("nothing to plot")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	n := len(ms)
	times := make([]time.Time, n)
	downs := make([]float64, n)
	ups := make([]float64, n)
	lats := make([]float64, n)
	losses := make([]float64, n)
	maxSpeed := 0.0
	maxLat := 0.0
	for i, m := range ms {
		times[i] = m.Timestamp
		downs[i] = m.DownloadMbps
		ups[i] = m.UploadMbps
		lats[i] = m.LatencyMs
		losses[i] = m.PacketLossPercent
		if m.DownloadMbps > maxSpeed {
			maxSpeed = m.DownloadMbps
		}
		if m.UploadMbps > maxSpeed {
			maxSpeed = m.UploadMbps
		}
		if m.LatencyMs > maxLat {
			maxLat = m.LatencyMs
		}
	}

	indexMode := opts.WidthPx > 0
	widthPx := opts.WidthPx
	if !indexMode {
		widthPx = autoWidthPx(n)
	}

	type metric struct {
		name      string
		ys        []float64
		style     chart.Style
		secondary bool
	}
	metrics := []metric{
		{name: "Download (Mbps)", ys: downs, style: lineStyle(chart.ColorBlue)},
		{name: "Upload (Mbps)", ys: ups, style: lineStyle(chart.ColorOrange)},
		{name: "Latency (ms)", ys: lats, style: dashedStyle(chart.ColorGreen), secondary: true},
		{name: "Packet Loss (%)", ys: losses, style: dashedStyle(chart.ColorRed), secondary: true},
	}

	var series []chart.Series
	var xAxis chart.XAxis
	if indexMode {
		xs, xa := indexAxis(times, widthPx, loc)
		xAxis = xa
		for _, mt := range metrics {
			xv, yv := xs, mt.ys
			if n == 1 {
				// Duplicate the single sample so the series has a span.
				xv = []float64{xs[0], xs[0] + 1}
				yv = []float64{yv[0], yv[0]}
			}
			s := chart.ContinuousSeries{Name: mt.name, XValues: xv, YValues: yv, Style: mt.style}
			if mt.secondary {
				s.YAxis = chart.YAxisSecondary
			}
			series = append(series, s)
		}
	} else {
		xAxis = timeAxis(times, loc)
		for _, mt := range metrics {
			tv, yv := times, mt.ys
			if n == 1 {
				tv = []time.Time{times[0], times[0].Add(time.Second)}
				yv = []float64{yv[0], yv[0]}
			}
			s := chart.TimeSeries{Name: mt.name, XValues: tv, YValues: yv, Style: mt.style}
			if mt.secondary {
				s.YAxis = chart.YAxisSecondary
			}
			series = append(series, s)
		}
	}

	speedTop := speedAxisTop(opts.MaxMbps, maxSpeed)
	latTop := latencyAxisTop(maxLat)

	ch := chart.Chart{
		Title: opts.Title,
		// Room on top for the thin legend, on the bottom for rotated labels.
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 12, Bottom: 48}},
		XAxis:      xAxis,
		YAxis: chart.YAxis{
			Name:  "Speed (Mbps)",
			Range: &chart.ContinuousRange{Min: 0, Max: speedTop},
			Ticks: niceTicks(0, speedTop, 6),
		},
		YAxisSecondary: chart.YAxis{
			Name:  "Latency (ms) / Packet Loss (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: latTop},
			Ticks: niceTicks(0, latTop, 6),
		},
		Series: series,
		Width:  widthPx,
		Height: opts.HeightPx,
		DPI:    100,
	}
	ch.Elements = []chart.Renderable{chart.LegendThin(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	out := buf.Bytes()
	if opts.Caption != "" {
		stamped, err := stampCaption(out, opts.Caption)
		if err != nil {
			return nil, err
		}
		out = stamped
	}
	return out, nil
}

// speedAxisTop returns the upper bound of the throughput axis: the fixed
// bound when set, otherwise a nice rounded bound covering the data.
func speedAxisTop(fixed, dataMax float64) float64 {
	if fixed > 0 {
		return fixed
	}
	_, top := niceAxisBounds(0, dataMax)
	return top
}

// latencyAxisTop returns the upper bound of the secondary axis. Packet loss
// shares this latency-derived scale; its values just read against the same
// bound.
func latencyAxisTop(maxLat float64) float64 {
	if maxLat <= 0 {
		return 1
	}
	return maxLat
}

// autoWidthPx sizes auto-width charts at half an inch per sample at 100 DPI
// with a ten inch floor.
func autoWidthPx(n int) int {
	in := 0.5 * float64(n)
	if in < 10 {
		in = 10
	}
	return int(math.Round(in * 100))
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    4,
	}
}

// dashedStyle renders the secondary metrics: same markers, dashed stroke.
func dashedStyle(col drawing.Color) chart.Style {
	st := lineStyle(col)
	st.StrokeDashArray = []float64{5, 5}
	return st
}
