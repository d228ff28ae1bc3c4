package graph

import (
	"fmt"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
)

// clockFormat is the fixed tick label format. Charts spanning several days
// still label ticks with wall-clock time only.
const clockFormat = "15:04"

// labelPixelBudget is the horizontal room reserved per tick label before
// label thinning kicks in.
const labelPixelBudget = 80

// labelStride computes the thinning interval for index-mode tick labels:
// every stride-th sample keeps its label. The label capacity is clamped to
// at least one so very narrow images do not divide by zero.
func labelStride(n, widthPx int) int {
	maxLabels := widthPx / labelPixelBudget
	if maxLabels < 1 {
		maxLabels = 1
	}
	if n <= maxLabels {
		return 1
	}
	return int(math.Ceil(float64(n) / float64(maxLabels)))
}

// indexTicks returns one tick per sample at positions 1..n, labelled with the
// sample's wall-clock time in loc, thinned to an even stride when the labels
// would not fit into widthPx.
func indexTicks(times []time.Time, widthPx int, loc *time.Location) []chart.Tick {
	n := len(times)
	stride := labelStride(n, widthPx)
	ticks := make([]chart.Tick, 0, n+1)
	for i, t := range times {
		label := ""
		if i%stride == 0 {
			label = t.In(loc).Format(clockFormat)
		}
		ticks = append(ticks, chart.Tick{Value: float64(i + 1), Label: label})
	}
	return ticks
}

// indexAxis lays samples out at evenly spaced positions 1..n regardless of
// their time gaps. The range is padded so n=1 still renders with a non-zero
// delta.
func indexAxis(times []time.Time, widthPx int, loc *time.Location) ([]float64, chart.XAxis) {
	n := len(times)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i + 1)
	}
	ticks := indexTicks(times, widthPx, loc)
	minR := 0.5
	maxR := float64(n) + 0.5
	if n == 1 {
		maxR = 2.0
		ticks = append(ticks, chart.Tick{Value: 2, Label: ""})
	}
	xa := chart.XAxis{
		Name:  "Time",
		Style: chart.Style{TextRotationDegrees: 45},
		Ticks: ticks,
		Range: &chart.ContinuousRange{Min: minR, Max: maxR},
	}
	return xs, xa
}

// timeAxis keeps true time spacing on the x axis, with ticks at a
// span-appropriate step.
func timeAxis(times []time.Time, loc *time.Location) chart.XAxis {
	minT := times[0]
	maxT := times[0]
	for _, t := range times[1:] {
		if t.Before(minT) {
			minT = t
		}
		if t.After(maxT) {
			maxT = t
		}
	}
	step := pickTimeStep(maxT.Sub(minT))
	ticks := timeTicks(minT, maxT, step, loc)
	if len(times) == 1 && len(ticks) < 2 {
		// Add a second tick one step later to keep the axis happy.
		next := minT.Add(step)
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(next), Label: next.In(loc).Format(clockFormat)})
	}
	// Ensure a non-zero x range even when all timestamps coincide.
	minF := chart.TimeToFloat64(minT)
	maxF := chart.TimeToFloat64(maxT)
	if maxF <= minF {
		maxF = chart.TimeToFloat64(minT.Add(step))
		if maxF <= minF {
			maxF = minF + float64(time.Second)
		}
	}
	return chart.XAxis{
		Name:  "Time",
		Style: chart.Style{TextRotationDegrees: 45},
		Ticks: ticks,
		Range: &chart.ContinuousRange{Min: minF, Max: maxF},
	}
}

// pickTimeStep selects a readable tick step for a given time span.
func pickTimeStep(span time.Duration) time.Duration {
	switch {
	case span <= 2*time.Minute:
		return 10 * time.Second
	case span <= 10*time.Minute:
		return time.Minute
	case span <= 30*time.Minute:
		return 5 * time.Minute
	case span <= 2*time.Hour:
		return 10 * time.Minute
	case span <= 6*time.Hour:
		return 30 * time.Minute
	case span <= 24*time.Hour:
		return time.Hour
	case span <= 3*24*time.Hour:
		return 6 * time.Hour
	case span <= 14*24*time.Hour:
		return 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// timeTicks returns ticks between minT and maxT aligned to absolute step
// boundaries, labelled with wall-clock time in loc. The count is capped to
// keep the axis readable.
func timeTicks(minT, maxT time.Time, step time.Duration, loc *time.Location) []chart.Tick {
	if step <= 0 {
		return nil
	}
	st := int64(step.Seconds())
	if st <= 0 {
		st = 1
	}
	aligned := time.Unix((minT.Unix()/st)*st, 0)
	ticks := []chart.Tick{}
	for t := aligned; !t.After(maxT.Add(step)); t = t.Add(step) {
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t), Label: t.In(loc).Format(clockFormat)})
		if len(ticks) > 20 {
			break
		}
	}
	return ticks
}

// niceAxisBounds expands [min,max] by a small margin and rounds outward to
// "nice" numbers for readability.
func niceAxisBounds(min, max float64) (float64, float64) {
	if math.IsNaN(min) || math.IsNaN(max) {
		return min, max
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	pad := span * 0.05
	if pad <= 0 {
		pad = 1
	}
	a := min - pad
	b := max + pad
	mag := math.Pow(10, math.Floor(math.Log10(span)))
	if !math.IsInf(mag, 0) && mag > 0 {
		a = math.Floor(a/mag) * mag
		b = math.Ceil(b/mag) * mag
	}
	return a, b
}

// niceTicks generates up to roughly n tick marks between [min, max] using
// 1/2/2.5/5/10 increments, never placing a tick beyond max.
func niceTicks(min, max float64, n int) []chart.Tick {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	candidates := []float64{1, 2, 2.5, 5, 10}
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range candidates {
		step := c * mag
		count := math.Ceil(span / step)
		if count < 2 {
			count = 2
		}
		score := math.Abs(count - float64(n))
		if score < bestScore {
			bestScore = score
			bestStep = step
		}
	}
	start := math.Floor(min/bestStep) * bestStep
	ticks := []chart.Tick{}
	for v := start; ; v += bestStep {
		if v > max+bestStep*1e-9 {
			break
		}
		ticks = append(ticks, chart.Tick{Value: v, Label: formatTick(v)})
		if len(ticks) > n+2 {
			break
		}
	}
	return ticks
}

func formatTick(v float64) string {
	if v == 0 {
		return "0"
	}
	av := math.Abs(v)
	switch {
	case av >= 100:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
