// Package window selects which measurements end up on the chart: it resolves
// the display timezone and restricts rows to a time window.
package window

import (
	"fmt"
	"time"

	"github.com/ivahos/isp-info/src/speedtest"
)

// Options describe the window to keep.
type Options struct {
	// ShowAll disables the default same-day filter.
	ShowAll bool
	// LastHours keeps only the trailing N hours when non-zero. It takes
	// priority over ShowAll.
	LastHours int
	// Location is the timezone used for day boundaries and for the
	// timestamps of the returned rows. Nil means UTC.
	Location *time.Location
}

// ResolveLocation picks the display timezone: an explicit override wins,
// otherwise the ambient TZ value, otherwise UTC. Empty strings count as
// unset. The caller passes the environment value in rather than having the
// lookup buried here.
func ResolveLocation(override, ambient string) (*time.Location, error) {
	name := override
	if name == "" {
		name = ambient
	}
	if name == "" {
		name = "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// Filter returns the measurements inside the selected window with their
// timestamps converted to opts.Location. now anchors both the rolling window
// and the day boundary.
func Filter(ms []speedtest.Measurement, opts Options, now time.Time) []speedtest.Measurement {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	local := make([]speedtest.Measurement, 0, len(ms))
	for _, m := range ms {
		m.Timestamp = m.Timestamp.In(loc)
		local = append(local, m)
	}
	switch {
	case opts.LastHours != 0:
		since := now.Add(-time.Duration(opts.LastHours) * time.Hour)
		return keep(local, func(m speedtest.Measurement) bool {
			return !m.Timestamp.Before(since)
		})
	case !opts.ShowAll:
		y, mo, d := now.In(loc).Date()
		return keep(local, func(m speedtest.Measurement) bool {
			my, mmo, md := m.Timestamp.Date()
			return my == y && mmo == mo && md == d
		})
	default:
		return local
	}
}

func keep(ms []speedtest.Measurement, pred func(speedtest.Measurement) bool) []speedtest.Measurement {
	var out []speedtest.Measurement
	for _, m := range ms {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}
