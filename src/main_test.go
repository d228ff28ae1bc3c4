package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeDataFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speedtest.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write data file: %v", err)
	}
	return path
}

func recordAt(ts time.Time, downBps, upBps, latency float64) string {
	return fmt.Sprintf(`{"timestamp":%q,"download":{"bandwidth":%g},"upload":{"bandwidth":%g},"ping":{"latency":%g},"packetLoss":0.4}`,
		ts.UTC().Format(time.RFC3339), downBps, upBps, latency)
}

func decodeDataURI(t *testing.T, line string) []byte {
	t.Helper()
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(line, prefix) {
		t.Fatalf("stdout line lacks the data URI prefix: %.40q", line)
	}
	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(line, prefix))
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return payload
}

func TestRun_EmitsSingleDataURILine(t *testing.T) {
	t.Setenv("TZ", "UTC")
	path := writeDataFile(t,
		recordAt(time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC), 12e6, 3e6, 18),
		recordAt(time.Date(2025, 8, 20, 10, 5, 0, 0, time.UTC), 11e6, 2.5e6, 21),
		recordAt(time.Date(2025, 8, 20, 10, 10, 0, 0, time.UTC), 12.5e6, 3.1e6, 17),
	)
	var out bytes.Buffer
	if err := run(config{dataFile: path, showAll: true, heightPx: 300, widthPx: 400}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	s := out.String()
	if !strings.HasSuffix(s, "\n") || strings.Count(s, "\n") != 1 {
		t.Fatalf("stdout should be exactly one line: %.60q", s)
	}
	payload := decodeDataURI(t, strings.TrimSuffix(s, "\n"))
	img, err := png.Decode(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("payload is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("got %dx%d, want 400x300", b.Dx(), b.Dy())
	}
}

func TestRun_DefaultWindowKeepsToday(t *testing.T) {
	t.Setenv("TZ", "UTC")
	now := time.Now()
	path := writeDataFile(t,
		recordAt(now, 10e6, 2e6, 20),
		recordAt(now.Add(-72*time.Hour), 9e6, 2e6, 25),
	)
	var out bytes.Buffer
	if err := run(config{dataFile: path, heightPx: 300, widthPx: 400}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	decodeDataURI(t, strings.TrimSuffix(out.String(), "\n"))
}

func TestRun_DefaultWindowRejectsStaleFile(t *testing.T) {
	t.Setenv("TZ", "UTC")
	path := writeDataFile(t, recordAt(time.Now().Add(-72*time.Hour), 9e6, 2e6, 25))
	var out bytes.Buffer
	err := run(config{dataFile: path, heightPx: 300, widthPx: 400}, &out)
	if err == nil || !strings.Contains(err.Error(), "no data to plot") {
		t.Fatalf("got %v, want a no-data error", err)
	}
	if out.Len() != 0 {
		t.Fatalf("stdout not empty on failure: %q", out.String())
	}
}

func TestRun_LastHoursWindow(t *testing.T) {
	t.Setenv("TZ", "UTC")
	now := time.Now()
	inside := recordAt(now.Add(-30*time.Minute), 10e6, 2e6, 20)
	outside := recordAt(now.Add(-3*time.Hour), 9e6, 2e6, 25)

	path := writeDataFile(t, outside)
	var out bytes.Buffer
	err := run(config{dataFile: path, showAll: true, lastHours: 2, heightPx: 300, widthPx: 400}, &out)
	if err == nil || !strings.Contains(err.Error(), "no data to plot") {
		t.Fatalf("got %v, want a no-data error for a stale-only file", err)
	}

	path = writeDataFile(t, inside, outside)
	out.Reset()
	if err := run(config{dataFile: path, lastHours: 2, heightPx: 300, widthPx: 400}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	decodeDataURI(t, strings.TrimSuffix(out.String(), "\n"))
}

func TestRun_InvalidTimezoneOverride(t *testing.T) {
	t.Setenv("TZ", "UTC")
	path := writeDataFile(t, recordAt(time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC), 10e6, 2e6, 20))
	var out bytes.Buffer
	err := run(config{dataFile: path, showAll: true, tzName: "Nonexistent/Zone", heightPx: 300, widthPx: 400}, &out)
	if err == nil || !strings.Contains(err.Error(), "invalid timezone") {
		t.Fatalf("got %v, want an invalid timezone error", err)
	}
	if out.Len() != 0 {
		t.Fatalf("stdout not empty on failure: %q", out.String())
	}
}

func TestRun_InvalidAmbientTZ(t *testing.T) {
	t.Setenv("TZ", "Bogus/Zone")
	path := writeDataFile(t, recordAt(time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC), 10e6, 2e6, 20))
	var out bytes.Buffer
	err := run(config{dataFile: path, showAll: true, heightPx: 300, widthPx: 400}, &out)
	if err == nil || !strings.Contains(err.Error(), "invalid timezone") {
		t.Fatalf("got %v, want an invalid timezone error", err)
	}
}

func TestRun_MalformedLineFails(t *testing.T) {
	t.Setenv("TZ", "UTC")
	path := writeDataFile(t,
		recordAt(time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC), 10e6, 2e6, 20),
		"{oops",
	)
	var out bytes.Buffer
	err := run(config{dataFile: path, showAll: true, heightPx: 300, widthPx: 400}, &out)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("got %v, want a parse error naming line 2", err)
	}
	if out.Len() != 0 {
		t.Fatalf("stdout not empty on failure: %q", out.String())
	}
}

func TestRun_MissingFileFails(t *testing.T) {
	t.Setenv("TZ", "UTC")
	var out bytes.Buffer
	err := run(config{dataFile: filepath.Join(t.TempDir(), "absent.jsonl"), heightPx: 300}, &out)
	if err == nil || !strings.Contains(err.Error(), "read measurements") {
		t.Fatalf("got %v, want a read error", err)
	}
}

func TestRun_EmptyFileHasNothingToPlot(t *testing.T) {
	t.Setenv("TZ", "UTC")
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	var out bytes.Buffer
	err := run(config{dataFile: path, showAll: true, heightPx: 300, widthPx: 400}, &out)
	if err == nil || !strings.Contains(err.Error(), "no data to plot") {
		t.Fatalf("got %v, want a no-data error", err)
	}
}

func TestRun_WritesImageFile(t *testing.T) {
	t.Setenv("TZ", "UTC")
	path := writeDataFile(t,
		recordAt(time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC), 10e6, 2e6, 20),
		recordAt(time.Date(2025, 8, 20, 11, 0, 0, 0, time.UTC), 11e6, 2e6, 19),
	)
	outPath := filepath.Join(t.TempDir(), "chart.png")
	var out bytes.Buffer
	cfg := config{
		dataFile: path,
		showAll:  true,
		heightPx: 300,
		widthPx:  400,
		outFile:  outPath,
		title:    "ISP throughput",
		caption:  "uplink A",
		summary:  true,
	}
	if err := run(cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	fileBytes, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read exported image: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(fileBytes)); err != nil {
		t.Fatalf("exported file is not a PNG: %v", err)
	}
	payload := decodeDataURI(t, strings.TrimSuffix(out.String(), "\n"))
	if !bytes.Equal(payload, fileBytes) {
		t.Fatal("stdout payload and exported file differ")
	}
	if strings.Count(out.String(), "\n") != 1 {
		t.Fatalf("summary logging leaked into stdout: %q", out.String())
	}
}
