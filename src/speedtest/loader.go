package speedtest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// MaxLineBytes caps a single JSONL line. Speedtest records are a few hundred
// bytes each, so this is purely a guard against pathological input.
const MaxLineBytes = 16 * 1024 * 1024

// Load reads the measurement file at path. See Parse for the semantics.
func Load(path string) ([]Measurement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ms, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ms, nil
}

// Parse reads newline-delimited JSON records from r and returns the valid
// measurements sorted ascending by timestamp.
//
// A line that is not valid JSON aborts the whole parse. A valid JSON line
// whose fields are missing or of the wrong type only drops that record;
// the reasons are visible at debug level.
func Parse(r io.Reader) ([]Measurement, error) {
	reader := bufio.NewReader(r)
	var out []Measurement
	lineNo := 0
readLoop:
	for {
		// Accumulate one logical line; ReadSlice returns ErrBufferFull for
		// lines longer than the internal buffer.
		var line []byte
		for {
			part, rerr := reader.ReadSlice('\n')
			if len(part) > 0 {
				if len(line)+len(part) > MaxLineBytes {
					return nil, fmt.Errorf("line %d exceeds %d bytes", lineNo+1, MaxLineBytes)
				}
				line = append(line, part...)
			}
			if rerr == nil {
				break
			}
			if errors.Is(rerr, bufio.ErrBufferFull) {
				continue
			}
			if errors.Is(rerr, io.EOF) {
				// Final line without a trailing newline.
				if len(line) == 0 {
					break readLoop
				}
				break
			}
			return nil, fmt.Errorf("read line %d: %w", lineNo+1, rerr)
		}
		lineNo++
		var raw rawRecord
		if err := json.Unmarshal(line, &raw); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				// Valid JSON of an unexpected shape: drop the record.
				if GetLogLevel() <= LevelDebug {
					Debugf("skipping line %d: %v", lineNo, err)
				}
				continue
			}
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		m, err := raw.measurement()
		if err != nil {
			if GetLogLevel() <= LevelDebug {
				Debugf("skipping line %d: %v", lineNo, err)
			}
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
