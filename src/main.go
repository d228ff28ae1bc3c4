package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	// Embedded zone database so --tz works on hosts without system tzdata.
	_ "time/tzdata"

	"github.com/ivahos/isp-info/src/graph"
	"github.com/ivahos/isp-info/src/speedtest"
	"github.com/ivahos/isp-info/src/window"
)

// config carries the parsed command line.
type config struct {
	dataFile  string
	showAll   bool
	heightPx  int
	widthPx   int
	maxMbps   float64
	lastHours int
	tzName    string
	outFile   string
	title     string
	caption   string
	summary   bool
}

func main() {
	var cfg config
	flag.BoolVar(&cfg.showAll, "all", false, "Plot all measurements instead of only today's")
	flag.IntVar(&cfg.heightPx, "height", 300, "Image height in pixels")
	flag.IntVar(&cfg.widthPx, "width", 0, "Fixed image width in pixels; positive values switch to evenly spaced samples")
	flag.Float64Var(&cfg.maxMbps, "max-mbps", 0, "Fixed upper bound of the speed axis in Mbps (0 scales to the data)")
	flag.IntVar(&cfg.lastHours, "last-hours", 0, "Plot only the trailing N hours (overrides the day filter)")
	flag.StringVar(&cfg.tzName, "tz", "", "IANA timezone for filtering and labels (default: TZ environment variable, then UTC)")
	flag.StringVar(&cfg.outFile, "out", "", "Also write the PNG image to this file")
	flag.StringVar(&cfg.title, "title", "", "Chart title")
	flag.StringVar(&cfg.caption, "caption", "", "Caption stamped onto the bottom-left of the image")
	flag.BoolVar(&cfg.summary, "summary", false, "Log summary statistics for the plotted measurements")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Usage = usage
	flag.Parse()
	speedtest.SetLogLevel(*logLevel)
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	cfg.dataFile = flag.Arg(0)

	if err := run(cfg, os.Stdout); err != nil {
		speedtest.Errorf("%v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(),
		"Usage: %s [flags] <json_file>\n\nRenders speedtest JSONL measurements as a PNG chart and prints it as a\ndata:image/png;base64 line on stdout.\n\nFlags:\n",
		filepath.Base(os.Args[0]))
	flag.PrintDefaults()
}

// run executes the pipeline: load, filter, render, emit. The stdout line is
// the final act so a failure never leaves partial output behind.
func run(cfg config, stdout io.Writer) error {
	defer speedtest.TimeTrack(time.Now(), "run")

	ms, err := speedtest.Load(cfg.dataFile)
	if err != nil {
		return fmt.Errorf("read measurements: %w", err)
	}
	speedtest.Debugf("loaded %d measurements from %s", len(ms), cfg.dataFile)

	loc, err := window.ResolveLocation(cfg.tzName, os.Getenv("TZ"))
	if err != nil {
		return err
	}

	rows := window.Filter(ms, window.Options{
		ShowAll:   cfg.showAll,
		LastHours: cfg.lastHours,
		Location:  loc,
	}, time.Now())
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot: %d measurements loaded, none inside the window", len(ms))
	}
	speedtest.Debugf("plotting %d of %d measurements (tz=%s)", len(rows), len(ms), loc)

	if cfg.summary {
		logSummary(rows)
	}

	png, err := graph.Render(rows, graph.Options{
		HeightPx: cfg.heightPx,
		WidthPx:  cfg.widthPx,
		MaxMbps:  cfg.maxMbps,
		Title:    cfg.title,
		Caption:  cfg.caption,
		Location: loc,
	})
	if err != nil {
		return err
	}

	if cfg.outFile != "" {
		if err := os.WriteFile(cfg.outFile, png, 0o644); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
		speedtest.Infof("wrote %s (%d bytes)", cfg.outFile, len(png))
	}

	fmt.Fprintln(stdout, graph.EncodeDataURI(png))
	return nil
}

// logSummary reports aggregate statistics for the plotted window to stderr.
func logSummary(rows []speedtest.Measurement) {
	s := speedtest.Summarize(rows)
	speedtest.Infof("summary over %d measurements:", s.Count)
	speedtest.Infof("  download_mbps %s", s.Download)
	speedtest.Infof("  upload_mbps   %s", s.Upload)
	speedtest.Infof("  latency_ms    %s", s.Latency)
	speedtest.Infof("  packet_loss   %s", s.Loss)
}
