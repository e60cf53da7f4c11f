// Command juggle runs the tracking core over a recorded frame stream and
// reports the event count. Frames are read as JSON lines from -frames or
// stdin; results can be persisted to SQLite and rendered as charts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/juggle.report/internal/config"
	"github.com/banshee-data/juggle.report/internal/ingest"
	"github.com/banshee-data/juggle.report/internal/monitoring"
	"github.com/banshee-data/juggle.report/internal/report"
	"github.com/banshee-data/juggle.report/internal/session"
	"github.com/banshee-data/juggle.report/internal/storage/sqlite"
	"github.com/banshee-data/juggle.report/internal/timeutil"
	"github.com/banshee-data/juggle.report/internal/trajectory"
	"github.com/banshee-data/juggle.report/internal/version"
)

// maxGapFill bounds how many missed frames are synthesised for one jump
// in the input frame index.
const maxGapFill = 1000

// Options holds the command-line configuration.
type Options struct {
	FramesPath string
	ConfigPath string
	DBPath     string
	OutDir     string
	Verbose    bool
}

// Summary is the outcome of one run.
type Summary struct {
	SessionID string
	Frames    int
	Count     int
	Skipped   int // malformed input lines
	Reports   []string
}

func main() {
	var opts Options
	flag.StringVar(&opts.FramesPath, "frames", "", "path to a JSONL frame stream (default stdin)")
	flag.StringVar(&opts.ConfigPath, "config", "", "path to a tuning config JSON file (default built-in)")
	flag.StringVar(&opts.DBPath, "db", "", "path to a sqlite session store (optional)")
	flag.StringVar(&opts.OutDir, "out", "", "directory for PNG/HTML trajectory reports (optional)")
	flag.BoolVar(&opts.Verbose, "verbose", false, "enable per-frame diagnostics")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in := io.Reader(os.Stdin)
	if opts.FramesPath != "" {
		f, err := os.Open(opts.FramesPath)
		if err != nil {
			log.Fatalf("Failed to open frames: %v", err)
		}
		defer f.Close()
		in = f
	}

	sum, err := run(ctx, opts, in, os.Stdout)
	if err != nil {
		log.Fatalf("juggle: %v", err)
	}
	log.Printf("session %s: frames=%d count=%d skipped=%d", sum.SessionID, sum.Frames, sum.Count, sum.Skipped)
	for _, p := range sum.Reports {
		log.Printf("✓ Created: %s", p)
	}
}

func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.DefaultTuningConfig(), nil
	}
	cfg, err := config.LoadTuningConfig(path)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// run processes every frame from in, writing one line per event to out.
func run(ctx context.Context, opts Options, in io.Reader, out io.Writer) (Summary, error) {
	monitoring.SetVerbose(opts.Verbose)

	tuning, err := loadTuning(opts.ConfigPath)
	if err != nil {
		return Summary{}, err
	}
	cfg, err := session.ConfigFromTuning(tuning)
	if err != nil {
		return Summary{}, err
	}
	sess, err := session.New(cfg)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{SessionID: sess.ID}

	var store *sqlite.Store
	if opts.DBPath != "" {
		store, err = sqlite.Open(opts.DBPath)
		if err != nil {
			return sum, err
		}
		defer store.Close()
		if _, err := store.CreateSessionFrom(sess); err != nil {
			return sum, err
		}
	}

	var rec *report.Recorder
	if opts.OutDir != "" {
		rec = report.NewRecorder(fmt.Sprintf("session %s", sess.ID), cfg.Counter.Axis)
	}

	step := func(frame trajectory.Frame) {
		res := sess.Step(frame)
		if res.Fired {
			fmt.Fprintf(out, "frame=%d count=%d\n", res.Index, res.Count)
		}
		if store != nil {
			if err := store.RecordFrame(sess.ID, res); err != nil {
				log.Printf("warning: failed to store frame %d: %v", res.Index, err)
			}
		}
		if rec != nil {
			rec.Record(res)
		}
	}

	reader := ingest.NewReader(in)
	next := -1
	for ctx.Err() == nil {
		r, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *ingest.ParseError
		if errors.As(err, &perr) {
			log.Printf("warning: skipping %v", perr)
			sum.Skipped++
			continue
		}
		if err != nil {
			return sum, err
		}

		// Input frame numbers that skip ahead are dropped frames upstream:
		// step them as misses so histories stay frame-aligned.
		if next >= 0 && r.Index > next {
			gap := r.Index - next
			if gap > maxGapFill {
				log.Printf("warning: frame %d follows %d, filling only %d missed frames", r.Index, next-1, maxGapFill)
				gap = maxGapFill
			}
			for i := 0; i < gap; i++ {
				step(trajectory.Frame{})
			}
		}
		step(r.Frame())
		next = r.Index + 1
	}

	if ctx.Err() != nil {
		log.Printf("interrupted, stopping after %d frames", sess.Frames())
	}
	sum.Frames = sess.Frames()
	sum.Count = sess.Count()

	if store != nil {
		if err := store.FinishSession(sess.ID, timeutil.FrameClock{Start: sess.StartedAt, Rate: cfg.FrameRate}.Timestamp(sum.Frames)); err != nil {
			log.Printf("warning: failed to finish session: %v", err)
		}
	}
	if rec != nil {
		paths, err := rec.SavePNGs(opts.OutDir)
		if err != nil {
			return sum, err
		}
		html, err := rec.SaveHTML(opts.OutDir)
		if err != nil {
			return sum, err
		}
		sum.Reports = append(paths, html)
	}

	fmt.Fprintf(out, "frames=%d count=%d\n", sum.Frames, sum.Count)
	return sum, nil
}
