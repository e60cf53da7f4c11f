// Command gen-frames writes a synthetic JSONL frame stream of a bouncing
// ball, for exercising juggle without a perception stage.
package main

import (
	"flag"
	"io"
	"log"
	"math"
	"os"
	"strings"

	"github.com/banshee-data/juggle.report/internal/ingest"
	"github.com/banshee-data/juggle.report/internal/synth"
	"github.com/banshee-data/juggle.report/internal/trajectory"
)

func main() {
	output := flag.String("o", "", "output path (default stdout)")
	frames := flag.Int("n", 300, "number of frames")
	period := flag.Int("period", 20, "frames per bounce")
	floor := flag.Float64("floor", 0.8, "lowest ball position (normalised image y)")
	depth := flag.Float64("depth", 0.5, "bounce height (normalised)")
	noise := flag.Float64("noise", 0, "gaussian noise standard deviation")
	gapEvery := flag.Int("gap-every", 0, "drop every nth detection (0 = none)")
	seed := flag.Int64("seed", 1, "noise seed")
	extra := flag.String("points", "Head", "comma-separated static points to emit alongside the ball")
	flag.Parse()

	if *period < 2 {
		log.Fatalf("period must be at least 2, got %d", *period)
	}

	var out io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Failed to create output: %v", err)
		}
		defer f.Close()
		out = f
	}

	ys := synth.Bounce(*frames, *period, *floor, *depth)
	if *noise > 0 {
		ys = synth.Noisy(ys, *noise, *seed)
	}
	ys = synth.WithGaps(ys, *gapEvery, *gapEvery-1)

	var statics []string
	for _, id := range strings.Split(*extra, ",") {
		if id = strings.TrimSpace(id); id != "" && id != trajectory.PointBall {
			statics = append(statics, id)
		}
	}

	w := ingest.NewWriter(out)
	for i, y := range ys {
		frame := trajectory.Frame{trajectory.PointBall: trajectory.MissingObservation()}
		if !math.IsNaN(y) {
			frame[trajectory.PointBall] = trajectory.NewObservation(0.5, y, 0.04, 0.04)
		}
		for j, id := range statics {
			frame[id] = trajectory.NewObservation(0.3+0.1*float64(j), 0.2, 0, 0)
		}
		if err := w.Write(i, frame); err != nil {
			log.Fatalf("write failed: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("flush failed: %v", err)
	}
	if *output != "" {
		log.Printf("✓ Created: %s (%d frames)", *output, *frames)
	}
}
