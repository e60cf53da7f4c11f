package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/juggle.report/internal/trajectory"
)

var (
	measuredColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	predictedColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	extrapolatedColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	eventColor        = color.RGBA{R: 127, G: 127, B: 127, A: 255}
)

// PNGPath returns the file a point's chart is written to.
func PNGPath(outDir, id string) string {
	return filepath.Join(outDir, fmt.Sprintf("trajectory_%s.png", safeName(id)))
}

// safeName maps a point id onto [A-Za-z0-9._-], collapsing runs of other
// characters to one underscore. Ids come from the perception stage and
// may contain spaces or separators.
func safeName(id string) string {
	const maxLen = 64
	var b strings.Builder
	lastUnderscore := false
	for _, r := range id {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "point"
	}
	return out
}

// SavePNGs writes one chart per recorded point and returns the paths.
func (r *Recorder) SavePNGs(outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	var paths []string
	for _, id := range r.Points() {
		path := PNGPath(outDir, id)
		if err := r.savePNG(id, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *Recorder) savePNG(id, path string) error {
	axis := r.Axis
	samples := r.Samples(id)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - %s position", id, axis)
	if r.Title != "" {
		p.Title.Text = fmt.Sprintf("%s: %s", r.Title, p.Title.Text)
	}
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = fmt.Sprintf("%s (normalised)", axis)
	p.Add(plotter.NewGrid())

	lo, hi, ok := r.Range(id, axis)
	if !ok || hi <= lo {
		lo, hi = 0, 1
	}
	pad := 0.05 * (hi - lo)
	p.Y.Min, p.Y.Max = lo-pad, hi+pad
	p.X.Min, p.X.Max = 0, float64(len(samples))
	if len(samples) > 0 {
		p.X.Min = float64(samples[0].Frame)
		p.X.Max = float64(samples[len(samples)-1].Frame) + 1
	}
	if axis == trajectory.AxisY {
		// Image y grows downward; draw the top of the frame at the top.
		p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	}

	measPts := make(plotter.XYs, 0, len(samples))
	predPts := make(plotter.XYs, 0, len(samples))
	extPts := make(plotter.XYs, 0, len(samples))
	for _, s := range samples {
		x := float64(s.Frame)
		if v, ok := s.Measurement.Coord(axis).Get(); ok {
			measPts = append(measPts, plotter.XY{X: x, Y: v})
		} else if v, ok := s.Extrapolated.Coord(axis).Get(); ok {
			extPts = append(extPts, plotter.XY{X: x, Y: v})
		}
		if v, ok := s.Prediction.Coord(axis).Get(); ok {
			predPts = append(predPts, plotter.XY{X: x, Y: v})
		}
	}

	if len(predPts) > 0 {
		predLine, err := plotter.NewLine(predPts)
		if err != nil {
			return fmt.Errorf("failed to create prediction line for %s: %w", id, err)
		}
		predLine.Color = predictedColor
		predLine.Width = vg.Points(1)
		p.Add(predLine)
		p.Legend.Add("kalman", predLine)
	}
	if len(measPts) > 0 {
		measScatter, err := plotter.NewScatter(measPts)
		if err != nil {
			return fmt.Errorf("failed to create measurement scatter for %s: %w", id, err)
		}
		measScatter.GlyphStyle.Color = measuredColor
		measScatter.GlyphStyle.Shape = draw.CircleGlyph{}
		measScatter.GlyphStyle.Radius = vg.Points(2)
		p.Add(measScatter)
		p.Legend.Add("measured", measScatter)
	}
	if len(extPts) > 0 {
		extScatter, err := plotter.NewScatter(extPts)
		if err != nil {
			return fmt.Errorf("failed to create extrapolation scatter for %s: %w", id, err)
		}
		extScatter.GlyphStyle.Color = extrapolatedColor
		extScatter.GlyphStyle.Shape = draw.CrossGlyph{}
		extScatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(extScatter)
		p.Legend.Add("extrapolated", extScatter)
	}

	for i, ev := range r.Events() {
		x := float64(ev.Frame)
		marker, err := plotter.NewLine(plotter.XYs{{X: x, Y: p.Y.Min}, {X: x, Y: p.Y.Max}})
		if err != nil {
			return fmt.Errorf("failed to create event marker: %w", err)
		}
		marker.Color = eventColor
		marker.Width = vg.Points(0.5)
		marker.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(marker)
		if i == 0 {
			p.Legend.Add("event", marker)
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
