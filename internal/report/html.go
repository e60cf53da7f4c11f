package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/juggle.report/internal/trajectory"
)

// HTMLFile is the name of the interactive report.
const HTMLFile = "trajectory.html"

// missingValue is the gap marker understood by echarts.
const missingValue = "-"

// RenderHTML writes a page with one line chart per point (both axes,
// measured, predicted and extrapolated) and a chart of counted events.
func (r *Recorder) RenderHTML(w io.Writer) error {
	page := components.NewPage()

	for _, id := range r.Points() {
		page.AddCharts(r.pointChart(id))
	}
	page.AddCharts(r.eventChart())

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// SaveHTML writes the interactive report into outDir and returns its path.
func (r *Recorder) SaveHTML(outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(outDir, HTMLFile)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := r.RenderHTML(f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func (r *Recorder) pointChart(id string) *charts.Line {
	samples := r.Samples(id)

	frames := make([]int, len(samples))
	series := map[string][]opts.LineData{}
	names := []string{}
	for _, axis := range trajectory.Axes {
		for _, kind := range []string{"measured", "kalman", "extrapolated"} {
			names = append(names, fmt.Sprintf("%s %s", axis, kind))
		}
	}
	for i, s := range samples {
		frames[i] = s.Frame
		for _, axis := range trajectory.Axes {
			series[fmt.Sprintf("%s measured", axis)] = append(series[fmt.Sprintf("%s measured", axis)], lineValue(s.Measurement.Coord(axis)))
			series[fmt.Sprintf("%s kalman", axis)] = append(series[fmt.Sprintf("%s kalman", axis)], lineValue(s.Prediction.Coord(axis)))
			series[fmt.Sprintf("%s extrapolated", axis)] = append(series[fmt.Sprintf("%s extrapolated", axis)], lineValue(s.Extrapolated.Coord(axis)))
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: id, Subtitle: r.subtitle(fmt.Sprintf("frames=%d", len(samples)))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Position (normalised)"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(frames)
	for _, name := range names {
		line.AddSeries(name, series[name],
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
	}
	return line
}

func (r *Recorder) eventChart() *charts.Scatter {
	evs := r.Events()
	data := make([]opts.ScatterData, 0, len(evs))
	for _, ev := range evs {
		data = append(data, opts.ScatterData{Value: []interface{}{ev.Frame, ev.Count}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "Events", Subtitle: fmt.Sprintf("count=%d frames=%d", len(evs), r.Frames())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)
	scatter.AddSeries("events", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

func (r *Recorder) subtitle(s string) string {
	if r.Title == "" {
		return s
	}
	return r.Title + " " + s
}

func lineValue(c trajectory.Coord) opts.LineData {
	if v, ok := c.Get(); ok {
		return opts.LineData{Value: v}
	}
	return opts.LineData{Value: missingValue}
}
