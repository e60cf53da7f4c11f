package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/juggle.report/internal/ingest"
	"github.com/banshee-data/juggle.report/internal/storage/sqlite"
	"github.com/banshee-data/juggle.report/internal/testutil"
	"github.com/banshee-data/juggle.report/internal/trajectory"
)

func bounceStream(t *testing.T, n int) string {
	t.Helper()
	var buf bytes.Buffer
	w := ingest.NewWriter(&buf)
	for i, y := range testutil.Bounce(n, 20, 0.8, 0.5) {
		require.NoError(t, w.Write(i, trajectory.Frame{trajectory.PointBall: trajectory.NewObservation(0.5, y, 0.04, 0.04)}))
	}
	require.NoError(t, w.Flush())
	return buf.String()
}

func TestRun_CountsBounces(t *testing.T) {
	var out bytes.Buffer
	sum, err := run(context.Background(), Options{}, strings.NewReader(bounceStream(t, 200)), &out)
	require.NoError(t, err)

	assert.Equal(t, 200, sum.Frames)
	assert.Equal(t, 9, sum.Count)
	assert.Equal(t, 10, strings.Count(out.String(), "\n"), "one line per event plus the summary")
	assert.Contains(t, out.String(), "frame=21 count=1\n")
	assert.True(t, strings.HasSuffix(out.String(), "frames=200 count=9\n"))
}

func TestRun_SkipsMalformedLines(t *testing.T) {
	stream := bounceStream(t, 24)
	lines := strings.SplitAfter(stream, "\n")
	input := strings.Join(lines[:5], "") + "{broken\n" + strings.Join(lines[5:], "")

	var out bytes.Buffer
	sum, err := run(context.Background(), Options{}, strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 24, sum.Frames)
	assert.Equal(t, 1, sum.Count)
}

func TestRun_FillsDroppedFrames(t *testing.T) {
	input := `{"frame": 0, "points": {"Ball": {"x": 0.5, "y": 0.5}}}
{"frame": 4, "points": {"Ball": {"x": 0.5, "y": 0.5}}}
`
	var out bytes.Buffer
	sum, err := run(context.Background(), Options{}, strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Frames)
}

func TestRun_StoreAndReports(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		DBPath: filepath.Join(dir, "juggle.db"),
		OutDir: filepath.Join(dir, "reports"),
	}

	var out bytes.Buffer
	sum, err := run(context.Background(), opts, strings.NewReader(bounceStream(t, 60)), &out)
	require.NoError(t, err)
	require.Len(t, sum.Reports, 2)
	for _, p := range sum.Reports {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}

	store, err := sqlite.Open(opts.DBPath)
	require.NoError(t, err)
	defer store.Close()

	rec, err := store.GetSession(sum.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 60, rec.FrameCount)
	assert.Equal(t, sum.Count, rec.EventCount)
	assert.NotNil(t, rec.EndedAt)

	evs, err := store.ListEvents(sum.SessionID)
	require.NoError(t, err)
	assert.Len(t, evs, sum.Count)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	sum, err := run(ctx, Options{}, strings.NewReader(bounceStream(t, 50)), &out)
	require.NoError(t, err)
	assert.Zero(t, sum.Frames)
}

func TestRun_BadConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "unknown mode", body: `{"counter_mode": "sometimes"}`, wantErr: "counter_mode"},
		{name: "negative variance", body: `{"process_variance": -1}`, wantErr: "process_variance"},
		{name: "malformed json", body: `{"counter_mode":`, wantErr: "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			_, err := run(context.Background(), Options{ConfigPath: path}, strings.NewReader(""), &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), path)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_StrokeConfig(t *testing.T) {
	// The repository's stroke example counts apexes of the wrist x track.
	path := filepath.Join("..", "..", "config", "stroke.example.json")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("stroke config not found: %v", err)
	}

	var buf bytes.Buffer
	w := ingest.NewWriter(&buf)
	for i, x := range testutil.Bounce(100, 20, 0.8, 0.5) {
		require.NoError(t, w.Write(i, trajectory.Frame{
			trajectory.PointLeftWrist: trajectory.NewObservation(1.1-x, 0.5, 0, 0),
			trajectory.PointHead:      trajectory.NewObservation(0.5, 0.2, 0, 0),
		}))
	}
	require.NoError(t, w.Flush())

	sum, err := run(context.Background(), Options{ConfigPath: path}, &buf, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 100, sum.Frames)
	assert.Positive(t, sum.Count)
}
