// Package ingest reads and writes the per-frame observation stream that
// the perception stage hands to the tracking core. The stream is JSON
// lines, one frame per line:
//
//	{"frame": 12, "points": {"Ball": {"x": 0.51, "y": 0.42, "w": 0.04, "h": 0.05}, "Head": null}}
//
// A null point, or a null x/y, marks a missed detection.
package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/juggle.report/internal/trajectory"
)

// maxLineBytes bounds a single frame record.
const maxLineBytes = 1 << 20

// PointRecord is the wire form of one observation.
type PointRecord struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	W float64  `json:"w,omitempty"`
	H float64  `json:"h,omitempty"`
}

// Record is the wire form of one frame.
type Record struct {
	Index  int                     `json:"frame"`
	Points map[string]*PointRecord `json:"points"`
}

// ParseError reports a malformed line. The reader stays usable after one.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Frame converts the record to a trajectory frame.
func (r Record) Frame() trajectory.Frame {
	frame := make(trajectory.Frame, len(r.Points))
	for id, p := range r.Points {
		if p == nil || p.X == nil || p.Y == nil {
			frame[id] = trajectory.MissingObservation()
			continue
		}
		frame[id] = trajectory.NewObservation(*p.X, *p.Y, p.W, p.H)
	}
	return frame
}

// RecordFromFrame converts a trajectory frame to its wire form.
func RecordFromFrame(index int, frame trajectory.Frame) Record {
	rec := Record{Index: index, Points: make(map[string]*PointRecord, len(frame))}
	for id, obs := range frame {
		if !obs.Valid() {
			rec.Points[id] = nil
			continue
		}
		x, _ := obs.X.Get()
		y, _ := obs.Y.Get()
		rec.Points[id] = &PointRecord{X: &x, Y: &y, W: obs.Width, H: obs.Height}
	}
	return rec
}

// Reader decodes frame records line by line.
type Reader struct {
	scan *bufio.Scanner
	line int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{scan: scan}
}

// Next returns the next record. Blank lines and lines starting with '#'
// are skipped. It returns io.EOF at end of input and a *ParseError for a
// malformed line.
func (r *Reader) Next() (Record, error) {
	for r.scan.Scan() {
		r.line++
		text := strings.TrimSpace(r.scan.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return Record{}, &ParseError{Line: r.line, Err: err}
		}
		return rec, nil
	}
	if err := r.scan.Err(); err != nil {
		return Record{}, fmt.Errorf("read frames: %w", err)
	}
	return Record{}, io.EOF
}

// ReadAll decodes every record, stopping at the first malformed line.
func ReadAll(r io.Reader) ([]Record, error) {
	reader := NewReader(r)
	var out []Record
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Writer encodes frame records as JSON lines.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write encodes one frame.
func (w *Writer) Write(index int, frame trajectory.Frame) error {
	data, err := json.Marshal(RecordFromFrame(index, frame))
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	if _, err := w.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write frame %d: %w", index, err)
	}
	return nil
}

// Flush flushes buffered output.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
