package trajectory

import (
	"fmt"
	"math"
)

// Axis selects one coordinate of an Observation.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// Axes lists the filtered coordinate axes in processing order.
var Axes = [...]Axis{AxisX, AxisY}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// ParseAxis converts "x" or "y" to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	}
	return 0, fmt.Errorf("unknown axis %q (want x or y)", s)
}

// Default point-of-interest labels produced by the perception stage.
const (
	PointBall      = "Ball"
	PointHead      = "Head"
	PointLeftKnee  = "Left_Knee"
	PointRightKnee = "Right_Knee"
	PointLeftFoot  = "Left_Foot"
	PointRightFoot = "Right_Foot"
	PointLeftWrist = "Left_Wrist"
)

// DefaultPoints is the full ball-plus-pose vocabulary.
var DefaultPoints = []string{
	PointLeftKnee, PointRightKnee, PointLeftFoot, PointRightFoot, PointHead, PointBall,
}

// Coord is an optional scalar. The zero value is missing.
type Coord struct {
	v  float64
	ok bool
}

// Some returns a present Coord. Non-finite values are treated as missing.
func Some(v float64) Coord {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Coord{}
	}
	return Coord{v: v, ok: true}
}

// Missing returns an absent Coord.
func Missing() Coord { return Coord{} }

// Get returns the value and whether it is present.
func (c Coord) Get() (float64, bool) { return c.v, c.ok }

// Valid reports whether the coordinate is present.
func (c Coord) Valid() bool { return c.ok }

// Or returns the value, or def when missing.
func (c Coord) Or(def float64) float64 {
	if !c.ok {
		return def
	}
	return c.v
}

func (c Coord) String() string {
	if !c.ok {
		return "-"
	}
	return fmt.Sprintf("%.4f", c.v)
}

// Observation is one frame's measurement (or estimate) for a point:
// normalised centre position plus bounding-box size. Width and Height are
// zero for skeletal landmarks and for missing observations.
type Observation struct {
	X      Coord
	Y      Coord
	Width  float64
	Height float64
}

// NewObservation builds a valid observation. A non-finite x or y yields a
// fully missing observation: coordinates are never partially missing.
func NewObservation(x, y, width, height float64) Observation {
	return normalise(Observation{X: Some(x), Y: Some(y), Width: width, Height: height})
}

// MissingObservation is the marker for a frame without a detection.
func MissingObservation() Observation { return Observation{} }

// Valid reports whether the position is present.
func (o Observation) Valid() bool { return o.X.Valid() && o.Y.Valid() }

// Coord returns the coordinate on the given axis.
func (o Observation) Coord(a Axis) Coord {
	if a == AxisX {
		return o.X
	}
	return o.Y
}

// normalise enforces the joint-absence rule.
func normalise(o Observation) Observation {
	if !o.X.Valid() || !o.Y.Valid() {
		return MissingObservation()
	}
	return o
}

// Frame maps point id to that point's observation for one frame.
type Frame map[string]Observation
