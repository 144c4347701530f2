// Package landmark provides hand-landmark frame types and the geometry
// predicates the gesture classifier is built on.
package landmark

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrInvalidFrame is returned by Validate for frames that must not be
// trusted: NaN or infinite coordinates, coordinates far outside the
// normalized capture space, or a tracking score outside [0, 1].
var ErrInvalidFrame = errors.New("invalid landmark frame")

// Point is a single landmark in normalized capture space. X and Y are in
// [0, 1] with y growing downward; Z is depth relative to the wrist.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec2 returns the point's x/y components as a screen-math vector.
func (p Point) Vec2() mgl64.Vec2 {
	return mgl64.Vec2{p.X, p.Y}
}

// Frame is one hand observation: the 21 MediaPipe landmarks plus tracking
// metadata. Seq increases monotonically within a source.
type Frame struct {
	Points     [NumLandmarks]Point `json:"points"`
	Handedness string              `json:"handedness"` // "Left" or "Right"
	Score      float64             `json:"score"`
	Seq        uint64              `json:"seq"`
	Timestamp  time.Time           `json:"timestamp"`
}

// Coordinates slightly outside the unit square are normal near the capture
// edges; beyond this band the tracker is hallucinating.
const coordSlack = 0.5

// Validate reports whether the frame can be trusted by the classifier.
// A nil frame, any non-finite coordinate, coordinates far outside the
// normalized range, or a nonsensical score all fail.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidFrame)
	}
	for i, p := range f.Points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("%w: non-finite coordinate at landmark %d", ErrInvalidFrame, i)
		}
		if p.X < -coordSlack || p.X > 1+coordSlack || p.Y < -coordSlack || p.Y > 1+coordSlack {
			return fmt.Errorf("%w: landmark %d out of range (%.3f, %.3f)", ErrInvalidFrame, i, p.X, p.Y)
		}
	}
	if !finite(f.Score) || f.Score < 0 || f.Score > 1 {
		return fmt.Errorf("%w: score %v", ErrInvalidFrame, f.Score)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// dist is the Euclidean distance between two landmarks.
func dist(a, b Point) float64 {
	return mgl64.Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}.Len()
}

// Scale returns the hand's characteristic size: the wrist to middle-MCP
// distance. Pinch distances are expressed as a fraction of this so the
// classifier is independent of how close the hand is to the camera.
func (f *Frame) Scale() float64 {
	return dist(f.Points[Wrist], f.Points[MiddleMCP])
}

// PinchRatio returns the thumb-tip to index-tip distance as a fraction of
// the hand scale. Degenerate frames (zero scale) report +Inf so they can
// never read as a pinch.
func (f *Frame) PinchRatio() float64 {
	scale := f.Scale()
	if scale < 1e-10 {
		return math.Inf(1)
	}
	return dist(f.Points[ThumbTip], f.Points[IndexTip]) / scale
}

// FingerExtended reports whether a non-thumb fingertip is raised above its
// PIP joint. Image y grows downward, so extended means tip.y < pip.y.
// tip must be IndexTip, MiddleTip, RingTip, or PinkyTip.
func (f *Frame) FingerExtended(tip int) bool {
	pip := tip - 2
	return f.Points[tip].Y < f.Points[pip].Y
}

// ThumbExtended reports whether the thumb is extended. The y-compare used
// for the other fingers does not work for the thumb, which folds sideways;
// instead the thumb counts as extended when its tip sits further from the
// wrist than its IP joint.
func (f *Frame) ThumbExtended() bool {
	w := f.Points[Wrist]
	return dist(f.Points[ThumbTip], w) > dist(f.Points[ThumbIP], w)
}

// fingertips are the non-thumb tips, index to pinky.
var fingertips = [4]int{IndexTip, MiddleTip, RingTip, PinkyTip}

// ExtendedFingers counts the extended non-thumb fingers.
func (f *Frame) ExtendedFingers() int {
	n := 0
	for _, tip := range fingertips {
		if f.FingerExtended(tip) {
			n++
		}
	}
	return n
}

// ExtendedTotal counts all extended digits including the thumb.
func (f *Frame) ExtendedTotal() int {
	n := f.ExtendedFingers()
	if f.ThumbExtended() {
		n++
	}
	return n
}
