package gesture

import "github.com/ayusman/mudra/internal/landmark"

// pose is the instantaneous shape of the hand in a single frame, before
// any debouncing. poseNone means a hand is visible but matches nothing.
type pose int

const (
	poseNone pose = iota
	posePinch
	poseFist
	posePeace
	poseOpen
	posePoint

	poseCount
)

var poseNames = [poseCount]string{"none", "pinch", "fist", "peace", "open", "point"}

func (p pose) String() string { return poseNames[p] }

// poseOf classifies a single valid frame. The case order is the priority
// order for ambiguous shapes: pinch beats fist beats peace beats open
// beats point. Pinch must win or an in-progress drag dies the moment the
// curled fingers read as something else.
func poseOf(f *landmark.Frame, pinchThreshold float64) pose {
	switch {
	case f.PinchRatio() < pinchThreshold:
		return posePinch
	case f.ExtendedFingers() == 0 && !f.ThumbExtended():
		return poseFist
	case f.FingerExtended(landmark.IndexTip) && f.FingerExtended(landmark.MiddleTip) &&
		!f.FingerExtended(landmark.RingTip) && !f.FingerExtended(landmark.PinkyTip):
		return posePeace
	case f.ExtendedTotal() >= 4:
		return poseOpen
	case f.FingerExtended(landmark.IndexTip) && f.ExtendedFingers() == 1:
		return posePoint
	default:
		return poseNone
	}
}
