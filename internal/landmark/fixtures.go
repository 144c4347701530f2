package landmark

// Preset frames for tests and replay scripts. Coordinates are normalized
// capture space with the wrist at (0.5, 0.8) and y growing downward, the
// same layout the tracker reports for a right hand facing the camera.

// PointingFrame returns a frame with only the index finger extended.
func PointingFrame() Frame {
	f := Frame{
		Handedness: "Right",
		Score:      0.95,
	}

	f.Points[Wrist] = Point{X: 0.5, Y: 0.80, Z: 0.0}

	// Thumb tucked against the palm
	f.Points[ThumbCMC] = Point{X: 0.55, Y: 0.76, Z: 0.0}
	f.Points[ThumbMCP] = Point{X: 0.57, Y: 0.72, Z: 0.0}
	f.Points[ThumbIP] = Point{X: 0.56, Y: 0.70, Z: 0.0}
	f.Points[ThumbTip] = Point{X: 0.52, Y: 0.71, Z: 0.0}

	// Index extended upward
	f.Points[IndexMCP] = Point{X: 0.55, Y: 0.68, Z: 0.0}
	f.Points[IndexPIP] = Point{X: 0.56, Y: 0.55, Z: 0.0}
	f.Points[IndexDIP] = Point{X: 0.57, Y: 0.45, Z: 0.0}
	f.Points[IndexTip] = Point{X: 0.58, Y: 0.36, Z: 0.0}

	// Middle curled
	f.Points[MiddleMCP] = Point{X: 0.50, Y: 0.66, Z: -0.02}
	f.Points[MiddlePIP] = Point{X: 0.50, Y: 0.60, Z: -0.05}
	f.Points[MiddleDIP] = Point{X: 0.49, Y: 0.66, Z: -0.04}
	f.Points[MiddleTip] = Point{X: 0.48, Y: 0.70, Z: -0.02}

	// Ring curled
	f.Points[RingMCP] = Point{X: 0.45, Y: 0.68, Z: -0.02}
	f.Points[RingPIP] = Point{X: 0.45, Y: 0.62, Z: -0.05}
	f.Points[RingDIP] = Point{X: 0.44, Y: 0.68, Z: -0.04}
	f.Points[RingTip] = Point{X: 0.43, Y: 0.72, Z: -0.02}

	// Pinky curled
	f.Points[PinkyMCP] = Point{X: 0.40, Y: 0.70, Z: -0.02}
	f.Points[PinkyPIP] = Point{X: 0.40, Y: 0.65, Z: -0.05}
	f.Points[PinkyDIP] = Point{X: 0.39, Y: 0.70, Z: -0.04}
	f.Points[PinkyTip] = Point{X: 0.38, Y: 0.73, Z: -0.02}

	return f
}

// PinchFrame returns a frame with the thumb and index tips touching. The
// pinky stays half-raised, which is where the cursor anchor sits while a
// pinch is active.
func PinchFrame() Frame {
	f := Frame{
		Handedness: "Right",
		Score:      0.95,
	}

	f.Points[Wrist] = Point{X: 0.5, Y: 0.80, Z: 0.0}

	// Thumb reaching forward to meet the index tip
	f.Points[ThumbCMC] = Point{X: 0.55, Y: 0.76, Z: 0.0}
	f.Points[ThumbMCP] = Point{X: 0.59, Y: 0.70, Z: 0.0}
	f.Points[ThumbIP] = Point{X: 0.60, Y: 0.62, Z: 0.0}
	f.Points[ThumbTip] = Point{X: 0.60, Y: 0.55, Z: 0.0}

	// Index bent toward the thumb, tips nearly touching
	f.Points[IndexMCP] = Point{X: 0.55, Y: 0.68, Z: 0.0}
	f.Points[IndexPIP] = Point{X: 0.58, Y: 0.60, Z: 0.0}
	f.Points[IndexDIP] = Point{X: 0.59, Y: 0.57, Z: 0.0}
	f.Points[IndexTip] = Point{X: 0.605, Y: 0.555, Z: 0.0}

	// Middle curled
	f.Points[MiddleMCP] = Point{X: 0.50, Y: 0.66, Z: -0.02}
	f.Points[MiddlePIP] = Point{X: 0.50, Y: 0.60, Z: -0.05}
	f.Points[MiddleDIP] = Point{X: 0.49, Y: 0.66, Z: -0.04}
	f.Points[MiddleTip] = Point{X: 0.48, Y: 0.70, Z: -0.02}

	// Ring curled
	f.Points[RingMCP] = Point{X: 0.45, Y: 0.68, Z: -0.02}
	f.Points[RingPIP] = Point{X: 0.45, Y: 0.62, Z: -0.05}
	f.Points[RingDIP] = Point{X: 0.44, Y: 0.68, Z: -0.04}
	f.Points[RingTip] = Point{X: 0.43, Y: 0.72, Z: -0.02}

	// Pinky half-raised
	f.Points[PinkyMCP] = Point{X: 0.40, Y: 0.70, Z: 0.0}
	f.Points[PinkyPIP] = Point{X: 0.39, Y: 0.63, Z: 0.0}
	f.Points[PinkyDIP] = Point{X: 0.38, Y: 0.58, Z: 0.0}
	f.Points[PinkyTip] = Point{X: 0.37, Y: 0.54, Z: 0.0}

	return f
}

// FistFrame returns a frame with all fingers curled and the thumb wrapped
// across them.
func FistFrame() Frame {
	f := Frame{
		Handedness: "Right",
		Score:      0.95,
	}

	f.Points[Wrist] = Point{X: 0.5, Y: 0.80, Z: 0.0}

	// Thumb wrapped across the curled fingers
	f.Points[ThumbCMC] = Point{X: 0.55, Y: 0.76, Z: 0.0}
	f.Points[ThumbMCP] = Point{X: 0.56, Y: 0.71, Z: 0.0}
	f.Points[ThumbIP] = Point{X: 0.54, Y: 0.68, Z: 0.0}
	f.Points[ThumbTip] = Point{X: 0.47, Y: 0.70, Z: 0.0}

	// Index curled into the palm
	f.Points[IndexMCP] = Point{X: 0.55, Y: 0.68, Z: -0.02}
	f.Points[IndexPIP] = Point{X: 0.55, Y: 0.63, Z: -0.05}
	f.Points[IndexDIP] = Point{X: 0.55, Y: 0.67, Z: -0.04}
	f.Points[IndexTip] = Point{X: 0.56, Y: 0.72, Z: -0.02}

	// Middle curled
	f.Points[MiddleMCP] = Point{X: 0.50, Y: 0.66, Z: -0.02}
	f.Points[MiddlePIP] = Point{X: 0.50, Y: 0.61, Z: -0.05}
	f.Points[MiddleDIP] = Point{X: 0.49, Y: 0.66, Z: -0.04}
	f.Points[MiddleTip] = Point{X: 0.49, Y: 0.71, Z: -0.02}

	// Ring curled
	f.Points[RingMCP] = Point{X: 0.45, Y: 0.68, Z: -0.02}
	f.Points[RingPIP] = Point{X: 0.45, Y: 0.63, Z: -0.05}
	f.Points[RingDIP] = Point{X: 0.45, Y: 0.67, Z: -0.04}
	f.Points[RingTip] = Point{X: 0.45, Y: 0.72, Z: -0.02}

	// Pinky curled
	f.Points[PinkyMCP] = Point{X: 0.40, Y: 0.70, Z: -0.02}
	f.Points[PinkyPIP] = Point{X: 0.40, Y: 0.66, Z: -0.05}
	f.Points[PinkyDIP] = Point{X: 0.40, Y: 0.70, Z: -0.04}
	f.Points[PinkyTip] = Point{X: 0.41, Y: 0.74, Z: -0.02}

	return f
}

// PeaceFrame returns a frame with index and middle fingers extended and the
// rest curled.
func PeaceFrame() Frame {
	f := Frame{
		Handedness: "Right",
		Score:      0.95,
	}

	f.Points[Wrist] = Point{X: 0.5, Y: 0.80, Z: 0.0}

	// Thumb tucked
	f.Points[ThumbCMC] = Point{X: 0.55, Y: 0.76, Z: 0.0}
	f.Points[ThumbMCP] = Point{X: 0.56, Y: 0.71, Z: 0.0}
	f.Points[ThumbIP] = Point{X: 0.54, Y: 0.68, Z: 0.0}
	f.Points[ThumbTip] = Point{X: 0.50, Y: 0.69, Z: 0.0}

	// Index extended
	f.Points[IndexMCP] = Point{X: 0.55, Y: 0.68, Z: 0.0}
	f.Points[IndexPIP] = Point{X: 0.57, Y: 0.55, Z: 0.0}
	f.Points[IndexDIP] = Point{X: 0.58, Y: 0.45, Z: 0.0}
	f.Points[IndexTip] = Point{X: 0.59, Y: 0.36, Z: 0.0}

	// Middle extended
	f.Points[MiddleMCP] = Point{X: 0.50, Y: 0.66, Z: 0.0}
	f.Points[MiddlePIP] = Point{X: 0.50, Y: 0.52, Z: 0.0}
	f.Points[MiddleDIP] = Point{X: 0.50, Y: 0.41, Z: 0.0}
	f.Points[MiddleTip] = Point{X: 0.50, Y: 0.30, Z: 0.0}

	// Ring curled
	f.Points[RingMCP] = Point{X: 0.45, Y: 0.68, Z: -0.02}
	f.Points[RingPIP] = Point{X: 0.45, Y: 0.62, Z: -0.05}
	f.Points[RingDIP] = Point{X: 0.44, Y: 0.68, Z: -0.04}
	f.Points[RingTip] = Point{X: 0.43, Y: 0.72, Z: -0.02}

	// Pinky curled
	f.Points[PinkyMCP] = Point{X: 0.40, Y: 0.70, Z: -0.02}
	f.Points[PinkyPIP] = Point{X: 0.40, Y: 0.65, Z: -0.05}
	f.Points[PinkyDIP] = Point{X: 0.39, Y: 0.70, Z: -0.04}
	f.Points[PinkyTip] = Point{X: 0.38, Y: 0.73, Z: -0.02}

	return f
}

// OpenHandFrame returns a frame with all five digits extended.
func OpenHandFrame() Frame {
	f := Frame{
		Handedness: "Right",
		Score:      0.95,
	}

	f.Points[Wrist] = Point{X: 0.5, Y: 0.80, Z: 0.0}

	// Thumb extended to the side
	f.Points[ThumbCMC] = Point{X: 0.55, Y: 0.75, Z: 0.02}
	f.Points[ThumbMCP] = Point{X: 0.62, Y: 0.70, Z: 0.03}
	f.Points[ThumbIP] = Point{X: 0.68, Y: 0.65, Z: 0.03}
	f.Points[ThumbTip] = Point{X: 0.73, Y: 0.60, Z: 0.03}

	// Index extended upward
	f.Points[IndexMCP] = Point{X: 0.55, Y: 0.68, Z: 0.0}
	f.Points[IndexPIP] = Point{X: 0.57, Y: 0.55, Z: 0.0}
	f.Points[IndexDIP] = Point{X: 0.58, Y: 0.45, Z: 0.0}
	f.Points[IndexTip] = Point{X: 0.58, Y: 0.35, Z: 0.0}

	// Middle extended upward
	f.Points[MiddleMCP] = Point{X: 0.50, Y: 0.66, Z: 0.0}
	f.Points[MiddlePIP] = Point{X: 0.50, Y: 0.52, Z: 0.0}
	f.Points[MiddleDIP] = Point{X: 0.50, Y: 0.40, Z: 0.0}
	f.Points[MiddleTip] = Point{X: 0.50, Y: 0.28, Z: 0.0}

	// Ring extended upward
	f.Points[RingMCP] = Point{X: 0.45, Y: 0.68, Z: 0.0}
	f.Points[RingPIP] = Point{X: 0.43, Y: 0.55, Z: 0.0}
	f.Points[RingDIP] = Point{X: 0.42, Y: 0.45, Z: 0.0}
	f.Points[RingTip] = Point{X: 0.42, Y: 0.35, Z: 0.0}

	// Pinky extended upward
	f.Points[PinkyMCP] = Point{X: 0.40, Y: 0.70, Z: 0.0}
	f.Points[PinkyPIP] = Point{X: 0.37, Y: 0.60, Z: 0.0}
	f.Points[PinkyDIP] = Point{X: 0.35, Y: 0.50, Z: 0.0}
	f.Points[PinkyTip] = Point{X: 0.34, Y: 0.42, Z: 0.0}

	return f
}

// Translate returns a copy of f with every landmark shifted by (dx, dy).
// Replay scripts use it to sweep a pose across the capture space.
func Translate(f Frame, dx, dy float64) Frame {
	for i := range f.Points {
		f.Points[i].X += dx
		f.Points[i].Y += dy
	}
	return f
}
