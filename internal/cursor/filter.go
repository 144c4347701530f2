package cursor

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// accelSpeed is the per-update pixel distance above which the
// acceleration boost kicks in.
const accelSpeed = 15.0

// Filter turns raw normalized hand positions into a smoothed screen
// position. It is relative: sensitivity scales position deltas, so any
// comfortable patch of camera space can drive the whole screen and the
// hand can be lifted and re-centered like a mouse on a pad.
//
// Not safe for concurrent use; the control loop owns it.
type Filter struct {
	primed  bool
	rawPrev mgl64.Vec2
	pos     mgl64.Vec2 // screen px
	vel     mgl64.Vec2 // screen px/s
}

// NewFilter creates a filter whose cursor rests at start (screen pixels).
func NewFilter(start mgl64.Vec2) *Filter {
	return &Filter{pos: start}
}

// Reset drops the raw reference and velocity. The next sample is adopted
// verbatim as the new reference and produces no motion, so neither a
// tracking gap nor a change of tracked landmark can fling the cursor.
// The screen position itself is kept.
func (f *Filter) Reset() {
	f.primed = false
	f.vel = mgl64.Vec2{}
}

// Position returns the current smoothed screen position.
func (f *Filter) Position() mgl64.Vec2 { return f.pos }

// Velocity returns the current velocity estimate in px/s.
func (f *Filter) Velocity() mgl64.Vec2 { return f.vel }

// Update advances the filter by one sample and returns the new screen
// position. raw is in normalized capture space; dt is the time since the
// previous update.
func (f *Filter) Update(raw mgl64.Vec2, dt time.Duration, cfg *Config) mgl64.Vec2 {
	if !f.primed {
		f.rawPrev = raw
		f.primed = true
		return f.pos
	}

	delta := raw.Sub(f.rawPrev)
	f.rawPrev = raw

	px := mgl64.Vec2{
		delta[0] * cfg.Sensitivity * float64(cfg.ScreenW),
		delta[1] * cfg.Sensitivity * float64(cfg.ScreenH),
	}
	if cfg.InvertX {
		px[0] = -px[0]
	}
	if cfg.InvertY {
		px[1] = -px[1]
	}

	speed := px.Len()
	if speed < cfg.Deadzone {
		// Tremor, not intent.
		px = mgl64.Vec2{}
	} else if cfg.Acceleration > 1 && speed > accelSpeed {
		px = px.Mul(cfg.Acceleration)
	}

	prev := f.pos
	target := prev.Add(px)
	s := cfg.Smoothing
	f.pos = prev.Mul(s).Add(target.Mul(1 - s))

	// Clamp the accumulator, not just the report. Relative control has no
	// absolute anchor: if the accumulator kept integrating past the edge,
	// moving back would first have to pay off the overshoot and the
	// cursor would stick. Velocity and the raw reference are left alone.
	f.pos = f.clamp(f.pos, cfg)

	if dt > 0 {
		f.vel = f.pos.Sub(prev).Mul(1 / dt.Seconds())
	}
	return f.pos
}

func (f *Filter) clamp(p mgl64.Vec2, cfg *Config) mgl64.Vec2 {
	p[0] = math.Min(math.Max(p[0], 0), float64(cfg.ScreenW-1))
	p[1] = math.Min(math.Max(p[1], 0), float64(cfg.ScreenH-1))
	return p
}
