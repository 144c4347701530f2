package calib

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/mudra/internal/cursor"
)

// Outcome is one target acquisition during a trial: how long the user took
// to land on the target and how many times they clicked past it.
type Outcome struct {
	Target   int           `json:"target"`
	Duration time.Duration `json:"duration"`
	Misses   int           `json:"misses"`
}

// Trial is one scored grid cell.
type Trial struct {
	ID          string    `json:"id"`
	Coord       Coord     `json:"coord"`
	Sensitivity float64   `json:"sensitivity"`
	Smoothing   float64   `json:"smoothing"`
	Outcomes    []Outcome `json:"outcomes"`
	Cost        float64   `json:"cost"`
}

// Oracle runs one trial on a candidate tuning and reports what happened.
// The production oracle is the training UI with a human behind it; tests
// substitute synthetic ones. RunTrial honors ctx so an abandoned
// calibration can stop mid-trial.
type Oracle interface {
	RunTrial(ctx context.Context, cfg cursor.Config) ([]Outcome, error)
}

// Weights turn a trial's outcomes into a single cost. Misses are weighted
// harder than time: a tuning that overshoots is worse to live with than
// one that is merely slow.
type Weights struct {
	Time float64 `json:"time"` // per mean second to target
	Miss float64 `json:"miss"` // per missed click
}

// DefaultWeights returns the standard cost weighting.
func DefaultWeights() Weights {
	return Weights{Time: 1, Miss: 2}
}

// Cost scores a trial; lower is better. A trial with no outcomes costs
// +Inf so it can never win.
func (w Weights) Cost(outcomes []Outcome) float64 {
	if len(outcomes) == 0 {
		return math.Inf(1)
	}
	secs := make([]float64, len(outcomes))
	misses := 0
	for i, o := range outcomes {
		secs[i] = o.Duration.Seconds()
		misses += o.Misses
	}
	return w.Time*stat.Mean(secs, nil) + w.Miss*float64(misses)
}
