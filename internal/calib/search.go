package calib

import (
	"context"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/mudra/internal/cursor"
)

// Why a search ended.
const (
	ReasonGridExhausted   = "grid_exhausted"
	ReasonBudgetExhausted = "budget_exhausted"
	ReasonCancelled       = "cancelled"
	ReasonFailed          = "failed"
)

// Params tune a search run.
type Params struct {
	// Grid is the candidate space. Zero value means DefaultGrid.
	Grid Grid
	// Weights map outcomes to costs. Zero value means DefaultWeights.
	Weights Weights
	// Budget caps the number of scored trials. Zero or negative means
	// the whole grid. Running out of budget is a normal ending, not an
	// error: the best cell seen so far wins.
	Budget int
	// Start is the cell the walk radiates from, normally
	// Grid.Locate(current tuning). Cells outside the grid are clamped.
	Start Coord
}

// Result is what a search produced.
type Result struct {
	// Best is the winning trial, nil only when no trial completed.
	Best       *Trial  `json:"best"`
	Trials     []Trial `json:"trials"`
	Reason     string  `json:"reason"`
	MeanCost   float64 `json:"mean_cost"`
	StddevCost float64 `json:"stddev_cost"`
}

// Search walks the grid breadth-first from Start, scoring each cell at
// most once, until the frontier, the budget, or the context runs out.
// Lower cost wins; on an exact tie the steadier tuning (higher smoothing)
// does. Cancellation is a normal ending: the partial result comes back
// with a nil error. Only an oracle failure returns an error, alongside
// whatever was scored before it.
func Search(ctx context.Context, oracle Oracle, base cursor.Config, p Params) (*Result, error) {
	if len(p.Grid.Sensitivities) == 0 || len(p.Grid.Smoothings) == 0 {
		p.Grid = DefaultGrid()
	}
	if p.Weights == (Weights{}) {
		p.Weights = DefaultWeights()
	}
	if p.Budget <= 0 || p.Budget > p.Grid.Size() {
		p.Budget = p.Grid.Size()
	}
	if !p.Grid.Contains(p.Start) {
		sens, smooth := base.Sensitivity, base.Smoothing
		p.Start = p.Grid.Locate(sens, smooth)
	}

	res := &Result{Reason: ReasonGridExhausted}
	bestIdx := -1

	queue := []Coord{p.Start}
	visited := map[Coord]bool{p.Start: true}

	var oracleErr error
walk:
	for len(queue) > 0 {
		if len(res.Trials) >= p.Budget {
			res.Reason = ReasonBudgetExhausted
			break
		}
		select {
		case <-ctx.Done():
			res.Reason = ReasonCancelled
			break walk
		default:
		}

		c := queue[0]
		queue = queue[1:]

		outcomes, err := oracle.RunTrial(ctx, p.Grid.Config(c, base))
		if err != nil {
			if ctx.Err() != nil {
				res.Reason = ReasonCancelled
				break
			}
			res.Reason = ReasonFailed
			oracleErr = err
			break
		}

		sens, smooth := p.Grid.At(c)
		trial := Trial{
			ID:          uuid.New().String(),
			Coord:       c,
			Sensitivity: sens,
			Smoothing:   smooth,
			Outcomes:    outcomes,
			Cost:        p.Weights.Cost(outcomes),
		}
		res.Trials = append(res.Trials, trial)

		if bestIdx < 0 || better(trial, res.Trials[bestIdx]) {
			bestIdx = len(res.Trials) - 1
		}

		for _, n := range p.Grid.Neighbors(c) {
			if !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}

	if bestIdx >= 0 {
		res.Best = &res.Trials[bestIdx]
	}
	res.MeanCost, res.StddevCost = costStats(res.Trials)
	return res, oracleErr
}

// better reports whether a beats b: lower cost, then higher smoothing,
// then whichever was scored first.
func better(a, b Trial) bool {
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	return a.Smoothing > b.Smoothing
}

func costStats(trials []Trial) (mean, stddev float64) {
	if len(trials) == 0 {
		return 0, 0
	}
	costs := make([]float64, len(trials))
	for i, t := range trials {
		costs[i] = t.Cost
	}
	mean = stat.Mean(costs, nil)
	if len(costs) > 1 {
		stddev = stat.StdDev(costs, nil)
	}
	return mean, stddev
}
