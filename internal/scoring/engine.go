package scoring

import "math"

// Engine answers aggregate questions about one competition from a normalized
// Matrix and the competition's current criteria. It never fails on missing
// data: every question has a defined zero result.
type Engine struct {
	matrix   *Matrix
	criteria []Criterion
}

// NewEngine binds a matrix to the criteria currently attached to the competition.
func NewEngine(matrix *Matrix, criteria []Criterion) *Engine {
	if matrix == nil {
		matrix = Normalize(nil, true)
	}
	return &Engine{matrix: matrix, criteria: criteria}
}

// Matrix exposes the normalized rows the engine works on.
func (e *Engine) Matrix() *Matrix { return e.matrix }

// Criteria returns the criteria the engine was built with.
func (e *Engine) Criteria() []Criterion { return e.criteria }

// JudgeTotals sums each judge's scores across all criteria for a contestant.
// Judges with no accepted entry for the contestant are absent from the map.
// Criterion weight is not applied.
func (e *Engine) JudgeTotals(contestantID string) map[string]float64 {
	judges := e.matrix.JudgesFor(contestantID)
	totals := make(map[string]float64, len(judges))
	for _, judgeID := range judges {
		totals[judgeID] = e.JudgeTotal(judgeID, contestantID)
	}
	return totals
}

// JudgeTotal is one judge's sum for one contestant, 0 when nothing was scored.
func (e *Engine) JudgeTotal(judgeID, contestantID string) float64 {
	var sum float64
	for _, entry := range e.matrix.ByJudgeContestant(judgeID, contestantID) {
		sum += entry.Score
	}
	return sum
}

// ContestantAverage is the arithmetic mean of the contestant's judge totals,
// or 0 when no judge has scored yet.
func (e *Engine) ContestantAverage(contestantID string) float64 {
	judges := e.matrix.JudgesFor(contestantID)
	if len(judges) == 0 {
		return 0
	}
	var sum float64
	for _, judgeID := range judges {
		sum += e.JudgeTotal(judgeID, contestantID)
	}
	return sum / float64(len(judges))
}

// CriterionAverage is the mean of every judge's score for one criterion of
// one contestant, or 0 when nobody scored it.
func (e *Engine) CriterionAverage(contestantID, criteriaID string) float64 {
	entries := e.matrix.ByContestantCriterion(contestantID, criteriaID)
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, entry := range entries {
		sum += entry.Score
	}
	return sum / float64(len(entries))
}

// JudgeCriterionScore returns a judge's score for one criterion of one contestant.
func (e *Engine) JudgeCriterionScore(judgeID, contestantID, criteriaID string) (float64, bool) {
	entry, ok := e.matrix.Cell(judgeID, contestantID, criteriaID)
	return entry.Score, ok
}

// JudgeCriterionTotal sums a judge's scores on one criterion across every
// contestant they scored. ok is false when the judge never scored it.
func (e *Engine) JudgeCriterionTotal(judgeID, criteriaID string) (total float64, ok bool) {
	for _, contestantID := range e.matrix.ContestantsScoredBy(judgeID) {
		if entry, found := e.matrix.Cell(judgeID, contestantID, criteriaID); found {
			total += entry.Score
			ok = true
		}
	}
	return total, ok
}

// JudgeGrandTotal sums a judge's totals over every contestant they scored.
func (e *Engine) JudgeGrandTotal(judgeID string) float64 {
	var sum float64
	for _, contestantID := range e.matrix.ContestantsScoredBy(judgeID) {
		sum += e.JudgeTotal(judgeID, contestantID)
	}
	return sum
}

// MaxPossible sums max_points over the criteria currently attached to the
// competition. It is not a snapshot: adding or removing a criterion after
// scoring started changes it.
func (e *Engine) MaxPossible() float64 {
	var sum float64
	for _, c := range e.criteria {
		sum += c.MaxPoints
	}
	return sum
}

// JudgeConsistency rates how stable a judge's totals are across the
// contestants they scored: max(0, 100 - stdDev*10), using the population
// standard deviation. A judge with fewer than two scored contestants is 100.
func (e *Engine) JudgeConsistency(judgeID string) float64 {
	contestants := e.matrix.ContestantsScoredBy(judgeID)
	if len(contestants) < 2 {
		return 100
	}
	totals := make([]float64, len(contestants))
	for i, contestantID := range contestants {
		totals[i] = e.JudgeTotal(judgeID, contestantID)
	}
	return math.Max(0, 100-StdDev(totals)*10)
}

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// Result is the per-contestant aggregate computed once per report.
type Result struct {
	Contestant  Contestant
	JudgeTotals map[string]float64
	Average     float64
	JudgeCount  int
}

// Summarize computes a Result for every contestant, preserving input order.
func (e *Engine) Summarize(contestants []Contestant) []Result {
	results := make([]Result, len(contestants))
	for i, c := range contestants {
		totals := e.JudgeTotals(c.ID)
		results[i] = Result{
			Contestant:  c,
			JudgeTotals: totals,
			Average:     e.ContestantAverage(c.ID),
			JudgeCount:  len(totals),
		}
	}
	return results
}
