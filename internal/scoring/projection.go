package scoring

import (
	"cmp"
	"slices"
)

// Report holds everything computed for one competition in one pass. The
// projections below only read from it.
type Report struct {
	CompetitionID string

	engine      *Engine
	judges      []JudgeAssignment
	criteria    []Criterion
	results     []Result
	standings   []Standing
	byContest   map[string]int
	maxPossible float64
}

// NewReport normalizes rows (final only), aggregates every contestant and
// ranks them. Contestant order is the tie-break order for ranking.
func NewReport(competitionID string, contestants []Contestant, criteria []Criterion, assignments []JudgeAssignment, rows []Score) *Report {
	ordered := slices.Clone(criteria)
	slices.SortStableFunc(ordered, func(a, b Criterion) int { return cmp.Compare(a.OrderIndex, b.OrderIndex) })

	matrix := Normalize(rows, true)
	engine := NewEngine(matrix, ordered)
	results := engine.Summarize(contestants)
	standings := Rank(results)

	byContest := make(map[string]int, len(standings))
	for i, s := range standings {
		byContest[s.Contestant.ID] = i
	}

	return &Report{
		CompetitionID: competitionID,
		engine:        engine,
		judges:        judgeColumns(assignments, matrix),
		criteria:      ordered,
		results:       results,
		standings:     standings,
		byContest:     byContest,
		maxPossible:   engine.MaxPossible(),
	}
}

// judgeColumns lists assigned judges first, then anyone who scored without a
// current assignment, so no score is silently dropped from a matrix.
func judgeColumns(assignments []JudgeAssignment, matrix *Matrix) []JudgeAssignment {
	cols := slices.Clone(assignments)
	known := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		known[a.JudgeID] = true
	}
	for _, judgeID := range matrix.Judges() {
		if !known[judgeID] {
			known[judgeID] = true
			cols = append(cols, JudgeAssignment{JudgeID: judgeID})
		}
	}
	return cols
}

// Engine exposes the underlying aggregation engine.
func (r *Report) Engine() *Engine { return r.engine }

// Standings returns contestants in rank order.
func (r *Report) Standings() []Standing { return r.standings }

// MaxPossible is the current maximum total a judge can award.
func (r *Report) MaxPossible() float64 { return r.maxPossible }

// Anomalies passes through what the normalizer flagged.
func (r *Report) Anomalies() []Anomaly { return r.engine.Matrix().Anomalies() }

// Standing looks up a contestant's ranked result.
func (r *Report) Standing(contestantID string) (Standing, bool) {
	i, ok := r.byContest[contestantID]
	if !ok {
		return Standing{}, false
	}
	return r.standings[i], true
}

// JudgeColumn identifies a judge column in a matrix.
type JudgeColumn struct {
	JudgeID string `json:"judge_id"`
	Name    string `json:"name"`
}

// JudgeMatrixRow is one contestant across all judges. Scores is aligned with
// JudgeMatrix.Judges; a nil cell means the judge has not scored.
type JudgeMatrixRow struct {
	ContestantID       string     `json:"contestant_id"`
	Name               string     `json:"name"`
	RegistrationNumber string     `json:"registration_number"`
	Scores             []*float64 `json:"scores"`
	Average            float64    `json:"average"`
	Rank               int        `json:"rank"`
}

// JudgeMatrix is the judge × contestant totals table.
type JudgeMatrix struct {
	CompetitionID string           `json:"competition_id"`
	Judges        []JudgeColumn    `json:"judges"`
	MaxPossible   float64          `json:"max_possible"`
	Rows          []JudgeMatrixRow `json:"rows"`
}

// JudgeMatrix projects judge totals per contestant, rows in fetch order.
func (r *Report) JudgeMatrix() JudgeMatrix {
	out := JudgeMatrix{
		CompetitionID: r.CompetitionID,
		Judges:        r.columns(),
		MaxPossible:   r.maxPossible,
		Rows:          make([]JudgeMatrixRow, 0, len(r.results)),
	}
	for _, res := range r.results {
		st, _ := r.Standing(res.Contestant.ID)
		row := JudgeMatrixRow{
			ContestantID:       res.Contestant.ID,
			Name:               res.Contestant.Name,
			RegistrationNumber: res.Contestant.RegistrationNumber,
			Scores:             make([]*float64, len(r.judges)),
			Average:            res.Average,
			Rank:               st.Rank,
		}
		for i, j := range r.judges {
			if total, ok := res.JudgeTotals[j.JudgeID]; ok {
				row.Scores[i] = &total
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func (r *Report) columns() []JudgeColumn {
	cols := make([]JudgeColumn, len(r.judges))
	for i, j := range r.judges {
		cols[i] = JudgeColumn{JudgeID: j.JudgeID, Name: j.JudgeName}
	}
	return cols
}

// LeaderboardEntry is one line of the contestant summary.
type LeaderboardEntry struct {
	Rank               int     `json:"rank"`
	ContestantID       string  `json:"contestant_id"`
	Name               string  `json:"name"`
	RegistrationNumber string  `json:"registration_number"`
	Status             string  `json:"status"`
	Average            float64 `json:"average"`
	JudgeCount         int     `json:"judge_count"`
	MaxPossible        float64 `json:"max_possible"`
	Percentage         float64 `json:"percentage"`
}

// LeaderboardFields are the sortable fields of a leaderboard.
var LeaderboardFields = SortFields[LeaderboardEntry]{
	"rank":                By(func(e LeaderboardEntry) int { return e.Rank }),
	"name":                By(func(e LeaderboardEntry) string { return e.Name }),
	"registration_number": By(func(e LeaderboardEntry) string { return e.RegistrationNumber }),
	"average":             By(func(e LeaderboardEntry) float64 { return e.Average }),
	"judge_count":         By(func(e LeaderboardEntry) int { return e.JudgeCount }),
}

// Leaderboard projects the standings in rank order. Percentage is the
// average over the current max possible, 0 when no criteria exist.
func (r *Report) Leaderboard() []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(r.standings))
	for _, s := range r.standings {
		var pct float64
		if r.maxPossible > 0 {
			pct = s.Average / r.maxPossible * 100
		}
		out = append(out, LeaderboardEntry{
			Rank:               s.Rank,
			ContestantID:       s.Contestant.ID,
			Name:               s.Contestant.Name,
			RegistrationNumber: s.Contestant.RegistrationNumber,
			Status:             s.Contestant.Status,
			Average:            s.Average,
			JudgeCount:         s.JudgeCount,
			MaxPossible:        r.maxPossible,
			Percentage:         pct,
		})
	}
	return out
}

// CriterionColumn identifies a criterion column in a matrix.
type CriterionColumn struct {
	CriteriaID string  `json:"criteria_id"`
	Name       string  `json:"name"`
	MaxPoints  float64 `json:"max_points"`
	Weight     float64 `json:"weight"`
}

// CriteriaRow is one judge across all criteria. Scores is aligned with the
// matrix's Criteria; a nil cell means no score.
type CriteriaRow struct {
	JudgeID string     `json:"judge_id"`
	Name    string     `json:"name"`
	Scores  []*float64 `json:"scores"`
	Total   float64    `json:"total"`
}

// CriteriaMatrix is the judge × criterion table. For a single contestant it
// carries per-criterion averages; competition-wide it carries judge totals
// summed over every contestant.
type CriteriaMatrix struct {
	CompetitionID string            `json:"competition_id"`
	ContestantID  string            `json:"contestant_id,omitempty"`
	Criteria      []CriterionColumn `json:"criteria"`
	Rows          []CriteriaRow     `json:"rows"`
	Averages      []float64         `json:"averages,omitempty"`
	Average       float64           `json:"average"`
	MaxPossible   float64           `json:"max_possible"`
}

func (r *Report) criterionColumns() []CriterionColumn {
	cols := make([]CriterionColumn, len(r.criteria))
	for i, c := range r.criteria {
		cols[i] = CriterionColumn{CriteriaID: c.ID, Name: c.Name, MaxPoints: c.MaxPoints, Weight: c.Weight}
	}
	return cols
}

// ContestantCriteria projects every judge's per-criterion scores for one
// contestant, with the criterion averages as a footer. Only judges who
// scored the contestant appear.
func (r *Report) ContestantCriteria(contestantID string) CriteriaMatrix {
	out := CriteriaMatrix{
		CompetitionID: r.CompetitionID,
		ContestantID:  contestantID,
		Criteria:      r.criterionColumns(),
		Averages:      make([]float64, len(r.criteria)),
		Rows:          make([]CriteriaRow, 0),
		MaxPossible:   r.maxPossible,
	}
	st, ok := r.Standing(contestantID)
	if !ok {
		return out
	}
	out.Average = st.Average

	for _, j := range r.judges {
		total, scored := st.JudgeTotals[j.JudgeID]
		if !scored {
			continue
		}
		row := CriteriaRow{JudgeID: j.JudgeID, Name: j.JudgeName, Scores: make([]*float64, len(r.criteria)), Total: total}
		for i, c := range r.criteria {
			if v, ok := r.engine.JudgeCriterionScore(j.JudgeID, contestantID, c.ID); ok {
				row.Scores[i] = &v
			}
		}
		out.Rows = append(out.Rows, row)
	}
	for i, c := range r.criteria {
		out.Averages[i] = r.engine.CriterionAverage(contestantID, c.ID)
	}
	return out
}

// JudgeCriteriaTotals projects, for every judge, the sum of their scores on
// each criterion across all contestants of the competition.
func (r *Report) JudgeCriteriaTotals() CriteriaMatrix {
	out := CriteriaMatrix{
		CompetitionID: r.CompetitionID,
		Criteria:      r.criterionColumns(),
		Rows:          make([]CriteriaRow, 0, len(r.judges)),
		MaxPossible:   r.maxPossible,
	}
	for _, j := range r.judges {
		row := CriteriaRow{
			JudgeID: j.JudgeID,
			Name:    j.JudgeName,
			Scores:  make([]*float64, len(r.criteria)),
			Total:   r.engine.JudgeGrandTotal(j.JudgeID),
		}
		for i, c := range r.criteria {
			if v, ok := r.engine.JudgeCriterionTotal(j.JudgeID, c.ID); ok {
				row.Scores[i] = &v
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// JudgeSummary describes one judge across the competition.
type JudgeSummary struct {
	JudgeID           string  `json:"judge_id"`
	Name              string  `json:"name"`
	ContestantsScored int     `json:"contestants_scored"`
	Consistency       float64 `json:"consistency"`
}

// JudgeSummaries lists every judge column with their consistency score.
func (r *Report) JudgeSummaries() []JudgeSummary {
	out := make([]JudgeSummary, 0, len(r.judges))
	for _, j := range r.judges {
		out = append(out, r.JudgeSummary(j.JudgeID))
	}
	return out
}

// HasJudge reports whether judgeID is one of the report's judge columns.
func (r *Report) HasJudge(judgeID string) bool {
	return slices.ContainsFunc(r.judges, func(j JudgeAssignment) bool { return j.JudgeID == judgeID })
}

// JudgeSummary describes a single judge; unknown judges get the defaults.
func (r *Report) JudgeSummary(judgeID string) JudgeSummary {
	s := JudgeSummary{
		JudgeID:           judgeID,
		ContestantsScored: len(r.engine.Matrix().ContestantsScoredBy(judgeID)),
		Consistency:       r.engine.JudgeConsistency(judgeID),
	}
	for _, j := range r.judges {
		if j.JudgeID == judgeID {
			s.Name = j.JudgeName
			break
		}
	}
	return s
}

// Deltas compares a judge to the panel average on one contestant.
func (r *Report) Deltas(judgeID, contestantID string) []CriterionDelta {
	return Deltas(r.engine, judgeID, contestantID)
}
