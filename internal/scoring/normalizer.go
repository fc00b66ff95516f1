package scoring

import "fmt"

type pairKey struct{ a, b string }

type cellKey struct{ judge, contestant, criterion string }

// Entry is a single accepted score in a Matrix.
type Entry struct {
	JudgeID      string
	ContestantID string
	CriteriaID   string
	Score        float64
	Feedback     string
	IsDraft      bool
}

// AnomalyKind classifies rows the normalizer had to choose between.
type AnomalyKind string

const (
	// AnomalyDraftAndFinal means a draft and a final row exist for the same
	// (judge, contestant, criterion). The final row wins.
	AnomalyDraftAndFinal AnomalyKind = "draft_and_final"

	// AnomalyDuplicate means two rows of the same kind exist for one key.
	// The first row in fetch order wins.
	AnomalyDuplicate AnomalyKind = "duplicate"
)

// Anomaly records a key for which more than one row was seen.
type Anomaly struct {
	Kind         AnomalyKind
	JudgeID      string
	ContestantID string
	CriteriaID   string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s: judge=%s contestant=%s criterion=%s", a.Kind, a.JudgeID, a.ContestantID, a.CriteriaID)
}

// Matrix is the normalized view of a set of score rows, keyed by
// (judge, contestant, criterion). It is immutable once built.
type Matrix struct {
	byJudgeContestant     map[pairKey][]Entry
	byContestantCriterion map[pairKey][]Entry
	cells                 map[cellKey]Entry

	judges             []string
	judgesByContestant map[string][]string
	contestantsByJudge map[string][]string

	anomalies []Anomaly
}

// Normalize builds a Matrix from raw rows. When a key carries both a draft
// and a final row the final row is kept, the two are never summed, and the
// collision is recorded as an anomaly. With finalOnly set, keys whose chosen
// row is a draft are dropped after collisions are resolved. Judge and
// contestant orders follow first appearance in rows.
func Normalize(rows []Score, finalOnly bool) *Matrix {
	chosen := make(map[cellKey]int, len(rows))
	order := make([]cellKey, 0, len(rows))
	var anomalies []Anomaly

	for i, row := range rows {
		key := cellKey{row.JudgeID, row.ContestantID, row.CriteriaID}
		prev, seen := chosen[key]
		if !seen {
			chosen[key] = i
			order = append(order, key)
			continue
		}

		current := rows[prev]
		kind := AnomalyDuplicate
		if current.IsDraft != row.IsDraft {
			kind = AnomalyDraftAndFinal
			if current.IsDraft {
				chosen[key] = i
			}
		}
		anomalies = append(anomalies, Anomaly{
			Kind:         kind,
			JudgeID:      row.JudgeID,
			ContestantID: row.ContestantID,
			CriteriaID:   row.CriteriaID,
		})
	}

	m := &Matrix{
		byJudgeContestant:     make(map[pairKey][]Entry),
		byContestantCriterion: make(map[pairKey][]Entry),
		cells:                 make(map[cellKey]Entry, len(order)),
		judgesByContestant:    make(map[string][]string),
		contestantsByJudge:    make(map[string][]string),
		anomalies:             anomalies,
	}

	seenJudge := make(map[string]bool)
	seenPair := make(map[pairKey]bool)
	for _, key := range order {
		row := rows[chosen[key]]
		if finalOnly && row.IsDraft {
			continue
		}
		e := Entry{
			JudgeID:      row.JudgeID,
			ContestantID: row.ContestantID,
			CriteriaID:   row.CriteriaID,
			Score:        row.Score,
			Feedback:     row.Feedback,
			IsDraft:      row.IsDraft,
		}
		m.cells[key] = e

		jc := pairKey{e.JudgeID, e.ContestantID}
		m.byJudgeContestant[jc] = append(m.byJudgeContestant[jc], e)
		cc := pairKey{e.ContestantID, e.CriteriaID}
		m.byContestantCriterion[cc] = append(m.byContestantCriterion[cc], e)

		if !seenJudge[e.JudgeID] {
			seenJudge[e.JudgeID] = true
			m.judges = append(m.judges, e.JudgeID)
		}
		if !seenPair[jc] {
			seenPair[jc] = true
			m.judgesByContestant[e.ContestantID] = append(m.judgesByContestant[e.ContestantID], e.JudgeID)
			m.contestantsByJudge[e.JudgeID] = append(m.contestantsByJudge[e.JudgeID], e.ContestantID)
		}
	}

	return m
}

// ByJudgeContestant returns every criterion score one judge gave one contestant.
func (m *Matrix) ByJudgeContestant(judgeID, contestantID string) []Entry {
	return m.byJudgeContestant[pairKey{judgeID, contestantID}]
}

// ByContestantCriterion returns every judge's score for one criterion of one contestant.
func (m *Matrix) ByContestantCriterion(contestantID, criteriaID string) []Entry {
	return m.byContestantCriterion[pairKey{contestantID, criteriaID}]
}

// Cell returns the accepted entry for a single key.
func (m *Matrix) Cell(judgeID, contestantID, criteriaID string) (Entry, bool) {
	e, ok := m.cells[cellKey{judgeID, contestantID, criteriaID}]
	return e, ok
}

// Judges lists every judge with at least one accepted entry.
func (m *Matrix) Judges() []string { return m.judges }

// JudgesFor lists the judges that scored a contestant.
func (m *Matrix) JudgesFor(contestantID string) []string { return m.judgesByContestant[contestantID] }

// ContestantsScoredBy lists the contestants a judge scored.
func (m *Matrix) ContestantsScoredBy(judgeID string) []string { return m.contestantsByJudge[judgeID] }

// Anomalies returns the keys that had more than one candidate row.
func (m *Matrix) Anomalies() []Anomaly { return m.anomalies }

// Len is the number of accepted entries.
func (m *Matrix) Len() int { return len(m.cells) }
