package scoring

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Standing is a ranked Result. Rank is the 1-based position after a stable
// descending sort by Average; equal averages get consecutive ranks in input
// order, never a shared rank.
type Standing struct {
	Result
	Rank int
}

// Rank orders results by average, highest first.
func Rank(results []Result) []Standing {
	standings := make([]Standing, len(results))
	for i, r := range results {
		standings[i] = Standing{Result: r}
	}
	slices.SortStableFunc(standings, func(a, b Standing) int {
		return cmp.Compare(b.Average, a.Average)
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// Sign is the three-way classification of a delta.
type Sign int

const (
	Below Sign = -1
	Equal Sign = 0
	Above Sign = 1
)

func (s Sign) String() string {
	switch s {
	case Below:
		return "below"
	case Above:
		return "above"
	default:
		return "equal"
	}
}

// SignOf classifies a delta.
func SignOf(delta float64) Sign {
	switch {
	case delta < 0:
		return Below
	case delta > 0:
		return Above
	default:
		return Equal
	}
}

// CriterionDelta compares one judge's score on a criterion to the average
// of all judges on that criterion for the same contestant.
type CriterionDelta struct {
	CriteriaID string  `json:"criteria_id"`
	Name       string  `json:"name"`
	JudgeScore float64 `json:"judge_score"`
	Average    float64 `json:"average"`
	Delta      float64 `json:"delta"`
	Sign       string  `json:"sign"`
}

// Deltas returns judge_score - criterion_average for every criterion the
// judge scored on the contestant, in criteria order. Rounding and colouring
// are left to the caller.
func Deltas(e *Engine, judgeID, contestantID string) []CriterionDelta {
	out := make([]CriterionDelta, 0)
	for _, c := range e.Criteria() {
		score, ok := e.JudgeCriterionScore(judgeID, contestantID, c.ID)
		if !ok {
			continue
		}
		avg := e.CriterionAverage(contestantID, c.ID)
		delta := score - avg
		out = append(out, CriterionDelta{
			CriteriaID: c.ID,
			Name:       c.Name,
			JudgeScore: score,
			Average:    avg,
			Delta:      delta,
			Sign:       SignOf(delta).String(),
		})
	}
	return out
}

// Direction toggles ascending or descending order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc" or "desc", case-insensitively; anything else is ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Descending)) {
		return Descending
	}
	return Ascending
}

// Comparator compares two items on one field.
type Comparator[T any] func(a, b T) int

// By builds a Comparator from a key extractor.
func By[T any, K cmp.Ordered](key func(T) K) Comparator[T] {
	return func(a, b T) int { return cmp.Compare(key(a), key(b)) }
}

// SortFields maps field names to comparators for a row type.
type SortFields[T any] map[string]Comparator[T]

// SortBy stably sorts items in place on a named field. Ties keep their
// original order. An unknown field is an error and leaves items untouched.
func SortBy[T any](items []T, fields SortFields[T], field string, dir Direction) error {
	compare, ok := fields[field]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownSortField, field)
	}
	slices.SortStableFunc(items, func(a, b T) int {
		if dir == Descending {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return nil
}
