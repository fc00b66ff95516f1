package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleReport() *Report {
	contestants := []Contestant{
		{ID: "c1", CompetitionID: "comp", Name: "Ada", RegistrationNumber: "R-1", Status: ContestantSubmitted},
		{ID: "c2", CompetitionID: "comp", Name: "Grace", RegistrationNumber: "R-2", Status: ContestantRegistered},
	}
	assignments := []JudgeAssignment{
		{JudgeID: "judge1", CompetitionID: "comp", JudgeName: "One"},
		{JudgeID: "judge2", CompetitionID: "comp", JudgeName: "Two"},
		{JudgeID: "judge3", CompetitionID: "comp", JudgeName: "Idle"},
	}
	rows := append(exampleRows(),
		Score{JudgeID: "judge1", ContestantID: "c2", CriteriaID: "k1", Score: 45},
		Score{JudgeID: "judge1", ContestantID: "c2", CriteriaID: "k2", Score: 45},
		Score{JudgeID: "judge2", ContestantID: "c2", CriteriaID: "k1", Score: 50, IsDraft: true},
	)
	criteria := twoCriteria()
	criteria[0].OrderIndex, criteria[1].OrderIndex = 2, 1
	return NewReport("comp", contestants, criteria, assignments, rows)
}

func TestReportLeaderboard(t *testing.T) {
	r := exampleReport()

	board := r.Leaderboard()

	require.Len(t, board, 2)
	assert.Equal(t, "c2", board[0].ContestantID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 90.0, board[0].Average, "draft row from judge2 is ignored")
	assert.Equal(t, 1, board[0].JudgeCount)
	assert.Equal(t, 90.0, board[0].Percentage)
	assert.Equal(t, "c1", board[1].ContestantID)
	assert.Equal(t, 65.0, board[1].Average)
	assert.Equal(t, 2, board[1].Rank)
	assert.Equal(t, 100.0, board[1].MaxPossible)
}

func TestReportLeaderboardSortByName(t *testing.T) {
	board := exampleReport().Leaderboard()

	require.NoError(t, SortBy(board, LeaderboardFields, "name", Ascending))

	assert.Equal(t, "Ada", board[0].Name)
	assert.Equal(t, 2, board[0].Rank, "sorting does not re-rank")
}

func TestReportJudgeMatrix(t *testing.T) {
	m := exampleReport().JudgeMatrix()

	require.Len(t, m.Judges, 3)
	assert.Equal(t, "Idle", m.Judges[2].Name)
	require.Len(t, m.Rows, 2)

	first := m.Rows[0]
	assert.Equal(t, "c1", first.ContestantID, "rows keep fetch order")
	require.NotNil(t, first.Scores[0])
	require.NotNil(t, first.Scores[1])
	assert.Equal(t, 75.0, *first.Scores[0])
	assert.Equal(t, 55.0, *first.Scores[1])
	assert.Nil(t, first.Scores[2])
	assert.Equal(t, 2, first.Rank)

	second := m.Rows[1]
	assert.Nil(t, second.Scores[1], "judge with only a draft shows as not scored")
	assert.Equal(t, 1, second.Rank)
}

func TestReportJudgeMatrixIncludesUnassignedScorers(t *testing.T) {
	rows := []Score{{JudgeID: "ghost", ContestantID: "c1", CriteriaID: "k1", Score: 12}}
	r := NewReport("comp", []Contestant{{ID: "c1", Name: "A"}}, twoCriteria(), nil, rows)

	m := r.JudgeMatrix()

	require.Len(t, m.Judges, 1)
	assert.Equal(t, "ghost", m.Judges[0].JudgeID)
	require.NotNil(t, m.Rows[0].Scores[0])
	assert.Equal(t, 12.0, *m.Rows[0].Scores[0])
}

func TestReportContestantCriteria(t *testing.T) {
	m := exampleReport().ContestantCriteria("c1")

	require.Len(t, m.Criteria, 2)
	assert.Equal(t, "k2", m.Criteria[0].CriteriaID, "criteria follow order_index")
	require.Len(t, m.Rows, 2)
	assert.Equal(t, "judge1", m.Rows[0].JudgeID)
	assert.Equal(t, 75.0, m.Rows[0].Total)
	require.NotNil(t, m.Rows[0].Scores[0])
	assert.Equal(t, 35.0, *m.Rows[0].Scores[0])
	assert.Equal(t, []float64{30, 35}, m.Averages)
	assert.Equal(t, 65.0, m.Average)

	empty := exampleReport().ContestantCriteria("missing")
	assert.Empty(t, empty.Rows)
	assert.Zero(t, empty.Average)
}

func TestReportJudgeCriteriaTotals(t *testing.T) {
	m := exampleReport().JudgeCriteriaTotals()

	require.Len(t, m.Rows, 3)
	one := m.Rows[0]
	assert.Equal(t, 165.0, one.Total)
	require.NotNil(t, one.Scores[1])
	assert.Equal(t, 85.0, *one.Scores[1])

	idle := m.Rows[2]
	assert.Zero(t, idle.Total)
	assert.Nil(t, idle.Scores[0])
}

func TestReportJudgeSummaries(t *testing.T) {
	r := exampleReport()

	summaries := r.JudgeSummaries()

	require.Len(t, summaries, 3)
	assert.Equal(t, 2, summaries[0].ContestantsScored)
	// judge1 totals 75 and 90: std dev 7.5.
	assert.InDelta(t, 25.0, summaries[0].Consistency, 1e-9)
	assert.Equal(t, 100.0, summaries[1].Consistency)
	assert.Equal(t, "Two", r.JudgeSummary("judge2").Name)
}

func TestReportEmptyCompetition(t *testing.T) {
	r := NewReport("comp", nil, nil, nil, nil)

	assert.Empty(t, r.Leaderboard())
	assert.Empty(t, r.JudgeMatrix().Rows)
	assert.Zero(t, r.MaxPossible())
	assert.Empty(t, r.Anomalies())
}

func TestGatewayError(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := error(NewGatewayError("fetch_scores", "comp", cause))

	assert.True(t, errors.Is(err, ErrDataUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "fetch_scores")
}

func TestCheckRange(t *testing.T) {
	c := Criterion{ID: "k1", MaxPoints: 10}

	assert.NoError(t, CheckRange(c, 0))
	assert.NoError(t, CheckRange(c, 10))

	err := CheckRange(c, 10.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidScoreValue)
	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "k1", rangeErr.CriteriaID)

	assert.ErrorIs(t, CheckRange(c, -1), ErrInvalidScoreValue)
}

func TestValidateRecords(t *testing.T) {
	assert.NoError(t, Validate(Criterion{ID: "k", CompetitionID: "c", Name: "n", MaxPoints: 1, Weight: 1}))
	assert.Error(t, Validate(Criterion{ID: "k", CompetitionID: "c", Name: "n", MaxPoints: 0, Weight: 1}))
	assert.Error(t, Validate(Contestant{ID: "x", CompetitionID: "c", Name: "n", Status: "lost"}))
	assert.Error(t, Validate(Score{JudgeID: "j", ContestantID: "c"}))
}

func TestReportEmptyListsEncodeAsArrays(t *testing.T) {
	r := NewReport("comp", nil, twoCriteria(), nil, nil)

	for name, v := range map[string]any{
		"contestant criteria": r.ContestantCriteria("missing"),
		"judge totals":        r.JudgeCriteriaTotals(),
	} {
		raw, err := json.Marshal(v)
		require.NoError(t, err, name)
		assert.Contains(t, string(raw), `"rows":[]`, name)
	}

	raw, err := json.Marshal(exampleReport().Deltas("judge3", "c1"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestReportHasJudge(t *testing.T) {
	r := exampleReport()

	assert.True(t, r.HasJudge("judge3"), "assigned without scores")
	assert.False(t, r.HasJudge("judge9"))
}
