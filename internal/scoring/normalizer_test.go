package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("final only drops draft rows", func(t *testing.T) {
		rows := []Score{
			{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k1", Score: 40},
			{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k2", Score: 35, IsDraft: true},
		}

		m := Normalize(rows, true)

		require.Equal(t, 1, m.Len())
		entries := m.ByJudgeContestant("j1", "c1")
		require.Len(t, entries, 1)
		assert.Equal(t, "k1", entries[0].CriteriaID)
		assert.Empty(t, m.ByContestantCriterion("c1", "k2"))
		assert.Empty(t, m.Anomalies())
	})

	t.Run("drafts kept when final only is off", func(t *testing.T) {
		rows := []Score{
			{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k1", Score: 10, IsDraft: true},
		}

		m := Normalize(rows, false)

		e, ok := m.Cell("j1", "c1", "k1")
		require.True(t, ok)
		assert.True(t, e.IsDraft)
	})

	t.Run("final row wins over draft regardless of order", func(t *testing.T) {
		testCases := []struct {
			name string
			rows []Score
		}{
			{"draft first", []Score{
				{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k1", Score: 5, IsDraft: true},
				{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k1", Score: 8},
			}},
			{"final first", []Score{
				{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k1", Score: 8},
				{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k1", Score: 5, IsDraft: true},
			}},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				m := Normalize(tc.rows, false)

				e, ok := m.Cell("j1", "c1", "k1")
				require.True(t, ok)
				assert.Equal(t, 8.0, e.Score, "final row must be kept, never summed")
				assert.False(t, e.IsDraft)
				require.Len(t, m.Anomalies(), 1)
				assert.Equal(t, AnomalyDraftAndFinal, m.Anomalies()[0].Kind)
				assert.Len(t, m.ByJudgeContestant("j1", "c1"), 1)
			})
		}
	})

	t.Run("draft and final collision is flagged in final only mode", func(t *testing.T) {
		rows := []Score{
			{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k1", Score: 5, IsDraft: true},
			{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k1", Score: 8},
			{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k2", Score: 4, IsDraft: true},
		}

		m := Normalize(rows, true)

		require.Equal(t, 1, m.Len())
		e, ok := m.Cell("j1", "c1", "k1")
		require.True(t, ok)
		assert.Equal(t, 8.0, e.Score)
		_, ok = m.Cell("j1", "c1", "k2")
		assert.False(t, ok, "a lone draft never reaches the matrix")
		require.Len(t, m.Anomalies(), 1)
		assert.Equal(t, AnomalyDraftAndFinal, m.Anomalies()[0].Kind)
	})

	t.Run("duplicate finals keep first and are flagged", func(t *testing.T) {
		rows := []Score{
			{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k1", Score: 3},
			{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k1", Score: 9},
		}

		m := Normalize(rows, true)

		e, _ := m.Cell("j1", "c1", "k1")
		assert.Equal(t, 3.0, e.Score)
		require.Len(t, m.Anomalies(), 1)
		assert.Equal(t, AnomalyDuplicate, m.Anomalies()[0].Kind)
	})

	t.Run("indexes follow first appearance", func(t *testing.T) {
		rows := []Score{
			{JudgeID: "j2", ContestantID: "c2", CriteriaID: "k1", Score: 1},
			{JudgeID: "j1", ContestantID: "c1", CriteriaID: "k1", Score: 1},
			{JudgeID: "j2", ContestantID: "c1", CriteriaID: "k1", Score: 1},
			{JudgeID: "j2", ContestantID: "c1", CriteriaID: "k2", Score: 1},
		}

		m := Normalize(rows, true)

		assert.Equal(t, []string{"j2", "j1"}, m.Judges())
		assert.Equal(t, []string{"j1", "j2"}, m.JudgesFor("c1"))
		assert.Equal(t, []string{"c2", "c1"}, m.ContestantsScoredBy("j2"))
		assert.Len(t, m.ByContestantCriterion("c1", "k1"), 2)
		assert.Len(t, m.ByJudgeContestant("j2", "c1"), 2)
	})

	t.Run("empty input", func(t *testing.T) {
		m := Normalize(nil, true)

		assert.Zero(t, m.Len())
		assert.Empty(t, m.Judges())
		assert.Empty(t, m.JudgesFor("c1"))
	})
}
