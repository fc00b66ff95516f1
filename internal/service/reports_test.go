package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cssl-judging/internal/logging"
	"cssl-judging/internal/pkg"
	"cssl-judging/internal/scoring"
)

func init() {
	logging.Silence()
}

type fakeGateway struct {
	mu          sync.Mutex
	calls       []string
	contestants []scoring.Contestant
	criteria    []scoring.Criterion
	scores      []scoring.Score
	assignments []scoring.JudgeAssignment
	failOn      string
}

func (f *fakeGateway) record(op, competitionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	if op == f.failOn {
		return scoring.NewGatewayError(op, competitionID, errors.New("connection refused"))
	}
	return nil
}

func (f *fakeGateway) FetchContestants(_ context.Context, competitionID string) ([]scoring.Contestant, error) {
	if err := f.record("fetch_contestants", competitionID); err != nil {
		return nil, err
	}
	return f.contestants, nil
}

func (f *fakeGateway) FetchCriteria(_ context.Context, competitionID string) ([]scoring.Criterion, error) {
	if err := f.record("fetch_criteria", competitionID); err != nil {
		return nil, err
	}
	return f.criteria, nil
}

func (f *fakeGateway) FetchScores(_ context.Context, filter scoring.ScoreFilter) ([]scoring.Score, error) {
	if err := f.record("fetch_scores", filter.CompetitionID); err != nil {
		return nil, err
	}
	var out []scoring.Score
	for _, s := range f.scores {
		if filter.FinalOnly && s.IsDraft {
			continue
		}
		if filter.JudgeID != "" && s.JudgeID != filter.JudgeID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeGateway) FetchJudgeAssignments(_ context.Context, competitionID string) ([]scoring.JudgeAssignment, error) {
	if err := f.record("fetch_judge_assignments", competitionID); err != nil {
		return nil, err
	}
	return f.assignments, nil
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		contestants: []scoring.Contestant{
			{ID: "c1", CompetitionID: "comp", Name: "Ada", RegistrationNumber: "R-1", Status: scoring.ContestantSubmitted},
			{ID: "c2", CompetitionID: "comp", Name: "Bob", RegistrationNumber: "R-2", Status: scoring.ContestantSubmitted},
		},
		criteria: []scoring.Criterion{
			{ID: "k1", CompetitionID: "comp", Name: "Technique", MaxPoints: 50, Weight: 1},
			{ID: "k2", CompetitionID: "comp", Name: "Presentation", MaxPoints: 50, Weight: 1, OrderIndex: 1},
		},
		scores: []scoring.Score{
			{JudgeID: "judge1", ContestantID: "c1", CriteriaID: "k1", Score: 40},
			{JudgeID: "judge1", ContestantID: "c1", CriteriaID: "k2", Score: 35},
			{JudgeID: "judge2", ContestantID: "c1", CriteriaID: "k1", Score: 30},
			{JudgeID: "judge2", ContestantID: "c1", CriteriaID: "k2", Score: 25},
			{JudgeID: "judge1", ContestantID: "c2", CriteriaID: "k1", Score: 45},
			{JudgeID: "judge1", ContestantID: "c2", CriteriaID: "k2", Score: 45},
			{JudgeID: "judge2", ContestantID: "c2", CriteriaID: "k1", Score: 10, IsDraft: true},
		},
		assignments: []scoring.JudgeAssignment{
			{JudgeID: "judge1", CompetitionID: "comp", JudgeName: "One"},
			{JudgeID: "judge2", CompetitionID: "comp", JudgeName: "Two"},
		},
	}
}

func TestReportServiceBuildFetchesEverything(t *testing.T) {
	gw := newFakeGateway()
	svc := NewReportService(gw, nil)

	report, err := svc.Build(context.Background(), "comp")
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"fetch_contestants", "fetch_criteria", "fetch_scores", "fetch_judge_assignments"},
		gw.calls)
	assert.Equal(t, 100.0, report.MaxPossible())
	s, ok := report.Standing("c2")
	require.True(t, ok)
	assert.Equal(t, 1, s.Rank)
	assert.Equal(t, 90.0, s.Average, "draft rows are excluded from reports")
}

func TestReportServiceLeaderboard(t *testing.T) {
	svc := NewReportService(newFakeGateway(), nil)

	board, err := svc.Leaderboard(context.Background(), "comp", "", scoring.Ascending)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "c2", board[0].ContestantID)
	assert.Equal(t, 65.0, board[1].Average)

	board, err = svc.Leaderboard(context.Background(), "comp", "name", scoring.Ascending)
	require.NoError(t, err)
	assert.Equal(t, "Ada", board[0].Name)
	assert.Equal(t, 2, board[0].Rank)

	_, err = svc.Leaderboard(context.Background(), "comp", "shoe_size", scoring.Ascending)
	assert.Error(t, err)
}

func TestReportServiceProjections(t *testing.T) {
	svc := NewReportService(newFakeGateway(), nil)
	ctx := context.Background()

	matrix, err := svc.JudgeMatrix(ctx, "comp")
	require.NoError(t, err)
	require.Len(t, matrix.Rows, 2)
	require.NotNil(t, matrix.Rows[0].Scores[1])
	assert.Equal(t, 55.0, *matrix.Rows[0].Scores[1])

	criteria, err := svc.CriteriaMatrix(ctx, "comp", "c1")
	require.NoError(t, err)
	assert.Equal(t, []float64{35, 30}, criteria.Averages)

	totals, err := svc.CriteriaMatrix(ctx, "comp", "")
	require.NoError(t, err)
	require.Len(t, totals.Rows, 2)
	assert.Equal(t, 165.0, totals.Rows[0].Total)

	summary, err := svc.JudgeConsistency(ctx, "comp", "judge2")
	require.NoError(t, err)
	assert.Equal(t, "Two", summary.Name)
	assert.Equal(t, 100.0, summary.Consistency)

	summaries, err := svc.JudgeSummaries(ctx, "comp")
	require.NoError(t, err)
	assert.Len(t, summaries, 2)

	deltas, err := svc.JudgeDeltas(ctx, "comp", "judge2", "c1")
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.Equal(t, -5.0, deltas[0].Delta)
}

func TestReportServicePropagatesGatewayFailure(t *testing.T) {
	for _, op := range []string{"fetch_contestants", "fetch_criteria", "fetch_scores", "fetch_judge_assignments"} {
		t.Run(op, func(t *testing.T) {
			gw := newFakeGateway()
			gw.failOn = op
			metrics := pkg.NewMetrics()
			svc := NewReportService(gw, metrics)

			_, err := svc.Leaderboard(context.Background(), "comp", "", scoring.Descending)

			require.Error(t, err)
			assert.ErrorIs(t, err, scoring.ErrDataUnavailable)
			var gwErr *scoring.GatewayError
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, op, gwErr.Op)

			families, err := metrics.Registry().Gather()
			require.NoError(t, err)
			found := false
			for _, f := range families {
				if f.GetName() == "judging_report_errors_total" {
					found = true
					assert.Equal(t, 1.0, f.GetMetric()[0].GetCounter().GetValue())
				}
			}
			assert.True(t, found)
		})
	}
}

func TestReportServiceEmptyCompetition(t *testing.T) {
	svc := NewReportService(&fakeGateway{}, nil)

	board, err := svc.Leaderboard(context.Background(), "comp", "", scoring.Descending)

	require.NoError(t, err, "an empty competition is not an error")
	assert.Empty(t, board)
}

func counterValue(t *testing.T, metrics *pkg.Metrics, name string) float64 {
	t.Helper()
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestReportServiceFlagsDraftFinalCollision(t *testing.T) {
	gw := newFakeGateway()
	gw.scores = append(gw.scores,
		scoring.Score{JudgeID: "judge2", ContestantID: "c1", CriteriaID: "k1", Score: 5, IsDraft: true},
	)
	metrics := pkg.NewMetrics()
	svc := NewReportService(gw, metrics)

	report, err := svc.Build(context.Background(), "comp")

	require.NoError(t, err)
	anomalies := report.Anomalies()
	require.Len(t, anomalies, 1)
	assert.Equal(t, scoring.AnomalyDraftAndFinal, anomalies[0].Kind)
	assert.Equal(t, 1.0, counterValue(t, metrics, "judging_score_anomalies_total"))

	s, ok := report.Standing("c1")
	require.True(t, ok)
	assert.Equal(t, 65.0, s.Average, "the final row wins over the draft")
}

func TestReportServiceUnknownJudge(t *testing.T) {
	svc := NewReportService(newFakeGateway(), nil)

	_, err := svc.JudgeConsistency(context.Background(), "comp", "stranger")

	assert.ErrorIs(t, err, scoring.ErrUnknownJudge)
}
