package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"cssl-judging/internal/logging"
	"cssl-judging/internal/pkg"
	"cssl-judging/internal/scoring"
)

// ReportService builds competition reports. Each call fetches fresh rows and
// computes a new scoring.Report; nothing is cached between requests.
type ReportService struct {
	gateway scoring.Gateway
	metrics *pkg.Metrics
}

func NewReportService(gateway scoring.Gateway, metrics *pkg.Metrics) *ReportService {
	return &ReportService{gateway: gateway, metrics: metrics}
}

// Build issues the four gateway reads concurrently and waits for all of
// them. Any failure aborts the report; partial data is never aggregated.
// Drafts are fetched too so that draft/final collisions surface as anomalies;
// the report itself only aggregates final rows.
func (s *ReportService) Build(ctx context.Context, competitionID string) (*scoring.Report, error) {
	var (
		contestants []scoring.Contestant
		criteria    []scoring.Criterion
		rows        []scoring.Score
		assignments []scoring.JudgeAssignment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contestants, err = s.gateway.FetchContestants(gctx, competitionID)
		return err
	})
	g.Go(func() error {
		var err error
		criteria, err = s.gateway.FetchCriteria(gctx, competitionID)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.gateway.FetchScores(gctx, scoring.ScoreFilter{CompetitionID: competitionID})
		return err
	})
	g.Go(func() error {
		var err error
		assignments, err = s.gateway.FetchJudgeAssignments(gctx, competitionID)
		return err
	})
	if err := g.Wait(); err != nil {
		logging.Log.Errorf("REPORT: competition %s: %v", competitionID, err)
		return nil, err
	}

	report := scoring.NewReport(competitionID, contestants, criteria, assignments, rows)
	if anomalies := report.Anomalies(); len(anomalies) > 0 {
		for _, a := range anomalies {
			logging.Log.Warnf("REPORT: competition %s: %s", competitionID, a)
		}
		s.metrics.RecordAnomalies(len(anomalies))
	}
	return report, nil
}

func (s *ReportService) observe(name string, start time.Time, err error) {
	s.metrics.RecordReport(name, time.Since(start), err)
}

func (s *ReportService) JudgeMatrix(ctx context.Context, competitionID string) (m scoring.JudgeMatrix, err error) {
	defer func(start time.Time) { s.observe("judge_matrix", start, err) }(time.Now())
	report, err := s.Build(ctx, competitionID)
	if err != nil {
		return scoring.JudgeMatrix{}, err
	}
	return report.JudgeMatrix(), nil
}

// Leaderboard returns entries in rank order, or re-sorted by sortField when
// one is given. Sorting never changes the ranks themselves.
func (s *ReportService) Leaderboard(ctx context.Context, competitionID, sortField string, dir scoring.Direction) (board []scoring.LeaderboardEntry, err error) {
	defer func(start time.Time) { s.observe("leaderboard", start, err) }(time.Now())
	report, err := s.Build(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	board = report.Leaderboard()
	if sortField != "" {
		if err := scoring.SortBy(board, scoring.LeaderboardFields, sortField, dir); err != nil {
			return nil, err
		}
	}
	return board, nil
}

// CriteriaMatrix returns the judge x criterion matrix for one contestant, or
// each judge's criterion totals over the whole competition when contestantID
// is empty.
func (s *ReportService) CriteriaMatrix(ctx context.Context, competitionID, contestantID string) (m scoring.CriteriaMatrix, err error) {
	defer func(start time.Time) { s.observe("criteria_matrix", start, err) }(time.Now())
	report, err := s.Build(ctx, competitionID)
	if err != nil {
		return scoring.CriteriaMatrix{}, err
	}
	if contestantID == "" {
		return report.JudgeCriteriaTotals(), nil
	}
	return report.ContestantCriteria(contestantID), nil
}

func (s *ReportService) JudgeConsistency(ctx context.Context, competitionID, judgeID string) (summary scoring.JudgeSummary, err error) {
	defer func(start time.Time) { s.observe("judge_consistency", start, err) }(time.Now())
	report, err := s.Build(ctx, competitionID)
	if err != nil {
		return scoring.JudgeSummary{}, err
	}
	if !report.HasJudge(judgeID) {
		return scoring.JudgeSummary{}, fmt.Errorf("judge %s: %w", judgeID, scoring.ErrUnknownJudge)
	}
	return report.JudgeSummary(judgeID), nil
}

func (s *ReportService) JudgeSummaries(ctx context.Context, competitionID string) (summaries []scoring.JudgeSummary, err error) {
	defer func(start time.Time) { s.observe("judge_summaries", start, err) }(time.Now())
	report, err := s.Build(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return report.JudgeSummaries(), nil
}

func (s *ReportService) JudgeDeltas(ctx context.Context, competitionID, judgeID, contestantID string) (deltas []scoring.CriterionDelta, err error) {
	defer func(start time.Time) { s.observe("judge_deltas", start, err) }(time.Now())
	report, err := s.Build(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return report.Deltas(judgeID, contestantID), nil
}
