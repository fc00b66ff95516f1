package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"cssl-judging/internal/logging"
	"cssl-judging/internal/models"
	"cssl-judging/internal/pkg"
	"cssl-judging/internal/repository"
	"cssl-judging/internal/scoring"
)

var validate = validator.New()

var (
	ErrNotJudge             = errors.New("caller is not a judge")
	ErrNotAssigned          = errors.New("judge is not assigned to this competition")
	ErrCompetitionNotActive = errors.New("competition is not accepting scores")
	ErrUnknownCriterion     = errors.New("criterion does not belong to this competition")
	ErrDuplicateCriterion   = errors.New("criterion submitted more than once")
	ErrEmptySubmission      = errors.New("no scores submitted")
)

// ScoreEntry is one criterion's value in a judge's submission.
type ScoreEntry struct {
	CriteriaID string  `json:"criteria_id" validate:"required,uuid"`
	Score      float64 `json:"score"`
	Feedback   string  `json:"feedback" validate:"max=2000"`
}

// ScoringService is the write path for judges.
type ScoringService struct {
	repo    *repository.Repository
	gateway scoring.Gateway
	metrics *pkg.Metrics
}

func NewScoringService(repo *repository.Repository, gateway scoring.Gateway, metrics *pkg.Metrics) *ScoringService {
	return &ScoringService{repo: repo, gateway: gateway, metrics: metrics}
}

// authorize resolves the judge behind id and checks the assignment.
func (s *ScoringService) authorize(ctx context.Context, id pkg.Identity, competitionID uuid.UUID) (uuid.UUID, error) {
	judgeID, err := id.JudgeID()
	if err != nil {
		return uuid.Nil, ErrNotJudge
	}
	assigned, err := s.repo.IsJudgeAssigned(ctx, judgeID, competitionID)
	if err != nil {
		return uuid.Nil, err
	}
	if !assigned {
		return uuid.Nil, ErrNotAssigned
	}
	return judgeID, nil
}

// SubmitScores validates and stores one judge's scores for one contestant.
// Every value is range-checked against its criterion before anything is
// written; the write itself is a single upsert keyed by
// (judge, contestant, criterion). A final submission that covers every
// criterion marks the contestant as judged.
func (s *ScoringService) SubmitScores(ctx context.Context, id pkg.Identity, contestantID uuid.UUID, entries []ScoreEntry, draft bool) ([]models.Score, error) {
	if len(entries) == 0 {
		return nil, ErrEmptySubmission
	}

	contestant, err := s.repo.GetContestantByID(ctx, contestantID)
	if err != nil {
		return nil, err
	}
	judgeID, err := s.authorize(ctx, id, contestant.CompetitionID)
	if err != nil {
		return nil, err
	}
	competition, err := s.repo.GetCompetitionByID(ctx, contestant.CompetitionID)
	if err != nil {
		return nil, err
	}
	if competition.Status != scoring.CompetitionActive {
		return nil, ErrCompetitionNotActive
	}

	criteria := make(map[string]scoring.Criterion, len(competition.Criteria))
	for _, c := range competition.Criteria {
		criteria[c.ID.String()] = repository.CriterionRecord(c)
	}

	rows := make([]models.Score, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if err := validate.Struct(entry); err != nil {
			return nil, fmt.Errorf("%w: %v", scoring.ErrInvalidRecord, err)
		}
		criterionID, _ := uuid.Parse(entry.CriteriaID)
		key := criterionID.String()
		criterion, ok := criteria[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCriterion, entry.CriteriaID)
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCriterion, entry.CriteriaID)
		}
		seen[key] = true
		if err := scoring.CheckRange(criterion, entry.Score); err != nil {
			return nil, err
		}
		rows = append(rows, models.Score{
			JudgeID:       judgeID,
			ContestantID:  contestant.ID,
			CriteriaID:    criterionID,
			CompetitionID: competition.ID,
			Score:         entry.Score,
			Feedback:      entry.Feedback,
			IsDraft:       draft,
		})
	}

	// Scores and the judged status commit together.
	err = s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpsertScores(ctx, rows); err != nil {
			return err
		}
		if draft || contestant.Status == scoring.ContestantJudged {
			return nil
		}
		finals, err := tx.CountFinalScores(ctx, judgeID, contestant.ID)
		if err != nil {
			return err
		}
		if int(finals) >= len(criteria) {
			return tx.SetContestantStatus(ctx, contestant.ID, scoring.ContestantJudged)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordScores(draft, len(rows))
	logging.Log.Infof("SCORING: judge %s stored %d scores for contestant %s (draft=%t)", judgeID, len(rows), contestant.ID, draft)

	return rows, nil
}

// MyScores returns every row the judge stored in a competition, drafts included.
func (s *ScoringService) MyScores(ctx context.Context, id pkg.Identity, competitionID uuid.UUID) ([]scoring.Score, error) {
	judgeID, err := s.authorize(ctx, id, competitionID)
	if err != nil {
		return nil, err
	}
	return s.gateway.FetchScores(ctx, scoring.ScoreFilter{
		CompetitionID: competitionID.String(),
		JudgeID:       judgeID.String(),
	})
}

// CompetitionSheet returns what a judge needs to score a competition.
func (s *ScoringService) CompetitionSheet(ctx context.Context, id pkg.Identity, competitionID uuid.UUID) ([]scoring.Contestant, []scoring.Criterion, error) {
	if _, err := s.authorize(ctx, id, competitionID); err != nil {
		return nil, nil, err
	}
	contestants, err := s.gateway.FetchContestants(ctx, competitionID.String())
	if err != nil {
		return nil, nil, err
	}
	criteria, err := s.gateway.FetchCriteria(ctx, competitionID.String())
	if err != nil {
		return nil, nil, err
	}
	return contestants, criteria, nil
}
