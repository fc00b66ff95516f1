package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cssl-judging/internal/models"
	"cssl-judging/internal/scoring"
)

// Gateway exposes the repository to the scoring package. Every record is
// converted and validated at this boundary and rows come back in insertion
// order, which is what breaks ranking ties.
type Gateway struct {
	repo *Repository
}

var _ scoring.Gateway = (*Gateway)(nil)

func NewGateway(repo *Repository) *Gateway {
	return &Gateway{repo: repo}
}

func (g *Gateway) FetchContestants(ctx context.Context, competitionID string) ([]scoring.Contestant, error) {
	id, err := uuid.Parse(competitionID)
	if err != nil {
		return nil, scoring.NewGatewayError("fetch_contestants", competitionID, err)
	}
	rows, err := g.repo.GetContestantsByCompetition(ctx, id)
	if err != nil {
		return nil, scoring.NewGatewayError("fetch_contestants", competitionID, err)
	}
	out := make([]scoring.Contestant, 0, len(rows))
	for _, row := range rows {
		rec := ContestantRecord(row)
		if err := checkRecord(rec); err != nil {
			return nil, scoring.NewGatewayError("fetch_contestants", competitionID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (g *Gateway) FetchCriteria(ctx context.Context, competitionID string) ([]scoring.Criterion, error) {
	id, err := uuid.Parse(competitionID)
	if err != nil {
		return nil, scoring.NewGatewayError("fetch_criteria", competitionID, err)
	}
	rows, err := g.repo.GetCriteriaByCompetition(ctx, id)
	if err != nil {
		return nil, scoring.NewGatewayError("fetch_criteria", competitionID, err)
	}
	out := make([]scoring.Criterion, 0, len(rows))
	for _, row := range rows {
		rec := CriterionRecord(row)
		if err := checkRecord(rec); err != nil {
			return nil, scoring.NewGatewayError("fetch_criteria", competitionID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (g *Gateway) FetchScores(ctx context.Context, filter scoring.ScoreFilter) ([]scoring.Score, error) {
	q := g.repo.db.WithContext(ctx).Model(&models.Score{})
	for column, value := range map[string]string{
		"competition_id": filter.CompetitionID,
		"judge_id":       filter.JudgeID,
		"contestant_id":  filter.ContestantID,
	} {
		if value == "" {
			continue
		}
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, scoring.NewGatewayError("fetch_scores", filter.CompetitionID, fmt.Errorf("%s: %w", column, err))
		}
		q = q.Where(column+" = ?", id)
	}
	if filter.FinalOnly {
		q = q.Where("is_draft = ?", false)
	}

	var rows []models.Score
	if err := q.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, scoring.NewGatewayError("fetch_scores", filter.CompetitionID, err)
	}
	out := make([]scoring.Score, 0, len(rows))
	for _, row := range rows {
		rec := ScoreRecord(row)
		if err := checkRecord(rec); err != nil {
			return nil, scoring.NewGatewayError("fetch_scores", filter.CompetitionID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (g *Gateway) FetchJudgeAssignments(ctx context.Context, competitionID string) ([]scoring.JudgeAssignment, error) {
	id, err := uuid.Parse(competitionID)
	if err != nil {
		return nil, scoring.NewGatewayError("fetch_judge_assignments", competitionID, err)
	}
	rows, err := g.repo.GetAssignments(ctx, id)
	if err != nil {
		return nil, scoring.NewGatewayError("fetch_judge_assignments", competitionID, err)
	}
	out := make([]scoring.JudgeAssignment, 0, len(rows))
	for _, row := range rows {
		rec := scoring.JudgeAssignment{
			JudgeID:       row.JudgeID.String(),
			CompetitionID: row.CompetitionID.String(),
			JudgeName:     row.Judge.Name,
		}
		if err := checkRecord(rec); err != nil {
			return nil, scoring.NewGatewayError("fetch_judge_assignments", competitionID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func checkRecord(rec any) error {
	if err := scoring.Validate(rec); err != nil {
		return fmt.Errorf("%w: %v", scoring.ErrInvalidRecord, err)
	}
	return nil
}

func ContestantRecord(m models.Contestant) scoring.Contestant {
	return scoring.Contestant{
		ID:                 m.ID.String(),
		CompetitionID:      m.CompetitionID.String(),
		Name:               m.Name,
		RegistrationNumber: m.RegistrationNumber,
		Status:             m.Status,
	}
}

func CriterionRecord(m models.Criterion) scoring.Criterion {
	return scoring.Criterion{
		ID:            m.ID.String(),
		CompetitionID: m.CompetitionID.String(),
		Name:          m.Name,
		Description:   m.Description,
		MaxPoints:     m.MaxPoints,
		Weight:        m.Weight,
		OrderIndex:    m.OrderIndex,
	}
}

func ScoreRecord(m models.Score) scoring.Score {
	return scoring.Score{
		JudgeID:      m.JudgeID.String(),
		ContestantID: m.ContestantID.String(),
		CriteriaID:   m.CriteriaID.String(),
		Score:        m.Score,
		Feedback:     m.Feedback,
		IsDraft:      m.IsDraft,
	}
}

func CompetitionRecord(m models.Competition) scoring.Competition {
	rec := scoring.Competition{
		ID:              m.ID.String(),
		Name:            m.Name,
		Status:          m.Status,
		MaxParticipants: m.MaxParticipants,
	}
	if m.ConferenceID != nil {
		rec.ConferenceID = m.ConferenceID.String()
	}
	if m.StartDate != nil {
		rec.StartsAt = *m.StartDate
	}
	if m.EndDate != nil {
		rec.EndsAt = *m.EndDate
	}
	return rec
}
