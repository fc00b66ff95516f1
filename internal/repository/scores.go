package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cssl-judging/internal/models"
)

// UpsertScores writes a batch of scores in one transaction. A row that
// already exists for the same (judge, contestant, criterion) is updated in
// place, so readers never observe a judge with a partially deleted sheet.
func (r *Repository) UpsertScores(ctx context.Context, scores []models.Score) error {
	if len(scores) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "judge_id"}, {Name: "contestant_id"}, {Name: "criteria_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"competition_id", "score", "feedback", "is_draft", "updated_at",
			}),
		}).Create(&scores).Error
	})
}

// CountFinalScores counts a judge's non-draft rows for one contestant.
func (r *Repository) CountFinalScores(ctx context.Context, judgeID, contestantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Score{}).
		Where("judge_id = ? AND contestant_id = ? AND is_draft = ?", judgeID, contestantID, false).
		Count(&count).Error
	return count, err
}
