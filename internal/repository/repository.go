package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cssl-judging/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func conflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}

// WithTransaction runs fn against a Repository bound to a single transaction.
func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Migrate creates or updates every table.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(models.All()...)
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Conferences

func (r *Repository) CreateConference(ctx context.Context, conference *models.Conference) error {
	return r.db.WithContext(ctx).Create(conference).Error
}

func (r *Repository) GetConferenceByID(ctx context.Context, id uuid.UUID) (*models.Conference, error) {
	var conference models.Conference
	err := r.db.WithContext(ctx).Preload("Competitions").First(&conference, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &conference, nil
}

func (r *Repository) GetAllConferences(ctx context.Context) ([]models.Conference, error) {
	var conferences []models.Conference
	err := r.db.WithContext(ctx).Order("start_date, created_at").Find(&conferences).Error
	return conferences, err
}

func (r *Repository) UpdateConference(ctx context.Context, conference *models.Conference) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(conference).Error
}

// DeleteConference detaches the conference's competitions before removing it.
func (r *Repository) DeleteConference(ctx context.Context, id uuid.UUID) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.db.Model(&models.Competition{}).
			Where("conference_id = ?", id).
			Update("conference_id", nil).Error; err != nil {
			return err
		}
		return tx.db.Delete(&models.Conference{}, "id = ?", id).Error
	})
}

// Competitions

func (r *Repository) CreateCompetition(ctx context.Context, competition *models.Competition) error {
	return r.db.WithContext(ctx).Create(competition).Error
}

func (r *Repository) GetCompetitionByID(ctx context.Context, id uuid.UUID) (*models.Competition, error) {
	var competition models.Competition
	err := r.db.WithContext(ctx).
		Preload("Criteria", func(db *gorm.DB) *gorm.DB { return db.Order("order_index, created_at") }).
		First(&competition, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &competition, nil
}

// GetAllCompetitions lists competitions, optionally narrowed to one conference.
func (r *Repository) GetAllCompetitions(ctx context.Context, conferenceID *uuid.UUID) ([]models.Competition, error) {
	var competitions []models.Competition
	q := r.db.WithContext(ctx).Order("created_at, id")
	if conferenceID != nil {
		q = q.Where("conference_id = ?", *conferenceID)
	}
	err := q.Find(&competitions).Error
	return competitions, err
}

// GetCompetitionsForJudge lists the competitions a judge is assigned to.
func (r *Repository) GetCompetitionsForJudge(ctx context.Context, judgeID uuid.UUID) ([]models.Competition, error) {
	var competitions []models.Competition
	err := r.db.WithContext(ctx).
		Joins("JOIN judge_assignments ON judge_assignments.competition_id = competitions.id").
		Where("judge_assignments.judge_id = ?", judgeID).
		Order("competitions.created_at, competitions.id").
		Find(&competitions).Error
	return competitions, err
}

func (r *Repository) UpdateCompetition(ctx context.Context, competition *models.Competition) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(competition).Error
}

// DeleteCompetition removes the competition with its criteria, contestants,
// assignments and scores.
func (r *Repository) DeleteCompetition(ctx context.Context, id uuid.UUID) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		for _, model := range []any{&models.Score{}, &models.JudgeAssignment{}, &models.Contestant{}, &models.Criterion{}} {
			if err := tx.db.Where("competition_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.db.Delete(&models.Competition{}, "id = ?", id).Error
	})
}

// Criteria

func (r *Repository) CreateCriterion(ctx context.Context, criterion *models.Criterion) error {
	return r.db.WithContext(ctx).Create(criterion).Error
}

func (r *Repository) GetCriterionByID(ctx context.Context, id uuid.UUID) (*models.Criterion, error) {
	var criterion models.Criterion
	if err := r.db.WithContext(ctx).First(&criterion, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &criterion, nil
}

func (r *Repository) GetCriteriaByCompetition(ctx context.Context, competitionID uuid.UUID) ([]models.Criterion, error) {
	var criteria []models.Criterion
	err := r.db.WithContext(ctx).
		Where("competition_id = ?", competitionID).
		Order("order_index, created_at, id").
		Find(&criteria).Error
	return criteria, err
}

func (r *Repository) UpdateCriterion(ctx context.Context, criterion *models.Criterion) error {
	return r.db.WithContext(ctx).Save(criterion).Error
}

// DeleteCriterion drops the criterion and every score recorded against it,
// so totals never include points for a criterion that no longer exists.
func (r *Repository) DeleteCriterion(ctx context.Context, id uuid.UUID) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.db.Where("criteria_id = ?", id).Delete(&models.Score{}).Error; err != nil {
			return err
		}
		return tx.db.Delete(&models.Criterion{}, "id = ?", id).Error
	})
}

// Contestants

func (r *Repository) CreateContestant(ctx context.Context, contestant *models.Contestant) error {
	return conflict(r.db.WithContext(ctx).Create(contestant).Error)
}

func (r *Repository) GetContestantByID(ctx context.Context, id uuid.UUID) (*models.Contestant, error) {
	var contestant models.Contestant
	if err := r.db.WithContext(ctx).First(&contestant, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &contestant, nil
}

func (r *Repository) GetContestantsByCompetition(ctx context.Context, competitionID uuid.UUID) ([]models.Contestant, error) {
	var contestants []models.Contestant
	err := r.db.WithContext(ctx).
		Where("competition_id = ?", competitionID).
		Order("created_at, id").
		Find(&contestants).Error
	return contestants, err
}

func (r *Repository) CountContestants(ctx context.Context, competitionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Contestant{}).Where("competition_id = ?", competitionID).Count(&count).Error
	return count, err
}

func (r *Repository) UpdateContestant(ctx context.Context, contestant *models.Contestant) error {
	return conflict(r.db.WithContext(ctx).Save(contestant).Error)
}

func (r *Repository) SetContestantStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&models.Contestant{}).Where("id = ?", id).Update("status", status).Error
}

func (r *Repository) DeleteContestant(ctx context.Context, id uuid.UUID) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.db.Where("contestant_id = ?", id).Delete(&models.Score{}).Error; err != nil {
			return err
		}
		return tx.db.Delete(&models.Contestant{}, "id = ?", id).Error
	})
}

// Judges

func (r *Repository) CreateJudge(ctx context.Context, judge *models.Judge) error {
	return conflict(r.db.WithContext(ctx).Create(judge).Error)
}

func (r *Repository) GetJudgeByID(ctx context.Context, id uuid.UUID) (*models.Judge, error) {
	var judge models.Judge
	if err := r.db.WithContext(ctx).First(&judge, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &judge, nil
}

func (r *Repository) GetJudgeByEmail(ctx context.Context, email string) (*models.Judge, error) {
	var judge models.Judge
	if err := r.db.WithContext(ctx).First(&judge, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &judge, nil
}

func (r *Repository) GetJudgeByTelegramID(ctx context.Context, telegramID int64) (*models.Judge, error) {
	var judge models.Judge
	if err := r.db.WithContext(ctx).First(&judge, "telegram_id = ?", telegramID).Error; err != nil {
		return nil, notFound(err)
	}
	return &judge, nil
}

func (r *Repository) GetAllJudges(ctx context.Context) ([]models.Judge, error) {
	var judges []models.Judge
	err := r.db.WithContext(ctx).Order("name, id").Find(&judges).Error
	return judges, err
}

func (r *Repository) UpdateJudge(ctx context.Context, judge *models.Judge) error {
	return conflict(r.db.WithContext(ctx).Save(judge).Error)
}

func (r *Repository) DeleteJudge(ctx context.Context, id uuid.UUID) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.db.Where("judge_id = ?", id).Delete(&models.Score{}).Error; err != nil {
			return err
		}
		if err := tx.db.Where("judge_id = ?", id).Delete(&models.JudgeAssignment{}).Error; err != nil {
			return err
		}
		return tx.db.Delete(&models.Judge{}, "id = ?", id).Error
	})
}

// Assignments

// AssignJudge is idempotent: assigning the same judge twice is not an error.
func (r *Repository) AssignJudge(ctx context.Context, judgeID, competitionID uuid.UUID) error {
	assignment := &models.JudgeAssignment{JudgeID: judgeID, CompetitionID: competitionID}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "judge_id"}, {Name: "competition_id"}},
			DoNothing: true,
		}).
		Create(assignment).Error
}

func (r *Repository) UnassignJudge(ctx context.Context, judgeID, competitionID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("judge_id = ? AND competition_id = ?", judgeID, competitionID).
		Delete(&models.JudgeAssignment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) IsJudgeAssigned(ctx context.Context, judgeID, competitionID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.JudgeAssignment{}).
		Where("judge_id = ? AND competition_id = ?", judgeID, competitionID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) GetAssignments(ctx context.Context, competitionID uuid.UUID) ([]models.JudgeAssignment, error) {
	var assignments []models.JudgeAssignment
	err := r.db.WithContext(ctx).
		Preload("Judge").
		Where("competition_id = ?", competitionID).
		Order("created_at, id").
		Find(&assignments).Error
	return assignments, err
}
