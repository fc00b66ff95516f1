package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Base carries the primary key and timestamps shared by every table.
// IDs are generated in Go so the schema works on any dialect.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type Conference struct {
	Base
	Name         string        `gorm:"not null" json:"name"`
	Description  string        `json:"description"`
	Location     string        `json:"location"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	Competitions []Competition `json:"competitions,omitempty"`
}

type Competition struct {
	Base
	ConferenceID    *uuid.UUID  `gorm:"type:uuid;index" json:"conference_id,omitempty"`
	Name            string      `gorm:"not null" json:"name"`
	Description     string      `json:"description"`
	Status          string      `gorm:"not null" json:"status"`
	MaxParticipants int         `json:"max_participants"`
	StartDate       *time.Time  `json:"start_date,omitempty"`
	EndDate         *time.Time  `json:"end_date,omitempty"`
	Criteria        []Criterion `json:"criteria,omitempty"`
}

type Criterion struct {
	Base
	CompetitionID uuid.UUID `gorm:"type:uuid;not null;index" json:"competition_id"`
	Name          string    `gorm:"not null" json:"name"`
	Description   string    `json:"description"`
	MaxPoints     float64   `gorm:"not null" json:"max_points"`
	Weight        float64   `gorm:"not null" json:"weight"`
	OrderIndex    int       `json:"order_index"`
}

type Contestant struct {
	Base
	CompetitionID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_contestant_registration" json:"competition_id"`
	Name               string    `gorm:"not null" json:"name"`
	Email              string    `json:"email"`
	RegistrationNumber string    `gorm:"not null;uniqueIndex:idx_contestant_registration" json:"registration_number"`
	Status             string    `gorm:"not null" json:"status"`
	SubmissionFile     string    `json:"submission_file,omitempty"`
}

type Judge struct {
	Base
	Name          string `gorm:"not null" json:"name"`
	Email         string `gorm:"unique;not null" json:"email"`
	Expertise     string `json:"expertise"`
	TempPassword  string `gorm:"-" json:"-"`
	PasswordHash  string `gorm:"not null" json:"-"`
	ResetRequired bool   `json:"reset_required"`
	TelegramID    *int64 `gorm:"uniqueIndex" json:"-"`
}

// BeforeSave hashes TempPassword when one was set on the struct.
func (j *Judge) BeforeSave(tx *gorm.DB) error {
	if j.TempPassword != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(j.TempPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		j.PasswordHash = string(hashed)
		j.TempPassword = ""
	}
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (j *Judge) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(j.PasswordHash), []byte(password)) == nil
}

type JudgeAssignment struct {
	Base
	JudgeID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_judge_assignment" json:"judge_id"`
	CompetitionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_judge_assignment" json:"competition_id"`
	Judge         Judge     `gorm:"foreignKey:JudgeID" json:"judge,omitempty"`
}

// Score is unique per (judge, contestant, criterion). Rows are written with
// an upsert on that key, never deleted and re-inserted.
type Score struct {
	Base
	JudgeID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_score_key" json:"judge_id"`
	ContestantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_score_key" json:"contestant_id"`
	CriteriaID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_score_key" json:"criteria_id"`
	CompetitionID uuid.UUID `gorm:"type:uuid;not null;index" json:"competition_id"`
	Score         float64   `gorm:"not null" json:"score"`
	Feedback      string    `json:"feedback"`
	IsDraft       bool      `gorm:"not null" json:"is_draft"`
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Conference{},
		&Competition{},
		&Criterion{},
		&Contestant{},
		&Judge{},
		&JudgeAssignment{},
		&Score{},
	}
}
