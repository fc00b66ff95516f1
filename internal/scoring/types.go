// Package scoring computes judge totals, contestant averages, rankings and
// report shapes from the raw score rows of a single competition. Everything
// in this package is pure: rows come in through a Gateway, results go out as
// plain values, and no state is shared between two computations.
package scoring

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Competition lifecycle states.
const (
	CompetitionDraft     = "draft"
	CompetitionActive    = "active"
	CompetitionCompleted = "completed"
	CompetitionCancelled = "cancelled"
)

// Contestant lifecycle states.
const (
	ContestantRegistered = "registered"
	ContestantSubmitted  = "submitted"
	ContestantJudged     = "judged"
)

// Competition is a single judged event with its own criteria and contestant pool.
type Competition struct {
	ID              string    `json:"id" validate:"required"`
	ConferenceID    string    `json:"conference_id,omitempty"`
	Name            string    `json:"name" validate:"required"`
	Status          string    `json:"status" validate:"required,oneof=draft active completed cancelled"`
	MaxParticipants int       `json:"max_participants" validate:"min=0"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
}

// Criterion is one scoring dimension. OrderIndex only drives display order
// and Weight is carried through but never applied to totals.
type Criterion struct {
	ID            string  `json:"id" validate:"required"`
	CompetitionID string  `json:"competition_id" validate:"required"`
	Name          string  `json:"name" validate:"required"`
	Description   string  `json:"description"`
	MaxPoints     float64 `json:"max_points" validate:"gt=0"`
	Weight        float64 `json:"weight" validate:"gt=0"`
	OrderIndex    int     `json:"order_index"`
}

// Contestant is an entrant of a competition.
type Contestant struct {
	ID                 string `json:"id" validate:"required"`
	CompetitionID      string `json:"competition_id" validate:"required"`
	Name               string `json:"name" validate:"required"`
	RegistrationNumber string `json:"registration_number"`
	Status             string `json:"status" validate:"required,oneof=registered submitted judged"`
}

// JudgeAssignment grants a judge the right to score a competition.
// JudgeName is carried for display only.
type JudgeAssignment struct {
	JudgeID       string `json:"judge_id" validate:"required"`
	CompetitionID string `json:"competition_id" validate:"required"`
	JudgeName     string `json:"judge_name"`
}

// Score is one stored row. The value is trusted as stored: range checks
// happen when the row is written, not here.
type Score struct {
	JudgeID      string  `json:"judge_id" validate:"required"`
	ContestantID string  `json:"contestant_id" validate:"required"`
	CriteriaID   string  `json:"criteria_id" validate:"required"`
	Score        float64 `json:"score"`
	Feedback     string  `json:"feedback"`
	IsDraft      bool    `json:"is_draft"`
}

// ScoreFilter narrows a FetchScores call. Empty ids match everything.
type ScoreFilter struct {
	CompetitionID string
	JudgeID       string
	ContestantID  string
	FinalOnly     bool
}

// Gateway is the read side of the persistent store as seen by the
// aggregation code. Implementations return typed, validated records and
// preserve a stable order between calls.
type Gateway interface {
	FetchContestants(ctx context.Context, competitionID string) ([]Contestant, error)
	FetchCriteria(ctx context.Context, competitionID string) ([]Criterion, error)
	FetchScores(ctx context.Context, filter ScoreFilter) ([]Score, error)
	FetchJudgeAssignments(ctx context.Context, competitionID string) ([]JudgeAssignment, error)
}

// Validate checks the struct tags of any record defined in this package.
func Validate(record any) error {
	return validate.Struct(record)
}
