package scoring

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDataUnavailable marks a failure of the Gateway to return rows.
	// Aggregation never runs on partial data when this is returned.
	ErrDataUnavailable = errors.New("score data unavailable")

	// ErrInvalidScoreValue is returned by writers when a value falls outside
	// [0, max_points] of its criterion.
	ErrInvalidScoreValue = errors.New("score value out of range")

	// ErrInvalidRecord indicates that the store returned a row that failed
	// validation at the gateway boundary.
	ErrInvalidRecord = errors.New("invalid record")

	ErrUnknownSortField = errors.New("unknown sort field")

	// ErrUnknownJudge is returned for a judge that is neither assigned to the
	// competition nor holds any score in it.
	ErrUnknownJudge = errors.New("judge not part of competition")
)

// GatewayError wraps a failed Gateway call. It matches ErrDataUnavailable
// through errors.Is while still unwrapping to the original cause.
type GatewayError struct {
	// Op is the gateway operation that failed, e.g. "fetch_scores".
	Op string

	// CompetitionID is the competition the call was scoped to, if any.
	CompetitionID string

	// Err is the underlying failure.
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error: op=%s, competition=%s, err=%v", e.Op, e.CompetitionID, e.Err)
}

func (e *GatewayError) Unwrap() []error { return []error{ErrDataUnavailable, e.Err} }

// NewGatewayError creates a GatewayError for the given operation.
func NewGatewayError(op, competitionID string, err error) *GatewayError {
	return &GatewayError{Op: op, CompetitionID: competitionID, Err: err}
}

// RangeError describes a rejected score value.
type RangeError struct {
	CriteriaID string
	Value      float64
	MaxPoints  float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("score %.2f for criterion %s outside [0, %.2f]", e.Value, e.CriteriaID, e.MaxPoints)
}

func (e *RangeError) Unwrap() error { return ErrInvalidScoreValue }

// CheckRange returns a *RangeError when value is outside [0, c.MaxPoints].
func CheckRange(c Criterion, value float64) error {
	if value < 0 || value > c.MaxPoints || math.IsNaN(value) {
		return &RangeError{CriteriaID: c.ID, Value: value, MaxPoints: c.MaxPoints}
	}
	return nil
}
