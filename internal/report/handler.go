// Package report serves the read-only competition reports to administrators.
package report

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cssl-judging/internal/logging"
	"cssl-judging/internal/repository"
	"cssl-judging/internal/scoring"
	"cssl-judging/internal/service"
)

type ReportHandler struct {
	repo    *repository.Repository
	reports *service.ReportService
}

func NewReportHandler(repo *repository.Repository, reports *service.ReportService) *ReportHandler {
	return &ReportHandler{repo: repo, reports: reports}
}

// RegisterRoutes mounts the report endpoints on the admin group.
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/competitions/:id/report/matrix", h.JudgeMatrix)
	rg.GET("/competitions/:id/report/leaderboard", h.Leaderboard)
	rg.GET("/competitions/:id/report/criteria", h.CriteriaMatrix)
	rg.GET("/competitions/:id/report/judges", h.JudgeSummaries)
	rg.GET("/competitions/:id/judges/:judgeID/consistency", h.JudgeConsistency)
	rg.GET("/competitions/:id/judges/:judgeID/deltas/:contestantID", h.JudgeDeltas)
}

// competition resolves the :id param to an existing competition id.
func (h *ReportHandler) competition(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return "", false
	}
	if _, err := h.repo.GetCompetitionByID(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return "", false
	}
	return id.String(), true
}

func param(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return "", false
	}
	return id.String(), true
}

func (h *ReportHandler) JudgeMatrix(c *gin.Context) {
	competitionID, ok := h.competition(c)
	if !ok {
		return
	}
	matrix, err := h.reports.JudgeMatrix(c.Request.Context(), competitionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matrix)
}

// Leaderboard accepts ?sort=<field>&dir=asc|desc. Without sort the board is
// in rank order.
func (h *ReportHandler) Leaderboard(c *gin.Context) {
	competitionID, ok := h.competition(c)
	if !ok {
		return
	}
	dir := scoring.ParseDirection(c.DefaultQuery("dir", string(scoring.Ascending)))
	board, err := h.reports.Leaderboard(c.Request.Context(), competitionID, c.Query("sort"), dir)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h *ReportHandler) CriteriaMatrix(c *gin.Context) {
	competitionID, ok := h.competition(c)
	if !ok {
		return
	}
	contestantID := c.Query("contestant_id")
	if contestantID != "" {
		parsed, err := uuid.Parse(contestantID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contestant_id"})
			return
		}
		contestantID = parsed.String()
	}
	matrix, err := h.reports.CriteriaMatrix(c.Request.Context(), competitionID, contestantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, matrix)
}

func (h *ReportHandler) JudgeSummaries(c *gin.Context) {
	competitionID, ok := h.competition(c)
	if !ok {
		return
	}
	summaries, err := h.reports.JudgeSummaries(c.Request.Context(), competitionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *ReportHandler) JudgeConsistency(c *gin.Context) {
	competitionID, ok := h.competition(c)
	if !ok {
		return
	}
	judgeID, ok := param(c, "judgeID")
	if !ok {
		return
	}
	summary, err := h.reports.JudgeConsistency(c.Request.Context(), competitionID, judgeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReportHandler) JudgeDeltas(c *gin.Context) {
	competitionID, ok := h.competition(c)
	if !ok {
		return
	}
	judgeID, ok := param(c, "judgeID")
	if !ok {
		return
	}
	contestantID, ok := param(c, "contestantID")
	if !ok {
		return
	}
	deltas, err := h.reports.JudgeDeltas(c.Request.Context(), competitionID, judgeID, contestantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deltas)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Competition not found"})
	case errors.Is(err, scoring.ErrUnknownJudge):
		c.JSON(http.StatusNotFound, gin.H{"error": "Judge not found"})
	case errors.Is(err, scoring.ErrUnknownSortField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, scoring.ErrDataUnavailable):
		logging.Log.Errorf("REPORT: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Score data unavailable"})
	default:
		logging.Log.Errorf("REPORT: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
