package judge

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cssl-judging/internal/logging"
	"cssl-judging/internal/pkg"
	"cssl-judging/internal/repository"
	"cssl-judging/internal/scoring"
	"cssl-judging/internal/service"
)

// ChangePasswordPath is the only judge route open while a temporary password
// is still in use.
const ChangePasswordPath = "/api/v1/judge/change-password"

type JudgeHandler struct {
	judges    *service.JudgeService
	scoring   *service.ScoringService
	jwtSecret string
	tokenTTL  time.Duration
}

func NewJudgeHandler(judges *service.JudgeService, scores *service.ScoringService, jwtSecret string, tokenTTL time.Duration) *JudgeHandler {
	return &JudgeHandler{
		judges:    judges,
		scoring:   scores,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (h *JudgeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/change-password", h.ChangePassword)
	rg.GET("/competitions", h.MyCompetitions)
	rg.GET("/competitions/:id", h.CompetitionSheet)
	rg.GET("/competitions/:id/scores", h.MyScores)
	rg.POST("/contestants/:id/scores", h.SubmitScores)
}

func (h *JudgeHandler) issue(c *gin.Context, judgeID uuid.UUID, resetRequired bool) (string, bool) {
	token, err := pkg.IssueToken(h.jwtSecret, pkg.Identity{
		Subject:       judgeID.String(),
		Role:          pkg.RoleJudge,
		ResetRequired: resetRequired,
	}, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return "", false
	}
	return token, true
}

func (h *JudgeHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	judge, err := h.judges.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, ok := h.issue(c, judge.ID, judge.ResetRequired)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":          token,
		"reset_required": judge.ResetRequired,
	})
}

func (h *JudgeHandler) ChangePassword(c *gin.Context) {
	judgeID, ok := currentJudge(c)
	if !ok {
		return
	}

	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	judge, err := h.judges.ChangePassword(c.Request.Context(), judgeID, req.OldPassword, req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}

	token, ok := h.issue(c, judge.ID, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "password_changed",
		"token":  token,
	})
}

func (h *JudgeHandler) MyCompetitions(c *gin.Context) {
	judgeID, ok := currentJudge(c)
	if !ok {
		return
	}
	competitions, err := h.judges.Competitions(c.Request.Context(), judgeID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]scoring.Competition, 0, len(competitions))
	for _, comp := range competitions {
		out = append(out, repository.CompetitionRecord(comp))
	}
	c.JSON(http.StatusOK, out)
}

func (h *JudgeHandler) CompetitionSheet(c *gin.Context) {
	id, ok := pkg.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	competitionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	contestants, criteria, err := h.scoring.CompetitionSheet(c.Request.Context(), id, competitionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"contestants": contestants,
		"criteria":    criteria,
	})
}

func (h *JudgeHandler) MyScores(c *gin.Context) {
	id, ok := pkg.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	competitionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	scores, err := h.scoring.MyScores(c.Request.Context(), id, competitionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scores)
}

func (h *JudgeHandler) SubmitScores(c *gin.Context) {
	id, ok := pkg.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	contestantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	var req struct {
		Scores []service.ScoreEntry `json:"scores" binding:"required"`
		Draft  bool                 `json:"draft"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.scoring.SubmitScores(c.Request.Context(), id, contestantID, req.Scores, req.Draft)
	if err != nil {
		respondError(c, err)
		return
	}

	status := "submitted"
	if req.Draft {
		status = "draft_saved"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "count": len(rows)})
}

func currentJudge(c *gin.Context) (uuid.UUID, bool) {
	id, ok := pkg.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, false
	}
	judgeID, err := id.JudgeID()
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return uuid.Nil, false
	}
	return judgeID, true
}

func respondError(c *gin.Context, err error) {
	var rangeErr *scoring.RangeError
	switch {
	case errors.As(err, &rangeErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       err.Error(),
			"criteria_id": rangeErr.CriteriaID,
			"max_points":  rangeErr.MaxPoints,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, service.ErrNotJudge), errors.Is(err, service.ErrNotAssigned):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, service.ErrCompetitionNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnknownCriterion),
		errors.Is(err, service.ErrDuplicateCriterion),
		errors.Is(err, service.ErrEmptySubmission),
		errors.Is(err, scoring.ErrInvalidRecord):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, scoring.ErrDataUnavailable):
		logging.Log.Errorf("JUDGE: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Score data unavailable"})
	default:
		logging.Log.Errorf("JUDGE: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
