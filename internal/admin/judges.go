package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cssl-judging/internal/repository"
)

func (h *AdminHandler) CreateJudge(c *gin.Context) {
	var input struct {
		Name      string `json:"name" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Expertise string `json:"expertise"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	judge, err := h.judges.CreateJudge(c.Request.Context(), input.Name, input.Email, input.Expertise)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Judge already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     judge.ID,
		"status": "created",
	})
}

func (h *AdminHandler) GetAllJudges(c *gin.Context) {
	judges, err := h.repo.GetAllJudges(c.Request.Context())
	if err != nil {
		respondError(c, "Judge", err)
		return
	}

	response := make([]gin.H, 0, len(judges))
	for _, j := range judges {
		response = append(response, gin.H{
			"id":              j.ID,
			"name":            j.Name,
			"email":           j.Email,
			"expertise":       j.Expertise,
			"reset_needed":    j.ResetRequired,
			"telegram_linked": j.TelegramID != nil,
		})
	}
	c.JSON(http.StatusOK, response)
}

func (h *AdminHandler) UpdateJudge(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Name      string  `json:"name"`
		Email     string  `json:"email" binding:"omitempty,email"`
		Expertise *string `json:"expertise"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	judge, err := h.repo.GetJudgeByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Judge", err)
		return
	}

	if input.Name != "" {
		judge.Name = input.Name
	}
	if input.Email != "" {
		judge.Email = input.Email
	}
	if input.Expertise != nil {
		judge.Expertise = *input.Expertise
	}

	if err := h.repo.UpdateJudge(c.Request.Context(), judge); err != nil {
		respondError(c, "Judge", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "judge": judge})
}

func (h *AdminHandler) DeleteJudge(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.DeleteJudge(c.Request.Context(), id); err != nil {
		respondError(c, "Judge", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *AdminHandler) ResetJudgePassword(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.judges.ResetPassword(c.Request.Context(), id); err != nil {
		respondError(c, "Judge", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password_reset"})
}

func (h *AdminHandler) GetAssignments(c *gin.Context) {
	competitionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	assignments, err := h.repo.GetAssignments(c.Request.Context(), competitionID)
	if err != nil {
		respondError(c, "Assignment", err)
		return
	}

	response := make([]gin.H, 0, len(assignments))
	for _, a := range assignments {
		response = append(response, gin.H{
			"judge_id":    a.JudgeID,
			"name":        a.Judge.Name,
			"email":       a.Judge.Email,
			"assigned_at": a.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, response)
}

func (h *AdminHandler) AssignJudge(c *gin.Context) {
	competitionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		JudgeID uuid.UUID `json:"judge_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.repo.GetCompetitionByID(ctx, competitionID); err != nil {
		respondError(c, "Competition", err)
		return
	}
	if _, err := h.repo.GetJudgeByID(ctx, input.JudgeID); err != nil {
		respondError(c, "Judge", err)
		return
	}

	if err := h.repo.AssignJudge(ctx, input.JudgeID, competitionID); err != nil {
		respondError(c, "Assignment", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "assigned"})
}

func (h *AdminHandler) UnassignJudge(c *gin.Context) {
	competitionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	judgeID, ok := parseID(c, "judgeID")
	if !ok {
		return
	}
	if err := h.repo.UnassignJudge(c.Request.Context(), judgeID, competitionID); err != nil {
		respondError(c, "Assignment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unassigned"})
}
