package admin

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"cssl-judging/internal/logging"
	"cssl-judging/internal/models"
	"cssl-judging/internal/scoring"
)

const maxSubmissionSize = 20 << 20

func (h *AdminHandler) CreateCriterion(c *gin.Context) {
	competitionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Name        string  `json:"name" binding:"required"`
		Description string  `json:"description"`
		MaxPoints   float64 `json:"max_points" binding:"required,gt=0"`
		Weight      float64 `json:"weight" binding:"omitempty,gt=0"`
		OrderIndex  *int    `json:"order_index"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	competition, err := h.repo.GetCompetitionByID(c.Request.Context(), competitionID)
	if err != nil {
		respondError(c, "Competition", err)
		return
	}

	criterion := &models.Criterion{
		CompetitionID: competition.ID,
		Name:          input.Name,
		Description:   input.Description,
		MaxPoints:     input.MaxPoints,
		Weight:        input.Weight,
		OrderIndex:    len(competition.Criteria),
	}
	if criterion.Weight == 0 {
		criterion.Weight = 1
	}
	if input.OrderIndex != nil {
		criterion.OrderIndex = *input.OrderIndex
	}

	if err := h.repo.CreateCriterion(c.Request.Context(), criterion); err != nil {
		respondError(c, "Criterion", err)
		return
	}
	if competition.Status != scoring.CompetitionDraft {
		logging.Log.Warnf("ADMIN: criterion added to %s competition %s, max possible changes for every report", competition.Status, competition.ID)
	}
	c.JSON(http.StatusCreated, criterion)
}

func (h *AdminHandler) GetCriteria(c *gin.Context) {
	competitionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	criteria, err := h.repo.GetCriteriaByCompetition(c.Request.Context(), competitionID)
	if err != nil {
		respondError(c, "Criterion", err)
		return
	}
	c.JSON(http.StatusOK, criteria)
}

func (h *AdminHandler) UpdateCriterion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Name        string   `json:"name"`
		Description *string  `json:"description"`
		MaxPoints   *float64 `json:"max_points" binding:"omitempty,gt=0"`
		Weight      *float64 `json:"weight" binding:"omitempty,gt=0"`
		OrderIndex  *int     `json:"order_index"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	criterion, err := h.repo.GetCriterionByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Criterion", err)
		return
	}

	if input.Name != "" {
		criterion.Name = input.Name
	}
	if input.Description != nil {
		criterion.Description = *input.Description
	}
	if input.MaxPoints != nil {
		criterion.MaxPoints = *input.MaxPoints
	}
	if input.Weight != nil {
		criterion.Weight = *input.Weight
	}
	if input.OrderIndex != nil {
		criterion.OrderIndex = *input.OrderIndex
	}

	if err := h.repo.UpdateCriterion(c.Request.Context(), criterion); err != nil {
		respondError(c, "Criterion", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "criterion": criterion})
}

func (h *AdminHandler) DeleteCriterion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.DeleteCriterion(c.Request.Context(), id); err != nil {
		respondError(c, "Criterion", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *AdminHandler) CreateContestant(c *gin.Context) {
	competitionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Name               string `json:"name" binding:"required"`
		Email              string `json:"email" binding:"omitempty,email"`
		RegistrationNumber string `json:"registration_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	competition, err := h.repo.GetCompetitionByID(ctx, competitionID)
	if err != nil {
		respondError(c, "Competition", err)
		return
	}
	if competition.MaxParticipants > 0 {
		count, err := h.repo.CountContestants(ctx, competition.ID)
		if err != nil {
			respondError(c, "Contestant", err)
			return
		}
		if count >= int64(competition.MaxParticipants) {
			c.JSON(http.StatusConflict, gin.H{"error": "Competition is full"})
			return
		}
	}

	contestant := &models.Contestant{
		CompetitionID:      competition.ID,
		Name:               input.Name,
		Email:              input.Email,
		RegistrationNumber: input.RegistrationNumber,
		Status:             scoring.ContestantRegistered,
	}
	if err := h.repo.CreateContestant(ctx, contestant); err != nil {
		respondError(c, "Contestant", err)
		return
	}
	c.JSON(http.StatusCreated, contestant)
}

func (h *AdminHandler) GetContestants(c *gin.Context) {
	competitionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	contestants, err := h.repo.GetContestantsByCompetition(c.Request.Context(), competitionID)
	if err != nil {
		respondError(c, "Contestant", err)
		return
	}
	c.JSON(http.StatusOK, contestants)
}

func (h *AdminHandler) UpdateContestant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Name               string `json:"name"`
		Email              string `json:"email" binding:"omitempty,email"`
		RegistrationNumber string `json:"registration_number"`
		Status             string `json:"status" binding:"omitempty,oneof=registered submitted judged"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contestant, err := h.repo.GetContestantByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Contestant", err)
		return
	}

	if input.Name != "" {
		contestant.Name = input.Name
	}
	if input.Email != "" {
		contestant.Email = input.Email
	}
	if input.RegistrationNumber != "" {
		contestant.RegistrationNumber = input.RegistrationNumber
	}
	if input.Status != "" {
		contestant.Status = input.Status
	}

	if err := h.repo.UpdateContestant(c.Request.Context(), contestant); err != nil {
		respondError(c, "Contestant", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "contestant": contestant})
}

func (h *AdminHandler) DeleteContestant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.DeleteContestant(c.Request.Context(), id); err != nil {
		respondError(c, "Contestant", err)
		return
	}
	if err := h.files.DeleteFiles(id); err != nil {
		logging.Log.Warnf("ADMIN: failed to remove files of contestant %s: %v", id, err)
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// UploadSubmission stores the contestant's work and marks them submitted.
func (h *AdminHandler) UploadSubmission(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(maxSubmissionSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	contestant, err := h.repo.GetContestantByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Contestant", err)
		return
	}

	path, err := h.files.SaveFile(file, contestant.ID)
	if err != nil {
		respondError(c, "Submission", err)
		return
	}

	contestant.SubmissionFile = filepath.Base(path)
	if contestant.Status == scoring.ContestantRegistered {
		contestant.Status = scoring.ContestantSubmitted
	}
	if err := h.repo.UpdateContestant(c.Request.Context(), contestant); err != nil {
		respondError(c, "Contestant", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "uploaded", "contestant": contestant})
}

func (h *AdminHandler) GetSubmission(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	contestant, err := h.repo.GetContestantByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Contestant", err)
		return
	}
	if contestant.SubmissionFile == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No submission uploaded"})
		return
	}
	c.FileAttachment(h.files.FilePath(contestant.ID, contestant.SubmissionFile), contestant.SubmissionFile)
}
