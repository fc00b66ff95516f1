package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cssl-judging/internal/logging"
	"cssl-judging/internal/models"
	"cssl-judging/internal/scoring"
)

func (h *AdminHandler) CreateConference(c *gin.Context) {
	var input struct {
		Name        string    `json:"name" binding:"required"`
		Description string    `json:"description"`
		Location    string    `json:"location"`
		StartDate   time.Time `json:"start_date"`
		EndDate     time.Time `json:"end_date"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date is before start_date"})
		return
	}

	conference := &models.Conference{
		Name:        input.Name,
		Description: input.Description,
		Location:    input.Location,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}
	if err := h.repo.CreateConference(c.Request.Context(), conference); err != nil {
		respondError(c, "Conference", err)
		return
	}

	c.JSON(http.StatusCreated, conference)
}

func (h *AdminHandler) GetAllConferences(c *gin.Context) {
	conferences, err := h.repo.GetAllConferences(c.Request.Context())
	if err != nil {
		respondError(c, "Conference", err)
		return
	}
	c.JSON(http.StatusOK, conferences)
}

func (h *AdminHandler) GetConference(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	conference, err := h.repo.GetConferenceByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Conference", err)
		return
	}
	c.JSON(http.StatusOK, conference)
}

func (h *AdminHandler) UpdateConference(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Name        string     `json:"name"`
		Description *string    `json:"description"`
		Location    *string    `json:"location"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conference, err := h.repo.GetConferenceByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Conference", err)
		return
	}

	if input.Name != "" {
		conference.Name = input.Name
	}
	if input.Description != nil {
		conference.Description = *input.Description
	}
	if input.Location != nil {
		conference.Location = *input.Location
	}
	if input.StartDate != nil {
		conference.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		conference.EndDate = *input.EndDate
	}

	if err := h.repo.UpdateConference(c.Request.Context(), conference); err != nil {
		respondError(c, "Conference", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "conference": conference})
}

func (h *AdminHandler) DeleteConference(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.DeleteConference(c.Request.Context(), id); err != nil {
		respondError(c, "Conference", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type competitionInput struct {
	ConferenceID    *uuid.UUID `json:"conference_id"`
	Name            string     `json:"name"`
	Description     *string    `json:"description"`
	MaxParticipants *int       `json:"max_participants" binding:"omitempty,min=0"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
}

func (in competitionInput) apply(competition *models.Competition) {
	if in.ConferenceID != nil {
		competition.ConferenceID = in.ConferenceID
	}
	if in.Name != "" {
		competition.Name = in.Name
	}
	if in.Description != nil {
		competition.Description = *in.Description
	}
	if in.MaxParticipants != nil {
		competition.MaxParticipants = *in.MaxParticipants
	}
	if in.StartDate != nil {
		competition.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		competition.EndDate = in.EndDate
	}
}

func (h *AdminHandler) CreateCompetition(c *gin.Context) {
	var input competitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if input.ConferenceID != nil {
		if _, err := h.repo.GetConferenceByID(c.Request.Context(), *input.ConferenceID); err != nil {
			respondError(c, "Conference", err)
			return
		}
	}

	competition := &models.Competition{Status: scoring.CompetitionDraft}
	input.apply(competition)

	if err := h.repo.CreateCompetition(c.Request.Context(), competition); err != nil {
		respondError(c, "Competition", err)
		return
	}
	c.JSON(http.StatusCreated, competition)
}

func (h *AdminHandler) GetAllCompetitions(c *gin.Context) {
	var conferenceID *uuid.UUID
	if raw := c.Query("conference_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conference_id"})
			return
		}
		conferenceID = &id
	}

	competitions, err := h.repo.GetAllCompetitions(c.Request.Context(), conferenceID)
	if err != nil {
		respondError(c, "Competition", err)
		return
	}
	c.JSON(http.StatusOK, competitions)
}

func (h *AdminHandler) GetCompetition(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	competition, err := h.repo.GetCompetitionByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Competition", err)
		return
	}
	c.JSON(http.StatusOK, competition)
}

func (h *AdminHandler) UpdateCompetition(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input competitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	competition, err := h.repo.GetCompetitionByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Competition", err)
		return
	}
	input.apply(competition)

	if err := h.repo.UpdateCompetition(c.Request.Context(), competition); err != nil {
		respondError(c, "Competition", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "competition": competition})
}

func (h *AdminHandler) DeleteCompetition(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.DeleteCompetition(c.Request.Context(), id); err != nil {
		respondError(c, "Competition", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// transition moves a competition to status `to` when its current status is
// one of `from`.
func (h *AdminHandler) transition(c *gin.Context, to string, from ...string) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	competition, err := h.repo.GetCompetitionByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Competition", err)
		return
	}

	allowed := false
	for _, s := range from {
		if competition.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		c.JSON(http.StatusConflict, gin.H{"error": "Competition is " + competition.Status})
		return
	}

	now := time.Now()
	switch to {
	case scoring.CompetitionActive:
		if competition.StartDate == nil {
			competition.StartDate = &now
		}
	case scoring.CompetitionCompleted, scoring.CompetitionCancelled:
		competition.EndDate = &now
	}
	competition.Status = to

	if err := h.repo.UpdateCompetition(c.Request.Context(), competition); err != nil {
		respondError(c, "Competition", err)
		return
	}

	logging.Log.Infof("ADMIN: competition %s is now %s", competition.ID, to)
	c.JSON(http.StatusOK, gin.H{"status": to, "competition": competition})
}

func (h *AdminHandler) StartCompetition(c *gin.Context) {
	h.transition(c, scoring.CompetitionActive, scoring.CompetitionDraft)
}

func (h *AdminHandler) CompleteCompetition(c *gin.Context) {
	h.transition(c, scoring.CompetitionCompleted, scoring.CompetitionActive)
}

func (h *AdminHandler) CancelCompetition(c *gin.Context) {
	h.transition(c, scoring.CompetitionCancelled, scoring.CompetitionDraft, scoring.CompetitionActive)
}
