package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cssl-judging/internal/logging"
	"cssl-judging/internal/pkg"
	"cssl-judging/internal/repository"
	"cssl-judging/internal/service"
)

type AdminHandler struct {
	repo      *repository.Repository
	judges    *service.JudgeService
	files     *pkg.FileStore
	adminUser string
	adminPass string
	jwtSecret string
	tokenTTL  time.Duration
}

type Options struct {
	AdminUser string
	AdminPass string
	JWTSecret string
	TokenTTL  time.Duration
}

func NewAdminHandler(repo *repository.Repository, judges *service.JudgeService, files *pkg.FileStore, opts Options) *AdminHandler {
	return &AdminHandler{
		repo:      repo,
		judges:    judges,
		files:     files,
		adminUser: opts.AdminUser,
		adminPass: opts.AdminPass,
		jwtSecret: opts.JWTSecret,
		tokenTTL:  opts.TokenTTL,
	}
}

// RegisterRoutes mounts the admin API on an already authenticated group.
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/conferences", h.CreateConference)
	rg.GET("/conferences", h.GetAllConferences)
	rg.GET("/conferences/:id", h.GetConference)
	rg.PUT("/conferences/:id", h.UpdateConference)
	rg.DELETE("/conferences/:id", h.DeleteConference)

	rg.POST("/competitions", h.CreateCompetition)
	rg.GET("/competitions", h.GetAllCompetitions)
	rg.GET("/competitions/:id", h.GetCompetition)
	rg.PUT("/competitions/:id", h.UpdateCompetition)
	rg.DELETE("/competitions/:id", h.DeleteCompetition)
	rg.POST("/competitions/:id/start", h.StartCompetition)
	rg.POST("/competitions/:id/complete", h.CompleteCompetition)
	rg.POST("/competitions/:id/cancel", h.CancelCompetition)

	rg.POST("/competitions/:id/criteria", h.CreateCriterion)
	rg.GET("/competitions/:id/criteria", h.GetCriteria)
	rg.PUT("/criteria/:id", h.UpdateCriterion)
	rg.DELETE("/criteria/:id", h.DeleteCriterion)

	rg.POST("/competitions/:id/contestants", h.CreateContestant)
	rg.GET("/competitions/:id/contestants", h.GetContestants)
	rg.PUT("/contestants/:id", h.UpdateContestant)
	rg.DELETE("/contestants/:id", h.DeleteContestant)
	rg.POST("/contestants/:id/submission", h.UploadSubmission)
	rg.GET("/contestants/:id/submission", h.GetSubmission)

	rg.POST("/judges", h.CreateJudge)
	rg.GET("/judges", h.GetAllJudges)
	rg.PUT("/judges/:id", h.UpdateJudge)
	rg.DELETE("/judges/:id", h.DeleteJudge)
	rg.POST("/judges/:id/reset-password", h.ResetJudgePassword)

	rg.GET("/competitions/:id/judges", h.GetAssignments)
	rg.POST("/competitions/:id/judges", h.AssignJudge)
	rg.DELETE("/competitions/:id/judges/:judgeID", h.UnassignJudge)
}

func (h *AdminHandler) AdminLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Username != h.adminUser || req.Password != h.adminPass {
		logging.Log.Warnf("ADMIN: failed login for %q from %s", req.Username, c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := pkg.IssueToken(h.jwtSecret, pkg.Identity{Subject: h.adminUser, Role: pkg.RoleAdmin}, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps repository errors onto HTTP statuses.
func respondError(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": what + " already exists"})
	default:
		logging.Log.Errorf("ADMIN: %s: %v", what, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
