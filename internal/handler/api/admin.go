package api

import (
	"errors"
	"net/http"
	"strconv"

	"opshub/internal/domain/job"
	"opshub/internal/domain/token"
	reqdto "opshub/internal/handler/dto/request"
	resdto "opshub/internal/handler/dto/response"
	"opshub/internal/infra/repository"
	"opshub/internal/pkg/config"
	"opshub/internal/pkg/errs"
	"opshub/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler is the operator surface: queue inspection, terminal-job
// retries, token issuance, technician scheduling and webhook reconciliation.
type AdminHandler struct {
	jobAdmin   commands.JobAdminCommands
	tokens     commands.TokenCommands
	schedule   commands.ScheduleCommands
	reconciler *commands.WebhookReconciler
	tokenCfg   config.TokenConfig
}

func NewAdminHandler(
	jobAdmin commands.JobAdminCommands,
	tokens commands.TokenCommands,
	schedule commands.ScheduleCommands,
	reconciler *commands.WebhookReconciler,
	tokenCfg config.TokenConfig,
) *AdminHandler {
	return &AdminHandler{
		jobAdmin:   jobAdmin,
		tokens:     tokens,
		schedule:   schedule,
		reconciler: reconciler,
		tokenCfg:   tokenCfg,
	}
}

// @Summary List jobs
// @Description List queued jobs with optional filters
// @Tags admin
// @Produce json
// @Param status query string false "Job status filter"
// @Param type query string false "Job type filter"
// @Param limit query int false "Max rows (default 100)"
// @Success 200 {array} resdto.JobResponse
// @Failure 400 {object} map[string]string
// @Router /admin/jobs [get]
func (h *AdminHandler) ListJobs(c *gin.Context) {
	var filter repository.JobFilter

	if s := c.Query("status"); s != "" {
		status := job.Status(s)
		filter.Status = &status
	}
	if t := c.Query("type"); t != "" {
		filter.Type = &t
	}
	if l := c.Query("limit"); l != "" {
		limit, err := strconv.ParseUint(l, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit",
			})
			return
		}
		filter.Limit = limit
	}

	jobs, err := h.jobAdmin.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	c.JSON(http.StatusOK, resdto.FromJobs(jobs))
}

// @Summary Get job
// @Tags admin
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} resdto.JobResponse
// @Failure 404 {object} map[string]string
// @Router /admin/jobs/{id} [get]
func (h *AdminHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job ID format",
		})
		return
	}

	j, err := h.jobAdmin.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	c.JSON(http.StatusOK, resdto.FromJob(j))
}

// @Summary Retry terminal job
// @Description Reset a failed_terminal job to pending with a fresh attempt budget
// @Tags admin
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} resdto.JobResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/jobs/{id}/retry [post]
func (h *AdminHandler) RetryJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid job ID format",
		})
		return
	}

	j, err := h.jobAdmin.Retry(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
		case errors.Is(err, errs.ErrJobNotPending):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Job is not in a terminal failed state",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}
	c.JSON(http.StatusOK, resdto.FromJob(j))
}

// @Summary Issue token
// @Description Issue a reschedule or share capability link
// @Tags admin
// @Accept json
// @Produce json
// @Param request body reqdto.IssueTokenRequest true "Token request"
// @Success 201 {object} resdto.IssuedTokenResponse
// @Failure 400 {object} map[string]string
// @Router /admin/tokens [post]
func (h *AdminHandler) IssueToken(c *gin.Context) {
	var req reqdto.IssueTokenRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	var (
		issued *token.AccessToken
		err    error
	)
	switch token.Kind(req.Kind) {
	case token.KindReschedule:
		issued, err = h.tokens.IssueReschedule(c.Request.Context(), req.OrganizationID, req.ResourceID)
	case token.KindShare:
		issued, err = h.tokens.IssueShare(c.Request.Context(), req.OrganizationID, req.ResourceType, req.ResourceID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	c.JSON(http.StatusCreated, resdto.FromIssuedToken(issued, h.tokenCfg.BaseURL))
}

// @Summary Assign technician
// @Description Book a technician for a half-open interval
// @Tags admin
// @Accept json
// @Produce json
// @Param request body reqdto.AssignTechnicianRequest true "Assignment request"
// @Success 201 {object} resdto.AssignmentResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/assignments [post]
func (h *AdminHandler) AssignTechnician(c *gin.Context) {
	var req reqdto.AssignTechnicianRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	a, err := h.schedule.AssignTechnician(c.Request.Context(), commands.AssignTechnicianInput{
		OrganizationID: req.OrganizationID,
		TechnicianID:   req.TechnicianID,
		AppointmentID:  req.AppointmentID,
		StartAt:        req.StartAt,
		EndAt:          req.EndAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidInterval):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Interval start must be before end",
			})
		case errors.Is(err, errs.ErrAssignmentConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Interval overlaps an existing assignment",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}
	c.JSON(http.StatusCreated, resdto.FromAssignment(a))
}

// @Summary Reconcile stuck webhook entries
// @Description Mark received entries older than the stuck threshold as failed
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]int
// @Router /admin/webhooks/reconcile [post]
func (h *AdminHandler) ReconcileWebhooks(c *gin.Context) {
	resolved, err := h.reconciler.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": resolved})
}
