package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clearway-backend/lifecycle"
	"clearway-backend/models"
	"clearway-backend/services"
	"clearway-backend/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type JobController struct {
	ctx        context.Context
	jobService services.JobServiceInterface
	logger     logger.Logger
	validator  *validator.Validate
}

func NewJobController(ctx context.Context, jobService services.JobServiceInterface, logger logger.Logger) *JobController {
	return &JobController{
		ctx:        ctx,
		jobService: jobService,
		logger:     logger,
		validator:  validator.New(),
	}
}

func (h *JobController) formatValidationErrors(err error) string {
	var errorMessages []string

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			switch fieldError.Tag() {
			case "required":
				errorMessages = append(errorMessages, fieldError.Field()+" is required")
			case "min":
				errorMessages = append(errorMessages, fieldError.Field()+" must be at least "+fieldError.Param()+" characters/items")
			case "max":
				errorMessages = append(errorMessages, fieldError.Field()+" must be at most "+fieldError.Param()+" characters/items")
			case "oneof":
				errorMessages = append(errorMessages, fieldError.Field()+" must be one of: "+strings.ReplaceAll(fieldError.Param(), " ", ", "))
			case "gt", "gte":
				errorMessages = append(errorMessages, fieldError.Field()+" must be a non-negative amount")
			default:
				errorMessages = append(errorMessages, fieldError.Field()+" is invalid")
			}
		}
	}

	return strings.Join(errorMessages, "; ")
}

// bind decodes and validates the JSON body, writing the 400 itself.
func (h *JobController) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Error("Failed to bind JSON:", err)
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Code:    http.StatusBadRequest,
			Message: "Invalid request",
			Error: &models.APIError{
				Type:    "ValidationError",
				Details: err.Error(),
			},
		})
		return false
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Error("Validation failed:", err)
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Code:    http.StatusBadRequest,
			Message: "Validation failed",
			Error: &models.APIError{
				Type:    "ValidationError",
				Details: h.formatValidationErrors(err),
			},
		})
		return false
	}
	return true
}

// actor pulls the authenticated claims, writing the 401 itself.
func (h *JobController) actor(c *gin.Context) (*models.JWTClaims, bool) {
	claims, exists := c.Get("jwt_claims")
	if !exists {
		c.JSON(http.StatusUnauthorized, models.APIResponse{
			Success: false,
			Code:    http.StatusUnauthorized,
			Message: "Authentication required",
			Error: &models.APIError{
				Type:    "AuthenticationError",
				Details: "User not authenticated",
			},
		})
		return nil, false
	}

	jwtClaims, ok := claims.(*models.JWTClaims)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Success: false,
			Code:    http.StatusInternalServerError,
			Message: "Invalid token claims",
			Error: &models.APIError{
				Type:    "TokenError",
				Details: "Invalid token structure",
			},
		})
		return nil, false
	}
	return jwtClaims, true
}

// respondError maps lifecycle errors to HTTP: 404 unknown job, 409 denied
// transitions and repeated operations, 422 failed business-rule gates, 400
// everything else.
func (h *JobController) respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	errType := "ValidationError"
	message := "Request rejected"

	var denied *lifecycle.TransitionDeniedError
	var terminal *lifecycle.TerminalStateError
	var guard *lifecycle.GuardFailedError
	var invalidState *lifecycle.InvalidStateError
	var missing *lifecycle.MissingEvidenceError

	switch {
	case errors.Is(err, lifecycle.ErrJobNotFound):
		status, errType, message = http.StatusNotFound, "NotFound", "Job not found"
	case errors.As(err, &denied):
		status, errType, message = http.StatusConflict, "TransitionDenied", "Status transition not allowed"
	case errors.As(err, &terminal):
		status, errType, message = http.StatusConflict, "TerminalState", "Job can no longer be modified"
	case errors.Is(err, lifecycle.ErrQuoteLocked):
		status, errType, message = http.StatusConflict, "QuoteLocked", "Quote is locked by client approval"
	case errors.Is(err, lifecycle.ErrAlreadyInvoiced):
		status, errType, message = http.StatusConflict, "AlreadyInvoiced", "Invoice already generated"
	case errors.As(err, &guard):
		status, errType, message = http.StatusUnprocessableEntity, "GuardFailed", "Business rule not satisfied"
	case errors.Is(err, lifecycle.ErrPaymentRequired):
		status, errType, message = http.StatusUnprocessableEntity, "PaymentRequired", "Payment not settled"
	case errors.As(err, &invalidState):
		status, errType, message = http.StatusUnprocessableEntity, "InvalidState", "Job is not in a reportable state"
	case errors.As(err, &missing):
		status, errType, message = http.StatusUnprocessableEntity, "MissingEvidence", "Evidence requirements not met"
	}

	c.JSON(status, models.APIResponse{
		Success: false,
		Code:    status,
		Message: message,
		Error: &models.APIError{
			Type:    errType,
			Details: err.Error(),
		},
	})
}

func (h *JobController) respondJob(c *gin.Context, code int, message string, job *models.Job) {
	c.JSON(code, models.APIResponse{
		Success: true,
		Code:    code,
		Message: message,
		Data:    job,
	})
}

// CreateJob handles POST /api/v1/jobs
// @Summary Create a booking request
// @Tags Job Lifecycle
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.CreateJobRequest true "Create job request"
// @Success 201 {object} models.APIResponse "Job created"
// @Router /jobs [post]
func (h *JobController) CreateJob(c *gin.Context) {
	var req models.CreateJobRequest
	if !h.bind(c, &req) {
		return
	}
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.CreateJob(h.ctx, &req, claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusCreated, "Job created successfully", job)
}

// GetJobs handles GET /api/v1/jobs
func (h *JobController) GetJobs(c *gin.Context) {
	filter := &models.JobFilter{
		ClientID: c.Query("clientID"),
		CrewID:   c.Query("crewID"),
		Status:   models.JobStatus(c.Query("status")),
		Urgency:  models.Urgency(c.Query("urgency")),
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.FromDate = t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.ToDate = t
		}
	}

	jobs, err := h.jobService.ListJobs(h.ctx, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Code:    http.StatusOK,
		Message: "Jobs retrieved successfully",
		Data:    jobs,
	})
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobController) GetJob(c *gin.Context) {
	job, err := h.jobService.GetJob(h.ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Job retrieved successfully", job)
}

// UpdateJob handles PATCH /api/v1/jobs/:id
func (h *JobController) UpdateJob(c *gin.Context) {
	var req models.UpdateJobRequest
	if !h.bind(c, &req) {
		return
	}
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.UpdateJob(h.ctx, c.Param("id"), &req, claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Job updated successfully", job)
}

// ProvideQuote handles POST /api/v1/jobs/:id/quote
func (h *JobController) ProvideQuote(c *gin.Context) {
	var req models.ProvideQuoteRequest
	if !h.bind(c, &req) {
		return
	}
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.ProvideQuote(h.ctx, c.Param("id"), &req, claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Quote provided", job)
}

// ApproveQuote handles POST /api/v1/jobs/:id/quote/approve
func (h *JobController) ApproveQuote(c *gin.Context) {
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.ApproveQuote(h.ctx, c.Param("id"), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Quote approved", job)
}

// RejectQuote handles POST /api/v1/jobs/:id/quote/reject
func (h *JobController) RejectQuote(c *gin.Context) {
	var req models.CancelJobRequest
	// Body is optional: a bare reject carries no reason.
	_ = c.ShouldBindJSON(&req)
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.RejectQuote(h.ctx, c.Param("id"), req.Reason, claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Quote rejected", job)
}

// PayDeposit handles POST /api/v1/jobs/:id/payment/deposit
func (h *JobController) PayDeposit(c *gin.Context) {
	var req models.PaymentRequest
	if !h.bind(c, &req) {
		return
	}
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.ProcessDeposit(h.ctx, c.Param("id"), &req, claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Deposit received, booking confirmed", job)
}

// PayFinal handles POST /api/v1/jobs/:id/payment/final
func (h *JobController) PayFinal(c *gin.Context) {
	var req models.PaymentRequest
	if !h.bind(c, &req) {
		return
	}
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.ProcessFinalPayment(h.ctx, c.Param("id"), &req, claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Final payment received", job)
}

// AssignCrew handles POST /api/v1/jobs/:id/crew
func (h *JobController) AssignCrew(c *gin.Context) {
	var req models.AssignCrewRequest
	if !h.bind(c, &req) {
		return
	}
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.AssignCrew(h.ctx, c.Param("id"), &req, claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Crew assigned", job)
}

// DispatchJob handles POST /api/v1/jobs/:id/dispatch
func (h *JobController) DispatchJob(c *gin.Context) {
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.DispatchJob(h.ctx, c.Param("id"), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Crew dispatched", job)
}

// StartJob handles POST /api/v1/jobs/:id/start
func (h *JobController) StartJob(c *gin.Context) {
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.StartJob(h.ctx, c.Param("id"), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Work started", job)
}

// CompleteJob handles POST /api/v1/jobs/:id/complete
func (h *JobController) CompleteJob(c *gin.Context) {
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.CompleteJob(h.ctx, c.Param("id"), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Work completed, awaiting verification", job)
}

// VerifyJob handles POST /api/v1/jobs/:id/verify
func (h *JobController) VerifyJob(c *gin.Context) {
	var req models.VerifyJobRequest
	if !h.bind(c, &req) {
		return
	}
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.VerifyJob(h.ctx, c.Param("id"), &req, claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Work verified", job)
}

// GenerateInvoice handles POST /api/v1/jobs/:id/invoice
func (h *JobController) GenerateInvoice(c *gin.Context) {
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.GenerateInvoice(h.ctx, c.Param("id"), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Invoice generated", job)
}

// CancelJob handles POST /api/v1/jobs/:id/cancel
func (h *JobController) CancelJob(c *gin.Context) {
	var req models.CancelJobRequest
	_ = c.ShouldBindJSON(&req)
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.CancelJob(h.ctx, c.Param("id"), &req, claims.UserID, claims.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Job cancelled", job)
}

// AddPhoto handles POST /api/v1/jobs/:id/photos
func (h *JobController) AddPhoto(c *gin.Context) {
	var req models.AddPhotoRequest
	if !h.bind(c, &req) {
		return
	}
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.AddPhoto(h.ctx, c.Param("id"), &req, claims.UserID, claims.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusCreated, "Photo added", job)
}

// CompleteChecklistItem handles POST /api/v1/jobs/:id/checklist/:index
func (h *JobController) CompleteChecklistItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.APIResponse{
			Success: false,
			Code:    http.StatusBadRequest,
			Message: "Invalid checklist index",
			Error: &models.APIError{
				Type:    "ValidationError",
				Details: "index must be a number",
				Field:   "index",
			},
		})
		return
	}
	claims, ok := h.actor(c)
	if !ok {
		return
	}

	job, err := h.jobService.CompleteChecklistItem(h.ctx, c.Param("id"), index, claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondJob(c, http.StatusOK, "Checklist item completed", job)
}

// GetSLAStatus handles GET /api/v1/jobs/:id/sla
func (h *JobController) GetSLAStatus(c *gin.Context) {
	health, err := h.jobService.GetSLAStatus(h.ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Code:    http.StatusOK,
		Message: "SLA status retrieved",
		Data:    gin.H{"health": health},
	})
}

// GetReport handles GET /api/v1/jobs/:id/report
func (h *JobController) GetReport(c *gin.Context) {
	report, err := h.jobService.GenerateReport(h.ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Code:    http.StatusOK,
		Message: "Compliance report generated",
		Data:    report,
	})
}
