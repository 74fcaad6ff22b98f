package controller

import (
	"context"
	"net/http"
	"strings"

	"clearway-backend/models"
	"clearway-backend/services"
	"clearway-backend/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type CrewController struct {
	ctx         context.Context
	crewService services.CrewServiceInterface
	logger      logger.Logger
	validator   *validator.Validate
}

func NewCrewController(ctx context.Context, crewService services.CrewServiceInterface, logger logger.Logger) *CrewController {
	return &CrewController{
		ctx:         ctx,
		crewService: crewService,
		logger:      logger,
		validator:   validator.New(),
	}
}

func (h *CrewController) fail(c *gin.Context, code int, message string, err error) {
	c.JSON(code, models.APIResponse{
		Success: false,
		Code:    code,
		Message: message,
		Error: &models.APIError{
			Type:    "CrewError",
			Details: err.Error(),
		},
	})
}

// CreateCrew handles POST /api/v1/crew
func (h *CrewController) CreateCrew(c *gin.Context) {
	var req models.CreateCrewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid request", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Validation failed", err)
		return
	}

	createdBy := c.GetString("user_id")
	member, err := h.crewService.CreateCrew(h.ctx, &req, createdBy)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to create crew member", err)
		return
	}

	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Code:    http.StatusCreated,
		Message: "Crew member created",
		Data:    member,
	})
}

// GetCrew handles GET /api/v1/crew/:id
func (h *CrewController) GetCrew(c *gin.Context) {
	member, err := h.crewService.GetCrew(h.ctx, c.Param("id"))
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			code = http.StatusNotFound
		}
		h.fail(c, code, "Failed to get crew member", err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Code:    http.StatusOK,
		Message: "Crew member retrieved",
		Data:    member,
	})
}

// ListCrew handles GET /api/v1/crew
func (h *CrewController) ListCrew(c *gin.Context) {
	filter := &models.CrewFilter{
		Skill: c.Query("skill"),
	}
	if active := c.Query("isActive"); active != "" {
		v := active == "true"
		filter.IsActive = &v
	}

	members, err := h.crewService.ListCrew(h.ctx, filter)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to list crew", err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Code:    http.StatusOK,
		Message: "Crew retrieved",
		Data:    members,
	})
}

// UpdateCrew handles PATCH /api/v1/crew/:id
func (h *CrewController) UpdateCrew(c *gin.Context) {
	var req models.UpdateCrewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid request", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Validation failed", err)
		return
	}

	member, err := h.crewService.UpdateCrew(h.ctx, c.Param("id"), &req)
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			code = http.StatusNotFound
		}
		h.fail(c, code, "Failed to update crew member", err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Code:    http.StatusOK,
		Message: "Crew member updated",
		Data:    member,
	})
}
