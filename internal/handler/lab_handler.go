package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumus-labs/lumus-api/internal/models"
	"github.com/lumus-labs/lumus-api/internal/service"
	appErrors "github.com/lumus-labs/lumus-api/pkg/errors"
	"github.com/lumus-labs/lumus-api/pkg/response"
)

// LabHandler wires HTTP endpoints to the lab service.
type LabHandler struct {
	service *service.LabService
}

// NewLabHandler creates a new handler.
func NewLabHandler(svc *service.LabService) *LabHandler {
	return &LabHandler{service: svc}
}

// List godoc
// @Summary List labs
// @Tags Labs
// @Produce json
// @Param active query bool false "Only active labs"
// @Success 200 {object} response.Envelope
// @Router /labs [get]
func (h *LabHandler) List(c *gin.Context) {
	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean"))
			return
		}
		activeOnly = parsed
	}

	labs, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, labs, nil)
}

// Get godoc
// @Summary Get lab by id
// @Tags Labs
// @Produce json
// @Param id path string true "Lab ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /labs/{id} [get]
func (h *LabHandler) Get(c *gin.Context) {
	lab, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lab, nil)
}

// GetByCode godoc
// @Summary Get lab by code
// @Tags Labs
// @Produce json
// @Param code path string true "Lab code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /labs/code/{code} [get]
func (h *LabHandler) GetByCode(c *gin.Context) {
	lab, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lab, nil)
}

// Availability godoc
// @Summary Confirmed bookings for a lab in a date range
// @Tags Labs
// @Produce json
// @Param code path string true "Lab code"
// @Param start_date query string true "Start date YYYY-MM-DD"
// @Param end_date query string true "End date YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /labs/code/{code}/availability [get]
func (h *LabHandler) Availability(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD"))
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD"))
		return
	}

	schedules, err := h.service.Availability(c.Request.Context(), c.Param("code"), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Create godoc
// @Summary Create lab
// @Tags Labs
// @Accept json
// @Produce json
// @Param payload body models.CreateLabRequest true "Lab payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /labs [post]
func (h *LabHandler) Create(c *gin.Context) {
	var req models.CreateLabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	lab, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lab)
}

// Update godoc
// @Summary Update lab
// @Tags Labs
// @Accept json
// @Produce json
// @Param id path string true "Lab ID"
// @Param payload body models.UpdateLabRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /labs/{id} [put]
func (h *LabHandler) Update(c *gin.Context) {
	var req models.UpdateLabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	lab, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lab, nil)
}

// Delete godoc
// @Summary Delete lab
// @Description Labs with upcoming confirmed bookings cannot be deleted
// @Tags Labs
// @Param id path string true "Lab ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /labs/{id} [delete]
func (h *LabHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
