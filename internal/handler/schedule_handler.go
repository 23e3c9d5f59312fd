package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumus-labs/lumus-api/internal/models"
	"github.com/lumus-labs/lumus-api/internal/service"
	appErrors "github.com/lumus-labs/lumus-api/pkg/errors"
	"github.com/lumus-labs/lumus-api/pkg/response"
)

// ScheduleHandler wires HTTP endpoints to the schedule service.
type ScheduleHandler struct {
	service *service.ScheduleService
	export  *service.ExportService
}

// NewScheduleHandler creates a new handler.
func NewScheduleHandler(svc *service.ScheduleService, export *service.ExportService) *ScheduleHandler {
	return &ScheduleHandler{service: svc, export: export}
}

// List godoc
// @Summary List bookings
// @Tags Schedules
// @Produce json
// @Param start_date query string false "Start date YYYY-MM-DD"
// @Param end_date query string false "End date YYYY-MM-DD"
// @Param lab_code query string false "Lab filter"
// @Param course_code query string false "Course filter"
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter := models.ScheduleFilter{
		LabCode:    c.Query("lab_code"),
		CourseCode: c.Query("course_code"),
		UserID:     c.Query("user_id"),
		Status:     models.BookingStatus(c.Query("status")),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 0),
	}
	if raw := c.Query("start_date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD"))
			return
		}
		filter.StartDate = &date
	}
	if raw := c.Query("end_date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD"))
			return
		}
		filter.EndDate = &date
	}

	schedules, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// DayView godoc
// @Summary Bookings for one day
// @Tags Schedules
// @Produce json
// @Param date path string true "Date YYYY-MM-DD"
// @Param lab_code query string false "Lab filter"
// @Success 200 {object} response.Envelope
// @Router /schedules/day/{date} [get]
func (h *ScheduleHandler) DayView(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}

	schedules, err := h.service.DayView(c.Request.Context(), date, c.Query("lab_code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Slots godoc
// @Summary Canonical slot grid
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules/slots [get]
func (h *ScheduleHandler) Slots(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.TimeSlots(), nil)
}

// Get godoc
// @Summary Get booking by id
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// CheckConflict godoc
// @Summary Probe for slot conflicts
// @Description Reports whether the slots would collide with a confirmed booking
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body models.ConflictCheckRequest true "Conflict probe"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/check-conflict [post]
func (h *ScheduleHandler) CheckConflict(c *gin.Context) {
	var req models.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.CheckConflict(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Create godoc
// @Summary Book a lab
// @Description Confirmed bookings are rejected with 409 when slots collide
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body models.CreateScheduleRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.UserName == "" {
		req.UserName = claims.FullName
	}

	schedule, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		h.writeScheduleError(c, err)
		return
	}
	response.Created(c, schedule)
}

// Update godoc
// @Summary Update booking
// @Description Status changes follow the transition table, conflicts return 409
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body models.UpdateScheduleRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req models.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	schedule, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeScheduleError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// UpdateStatus godoc
// @Summary Move booking through the status machine
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body map[string]string true "New status"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id}/status [patch]
func (h *ScheduleHandler) UpdateStatus(c *gin.Context) {
	var payload struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}

	schedule, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), models.BookingStatus(payload.Status))
	if err != nil {
		h.writeScheduleError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete booking
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export booking sheet
// @Tags Schedules
// @Produce octet-stream
// @Param start_date query string true "Start date YYYY-MM-DD"
// @Param end_date query string true "End date YYYY-MM-DD"
// @Param lab_code query string false "Lab filter"
// @Param format query string false "csv or pdf, defaults to csv"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /schedules/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
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

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.export.BookingSheet(c.Request.Context(), start, end, c.Query("lab_code"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// writeScheduleError renders conflict rejections with the blocking booking
// attached so clients can surface it.
func (h *ScheduleHandler) writeScheduleError(c *gin.Context, err error) {
	var conflict *models.BookingConflictError
	if errors.As(err, &conflict) {
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusConflict, response.Envelope{
			Error: appErrors.Clone(appErrors.ErrConflictingBooking, conflict.Message),
			Meta:  map[string]interface{}{"conflict": conflict.Conflict},
		})
		return
	}
	response.Error(c, err)
}
