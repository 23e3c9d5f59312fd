package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lumus-labs/lumus-api/internal/models"
	"github.com/lumus-labs/lumus-api/pkg/config"
	appErrors "github.com/lumus-labs/lumus-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	ListByDate(ctx context.Context, date time.Time, labCode string) ([]models.Schedule, error)
	ListConfirmed(ctx context.Context, date time.Time, labCode, excludeID string) ([]models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

type scheduleCourseFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Course, error)
}

type scheduleLabFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Lab, error)
}

type scheduleCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type scheduleMetrics interface {
	BookingConflictRejected(labCode string)
	CacheLookup(hit bool)
}

// ScheduleService owns the booking lifecycle: the slot conflict check runs
// on every write path that could produce a confirmed booking.
type ScheduleService struct {
	repo      scheduleRepository
	courses   scheduleCourseFinder
	labs      scheduleLabFinder
	cache     scheduleCache
	metrics   scheduleMetrics
	validator *validator.Validate
	logger    *zap.Logger
	booking   config.BookingConfig
	slotSet   map[string]struct{}
}

// NewScheduleService constructs a ScheduleService instance.
func NewScheduleService(repo scheduleRepository, courses scheduleCourseFinder, labs scheduleLabFinder, cache scheduleCache, metrics scheduleMetrics, validate *validator.Validate, logger *zap.Logger, booking config.BookingConfig) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	slotSet := make(map[string]struct{}, len(booking.TimeSlots))
	for _, slot := range booking.TimeSlots {
		slotSet[slot] = struct{}{}
	}
	return &ScheduleService{
		repo:      repo,
		courses:   courses,
		labs:      labs,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		booking:   booking,
		slotSet:   slotSet,
	}
}

// TimeSlots returns the canonical slot grid.
func (s *ScheduleService) TimeSlots() []string {
	return s.booking.TimeSlots
}

// List returns bookings matching the filter.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	if filter.Status != "" && !models.ValidBookingStatus(filter.Status) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown booking status")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.booking.DefaultPageSize
	}
	if filter.PageSize > s.booking.MaxPageSize {
		filter.PageSize = s.booking.MaxPageSize
	}

	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return schedules, pagination, nil
}

// Get loads one booking.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// DayView returns every booking for a day, served from cache when enabled.
func (s *ScheduleService) DayView(ctx context.Context, date time.Time, labCode string) ([]models.Schedule, error) {
	key := dayViewCacheKey(date, labCode)
	if s.cache != nil && s.cache.Enabled() {
		var cached []models.Schedule
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.CacheLookup(true)
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.CacheLookup(false)
		}
	}

	schedules, err := s.repo.ListByDate(ctx, date, labCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day view")
	}

	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, schedules); err != nil {
			s.logger.Warn("failed to cache day view", zap.Error(err))
		}
	}
	return schedules, nil
}

// CheckConflict reports whether the requested slots collide with a confirmed
// booking on the same lab and date. Only CONFIRMED bookings block; the first
// overlapping booking in creation order is returned.
func (s *ScheduleService) CheckConflict(ctx context.Context, req models.ConflictCheckRequest) (*models.ConflictCheckResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	date, err := parseBookingDate(req.Date)
	if err != nil {
		return nil, err
	}

	conflict, err := s.findConflict(ctx, date, req.LabCode, req.Slots, req.ExcludeID)
	if err != nil {
		return nil, err
	}
	return &models.ConflictCheckResult{Conflict: conflict != nil, With: conflict}, nil
}

// Create books a lab. Confirmed bookings are rejected when their slots
// overlap an existing confirmed booking on the same lab and date.
func (s *ScheduleService) Create(ctx context.Context, userID string, req models.CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	date, err := parseBookingDate(req.Date)
	if err != nil {
		return nil, err
	}

	labCode := req.LabCode
	if labCode == "" {
		labCode = s.booking.DefaultLabCode
	}

	status := models.BookingStatus(req.Status)
	if status == "" {
		status = models.BookingPending
	}
	repeatType := models.RepeatType(req.RepeatType)
	if repeatType == "" {
		repeatType = models.RepeatNone
	}

	if err := s.validateSlots(req.Slots); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req.CourseCode, labCode); err != nil {
		return nil, err
	}

	if status == models.BookingConfirmed {
		conflict, err := s.findConflict(ctx, date, labCode, req.Slots, "")
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			if s.metrics != nil {
				s.metrics.BookingConflictRejected(labCode)
			}
			return nil, &models.BookingConflictError{
				Message:  fmt.Sprintf("slots overlap booking %s", conflict.ID),
				Conflict: conflict,
			}
		}
	}

	schedule := &models.Schedule{
		Date:       date,
		Slots:      req.Slots,
		UserName:   req.UserName,
		UserID:     userID,
		CourseCode: req.CourseCode,
		LabCode:    labCode,
		Annotation: req.Annotation,
		RepeatType: repeatType,
		Status:     status,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	s.invalidateDay(ctx, schedule.Date, schedule.LabCode)
	return schedule, nil
}

// Update modifies a booking. Status changes go through the transition table
// and the conflict check reruns whenever the result is a confirmed booking,
// excluding the booking itself.
func (s *ScheduleService) Update(ctx context.Context, id string, req models.UpdateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	prevDate, prevLab := schedule.Date, schedule.LabCode

	if req.Date != nil {
		date, err := parseBookingDate(*req.Date)
		if err != nil {
			return nil, err
		}
		schedule.Date = date
	}
	if req.Slots != nil {
		if err := s.validateSlots(*req.Slots); err != nil {
			return nil, err
		}
		schedule.Slots = *req.Slots
	}
	if req.UserName != nil {
		schedule.UserName = *req.UserName
	}
	if req.CourseCode != nil {
		schedule.CourseCode = *req.CourseCode
	}
	if req.LabCode != nil {
		schedule.LabCode = *req.LabCode
	}
	if req.Annotation != nil {
		schedule.Annotation = *req.Annotation
	}
	if req.RepeatType != nil {
		schedule.RepeatType = models.RepeatType(*req.RepeatType)
	}
	if req.Status != nil {
		next := models.BookingStatus(*req.Status)
		if !models.CanTransition(schedule.Status, next) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
				fmt.Sprintf("cannot move booking from %s to %s", schedule.Status, next))
		}
		schedule.Status = next
	}

	if req.CourseCode != nil || req.LabCode != nil {
		if err := s.checkReferences(ctx, schedule.CourseCode, schedule.LabCode); err != nil {
			return nil, err
		}
	}

	if schedule.Status == models.BookingConfirmed {
		conflict, err := s.findConflict(ctx, schedule.Date, schedule.LabCode, schedule.Slots, schedule.ID)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			if s.metrics != nil {
				s.metrics.BookingConflictRejected(schedule.LabCode)
			}
			return nil, &models.BookingConflictError{
				Message:  fmt.Sprintf("slots overlap booking %s", conflict.ID),
				Conflict: conflict,
			}
		}
	}

	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}

	s.invalidateDay(ctx, prevDate, prevLab)
	if !schedule.Date.Equal(prevDate) || schedule.LabCode != prevLab {
		s.invalidateDay(ctx, schedule.Date, schedule.LabCode)
	}
	return schedule, nil
}

// UpdateStatus moves a booking through the status machine.
func (s *ScheduleService) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) (*models.Schedule, error) {
	if !models.ValidBookingStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown booking status")
	}
	raw := string(status)
	return s.Update(ctx, id, models.UpdateScheduleRequest{Status: &raw})
}

// Delete removes a booking.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	s.invalidateDay(ctx, schedule.Date, schedule.LabCode)
	return nil
}

// findConflict loads the competing confirmed bookings and intersects slot
// sets. Slot labels are opaque: distinct labels never overlap.
func (s *ScheduleService) findConflict(ctx context.Context, date time.Time, labCode string, slots []string, excludeID string) (*models.Schedule, error) {
	confirmed, err := s.repo.ListConfirmed(ctx, date, labCode, excludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load confirmed bookings")
	}

	requested := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		requested[slot] = struct{}{}
	}

	for i := range confirmed {
		for _, slot := range confirmed[i].Slots {
			if _, ok := requested[slot]; ok {
				return &confirmed[i], nil
			}
		}
	}
	return nil, nil
}

// validateSlots enforces grid membership according to the referential
// policy: strict rejects off-grid labels, warn logs and allows them.
func (s *ScheduleService) validateSlots(slots []string) error {
	seen := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		if _, dup := seen[slot]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate slot %q", slot))
		}
		seen[slot] = struct{}{}

		if _, ok := s.slotSet[slot]; ok {
			continue
		}
		if s.booking.ReferentialPolicy == config.PolicyStrict {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %q is not on the booking grid", slot))
		}
		s.logger.Warn("booking uses off-grid slot", zap.String("slot", slot))
	}
	return nil
}

// checkReferences resolves the soft course and lab codes. Under the strict
// policy missing references reject the write; under warn they only log.
func (s *ScheduleService) checkReferences(ctx context.Context, courseCode, labCode string) error {
	strict := s.booking.ReferentialPolicy == config.PolicyStrict

	if courseCode != "" {
		if _, err := s.courses.FindByCode(ctx, courseCode); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course")
			}
			if strict {
				return appErrors.Clone(appErrors.ErrReferentialMismatch, fmt.Sprintf("course %q does not exist", courseCode))
			}
			s.logger.Warn("booking references unknown course", zap.String("course_code", courseCode))
		}
	}

	if labCode != "" {
		lab, err := s.labs.FindByCode(ctx, labCode)
		switch {
		case err == nil:
			if !lab.Active && strict {
				return appErrors.Clone(appErrors.ErrReferentialMismatch, fmt.Sprintf("lab %q is not active", labCode))
			}
		case errors.Is(err, sql.ErrNoRows):
			if strict {
				return appErrors.Clone(appErrors.ErrReferentialMismatch, fmt.Sprintf("lab %q does not exist", labCode))
			}
			s.logger.Warn("booking references unknown lab", zap.String("lab_code", labCode))
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve lab")
		}
	}
	return nil
}

func (s *ScheduleService) invalidateDay(ctx context.Context, date time.Time, labCode string) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	pattern := fmt.Sprintf("schedules:day:%s:*", date.Format("2006-01-02"))
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate day view cache",
			zap.String("lab_code", labCode), zap.Error(err))
	}
}

func dayViewCacheKey(date time.Time, labCode string) string {
	if labCode == "" {
		labCode = "all"
	}
	return fmt.Sprintf("schedules:day:%s:%s", date.Format("2006-01-02"), labCode)
}

func parseBookingDate(raw string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return date, nil
}
