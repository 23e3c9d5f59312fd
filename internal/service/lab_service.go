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
	appErrors "github.com/lumus-labs/lumus-api/pkg/errors"
)

type labRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.LabDetail, error)
	FindByID(ctx context.Context, id string) (*models.Lab, error)
	FindByCode(ctx context.Context, code string) (*models.Lab, error)
	Create(ctx context.Context, lab *models.Lab) error
	Update(ctx context.Context, lab *models.Lab) error
	Delete(ctx context.Context, id string) error
	CountConfirmed(ctx context.Context, code string) (int, error)
}

type labScheduleLister interface {
	ListConfirmedRange(ctx context.Context, start, end time.Time, labCode string) ([]models.Schedule, error)
}

// LabService owns laboratory management.
type LabService struct {
	repo      labRepository
	schedules labScheduleLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLabService constructs a LabService instance.
func NewLabService(repo labRepository, schedules labScheduleLister, validate *validator.Validate, logger *zap.Logger) *LabService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LabService{repo: repo, schedules: schedules, validator: validate, logger: logger}
}

// List returns labs with booking counts.
func (s *LabService) List(ctx context.Context, activeOnly bool) ([]models.LabDetail, error) {
	labs, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list labs")
	}
	return labs, nil
}

// Get loads one lab by identifier.
func (s *LabService) Get(ctx context.Context, id string) (*models.Lab, error) {
	lab, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lab not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lab")
	}
	return lab, nil
}

// GetByCode loads one lab by its unique code.
func (s *LabService) GetByCode(ctx context.Context, code string) (*models.Lab, error) {
	lab, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lab not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lab")
	}
	return lab, nil
}

// Availability returns the confirmed bookings of a lab in a date range.
func (s *LabService) Availability(ctx context.Context, code string, start, end time.Time) ([]models.Schedule, error) {
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date is before start date")
	}
	if _, err := s.repo.FindByCode(ctx, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lab not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lab")
	}
	schedules, err := s.schedules.ListConfirmedRange(ctx, start, end, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lab bookings")
	}
	return schedules, nil
}

// Create registers a lab after checking code uniqueness.
func (s *LabService) Create(ctx context.Context, req models.CreateLabRequest) (*models.Lab, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lab payload")
	}

	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("lab code %q is taken", req.Code))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lab code")
	}

	lab := &models.Lab{
		Code:        req.Code,
		Name:        req.Name,
		Capacity:    req.Capacity,
		Location:    req.Location,
		Description: req.Description,
		Active:      true,
	}
	if err := s.repo.Create(ctx, lab); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lab")
	}
	return lab, nil
}

// Update modifies a lab.
func (s *LabService) Update(ctx context.Context, id string, req models.UpdateLabRequest) (*models.Lab, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lab payload")
	}

	lab, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lab not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lab")
	}

	if req.Code != nil && *req.Code != lab.Code {
		if _, err := s.repo.FindByCode(ctx, *req.Code); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("lab code %q is taken", *req.Code))
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lab code")
		}
		lab.Code = *req.Code
	}
	if req.Name != nil {
		lab.Name = *req.Name
	}
	if req.Capacity != nil {
		lab.Capacity = *req.Capacity
	}
	if req.Location != nil {
		lab.Location = *req.Location
	}
	if req.Description != nil {
		lab.Description = *req.Description
	}
	if req.Active != nil {
		lab.Active = *req.Active
	}

	if err := s.repo.Update(ctx, lab); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lab")
	}
	return lab, nil
}

// Delete removes a lab. Labs with upcoming confirmed bookings cannot go.
func (s *LabService) Delete(ctx context.Context, id string) error {
	lab, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lab not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lab")
	}

	count, err := s.repo.CountConfirmed(ctx, lab.Code)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count bookings")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("lab still has %d upcoming confirmed bookings", count))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lab")
	}
	return nil
}
