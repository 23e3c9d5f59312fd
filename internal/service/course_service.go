package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lumus-labs/lumus-api/internal/models"
	appErrors "github.com/lumus-labs/lumus-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	CountStudents(ctx context.Context, id string) (int, error)
	ListStudents(ctx context.Context, courseID string) ([]models.Student, error)
	ListWithAvailability(ctx context.Context) ([]models.CourseDetail, error)
	Enroll(ctx context.Context, courseID, studentID string) error
	Unenroll(ctx context.Context, courseID, studentID string) error
	Transfer(ctx context.Context, studentID, targetCourseID string) error
}

type courseMetrics interface {
	EnrollmentRejected(reason string)
}

// CourseService owns course management and the enrollment guard.
type CourseService struct {
	repo      courseRepository
	metrics   courseMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(repo courseRepository, metrics courseMetrics, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{repo: repo, metrics: metrics, validator: validate, logger: logger}
}

// List returns courses matching the filter with enrollment counts.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one course with its enrollment count.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// ListAvailable returns courses that still have free seats.
func (s *CourseService) ListAvailable(ctx context.Context) ([]models.CourseDetail, error) {
	courses, err := s.repo.ListWithAvailability(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available courses")
	}
	return courses, nil
}

// Students returns the roster of a course.
func (s *CourseService) Students(ctx context.Context, id string) ([]models.Student, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	students, err := s.repo.ListStudents(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course students")
	}
	return students, nil
}

// Create registers a new course after checking code uniqueness.
func (s *CourseService) Create(ctx context.Context, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course code %q is taken", req.Code))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}

	course := &models.Course{
		Name:        req.Name,
		Nickname:    req.Nickname,
		Code:        req.Code,
		Period:      req.Period,
		Capacity:    req.Capacity,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update modifies a course. Shrinking capacity below the current enrollment
// is rejected so the capacity invariant cannot be violated retroactively.
func (s *CourseService) Update(ctx context.Context, id string, req models.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	course := detail.Course

	if req.Code != nil && *req.Code != course.Code {
		if _, err := s.repo.FindByCode(ctx, *req.Code); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course code %q is taken", *req.Code))
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
		}
		course.Code = *req.Code
	}
	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Nickname != nil {
		course.Nickname = *req.Nickname
	}
	if req.Period != nil {
		course.Period = *req.Period
	}
	if req.Capacity != nil {
		if *req.Capacity < detail.StudentCount {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("capacity %d is below current enrollment of %d", *req.Capacity, detail.StudentCount))
		}
		course.Capacity = *req.Capacity
	}
	if req.Description != nil {
		course.Description = *req.Description
	}

	if err := s.repo.Update(ctx, &course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return &course, nil
}

// Delete removes a course. Courses with enrolled students cannot be deleted.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	count, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollment")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course still has %d enrolled students", count))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

// Enroll links a student to the course, enforcing the capacity ceiling.
func (s *CourseService) Enroll(ctx context.Context, courseID string, req models.EnrollmentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if err := s.repo.Enroll(ctx, courseID, req.StudentID); err != nil {
		s.recordRejection(err)
		return err
	}
	return nil
}

// Unenroll removes the student link from the course.
func (s *CourseService) Unenroll(ctx context.Context, courseID string, req models.EnrollmentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if err := s.repo.Unenroll(ctx, courseID, req.StudentID); err != nil {
		s.recordRejection(err)
		return err
	}
	return nil
}

// Transfer moves a student to another course in one transaction. When the
// target is full the student keeps their current enrollment.
func (s *CourseService) Transfer(ctx context.Context, req models.TransferRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}
	if err := s.repo.Transfer(ctx, req.StudentID, req.TargetCourseID); err != nil {
		s.recordRejection(err)
		return err
	}
	return nil
}

func (s *CourseService) recordRejection(err error) {
	if s.metrics == nil {
		return
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case appErrors.ErrCapacityExceeded.Code, appErrors.ErrAlreadyEnrolled.Code, appErrors.ErrNotEnrolled.Code:
			s.metrics.EnrollmentRejected(appErr.Code)
		}
	}
}
