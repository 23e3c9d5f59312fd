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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	FindByRegistration(ctx context.Context, registration string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// StudentService owns student records. Enrollment moves are out of scope
// here and belong to CourseService.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService instance.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students with course context.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Lookup finds a student by email or registration number. Exactly one of
// the two must be supplied.
func (s *StudentService) Lookup(ctx context.Context, email, registration string) (*models.Student, error) {
	switch {
	case email != "" && registration != "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "supply either email or registration, not both")
	case email != "":
		student, err := s.repo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
		}
		return student, nil
	case registration != "":
		student, err := s.repo.FindByRegistration(ctx, registration)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
		}
		return student, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "email or registration is required")
	}
}

// Create registers a student. Email and registration number are unique. A
// requested course link goes through the capacity guard in the repository.
func (s *StudentService) Create(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("email %q is taken", req.Email))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	if req.RegistrationNumber != "" {
		if _, err := s.repo.FindByRegistration(ctx, req.RegistrationNumber); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("registration number %q is taken", req.RegistrationNumber))
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration number")
		}
	}

	student := &models.Student{
		FullName:           req.FullName,
		Email:              req.Email,
		Phone:              req.Phone,
		RegistrationNumber: req.RegistrationNumber,
		CourseID:           req.CourseID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies profile fields only. Enrollment changes are rejected at
// the payload level because they bypass the capacity guard.
func (s *StudentService) Update(ctx context.Context, id string, req models.UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student := detail.Student

	if req.Email != nil && *req.Email != student.Email {
		if _, err := s.repo.FindByEmail(ctx, *req.Email); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("email %q is taken", *req.Email))
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		student.Email = *req.Email
	}
	if req.RegistrationNumber != nil && *req.RegistrationNumber != student.RegistrationNumber {
		if *req.RegistrationNumber != "" {
			if _, err := s.repo.FindByRegistration(ctx, *req.RegistrationNumber); err == nil {
				return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("registration number %q is taken", *req.RegistrationNumber))
			} else if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration number")
			}
		}
		student.RegistrationNumber = *req.RegistrationNumber
	}
	if req.FullName != nil {
		student.FullName = *req.FullName
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}

	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return &student, nil
}

// Delete removes a student. Any enrollment link disappears with the row.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
