package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lumus-labs/lumus-api/internal/models"
	appErrors "github.com/lumus-labs/lumus-api/pkg/errors"
)

// StudentRepository provides database access for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, full_name, email, phone, registration_number, course_id, created_at, updated_at`

// List returns students joined with their course for display.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := `FROM students s LEFT JOIN courses c ON c.id = s.course_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.email) LIKE $%d OR LOWER(s.registration_number) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("s.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":  "s.full_name",
		"email":      "s.email",
		"created_at": "s.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.full_name, s.email, s.phone, s.registration_number, s.course_id, s.created_at, s.updated_at,
        c.name AS course_name, c.code AS course_code
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, orderBy, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID loads a student with course context.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.full_name, s.email, s.phone, s.registration_number, s.course_id, s.created_at, s.updated_at,
        c.name AS course_name, c.code AS course_code
        FROM students s LEFT JOIN courses c ON c.id = s.course_id WHERE s.id = $1`
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByEmail loads a student by email address.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE email = $1 LIMIT 1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, email); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByRegistration loads a student by registration number.
func (r *StudentRepository) FindByRegistration(ctx context.Context, registration string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE registration_number = $1 LIMIT 1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, registration); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create persists a new student. When a course link is requested the insert
// runs in a transaction with the course row locked so the capacity guard
// holds under concurrent creates.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) (err error) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const insert = `INSERT INTO students (id, full_name, email, phone, registration_number, course_id, created_at, updated_at)
        VALUES (:id, :full_name, :email, :phone, :registration_number, :course_id, :created_at, :updated_at)`

	if student.CourseID == nil {
		if _, err := r.db.NamedExecContext(ctx, insert, student); err != nil {
			return fmt.Errorf("create student: %w", err)
		}
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var capacity int
	if err = tx.GetContext(ctx, &capacity, `SELECT capacity FROM courses WHERE id = $1 FOR UPDATE`, *student.CourseID); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return err
	}

	var count int
	if err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE course_id = $1`, *student.CourseID); err != nil {
		return fmt.Errorf("count enrollment: %w", err)
	}
	if count >= capacity {
		err = appErrors.ErrCapacityExceeded
		return err
	}

	if _, err = tx.NamedExecContext(ctx, insert, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create student tx: %w", err)
	}
	return nil
}

// Update modifies profile fields. The course link is deliberately not
// touched here; enrollment changes go through CourseRepository.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, email = :email, phone = :phone, registration_number = :registration_number, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student permanently.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
