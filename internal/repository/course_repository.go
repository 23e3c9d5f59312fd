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

// CourseRepository provides persistence for courses and owns the enrollment
// relation between courses and students.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, name, nickname, code, period, capacity, description, created_at, updated_at`

// List returns courses with optional search and period filtering.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	base := `FROM courses c WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.name) LIKE $%d OR LOWER(c.nickname) LIKE $%d OR LOWER(c.code) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("c.period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":       "c.name",
		"code":       "c.code",
		"created_at": "c.created_at",
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "c.created_at"
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

	query := fmt.Sprintf(`SELECT c.id, c.name, c.nickname, c.code, c.period, c.capacity, c.description, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM students s WHERE s.course_id = c.id) AS student_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, orderBy, order, size, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID loads a course with its enrollment count.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	const query = `SELECT c.id, c.name, c.nickname, c.code, c.period, c.capacity, c.description, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM students s WHERE s.course_id = c.id) AS student_count
        FROM courses c WHERE c.id = $1`
	var course models.CourseDetail
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByCode loads a course by its unique code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE code = $1 LIMIT 1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, name, nickname, code, period, capacity, description, created_at, updated_at)
        VALUES (:id, :name, :nickname, :code, :period, :capacity, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, nickname = :nickname, code = :code, period = :period, capacity = :capacity, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course permanently.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// ListStudents returns the roster of a course.
func (r *CourseRepository) ListStudents(ctx context.Context, courseID string) ([]models.Student, error) {
	const query = `SELECT id, full_name, email, phone, registration_number, course_id, created_at, updated_at
        FROM students WHERE course_id = $1 ORDER BY full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return students, nil
}

// CountStudents returns the current enrollment count for a course.
func (r *CourseRepository) CountStudents(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE course_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count course students: %w", err)
	}
	return count, nil
}

// ListWithAvailability returns courses that still have free seats.
func (r *CourseRepository) ListWithAvailability(ctx context.Context) ([]models.CourseDetail, error) {
	const query = `SELECT c.id, c.name, c.nickname, c.code, c.period, c.capacity, c.description, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM students s WHERE s.course_id = c.id) AS student_count
        FROM courses c
        WHERE (SELECT COUNT(*) FROM students s WHERE s.course_id = c.id) < c.capacity
        ORDER BY c.code ASC`
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses with availability: %w", err)
	}
	return courses, nil
}

// Enroll links a student to a course. The capacity ceiling and the duplicate
// check are evaluated inside one transaction with the course row locked, so
// two concurrent enrollments cannot both pass the count.
func (r *CourseRepository) Enroll(ctx context.Context, courseID, studentID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enroll tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var capacity int
	if err = tx.GetContext(ctx, &capacity, `SELECT capacity FROM courses WHERE id = $1 FOR UPDATE`, courseID); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return err
	}

	var current sql.NullString
	if err = tx.GetContext(ctx, &current, `SELECT course_id FROM students WHERE id = $1 FOR UPDATE`, studentID); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return err
	}
	if current.Valid && current.String == courseID {
		err = appErrors.ErrAlreadyEnrolled
		return err
	}
	if current.Valid {
		err = appErrors.Clone(appErrors.ErrConflict, "student is enrolled in another course; transfer instead")
		return err
	}

	var count int
	if err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("count enrollment: %w", err)
	}
	if count >= capacity {
		err = appErrors.ErrCapacityExceeded
		return err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE students SET course_id = $2, updated_at = $3 WHERE id = $1`, studentID, courseID, time.Now().UTC()); err != nil {
		return fmt.Errorf("link student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit enroll tx: %w", err)
	}
	return nil
}

// Unenroll removes the link between a student and a course.
func (r *CourseRepository) Unenroll(ctx context.Context, courseID, studentID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unenroll tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current sql.NullString
	if err = tx.GetContext(ctx, &current, `SELECT course_id FROM students WHERE id = $1 FOR UPDATE`, studentID); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return err
	}
	if !current.Valid || current.String != courseID {
		err = appErrors.ErrNotEnrolled
		return err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE students SET course_id = NULL, updated_at = $2 WHERE id = $1`, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("unlink student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit unenroll tx: %w", err)
	}
	return nil
}

// Transfer moves a student to the target course. The old link is removed and
// the new one written by a single UPDATE inside the transaction, so a crash
// can never leave the student unlinked.
func (r *CourseRepository) Transfer(ctx context.Context, studentID, targetCourseID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var capacity int
	if err = tx.GetContext(ctx, &capacity, `SELECT capacity FROM courses WHERE id = $1 FOR UPDATE`, targetCourseID); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "target course not found")
		}
		return err
	}

	var current sql.NullString
	if err = tx.GetContext(ctx, &current, `SELECT course_id FROM students WHERE id = $1 FOR UPDATE`, studentID); err != nil {
		if err == sql.ErrNoRows {
			err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return err
	}
	if current.Valid && current.String == targetCourseID {
		err = appErrors.ErrAlreadyEnrolled
		return err
	}

	var count int
	if err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE course_id = $1`, targetCourseID); err != nil {
		return fmt.Errorf("count target enrollment: %w", err)
	}
	if count >= capacity {
		err = appErrors.Clone(appErrors.ErrCapacityExceeded, "target course is at maximum capacity")
		return err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE students SET course_id = $2, updated_at = $3 WHERE id = $1`, studentID, targetCourseID, time.Now().UTC()); err != nil {
		return fmt.Errorf("move student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer tx: %w", err)
	}
	return nil
}
