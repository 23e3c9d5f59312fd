package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lumus-labs/lumus-api/internal/models"
)

// ScheduleRepository provides database access for lab bookings.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new instance of ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, date, slots, user_name, user_id, course_code, lab_code, annotation, repeat_type, status, created_at, updated_at`

// List returns bookings matching the filter, newest first.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	base := `FROM schedules WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	if filter.LabCode != "" {
		conditions = append(conditions, fmt.Sprintf("lab_code = $%d", len(args)+1))
		args = append(args, filter.LabCode)
	}
	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("course_code = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY date DESC, created_at DESC LIMIT %d OFFSET %d", scheduleColumns, base, size, offset)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}
	return schedules, total, nil
}

// FindByID loads a booking by identifier.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE id = $1 LIMIT 1`, scheduleColumns)
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListByDate returns every booking for one calendar day, optionally scoped
// to a lab.
func (r *ScheduleRepository) ListByDate(ctx context.Context, date time.Time, labCode string) ([]models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE date = $1`, scheduleColumns)
	args := []interface{}{date}
	if labCode != "" {
		query += ` AND lab_code = $2`
		args = append(args, labCode)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules by date: %w", err)
	}
	return schedules, nil
}

// ListConfirmed returns the confirmed bookings that compete for slots on a
// given lab and date. The caller may exclude one booking, which makes the
// check usable from update paths. Ordering is oldest first so the first
// reported conflict is deterministic.
func (r *ScheduleRepository) ListConfirmed(ctx context.Context, date time.Time, labCode, excludeID string) ([]models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE date = $1 AND lab_code = $2 AND status = 'CONFIRMED'`, scheduleColumns)
	args := []interface{}{date, labCode}
	if excludeID != "" {
		query += ` AND id != $3`
		args = append(args, excludeID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list confirmed schedules: %w", err)
	}
	return schedules, nil
}

// Create persists a new booking.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	const query = `INSERT INTO schedules (id, date, slots, user_name, user_id, course_code, lab_code, annotation, repeat_type, status, created_at, updated_at)
        VALUES (:id, :date, :slots, :user_name, :user_id, :course_code, :lab_code, :annotation, :repeat_type, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies an existing booking.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET date = :date, slots = :slots, user_name = :user_name, course_code = :course_code, lab_code = :lab_code, annotation = :annotation, repeat_type = :repeat_type, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete removes a booking permanently.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// ListConfirmedRange returns only the confirmed bookings in a date range,
// used for lab availability views.
func (r *ScheduleRepository) ListConfirmedRange(ctx context.Context, start, end time.Time, labCode string) ([]models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE date >= $1 AND date <= $2 AND status = 'CONFIRMED'`, scheduleColumns)
	args := []interface{}{start, end}
	if labCode != "" {
		query += ` AND lab_code = $3`
		args = append(args, labCode)
	}
	query += ` ORDER BY date ASC, created_at ASC`

	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list confirmed schedules in range: %w", err)
	}
	return schedules, nil
}

// ListRange returns bookings between two dates, used by the export surface.
func (r *ScheduleRepository) ListRange(ctx context.Context, start, end time.Time, labCode string) ([]models.Schedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedules WHERE date >= $1 AND date <= $2`, scheduleColumns)
	args := []interface{}{start, end}
	if labCode != "" {
		query += ` AND lab_code = $3`
		args = append(args, labCode)
	}
	query += ` ORDER BY date ASC, created_at ASC`

	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules in range: %w", err)
	}
	return schedules, nil
}
