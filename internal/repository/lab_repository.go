package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lumus-labs/lumus-api/internal/models"
)

// LabRepository provides database access for laboratories.
type LabRepository struct {
	db *sqlx.DB
}

// NewLabRepository creates a new instance of LabRepository.
func NewLabRepository(db *sqlx.DB) *LabRepository {
	return &LabRepository{db: db}
}

const labColumns = `id, code, name, capacity, location, description, active, created_at, updated_at`

// List returns all labs, optionally restricted to active ones.
func (r *LabRepository) List(ctx context.Context, activeOnly bool) ([]models.LabDetail, error) {
	query := `SELECT l.id, l.code, l.name, l.capacity, l.location, l.description, l.active, l.created_at, l.updated_at,
        (SELECT COUNT(*) FROM schedules s WHERE s.lab_code = l.code AND s.status = 'CONFIRMED' AND s.date >= CURRENT_DATE) AS active_bookings
        FROM labs l`
	if activeOnly {
		query += ` WHERE l.active = TRUE`
	}
	query += ` ORDER BY l.code ASC`

	var labs []models.LabDetail
	if err := r.db.SelectContext(ctx, &labs, query); err != nil {
		return nil, fmt.Errorf("list labs: %w", err)
	}
	return labs, nil
}

// FindByID loads a lab by identifier.
func (r *LabRepository) FindByID(ctx context.Context, id string) (*models.Lab, error) {
	query := fmt.Sprintf(`SELECT %s FROM labs WHERE id = $1 LIMIT 1`, labColumns)
	var lab models.Lab
	if err := r.db.GetContext(ctx, &lab, query, id); err != nil {
		return nil, err
	}
	return &lab, nil
}

// FindByCode loads a lab by its unique code.
func (r *LabRepository) FindByCode(ctx context.Context, code string) (*models.Lab, error) {
	query := fmt.Sprintf(`SELECT %s FROM labs WHERE code = $1 LIMIT 1`, labColumns)
	var lab models.Lab
	if err := r.db.GetContext(ctx, &lab, query, code); err != nil {
		return nil, err
	}
	return &lab, nil
}

// Create persists a new lab.
func (r *LabRepository) Create(ctx context.Context, lab *models.Lab) error {
	if lab.ID == "" {
		lab.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lab.CreatedAt = now
	lab.UpdatedAt = now
	const query = `INSERT INTO labs (id, code, name, capacity, location, description, active, created_at, updated_at)
        VALUES (:id, :code, :name, :capacity, :location, :description, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lab); err != nil {
		return fmt.Errorf("create lab: %w", err)
	}
	return nil
}

// Update modifies an existing lab.
func (r *LabRepository) Update(ctx context.Context, lab *models.Lab) error {
	lab.UpdatedAt = time.Now().UTC()
	const query = `UPDATE labs SET code = :code, name = :name, capacity = :capacity, location = :location, description = :description, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lab); err != nil {
		return fmt.Errorf("update lab: %w", err)
	}
	return nil
}

// Delete removes a lab permanently.
func (r *LabRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM labs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lab: %w", err)
	}
	return nil
}

// CountConfirmed returns the number of confirmed bookings referencing a lab
// on or after today. Used to guard lab deletion.
func (r *LabRepository) CountConfirmed(ctx context.Context, code string) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM schedules WHERE lab_code = $1 AND status = 'CONFIRMED' AND date >= CURRENT_DATE`
	if err := r.db.GetContext(ctx, &count, query, code); err != nil {
		return 0, fmt.Errorf("count confirmed bookings: %w", err)
	}
	return count, nil
}
