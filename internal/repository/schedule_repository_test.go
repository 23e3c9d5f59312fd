package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/lumus-labs/lumus-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "date", "slots", "user_name", "user_id", "course_code",
		"lab_code", "annotation", "repeat_type", "status", "created_at", "updated_at",
	})
}

func TestScheduleRepositoryListConfirmed(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := scheduleRows().
		AddRow("sch-1", date, pq.StringArray{"07:00", "07:45"}, "Ada", "user-1", "CS101",
			"LAB01", "", models.RepeatNone, models.BookingConfirmed, time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, slots, user_name, user_id, course_code, lab_code, annotation, repeat_type, status, created_at, updated_at FROM schedules WHERE date = $1 AND lab_code = $2 AND status = 'CONFIRMED' ORDER BY created_at ASC, id ASC")).
		WithArgs(date, "LAB01").
		WillReturnRows(rows)

	schedules, err := repo.ListConfirmed(context.Background(), date, "LAB01", "")
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Equal(t, "sch-1", schedules[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListConfirmedWithExclusion(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, date, slots, user_name, user_id, course_code, lab_code, annotation, repeat_type, status, created_at, updated_at FROM schedules WHERE date = $1 AND lab_code = $2 AND status = 'CONFIRMED' AND id != $3 ORDER BY created_at ASC, id ASC")).
		WithArgs(date, "LAB01", "sch-1").
		WillReturnRows(scheduleRows())

	schedules, err := repo.ListConfirmed(context.Background(), date, "LAB01", "sch-1")
	require.NoError(t, err)
	require.Empty(t, schedules)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").
		WillReturnResult(sqlmock.NewResult(1, 1))

	schedule := &models.Schedule{
		Date:       time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Slots:      pq.StringArray{"07:00"},
		UserName:   "Ada",
		UserID:     "user-1",
		CourseCode: "CS101",
		LabCode:    "LAB01",
		RepeatType: models.RepeatNone,
		Status:     models.BookingPending,
	}
	err := repo.Create(context.Background(), schedule)
	require.NoError(t, err)
	require.NotEmpty(t, schedule.ID)
	require.False(t, schedule.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery("SELECT .* FROM schedules WHERE id =").
		WithArgs("missing").
		WillReturnRows(scheduleRows())

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
