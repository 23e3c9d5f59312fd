package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	appErrors "github.com/lumus-labs/lumus-api/pkg/errors"
)

func newCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryEnrollCommits(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM courses WHERE id = $1 FOR UPDATE")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_id FROM students WHERE id = $1 FOR UPDATE")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}).AddRow(nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET course_id = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("student-1", "course-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Enroll(context.Background(), "course-1", "student-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryEnrollFullCourseRollsBack(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM courses WHERE id = $1 FOR UPDATE")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_id FROM students WHERE id = $1 FOR UPDATE")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}).AddRow(nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.Enroll(context.Background(), "course-1", "student-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryEnrollAlreadyLinkedRollsBack(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM courses WHERE id = $1 FOR UPDATE")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_id FROM students WHERE id = $1 FOR UPDATE")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}).AddRow("course-1"))
	mock.ExpectRollback()

	err := repo.Enroll(context.Background(), "course-1", "student-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUnenrollWithoutLink(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_id FROM students WHERE id = $1 FOR UPDATE")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}).AddRow(nil))
	mock.ExpectRollback()

	err := repo.Unenroll(context.Background(), "course-1", "student-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrNotEnrolled.Code, appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryTransferToFullTargetRollsBack(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM courses WHERE id = $1 FOR UPDATE")).
		WithArgs("target").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_id FROM students WHERE id = $1 FOR UPDATE")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}).AddRow("origin"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE course_id = $1")).
		WithArgs("target").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Transfer(context.Background(), "student-1", "target")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryTransferCommits(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM courses WHERE id = $1 FOR UPDATE")).
		WithArgs("target").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_id FROM students WHERE id = $1 FOR UPDATE")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}).AddRow("origin"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE course_id = $1")).
		WithArgs("target").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET course_id = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("student-1", "target", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Transfer(context.Background(), "student-1", "target")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
