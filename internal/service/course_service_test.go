package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumus-labs/lumus-api/internal/models"
	appErrors "github.com/lumus-labs/lumus-api/pkg/errors"
)

// mockCourseRepo mirrors the transactional enrollment semantics of the real
// repository over in-memory maps.
type mockCourseRepo struct {
	courses  map[string]models.Course
	enrolled map[string]string // studentID -> courseID
	students map[string]bool
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{
		courses:  make(map[string]models.Course),
		enrolled: make(map[string]string),
		students: make(map[string]bool),
	}
}

func (m *mockCourseRepo) countEnrolled(courseID string) int {
	count := 0
	for _, c := range m.enrolled {
		if c == courseID {
			count++
		}
	}
	return count
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	var list []models.CourseDetail
	for _, c := range m.courses {
		list = append(list, models.CourseDetail{Course: c, StudentCount: m.countEnrolled(c.ID)})
	}
	return list, len(list), nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := m.courses[id]; ok {
		return &models.CourseDetail{Course: c, StudentCount: m.countEnrolled(id)}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	for _, c := range m.courses {
		if c.Code == code {
			course := c
			return &course, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "new-course"
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = *course
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) CountStudents(ctx context.Context, id string) (int, error) {
	return m.countEnrolled(id), nil
}

func (m *mockCourseRepo) ListStudents(ctx context.Context, courseID string) ([]models.Student, error) {
	var roster []models.Student
	for studentID, c := range m.enrolled {
		if c == courseID {
			roster = append(roster, models.Student{ID: studentID, CourseID: &c})
		}
	}
	return roster, nil
}

func (m *mockCourseRepo) ListWithAvailability(ctx context.Context) ([]models.CourseDetail, error) {
	var list []models.CourseDetail
	for _, c := range m.courses {
		count := m.countEnrolled(c.ID)
		if count < c.Capacity {
			list = append(list, models.CourseDetail{Course: c, StudentCount: count})
		}
	}
	return list, nil
}

func (m *mockCourseRepo) Enroll(ctx context.Context, courseID, studentID string) error {
	course, ok := m.courses[courseID]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if !m.students[studentID] {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if current, linked := m.enrolled[studentID]; linked {
		if current == courseID {
			return appErrors.ErrAlreadyEnrolled
		}
		return appErrors.Clone(appErrors.ErrConflict, "student is enrolled in another course")
	}
	if m.countEnrolled(courseID) >= course.Capacity {
		return appErrors.ErrCapacityExceeded
	}
	m.enrolled[studentID] = courseID
	return nil
}

func (m *mockCourseRepo) Unenroll(ctx context.Context, courseID, studentID string) error {
	if current, linked := m.enrolled[studentID]; !linked || current != courseID {
		return appErrors.ErrNotEnrolled
	}
	delete(m.enrolled, studentID)
	return nil
}

func (m *mockCourseRepo) Transfer(ctx context.Context, studentID, targetCourseID string) error {
	course, ok := m.courses[targetCourseID]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "target course not found")
	}
	if current, linked := m.enrolled[studentID]; linked && current == targetCourseID {
		return appErrors.ErrAlreadyEnrolled
	}
	if m.countEnrolled(targetCourseID) >= course.Capacity {
		return appErrors.Clone(appErrors.ErrCapacityExceeded, "target course is at maximum capacity")
	}
	m.enrolled[studentID] = targetCourseID
	return nil
}

type mockCourseMetrics struct {
	rejections map[string]int
}

func (m *mockCourseMetrics) EnrollmentRejected(reason string) {
	if m.rejections == nil {
		m.rejections = make(map[string]int)
	}
	m.rejections[reason]++
}

func newTestCourseService(repo *mockCourseRepo) (*CourseService, *mockCourseMetrics) {
	metrics := &mockCourseMetrics{}
	return NewCourseService(repo, metrics, validator.New(), zap.NewNop()), metrics
}

func seedCapTwoCourse(repo *mockCourseRepo) {
	repo.courses["cs101"] = models.Course{ID: "cs101", Name: "Computer Science", Code: "CS101", Capacity: 2}
	repo.students["alice"] = true
	repo.students["bob"] = true
	repo.students["carol"] = true
}

func TestEnrollUpToCapacityThenReject(t *testing.T) {
	repo := newMockCourseRepo()
	seedCapTwoCourse(repo)
	svc, metrics := newTestCourseService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Enroll(ctx, "cs101", models.EnrollmentRequest{StudentID: "alice"}))
	require.NoError(t, svc.Enroll(ctx, "cs101", models.EnrollmentRequest{StudentID: "bob"}))

	err := svc.Enroll(ctx, "cs101", models.EnrollmentRequest{StudentID: "carol"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)
	assert.Equal(t, 1, metrics.rejections[appErrors.ErrCapacityExceeded.Code])
	assert.Equal(t, 2, repo.countEnrolled("cs101"))
}

func TestEnrollTwiceReturnsAlreadyEnrolled(t *testing.T) {
	repo := newMockCourseRepo()
	seedCapTwoCourse(repo)
	svc, metrics := newTestCourseService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Enroll(ctx, "cs101", models.EnrollmentRequest{StudentID: "alice"}))

	err := svc.Enroll(ctx, "cs101", models.EnrollmentRequest{StudentID: "alice"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
	assert.Equal(t, 1, metrics.rejections[appErrors.ErrAlreadyEnrolled.Code])
}

func TestUnenrollWithoutLinkReturnsNotEnrolled(t *testing.T) {
	repo := newMockCourseRepo()
	seedCapTwoCourse(repo)
	svc, _ := newTestCourseService(repo)

	err := svc.Unenroll(context.Background(), "cs101", models.EnrollmentRequest{StudentID: "alice"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErr.Code)
}

func TestTransferToFullCourseKeepsCurrentSeat(t *testing.T) {
	repo := newMockCourseRepo()
	seedCapTwoCourse(repo)
	repo.courses["math"] = models.Course{ID: "math", Name: "Mathematics", Code: "MATH1", Capacity: 1}
	svc, _ := newTestCourseService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Enroll(ctx, "cs101", models.EnrollmentRequest{StudentID: "alice"}))
	require.NoError(t, svc.Enroll(ctx, "math", models.EnrollmentRequest{StudentID: "bob"}))

	err := svc.Transfer(ctx, models.TransferRequest{StudentID: "alice", TargetCourseID: "math"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErr.Code)

	assert.Equal(t, "cs101", repo.enrolled["alice"])
}

func TestTransferMovesStudent(t *testing.T) {
	repo := newMockCourseRepo()
	seedCapTwoCourse(repo)
	repo.courses["math"] = models.Course{ID: "math", Name: "Mathematics", Code: "MATH1", Capacity: 2}
	svc, _ := newTestCourseService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Enroll(ctx, "cs101", models.EnrollmentRequest{StudentID: "alice"}))
	require.NoError(t, svc.Transfer(ctx, models.TransferRequest{StudentID: "alice", TargetCourseID: "math"}))

	assert.Equal(t, "math", repo.enrolled["alice"])
	assert.Equal(t, 0, repo.countEnrolled("cs101"))
}

func TestDeleteCourseWithStudentsRejected(t *testing.T) {
	repo := newMockCourseRepo()
	seedCapTwoCourse(repo)
	svc, _ := newTestCourseService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Enroll(ctx, "cs101", models.EnrollmentRequest{StudentID: "alice"}))

	err := svc.Delete(ctx, "cs101")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	_, stillThere := repo.courses["cs101"]
	assert.True(t, stillThere)
}

func TestUpdateCapacityBelowEnrollmentRejected(t *testing.T) {
	repo := newMockCourseRepo()
	seedCapTwoCourse(repo)
	svc, _ := newTestCourseService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Enroll(ctx, "cs101", models.EnrollmentRequest{StudentID: "alice"}))
	require.NoError(t, svc.Enroll(ctx, "cs101", models.EnrollmentRequest{StudentID: "bob"}))

	capacity := 1
	_, err := svc.Update(ctx, "cs101", models.UpdateCourseRequest{Capacity: &capacity})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestCreateDuplicateCodeRejected(t *testing.T) {
	repo := newMockCourseRepo()
	seedCapTwoCourse(repo)
	svc, _ := newTestCourseService(repo)

	_, err := svc.Create(context.Background(), models.CreateCourseRequest{
		Name:     "Another",
		Code:     "CS101",
		Capacity: 10,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}
