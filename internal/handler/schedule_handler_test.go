package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumus-labs/lumus-api/internal/middleware"
	"github.com/lumus-labs/lumus-api/internal/models"
	"github.com/lumus-labs/lumus-api/internal/service"
	"github.com/lumus-labs/lumus-api/pkg/config"
)

type stubScheduleRepo struct {
	schedules []models.Schedule
	created   []*models.Schedule
}

func (s *stubScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	return s.schedules, len(s.schedules), nil
}

func (s *stubScheduleRepo) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	for i := range s.schedules {
		if s.schedules[i].ID == id {
			return &s.schedules[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubScheduleRepo) ListByDate(ctx context.Context, date time.Time, labCode string) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, sch := range s.schedules {
		if sch.Date.Equal(date) && (labCode == "" || sch.LabCode == labCode) {
			out = append(out, sch)
		}
	}
	return out, nil
}

func (s *stubScheduleRepo) ListConfirmed(ctx context.Context, date time.Time, labCode, excludeID string) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, sch := range s.schedules {
		if sch.Status != models.BookingConfirmed {
			continue
		}
		if !sch.Date.Equal(date) || sch.LabCode != labCode {
			continue
		}
		if excludeID != "" && sch.ID == excludeID {
			continue
		}
		out = append(out, sch)
	}
	return out, nil
}

func (s *stubScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	schedule.ID = "created-1"
	schedule.CreatedAt = time.Now().UTC()
	schedule.UpdatedAt = schedule.CreatedAt
	s.created = append(s.created, schedule)
	s.schedules = append(s.schedules, *schedule)
	return nil
}

func (s *stubScheduleRepo) Update(ctx context.Context, schedule *models.Schedule) error {
	for i := range s.schedules {
		if s.schedules[i].ID == schedule.ID {
			s.schedules[i] = *schedule
		}
	}
	return nil
}

func (s *stubScheduleRepo) Delete(ctx context.Context, id string) error { return nil }

type stubCourseFinder struct{}

func (stubCourseFinder) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	return nil, sql.ErrNoRows
}

type stubLabFinder struct{}

func (stubLabFinder) FindByCode(ctx context.Context, code string) (*models.Lab, error) {
	return nil, sql.ErrNoRows
}

func newScheduleTestRouter(repo *stubScheduleRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	booking := config.BookingConfig{
		TimeSlots:         []string{"07:00", "07:45", "08:30", "09:15"},
		ReferentialPolicy: config.PolicyWarn,
		DefaultLabCode:    "LAB01",
		DefaultPageSize:   20,
		MaxPageSize:       100,
	}
	svc := service.NewScheduleService(repo, stubCourseFinder{}, stubLabFinder{}, nil, nil, nil, zap.NewNop(), booking)
	h := NewScheduleHandler(svc, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{
			UserID:   "user-1",
			Role:     models.RoleProfessor,
			FullName: "Ada Lovelace",
		})
	})
	r.POST("/schedules", h.Create)
	r.POST("/schedules/check-conflict", h.CheckConflict)
	r.PATCH("/schedules/:id/status", h.UpdateStatus)
	return r
}

func confirmedBooking() models.Schedule {
	return models.Schedule{
		ID:       "existing-1",
		Date:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Slots:    pq.StringArray{"07:00", "07:45"},
		UserName: "Grace Hopper",
		UserID:   "user-2",
		LabCode:  "LAB01",
		Status:   models.BookingConfirmed,
	}
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateConfirmedBookingConflictReturns409(t *testing.T) {
	repo := &stubScheduleRepo{schedules: []models.Schedule{confirmedBooking()}}
	r := newScheduleTestRouter(repo)

	w := postJSON(t, r, "/schedules", models.CreateScheduleRequest{
		Date:       "2025-03-10",
		Slots:      []string{"07:45", "08:30"},
		CourseCode: "CS101",
		LabCode:    "LAB01",
		Status:     string(models.BookingConfirmed),
	})

	require.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Meta struct {
			Conflict *models.Schedule `json:"conflict"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICTING_BOOKING", body.Error.Code)
	require.NotNil(t, body.Meta.Conflict)
	assert.Equal(t, "existing-1", body.Meta.Conflict.ID)
	assert.Empty(t, repo.created)
}

func TestCreatePendingBookingSucceedsDespiteOverlap(t *testing.T) {
	repo := &stubScheduleRepo{schedules: []models.Schedule{confirmedBooking()}}
	r := newScheduleTestRouter(repo)

	w := postJSON(t, r, "/schedules", models.CreateScheduleRequest{
		Date:       "2025-03-10",
		Slots:      []string{"07:45", "08:30"},
		CourseCode: "CS101",
		LabCode:    "LAB01",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Data models.Schedule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "created-1", body.Data.ID)
	assert.Equal(t, models.BookingPending, body.Data.Status)
	// User name fills in from the authenticated claims.
	assert.Equal(t, "Ada Lovelace", body.Data.UserName)
}

func TestCheckConflictReportsBlockingBooking(t *testing.T) {
	repo := &stubScheduleRepo{schedules: []models.Schedule{confirmedBooking()}}
	r := newScheduleTestRouter(repo)

	w := postJSON(t, r, "/schedules/check-conflict", models.ConflictCheckRequest{
		Date:    "2025-03-10",
		LabCode: "LAB01",
		Slots:   []string{"07:00"},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data models.ConflictCheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.Conflict)
	require.NotNil(t, body.Data.With)
	assert.Equal(t, "existing-1", body.Data.With.ID)
}

func TestCheckConflictCleanSlots(t *testing.T) {
	repo := &stubScheduleRepo{schedules: []models.Schedule{confirmedBooking()}}
	r := newScheduleTestRouter(repo)

	w := postJSON(t, r, "/schedules/check-conflict", models.ConflictCheckRequest{
		Date:    "2025-03-10",
		LabCode: "LAB01",
		Slots:   []string{"08:30", "09:15"},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data models.ConflictCheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Data.Conflict)
	assert.Nil(t, body.Data.With)
}

func TestUpdateStatusInvalidTransitionReturns409(t *testing.T) {
	cancelled := confirmedBooking()
	cancelled.ID = "cancelled-1"
	cancelled.Status = models.BookingCancelled
	repo := &stubScheduleRepo{schedules: []models.Schedule{cancelled}}
	r := newScheduleTestRouter(repo)

	body, err := json.Marshal(map[string]string{"status": string(models.BookingConfirmed)})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPatch, "/schedules/cancelled-1/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_TRANSITION", resp.Error.Code)
}
