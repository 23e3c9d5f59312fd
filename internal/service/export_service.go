package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumus-labs/lumus-api/internal/models"
	"github.com/lumus-labs/lumus-api/pkg/config"
	appErrors "github.com/lumus-labs/lumus-api/pkg/errors"
	"github.com/lumus-labs/lumus-api/pkg/export"
)

type exportScheduleRepository interface {
	ListRange(ctx context.Context, start, end time.Time, labCode string) ([]models.Schedule, error)
}

// ExportFormat identifies a booking sheet output format.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes with transport metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders booking sheets for a date range.
type ExportService struct {
	repo   exportScheduleRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
	config config.ExportConfig
}

// NewExportService constructs an ExportService instance.
func NewExportService(repo exportScheduleRepository, logger *zap.Logger, cfg config.ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:   repo,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
		config: cfg,
	}
}

// BookingSheet renders bookings between start and end as CSV or PDF.
func (s *ExportService) BookingSheet(ctx context.Context, start, end time.Time, labCode string, format ExportFormat) (*ExportResult, error) {
	if !s.config.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date is before start date")
	}
	if s.config.MaxDays > 0 && int(end.Sub(start).Hours()/24) > s.config.MaxDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range exceeds %d days", s.config.MaxDays))
	}

	schedules, err := s.repo.ListRange(ctx, start, end, labCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	dataset := bookingDataset(schedules)
	stamp := fmt.Sprintf("%s_%s", start.Format("20060102"), end.Format("20060102"))

	switch format {
	case ExportCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("bookings_%s.csv", stamp),
		}, nil
	case ExportPDF:
		content, err := s.pdf.Render(dataset, s.config.SheetTitle)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("bookings_%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export format %q", format))
	}
}

func bookingDataset(schedules []models.Schedule) export.Dataset {
	headers := []string{"Date", "Lab", "Course", "Booked by", "Slots", "Status", "Notes"}
	rows := make([]map[string]string, 0, len(schedules))
	for _, schedule := range schedules {
		rows = append(rows, map[string]string{
			"Date":      schedule.Date.Format("2006-01-02"),
			"Lab":       schedule.LabCode,
			"Course":    schedule.CourseCode,
			"Booked by": schedule.UserName,
			"Slots":     strings.Join(schedule.Slots, " "),
			"Status":    string(schedule.Status),
			"Notes":     schedule.Annotation,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
