package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-core-api/internal/models"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
	"github.com/noah-isme/academic-core-api/pkg/export"
)

type standingProvider interface {
	Standing(ctx context.Context, studentID, courseID string) (*models.AcademicStanding, error)
}

type enrollmentLister interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders roster standing reports for the reporting layer.
type ExportService struct {
	standings   standingProvider
	enrollments enrollmentLister
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(standings standingProvider, enrollments enrollmentLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{standings: standings, enrollments: enrollments, csv: csv, pdf: pdf, logger: logger}
}

var standingHeaders = []string{"Student", "Course", "Grade", "Attendance %", "Present", "Absent", "Late", "Risk"}

// CourseStandingCSV renders the standing of every active enrollment in a
// course as CSV.
func (s *ExportService) CourseStandingCSV(ctx context.Context, courseID string) ([]byte, error) {
	dataset, err := s.buildCourseDataset(ctx, courseID)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

// CourseStandingPDF renders the standing of every active enrollment in a
// course as a tabular PDF.
func (s *ExportService) CourseStandingPDF(ctx context.Context, courseID string) ([]byte, error) {
	dataset, err := s.buildCourseDataset(ctx, courseID)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(*dataset, "Academic Standing Report")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, nil
}

func (s *ExportService) buildCourseDataset(ctx context.Context, courseID string) (*export.Dataset, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course required")
	}
	enrollments, _, err := s.enrollments.List(ctx, models.EnrollmentFilter{CourseID: courseID, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	dataset := &export.Dataset{Headers: standingHeaders}
	for _, enrollment := range enrollments {
		if enrollment.Status == models.EnrollmentStatusWithdrawn {
			continue
		}
		standing, err := s.standings.Standing(ctx, enrollment.StudentID, enrollment.CourseID)
		if err != nil {
			s.logger.Warn("skipping standing row",
				zap.String("student_id", enrollment.StudentID),
				zap.String("course_id", enrollment.CourseID),
				zap.Error(err),
			)
			continue
		}
		dataset.Rows = append(dataset.Rows, standingRow(standing))
	}
	return dataset, nil
}

func standingRow(standing *models.AcademicStanding) map[string]string {
	row := map[string]string{
		"Student":      standing.StudentName,
		"Course":       standing.CourseCode,
		"Grade":        "N/A",
		"Attendance %": "N/A",
		"Present":      fmt.Sprintf("%d", standing.Attendance.Present),
		"Absent":       fmt.Sprintf("%d", standing.Attendance.Absent),
		"Late":         fmt.Sprintf("%d", standing.Attendance.Late),
		"Risk":         "N/A",
	}
	if standing.Grade != nil {
		row["Grade"] = fmt.Sprintf("%.1f", *standing.Grade)
	}
	if standing.Attendance.Percentage != nil {
		row["Attendance %"] = fmt.Sprintf("%.1f", *standing.Attendance.Percentage)
	}
	if standing.Risk != nil {
		row["Risk"] = string(*standing.Risk)
	}
	return row
}
