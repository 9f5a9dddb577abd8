package service

import (
	"context"
	"fmt"
	"strings"

	appErrors "github.com/campus-suite/scheduling-api/pkg/errors"
	"github.com/campus-suite/scheduling-api/pkg/export"
)

// ExportFile is a rendered assignment roster ready to stream.
type ExportFile struct {
	Content     []byte
	ContentType string
	Filename    string
}

var assignmentColumns = []string{"Academic Year", "Semester", "Block", "Subject", "Description", "Instructor", "Email"}

// Export renders the current reconciled assignment set as CSV or PDF.
func (s *AssignmentService) Export(ctx context.Context, format string) (*ExportFile, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   "Teaching Assignments",
		Columns: assignmentColumns,
		Rows:    make([][]string, 0, len(records)),
	}
	for _, rec := range records {
		table.Rows = append(table.Rows, []string{
			rec.AcademicYear,
			rec.Semester,
			rec.Block,
			rec.SubjectCode,
			rec.SubjectDescription,
			rec.InstructorName,
			rec.InstructorEmail,
		})
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		content, err := export.NewCSVExporter().Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{Content: content, ContentType: "text/csv", Filename: "teaching-assignments.csv"}, nil
	case "pdf":
		content, err := export.NewPDFExporter().Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{Content: content, ContentType: "application/pdf", Filename: "teaching-assignments.pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
