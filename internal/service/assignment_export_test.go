package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentServiceExportCSV(t *testing.T) {
	store := &historyStub{}
	svc := newTestAssignmentService(&snapshotStub{entries: sampleSnapshot()}, store)
	require.NoError(t, svc.Refresh(context.Background()))

	file, err := svc.Export(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "teaching-assignments.csv", file.Filename)

	body := string(file.Content)
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Academic Year,Semester,Block,Subject,Description,Instructor,Email", lines[0])
	assert.Contains(t, body, "Dr. Alan Turing")
	assert.Contains(t, body, "turing@campus.edu")
}

func TestAssignmentServiceExportPDF(t *testing.T) {
	store := &historyStub{}
	svc := newTestAssignmentService(&snapshotStub{entries: sampleSnapshot()}, store)
	require.NoError(t, svc.Refresh(context.Background()))

	file, err := svc.Export(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	require.NotEmpty(t, file.Content)
	assert.Equal(t, "%PDF", string(file.Content[:4]))
}

func TestAssignmentServiceExportRejectsUnknownFormat(t *testing.T) {
	svc := newTestAssignmentService(&snapshotStub{}, &historyStub{})

	_, err := svc.Export(context.Background(), "xlsx")
	assert.Error(t, err)
}
