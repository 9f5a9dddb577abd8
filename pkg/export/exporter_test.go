package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterTable() Table {
	return Table{
		Title:   "Teaching Assignments",
		Columns: []string{"Block", "Subject", "Instructor"},
		Rows: [][]string{
			{"ACT 1-A", "IT 101", "Dr. Alan Turing"},
			{"ACT 1-B", "IT 201"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(rosterTable())
	require.NoError(t, err)

	expected := "Block,Subject,Instructor\n" +
		"ACT 1-A,IT 101,Dr. Alan Turing\n" +
		"ACT 1-B,IT 201,\n"
	assert.Equal(t, expected, string(out))
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(rosterTable())
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestPDFExporterRequiresColumns(t *testing.T) {
	_, err := NewPDFExporter().Render(Table{})
	assert.Error(t, err)
}
