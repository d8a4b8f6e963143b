package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Teacher Roster",
		Headers: []string{"Name", "Subject", "Average Rating"},
		Rows: []map[string]string{
			{"Name": "Tripti Pandey", "Subject": "Machine Learning Techniques", "Average Rating": "4.7"},
			{"Name": "Shweta Kaushik", "Subject": "Web Technology, Lab", "Average Rating": "4.5"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestCSVRenderQuotesAndOrdersColumns(t *testing.T) {
	out, err := NewRenderer().Render(FormatCSV, sampleDataset())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Name", "Subject", "Average Rating"}, records[0])
	assert.Equal(t, "Web Technology, Lab", records[2][1])
}

func TestRenderRequiresHeaders(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render(FormatCSV, Dataset{})
	assert.Error(t, err)
	_, err = r.Render(FormatPDF, Dataset{})
	assert.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, map[string]string{
		"Name":           "Ayush Aggarwal",
		"Subject":        strings.Repeat("Database Management Systems ", 10),
		"Average Rating": "4.2",
	})
	out, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
