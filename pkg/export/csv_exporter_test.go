package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderEscapesFormulaCells(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Booked by", "Notes"},
		Rows: []map[string]string{
			{"Booked by": "=HYPERLINK(\"http://evil\")", "Notes": "plain note"},
			{"Booked by": "Ada Lovelace", "Notes": "+later"},
		},
	})
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, `"'=HYPERLINK(""http://evil"")"`)
	assert.Contains(t, content, "'+later")
	assert.Contains(t, content, "Ada Lovelace")
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}
