package worklist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFormat("batch.csv"))
	assert.Equal(t, FormatCSV, DetectFormat("BATCH.CSV"))
	assert.Equal(t, FormatJSON, DetectFormat("targets.json"))
	assert.Equal(t, FormatXLSX, DetectFormat("upload.xlsx"))
	assert.Equal(t, FormatText, DetectFormat("list.txt"))
	assert.Equal(t, FormatText, DetectFormat("noextension"))
}

func TestParseCSV(t *testing.T) {
	in := `name,city,kind
Marina Heights,Austin,property
Old Town,Prague,neighborhood
Solo Target
`
	targets, err := Parse(strings.NewReader(in), FormatCSV)
	require.NoError(t, err)
	require.Len(t, targets, 3)

	assert.Equal(t, "Marina Heights", targets[0].Name)
	assert.Equal(t, "Austin", targets[0].City())
	assert.Equal(t, "property", targets[0].Kind())

	assert.Equal(t, "neighborhood", targets[1].Kind())

	assert.Equal(t, "Solo Target", targets[2].Name)
	assert.Empty(t, targets[2].City())
}

func TestParseCSVWithoutHeader(t *testing.T) {
	targets, err := Parse(strings.NewReader("Marina Heights,Austin\n"), FormatCSV)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "Marina Heights", targets[0].Name)
}

func TestParseJSONArray(t *testing.T) {
	in := `[{"name":"Marina Heights","context":{"city":"Austin"}},{"name":"Old Town"}]`
	targets, err := Parse(strings.NewReader(in), FormatJSON)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "Austin", targets[0].City())
}

func TestParseJSONStringArray(t *testing.T) {
	in := `["Marina Heights, Austin", "Old Town"]`
	targets, err := Parse(strings.NewReader(in), FormatJSON)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "Marina Heights", targets[0].Name)
	assert.Equal(t, "Austin", targets[0].City())
	assert.Equal(t, "Old Town", targets[1].Name)
}

func TestParseJSONWrapper(t *testing.T) {
	in := `{"targets":[{"name":"Marina Heights"}]}`
	targets, err := Parse(strings.NewReader(in), FormatJSON)
	require.NoError(t, err)
	require.Len(t, targets, 1)
}

func TestParseText(t *testing.T) {
	in := `# city batch
Marina Heights, Austin

Old Town
`
	targets, err := Parse(strings.NewReader(in), FormatText)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "Marina Heights", targets[0].Name)
	assert.Equal(t, "Austin", targets[0].City())
	assert.Equal(t, "Old Town", targets[1].Name)
}

func TestParsePreservesOrder(t *testing.T) {
	in := "Charlie\nAlpha\nBravo\n"
	targets, err := Parse(strings.NewReader(in), FormatText)
	require.NoError(t, err)
	require.Len(t, targets, 3)
	assert.Equal(t, "Charlie", targets[0].Name)
	assert.Equal(t, "Alpha", targets[1].Name)
	assert.Equal(t, "Bravo", targets[2].Name)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(strings.NewReader("# only comments\n\n"), FormatText)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse(strings.NewReader("x"), "parquet")
	require.Error(t, err)
}
