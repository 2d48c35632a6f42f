package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorkbookCSV(t *testing.T) {
	data := []byte("Invoice,Net amount\nINV-1,100\nINV-2,\"1,250.50\"\n")
	wb, err := ParseWorkbook("sales.csv", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice", "Net amount"}, wb.Headers)
	require.Len(t, wb.Rows, 2)
	assert.Equal(t, "1,250.50", wb.Rows[1][1])
}

func TestParseWorkbookUnsupportedExtension(t *testing.T) {
	_, err := ParseWorkbook("sales.pdf", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestParseWorkbookEmptyCSV(t *testing.T) {
	_, err := ParseWorkbook("sales.csv", []byte(""))
	require.Error(t, err)
}

func TestBuildObjectPath(t *testing.T) {
	p := BuildObjectPath("HQ", "my report.xlsx")
	assert.Regexp(t, `^HQ/\d+_my_report\.xlsx$`, p)
}
