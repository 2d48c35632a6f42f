package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesScope/api/sales/upload"
)

func TestExtractItemsSynonymHeaders(t *testing.T) {
	wb := &upload.Workbook{
		Headers: []string{"Item Code", "FG Classification", "Category", "Model", "Product Name"},
		Rows: [][]string{
			{"ITM-1", "FG-A", "Sensors", "M-1", "Thermo"},
			{"ITM-2", "", "Valves", "", ""},
			{"", "FG-X", "", "", ""}, // no item number, skipped
		},
	}
	items, err := extractItems(wb)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ITM-1", items[0].ItemNumber)
	assert.Equal(t, "FG-A", items[0].FGClassification)
	assert.Equal(t, "Valves", items[1].Category)
}

func TestExtractItemsMissingItemColumn(t *testing.T) {
	wb := &upload.Workbook{
		Headers: []string{"Category", "Model"},
		Rows:    [][]string{{"Sensors", "M-1"}},
	}
	_, err := extractItems(wb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no item number column")
}

func TestDedupeItemsKeepsFirst(t *testing.T) {
	items := dedupeItems([]ItemEntry{
		{ItemNumber: "ITM-1", Category: "First"},
		{ItemNumber: " ITM-1 ", Category: "Second"},
		{ItemNumber: "ITM-2"},
		{ItemNumber: ""},
	})
	require.Len(t, items, 2)
	assert.Equal(t, "First", items[0].Category)
	assert.Equal(t, "ITM-2", items[1].ItemNumber)
}
