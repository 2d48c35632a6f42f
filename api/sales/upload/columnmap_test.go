package upload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadColumnMapDefaults(t *testing.T) {
	m, err := LoadColumnMap(context.Background(), nil, "HQ")
	require.NoError(t, err)
	assert.Equal(t, "invoice", m["Invoice"])
	assert.Equal(t, "net_amount", m["Net amount"])
	assert.Equal(t, "group_name", m["Group"])
	// matching is case sensitive
	_, ok := m["INVOICE"]
	assert.False(t, ok)
}

func TestEffectiveColumnMapStoredReplacesDefaults(t *testing.T) {
	stored := map[string]string{
		"Rechnung":    "invoice",
		"Nettobetrag": "net_amount",
	}
	m := effectiveColumnMap(stored)
	assert.Equal(t, "invoice", m["Rechnung"])
	// a stored map replaces the default table, it is not merged over it
	_, ok := m["Invoice"]
	assert.False(t, ok)
	assert.Len(t, m, 2)

	// no stored rows falls back to the full default table
	m = effectiveColumnMap(map[string]string{})
	assert.Equal(t, "invoice", m["Invoice"])
	assert.Len(t, m, len(defaultColumnMap))
}

func TestMapRowsAllowList(t *testing.T) {
	wb := &Workbook{
		Headers: []string{"Invoice", "Unmapped Junk", "Net amount"},
		Rows: [][]string{
			{"INV-1", "noise", "100.5"},
		},
	}
	rows := MapRows(wb, defaultColumnMap)
	require.Len(t, rows, 1)
	assert.Equal(t, "INV-1", rows[0]["invoice"])
	assert.Equal(t, "100.5", rows[0]["net_amount"])
	_, ok := rows[0]["Unmapped Junk"]
	assert.False(t, ok)
}

func TestMapRowsAnchorFilter(t *testing.T) {
	wb := &Workbook{
		Headers: []string{"Invoice", "Sales Type", "Item number", "City"},
		Rows: [][]string{
			{"INV-1", "", "", "Pune"},
			{"", "Domestic", "", ""},
			{"", "", "ITM-9", ""},
			{"", "", "", "Mumbai"}, // no anchors, dropped
			{"", "", "", ""},
		},
	}
	rows := MapRows(wb, defaultColumnMap)
	assert.Len(t, rows, 3)
}

func TestMapRowsNoMappedHeaders(t *testing.T) {
	wb := &Workbook{
		Headers: []string{"Foo", "Bar"},
		Rows:    [][]string{{"a", "b"}},
	}
	assert.Nil(t, MapRows(wb, defaultColumnMap))
}

func TestMapRowsRaggedRows(t *testing.T) {
	wb := &Workbook{
		Headers: []string{"Invoice", "City", "Net amount"},
		Rows: [][]string{
			{"INV-1"}, // shorter than the header row
		},
	}
	rows := MapRows(wb, defaultColumnMap)
	require.Len(t, rows, 1)
	assert.Equal(t, "INV-1", rows[0]["invoice"])
	assert.Equal(t, "", rows[0]["city"])
}
