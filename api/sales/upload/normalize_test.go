package upload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateValueSerial(t *testing.T) {
	d := parseDateValue("45000")
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), *d)

	// serial 1 is the first day of the 1900 date system
	d = parseDateValue("1")
	require.NotNil(t, d)
	assert.Equal(t, time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC), *d)

	// serials past the phantom 1900-02-29 shift down by one day
	d = parseDateValue("61")
	require.NotNil(t, d)
	assert.Equal(t, time.Date(1900, time.March, 1, 0, 0, 0, 0, time.UTC), *d)

	// fractional part carries the time of day
	d = parseDateValue("45000.5")
	require.NotNil(t, d)
	assert.Equal(t, 12, d.Hour())
}

func TestParseDateValueLayouts(t *testing.T) {
	for _, raw := range []string{"2024-06-30", "30-06-2024", "30/Jun/2024", "30-Jun-2024"} {
		d := parseDateValue(raw)
		require.NotNil(t, d, "layout %q", raw)
		assert.Equal(t, 2024, d.Year())
		assert.Equal(t, time.June, d.Month())
		assert.Equal(t, 30, d.Day())
	}
}

func TestParseDateValueGarbage(t *testing.T) {
	assert.Nil(t, parseDateValue(""))
	assert.Nil(t, parseDateValue("not a date"))
	assert.Nil(t, parseDateValue("-5"))
}

func TestQuarterBoundaries(t *testing.T) {
	cases := []struct {
		month time.Month
		want  string
	}{
		{time.January, "Q1"},
		{time.March, "Q1"},
		{time.April, "Q2"},
		{time.June, "Q2"},
		{time.July, "Q3"},
		{time.September, "Q3"},
		{time.October, "Q4"},
		{time.December, "Q4"},
	}
	for _, tc := range cases {
		got := quarterOf(time.Date(2024, tc.month, 15, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, tc.want, got, "month %s", tc.month)
	}
}

func TestParseNumericSentinels(t *testing.T) {
	for _, raw := range []string{"", "-", "Yes", "no", "N/A", "na"} {
		assert.Nil(t, parseNumeric(raw), "raw %q", raw)
	}
}

func TestParseNumericSeparators(t *testing.T) {
	v := parseNumeric("1,234,567.89")
	require.NotNil(t, v)
	assert.InDelta(t, 1234567.89, *v, 0.0001)

	v = parseNumeric("$ 99.50")
	require.NotNil(t, v)
	assert.InDelta(t, 99.50, *v, 0.0001)

	v = parseNumeric("-42")
	require.NotNil(t, v)
	assert.InDelta(t, -42.0, *v, 0.0001)
}

func TestNormalizeRowDerivedFields(t *testing.T) {
	rec := NormalizeRow("HQ", "batch-1", MappedRow{
		"invoice":      "INV-100",
		"invoice_date": "2023-11-05",
		"quantity":     "3",
		"net_amount":   "1,200.00",
	})

	assert.Equal(t, "HQ", rec.Entity)
	assert.Equal(t, "batch-1", rec.UploadBatchID)
	require.NotNil(t, rec.Invoice)
	assert.Equal(t, "INV-100", *rec.Invoice)
	require.NotNil(t, rec.Year)
	assert.Equal(t, 2023, *rec.Year)
	require.NotNil(t, rec.Quarter)
	assert.Equal(t, "Q4", *rec.Quarter)
	require.NotNil(t, rec.NetAmount)
	assert.InDelta(t, 1200.0, *rec.NetAmount, 0.0001)
}

func TestNormalizeRowIndustryDefault(t *testing.T) {
	rec := NormalizeRow("HQ", "batch-1", MappedRow{"invoice": "INV-1"})
	require.NotNil(t, rec.Industry)
	assert.Equal(t, "Other", *rec.Industry)

	rec = NormalizeRow("HQ", "batch-1", MappedRow{"invoice": "INV-1", "industry": "Semiconductor"})
	require.NotNil(t, rec.Industry)
	assert.Equal(t, "Semiconductor", *rec.Industry)
}

func TestNormalizeRowBlankToNull(t *testing.T) {
	rec := NormalizeRow("HQ", "batch-1", MappedRow{"invoice": "INV-1", "city": "  ", "currency": ""})
	assert.Nil(t, rec.City)
	assert.Nil(t, rec.Currency)
	assert.Nil(t, rec.InvoiceDate)
	assert.Nil(t, rec.Year)
	assert.Nil(t, rec.Quarter)
}
