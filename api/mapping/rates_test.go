package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesScope/api/sales/upload"
)

func TestExtractRatesSynonymHeaders(t *testing.T) {
	wb := &upload.Workbook{
		Headers: []string{"Year", "Curr", "Exchange Rate"},
		Rows: [][]string{
			{"2024", "eur", "0.91"},
			{"2024", "KRW", "1342.5"},
		},
	}
	rates, warnings, err := extractRates(wb)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, rates, 2)
	assert.Equal(t, ExchangeRate{Year: 2024, Currency: "EUR", Rate: 0.91}, rates[0])
	assert.Equal(t, "KRW", rates[1].Currency)
}

func TestExtractRatesBadRowsBecomeWarnings(t *testing.T) {
	wb := &upload.Workbook{
		Headers: []string{"year", "currency", "rate"},
		Rows: [][]string{
			{"2024", "USD", "1.0"},
			{"not-a-year", "USD", "1.0"},
			{"2024", "X", "1.0"},     // currency too short
			{"2024", "JPY", "-5"},    // non-positive rate
			{"1850", "GBP", "0.79"},  // year out of range
		},
	}
	rates, warnings, err := extractRates(wb)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "USD", rates[0].Currency)
	assert.Len(t, warnings, 4)
}

func TestExtractRatesMissingColumn(t *testing.T) {
	wb := &upload.Workbook{
		Headers: []string{"year", "currency"},
		Rows:    [][]string{{"2024", "USD"}},
	}
	_, _, err := extractRates(wb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required columns")
}

func TestExtractRatesAllRowsInvalid(t *testing.T) {
	wb := &upload.Workbook{
		Headers: []string{"year", "currency", "rate"},
		Rows:    [][]string{{"x", "USD", "1.0"}},
	}
	_, _, err := extractRates(wb)
	require.Error(t, err)
}

func TestValidateRate(t *testing.T) {
	assert.NoError(t, validateRate(ExchangeRate{Year: 2024, Currency: "USD", Rate: 1}))
	assert.Error(t, validateRate(ExchangeRate{Year: 1999, Currency: "USD", Rate: 1}))
	assert.Error(t, validateRate(ExchangeRate{Year: 2024, Currency: "TOOLONG", Rate: 1}))
	assert.Error(t, validateRate(ExchangeRate{Year: 2024, Currency: "USD", Rate: 0}))
}
