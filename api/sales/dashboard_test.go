package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveDimension(t *testing.T) {
	col, ok := resolveDimension("")
	assert.True(t, ok)
	assert.Equal(t, "category", col)

	col, ok = resolveDimension(" Channel ")
	assert.True(t, ok)
	assert.Equal(t, "channel", col)

	// only whitelisted columns reach the query
	_, ok = resolveDimension("entity; DROP TABLE sales_data")
	assert.False(t, ok)
	_, ok = resolveDimension("invoice")
	assert.False(t, ok)
}
