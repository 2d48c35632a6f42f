package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recWithItem(item string) *Record {
	return &Record{Entity: "HQ", ItemNumber: &item}
}

func TestEnrichMasterShadowsMapping(t *testing.T) {
	rs := &RefSet{
		Master: map[string]ItemRef{
			"ITM-1": {FGClassification: "FG-A", Category: "Sensors"},
		},
		Mapping: map[string]ItemRef{
			"ITM-1": {FGClassification: "FG-B", Category: "Old", Model: "M-200"},
		},
	}

	rec := recWithItem("ITM-1")
	rs.Enrich([]*Record{rec})

	require.NotNil(t, rec.FGClassification)
	assert.Equal(t, "FG-A", *rec.FGClassification)
	require.NotNil(t, rec.Category)
	assert.Equal(t, "Sensors", *rec.Category)
	// the master record shadows the mapping record whole; the mapping
	// model must not leak through a gap in the master row
	assert.Nil(t, rec.Model)
}

func TestEnrichMappingOnlyWhenNoMasterRecord(t *testing.T) {
	rs := &RefSet{
		Master: map[string]ItemRef{},
		Mapping: map[string]ItemRef{
			"ITM-3": {FGClassification: "FG-B", Model: "M-200"},
		},
	}

	rec := recWithItem("ITM-3")
	rs.Enrich([]*Record{rec})

	require.NotNil(t, rec.FGClassification)
	assert.Equal(t, "FG-B", *rec.FGClassification)
	require.NotNil(t, rec.Model)
	assert.Equal(t, "M-200", *rec.Model)
}

func TestRefQueryScoping(t *testing.T) {
	// the master table is global, only the mapping table filters by entity
	assert.NotContains(t, refQuery("item_master"), "entity")
	assert.Contains(t, refQuery("item_mapping"), "entity = $3")
}

func TestEnrichNonEmptyOnlyOverlay(t *testing.T) {
	existing := "Keep"
	rec := recWithItem("ITM-2")
	rec.Category = &existing

	rs := &RefSet{
		Master:  map[string]ItemRef{"ITM-2": {Model: "M-9"}},
		Mapping: map[string]ItemRef{},
	}
	rs.Enrich([]*Record{rec})

	// empty reference values never blank an existing field
	require.NotNil(t, rec.Category)
	assert.Equal(t, "Keep", *rec.Category)
	require.NotNil(t, rec.Model)
	assert.Equal(t, "M-9", *rec.Model)
}

func TestEnrichUnknownItemUntouched(t *testing.T) {
	rec := recWithItem("NOPE")
	rs := &RefSet{
		Master:  map[string]ItemRef{"ITM-1": {Category: "X"}},
		Mapping: map[string]ItemRef{},
	}
	rs.Enrich([]*Record{rec})
	assert.Nil(t, rec.Category)
	assert.Nil(t, rec.FGClassification)
}

func TestEnrichSkipsRecordsWithoutItem(t *testing.T) {
	rec := &Record{Entity: "HQ"}
	rs := &RefSet{Master: map[string]ItemRef{}, Mapping: map[string]ItemRef{}}
	rs.Enrich([]*Record{rec})
	assert.Nil(t, rec.Category)
}

func TestRequiresItemMapping(t *testing.T) {
	for _, e := range []string{"HQ", "korot", " Healthcare ", "VIETNAM", "BWA", "USA"} {
		assert.True(t, RequiresItemMapping(e), e)
	}
	for _, e := range []string{"INDIA", "JAPAN", "OCEANIA", ""} {
		assert.False(t, RequiresItemMapping(e), e)
	}
}
