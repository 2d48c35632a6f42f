package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SalesScope/api/constants"
)

func TestSummarizeFoldsDuplicatesIntoSkipped(t *testing.T) {
	summary := &Summary{TotalRows: 5}
	recon := &ReconcileResult{DuplicateRows: 5, DuplicateGroups: 2}
	res := &LoadResult{}

	summarize(summary, recon, res)

	// a byte-identical re-upload inserts nothing and skips everything
	assert.Equal(t, constants.StatusSuccess, summary.Status)
	assert.True(t, summary.Success)
	assert.Zero(t, summary.InsertedRows)
	assert.Equal(t, 5, summary.SkippedRows)
	assert.Equal(t, 5, summary.DuplicateRows)
	assert.Equal(t, 2, summary.DuplicateGroups)
	// the history row carries the folded count too
	assert.Equal(t, 5, res.Skipped)
}

func TestSummarizeCombinesLoaderSkipsAndDuplicates(t *testing.T) {
	summary := &Summary{TotalRows: 10}
	recon := &ReconcileResult{DuplicateRows: 3, DuplicateGroups: 1}
	res := &LoadResult{Inserted: 5, Skipped: 2}

	summarize(summary, recon, res)

	assert.Equal(t, constants.StatusSuccess, summary.Status)
	assert.Equal(t, 5, summary.InsertedRows)
	assert.Equal(t, 5, summary.SkippedRows)
	assert.Equal(t, 3, summary.DuplicateRows)
}

func TestSummarizeStatuses(t *testing.T) {
	cases := []struct {
		name   string
		res    LoadResult
		status string
	}{
		{"errors with inserts is partial", LoadResult{Inserted: 4, ErrorRows: 1}, constants.StatusPartial},
		{"deadline remainder is partial", LoadResult{Inserted: 4, Remaining: 6}, constants.StatusPartial},
		{"errors with nothing inserted is failed", LoadResult{ErrorRows: 3}, constants.StatusFailed},
		{"clean load is success", LoadResult{Inserted: 7}, constants.StatusSuccess},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			summary := &Summary{}
			res := tc.res
			summarize(summary, &ReconcileResult{}, &res)
			assert.Equal(t, tc.status, summary.Status)
			assert.Equal(t, tc.status != constants.StatusFailed, summary.Success)
		})
	}
}
