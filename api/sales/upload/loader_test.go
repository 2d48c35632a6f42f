package upload

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInserter fails any batch containing a poisoned invoice; row inserts
// fail only for the poisoned rows themselves.
type fakeInserter struct {
	mu         sync.Mutex
	badInvoice map[string]error
	batchCalls int
	rowCalls   int
}

func (f *fakeInserter) rowErr(rec *Record) error {
	if rec.Invoice == nil {
		return nil
	}
	return f.badInvoice[*rec.Invoice]
}

func (f *fakeInserter) InsertBatch(ctx context.Context, recs []*Record) error {
	f.mu.Lock()
	f.batchCalls++
	f.mu.Unlock()
	for _, rec := range recs {
		if err := f.rowErr(rec); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeInserter) InsertRow(ctx context.Context, rec *Record) error {
	f.mu.Lock()
	f.rowCalls++
	f.mu.Unlock()
	return f.rowErr(rec)
}

func loaderRecords(n int) []*Record {
	out := make([]*Record, n)
	for i := range out {
		inv := fmt.Sprintf("INV-%03d", i)
		out[i] = &Record{Entity: "HQ", Invoice: &inv}
	}
	return out
}

func testLoader(ins Inserter) *Loader {
	return &Loader{Ins: ins, BatchSize: 8, MinBatch: 2, Parallel: 4}
}

func TestLoaderAllClean(t *testing.T) {
	ins := &fakeInserter{badInvoice: map[string]error{}}
	res := testLoader(ins).Load(context.Background(), loaderRecords(24))
	assert.Equal(t, 24, res.Inserted)
	assert.Zero(t, res.Skipped)
	assert.Zero(t, res.ErrorRows)
	// clean batches never hit the row path
	assert.Zero(t, ins.rowCalls)
}

func TestLoaderBisectsAroundBadRow(t *testing.T) {
	ins := &fakeInserter{badInvoice: map[string]error{
		"INV-013": fmt.Errorf("value too long for column"),
	}}
	res := testLoader(ins).Load(context.Background(), loaderRecords(25))

	assert.Equal(t, 24, res.Inserted)
	assert.Equal(t, 1, res.ErrorRows)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "INV-013", res.Errors[0].Invoice)
	assert.Contains(t, res.Errors[0].Error, "value too long")
}

func TestLoaderDuplicateKeyCountsAsSkipped(t *testing.T) {
	ins := &fakeInserter{badInvoice: map[string]error{
		"INV-005": &pgconn.PgError{Code: "23505"},
	}}
	res := testLoader(ins).Load(context.Background(), loaderRecords(10))

	assert.Equal(t, 9, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.ErrorRows)
	assert.Empty(t, res.Errors)
}

func TestLoaderMultipleBadRows(t *testing.T) {
	ins := &fakeInserter{badInvoice: map[string]error{
		"INV-002": fmt.Errorf("boom"),
		"INV-017": fmt.Errorf("boom"),
		"INV-021": &pgconn.PgError{Code: "23505"},
	}}
	res := testLoader(ins).Load(context.Background(), loaderRecords(25))

	assert.Equal(t, 22, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.ErrorRows)
}

func TestLoaderDeadlineStopsBetweenBatches(t *testing.T) {
	ins := &fakeInserter{badInvoice: map[string]error{}}
	l := testLoader(ins)
	l.Deadline = time.Now().Add(-time.Second)

	res := l.Load(context.Background(), loaderRecords(25))
	assert.Zero(t, res.Inserted)
	assert.Equal(t, 25, res.Remaining)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23502"}))
	assert.False(t, isUniqueViolation(fmt.Errorf("plain error")))
	assert.False(t, isUniqueViolation(nil))
}
