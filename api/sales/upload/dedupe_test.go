package upload

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReferenceSums struct {
	sums map[GroupKey]GroupSums
}

func (f *fakeReferenceSums) SumsFor(ctx context.Context, entity string, invoices []string) (map[GroupKey]GroupSums, error) {
	return f.sums, nil
}

func dedupeRec(invoice, account string, amountMST float64) *Record {
	return &Record{
		Entity:                 "HQ",
		Invoice:                &invoice,
		CustomerInvoiceAccount: &account,
		LineAmountMST:          &amountMST,
	}
}

func TestReconcileDropsMatchingGroups(t *testing.T) {
	ref := &fakeReferenceSums{sums: map[GroupKey]GroupSums{
		{Invoice: "INV-1", Account: "ACC-1"}: {Amount: decimal.NewFromFloat(300)},
	}}

	records := []*Record{
		dedupeRec("INV-1", "ACC-1", 100),
		dedupeRec("INV-1", "ACC-1", 200),
		dedupeRec("INV-2", "ACC-1", 50),
	}

	res, err := Reconcile(context.Background(), ref, "HQ", records)
	require.NoError(t, err)
	assert.Equal(t, 2, res.DuplicateRows)
	assert.Equal(t, 1, res.DuplicateGroups)
	require.Len(t, res.Kept, 1)
	assert.Equal(t, "INV-2", *res.Kept[0].Invoice)
}

func TestReconcileEpsilonToleratesFloatDrift(t *testing.T) {
	ref := &fakeReferenceSums{sums: map[GroupKey]GroupSums{
		{Invoice: "INV-1", Account: "ACC-1"}: {Amount: decimal.RequireFromString("100.005")},
	}}

	res, err := Reconcile(context.Background(), ref, "HQ",
		[]*Record{dedupeRec("INV-1", "ACC-1", 100.0)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.DuplicateRows)
	assert.Empty(t, res.Kept)
}

func TestReconcileEpsilonBoundaryKept(t *testing.T) {
	// a difference of exactly one cent is a real change, not drift
	ref := &fakeReferenceSums{sums: map[GroupKey]GroupSums{
		{Invoice: "INV-1", Account: "ACC-1"}: {Amount: decimal.RequireFromString("100.01")},
	}}

	res, err := Reconcile(context.Background(), ref, "HQ",
		[]*Record{dedupeRec("INV-1", "ACC-1", 100.0)})
	require.NoError(t, err)
	assert.Zero(t, res.DuplicateRows)
	assert.Len(t, res.Kept, 1)
}

func TestReconcileDifferentSumsKept(t *testing.T) {
	ref := &fakeReferenceSums{sums: map[GroupKey]GroupSums{
		{Invoice: "INV-1", Account: "ACC-1"}: {Amount: decimal.NewFromFloat(999)},
	}}

	res, err := Reconcile(context.Background(), ref, "HQ",
		[]*Record{dedupeRec("INV-1", "ACC-1", 100)})
	require.NoError(t, err)
	assert.Zero(t, res.DuplicateRows)
	assert.Len(t, res.Kept, 1)
}

func TestReconcileInvoicelessRowsPassThrough(t *testing.T) {
	ref := &fakeReferenceSums{sums: map[GroupKey]GroupSums{}}
	amount := 10.0
	records := []*Record{{Entity: "HQ", LineAmountMST: &amount}}

	res, err := Reconcile(context.Background(), ref, "HQ", records)
	require.NoError(t, err)
	assert.Zero(t, res.DuplicateRows)
	assert.Len(t, res.Kept, 1)
}

func TestReconcileIdempotentReupload(t *testing.T) {
	// a full re-upload matches the reference sums group for group and
	// everything is discarded
	ref := &fakeReferenceSums{sums: map[GroupKey]GroupSums{
		{Invoice: "INV-1", Account: "A"}: {Amount: decimal.NewFromFloat(10)},
		{Invoice: "INV-2", Account: "B"}: {Amount: decimal.NewFromFloat(20)},
	}}

	records := []*Record{
		dedupeRec("INV-1", "A", 10),
		dedupeRec("INV-2", "B", 20),
	}
	res, err := Reconcile(context.Background(), ref, "HQ", records)
	require.NoError(t, err)
	assert.Equal(t, 2, res.DuplicateRows)
	assert.Equal(t, 2, res.DuplicateGroups)
	assert.Empty(t, res.Kept)
}
