package upload

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"SalesScope/internal/config"
)

// GroupKey identifies one invoice group for duplicate reconciliation.
type GroupKey struct {
	Invoice string
	Account string
}

// GroupSums carries the summed reporting-currency amount of one invoice
// group.
type GroupSums struct {
	Amount decimal.Decimal
}

// ReferenceSums looks up already-loaded invoice group sums for an entity.
type ReferenceSums interface {
	SumsFor(ctx context.Context, entity string, invoices []string) (map[GroupKey]GroupSums, error)
}

// dbReferenceSums reads group sums from sales_data in invoice batches.
type dbReferenceSums struct {
	db *sql.DB
}

func NewDBReferenceSums(db *sql.DB) ReferenceSums {
	return &dbReferenceSums{db: db}
}

func (r *dbReferenceSums) SumsFor(ctx context.Context, entity string, invoices []string) (map[GroupKey]GroupSums, error) {
	out := map[GroupKey]GroupSums{}
	for lo := 0; lo < len(invoices); lo += config.ReferenceQueryBatch {
		hi := lo + config.ReferenceQueryBatch
		if hi > len(invoices) {
			hi = len(invoices)
		}
		rows, err := r.db.QueryContext(ctx,
			`SELECT invoice, COALESCE(customer_invoice_account, ''),
				COALESCE(SUM(line_amount_mst), 0)
			FROM sales_data
			WHERE entity = $1 AND invoice = ANY($2)
			GROUP BY invoice, customer_invoice_account`,
			entity, pq.Array(invoices[lo:hi]),
		)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var key GroupKey
			var amount string
			if err := rows.Scan(&key.Invoice, &key.Account, &amount); err != nil {
				rows.Close()
				return nil, err
			}
			sums := GroupSums{}
			if d, err := decimal.NewFromString(amount); err == nil {
				sums.Amount = d
			}
			out[key] = sums
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReconcileResult reports the outcome of duplicate reconciliation.
type ReconcileResult struct {
	Kept            []*Record
	DuplicateRows   int
	DuplicateGroups int
}

// Reconcile drops invoice groups whose summed reporting-currency line
// amount already matches what sales_data holds, within a strict epsilon
// for float drift. Rows without an invoice are never candidates and pass
// through.
func Reconcile(ctx context.Context, ref ReferenceSums, entity string, records []*Record) (*ReconcileResult, error) {
	epsilon, err := decimal.NewFromString(config.DuplicateSumEpsilon)
	if err != nil {
		return nil, err
	}

	groups := map[GroupKey][]*Record{}
	incoming := map[GroupKey]GroupSums{}
	var passthrough []*Record
	var invoices []string
	seen := map[string]bool{}

	for _, rec := range records {
		if rec.Invoice == nil {
			passthrough = append(passthrough, rec)
			continue
		}
		key := GroupKey{Invoice: *rec.Invoice}
		if rec.CustomerInvoiceAccount != nil {
			key.Account = *rec.CustomerInvoiceAccount
		}
		groups[key] = append(groups[key], rec)
		sums := incoming[key]
		if rec.LineAmountMST != nil {
			sums.Amount = sums.Amount.Add(decimal.NewFromFloat(*rec.LineAmountMST))
		}
		incoming[key] = sums
		if !seen[key.Invoice] {
			seen[key.Invoice] = true
			invoices = append(invoices, key.Invoice)
		}
	}

	existing := map[GroupKey]GroupSums{}
	if len(invoices) > 0 {
		existing, err = ref.SumsFor(ctx, entity, invoices)
		if err != nil {
			return nil, err
		}
	}

	result := &ReconcileResult{Kept: passthrough}
	for key, recs := range groups {
		if prior, ok := existing[key]; ok {
			diff := incoming[key].Amount.Sub(prior.Amount).Abs()
			if diff.LessThan(epsilon) {
				result.DuplicateGroups++
				result.DuplicateRows += len(recs)
				continue
			}
		}
		result.Kept = append(result.Kept, recs...)
	}
	return result, nil
}
