package upload

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"SalesScope/internal/config"
)

const insertSalesSQL = `INSERT INTO sales_data (
	entity, upload_batch_id, sales_type, invoice, invoice_date, industry,
	sales_order, customer_invoice_account, invoice_account, group_name,
	currency, city, state, region, product_type, item_group, category,
	model, item_number, product_name, quantity, net_amount, line_amount_mst,
	personnel_number, worker_name, l_dim_name, l_dim_wk, l_wk_name, l_dim_cc,
	country, year, quarter, channel, fg_classification, product
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
	$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
	$31, $32, $33, $34, $35
)`

func insertArgs(rec *Record) []interface{} {
	return []interface{}{
		rec.Entity, rec.UploadBatchID, rec.SalesType, rec.Invoice,
		rec.InvoiceDate, rec.Industry, rec.SalesOrder,
		rec.CustomerInvoiceAccount, rec.InvoiceAccount, rec.GroupName,
		rec.Currency, rec.City, rec.State, rec.Region, rec.ProductType,
		rec.ItemGroup, rec.Category, rec.Model, rec.ItemNumber,
		rec.ProductName, rec.Quantity, rec.NetAmount, rec.LineAmountMST,
		rec.PersonnelNumber, rec.WorkerName, rec.LDimName, rec.LDimWK,
		rec.LWkName, rec.LDimCC, rec.Country, rec.Year, rec.Quarter,
		rec.Channel, rec.FGClassification, rec.Product,
	}
}

// Inserter abstracts the insert path so the loader can be exercised
// without a live pool.
type Inserter interface {
	// InsertBatch inserts all records atomically or none of them.
	InsertBatch(ctx context.Context, recs []*Record) error
	// InsertRow inserts a single record.
	InsertRow(ctx context.Context, rec *Record) error
}

type pgxInserter struct {
	pool *pgxpool.Pool
}

func NewPgxInserter(pool *pgxpool.Pool) Inserter {
	return &pgxInserter{pool: pool}
}

func (p *pgxInserter) InsertBatch(ctx context.Context, recs []*Record) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, rec := range recs {
		batch.Queue(insertSalesSQL, insertArgs(rec)...)
	}
	br := tx.SendBatch(ctx, batch)
	var execErr error
	for range recs {
		if _, err := br.Exec(); err != nil && execErr == nil {
			execErr = err
		}
	}
	if err := br.Close(); err != nil && execErr == nil {
		execErr = err
	}
	if execErr != nil {
		return execErr
	}
	return tx.Commit(ctx)
}

func (p *pgxInserter) InsertRow(ctx context.Context, rec *Record) error {
	_, err := p.pool.Exec(ctx, insertSalesSQL, insertArgs(rec)...)
	return err
}

// isUniqueViolation reports whether err is a Postgres duplicate-key error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// RowError describes one row that could not be inserted.
type RowError struct {
	Invoice    string `json:"invoice"`
	ItemNumber string `json:"itemNumber"`
	Date       string `json:"date"`
	Error      string `json:"error"`
}

// LoadResult is the outcome of a load run. ErrorRows counts every failed
// row; Errors holds detail for at most the first few of them.
type LoadResult struct {
	Inserted  int
	Skipped   int
	Remaining int
	ErrorRows int
	Errors    []RowError
}

// Loader pushes normalized records into sales_data in batches. A failed
// batch is split in half onto a work queue and retried; spans at the
// minimum size fall back to concurrent row-by-row inserts so a single bad
// row only costs itself. Duplicate-key rows are counted as skipped.
type Loader struct {
	Ins       Inserter
	BatchSize int
	MinBatch  int
	Parallel  int
	Delay     time.Duration
	Deadline  time.Time
}

func NewLoader(ins Inserter, deadline time.Time) *Loader {
	return &Loader{
		Ins:       ins,
		BatchSize: config.InsertBatchSize,
		MinBatch:  config.MinInsertBatch,
		Parallel:  config.RowRetryParallel,
		Delay:     config.InterBatchDelay,
		Deadline:  deadline,
	}
}

type span struct{ lo, hi int }

// Load runs the records through the bisection queue. When the deadline
// passes between batches the remaining rows are reported in Remaining and
// the caller marks the upload partial.
func (l *Loader) Load(ctx context.Context, records []*Record) *LoadResult {
	result := &LoadResult{}
	for lo := 0; lo < len(records); lo += l.BatchSize {
		if !l.Deadline.IsZero() && time.Now().After(l.Deadline) {
			result.Remaining = len(records) - lo
			return result
		}
		hi := lo + l.BatchSize
		if hi > len(records) {
			hi = len(records)
		}
		l.loadSpan(ctx, records, span{lo: lo, hi: hi}, result)
		if l.Delay > 0 && hi < len(records) {
			time.Sleep(l.Delay)
		}
	}
	return result
}

// loadSpan drains a work queue seeded with one span. Failed spans split
// in half; spans at or under MinBatch go row by row.
func (l *Loader) loadSpan(ctx context.Context, records []*Record, initial span, result *LoadResult) {
	queue := []span{initial}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		if s.hi-s.lo <= l.MinBatch {
			l.loadRows(ctx, records[s.lo:s.hi], result)
			continue
		}
		if err := l.Ins.InsertBatch(ctx, records[s.lo:s.hi]); err != nil {
			mid := s.lo + (s.hi-s.lo)/2
			queue = append(queue, span{lo: mid, hi: s.hi}, span{lo: s.lo, hi: mid})
			continue
		}
		result.Inserted += s.hi - s.lo
	}
}

// loadRows inserts records one at a time with bounded concurrency and
// classifies each failure.
func (l *Loader) loadRows(ctx context.Context, recs []*Record, result *LoadResult) {
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, l.Parallel)

	for _, rec := range recs {
		wg.Add(1)
		sem <- struct{}{}
		go func(rec *Record) {
			defer wg.Done()
			defer func() { <-sem }()
			err := l.Ins.InsertRow(ctx, rec)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Inserted++
			case isUniqueViolation(err):
				result.Skipped++
			default:
				result.ErrorRows++
				if len(result.Errors) < config.MaxReportedErrors {
					result.Errors = append(result.Errors, rowError(rec, err))
				}
			}
		}(rec)
	}
	wg.Wait()
}

func rowError(rec *Record, err error) RowError {
	re := RowError{Error: err.Error()}
	if rec.Invoice != nil {
		re.Invoice = *rec.Invoice
	}
	if rec.ItemNumber != nil {
		re.ItemNumber = *rec.ItemNumber
	}
	if rec.InvoiceDate != nil {
		re.Date = rec.InvoiceDate.Format("2006-01-02")
	}
	return re
}
