package upload

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"SalesScope/api/constants"
	"SalesScope/internal/config"
	"SalesScope/internal/logger"
)

// Summary is the outcome of one upload run, mirrored into upload_history
// and returned to the caller.
type Summary struct {
	Success         bool       `json:"success"`
	HistoryID       string     `json:"historyId"`
	Status          string     `json:"status"`
	Entity          string     `json:"entity"`
	FileName        string     `json:"fileName"`
	TotalRows       int        `json:"totalRows"`
	InsertedRows    int        `json:"insertedRows"`
	SkippedRows     int        `json:"skippedRows"`
	DuplicateRows   int        `json:"duplicateRows"`
	DuplicateGroups int        `json:"duplicateGroups"`
	ErrorRows       int        `json:"errorRows"`
	RemainingRows   int        `json:"remainingRows"`
	Message         string     `json:"message,omitempty"`
	Errors          []RowError `json:"errors,omitempty"`
}

// Pipeline wires the upload phases together: parse, map, normalize,
// classify, enrich, reconcile, load. The lib/pq handle serves lookups and
// history writes, the pgx pool serves the bulk insert path.
type Pipeline struct {
	DB   *sql.DB
	Pool *pgxpool.Pool
}

func NewPipeline(db *sql.DB, pool *pgxpool.Pool) *Pipeline {
	return &Pipeline{DB: db, Pool: pool}
}

// Run processes one sales file end to end. A history row is opened first
// so even early failures leave an audit record. A non-empty historyID
// reuses an existing row (the retry path) instead of opening a new one.
func (p *Pipeline) Run(ctx context.Context, entity, fileName, storagePath, historyID string, data []byte) (*Summary, error) {
	var err error
	if historyID == "" {
		historyID, err = CreateHistory(ctx, p.DB, entity, fileName)
		if err != nil {
			return nil, fmt.Errorf(constants.ErrHistoryCreateFailed+"%w", err)
		}
	} else if err := ReopenHistory(ctx, p.DB, historyID); err != nil {
		return nil, fmt.Errorf(constants.ErrHistoryCreateFailed+"%w", err)
	}
	if storagePath != "" {
		if err := SetHistoryStoragePath(ctx, p.DB, historyID, storagePath); err != nil {
			logUpload(historyID, fmt.Sprintf("storage path update failed: %v", err))
		}
	}

	summary := &Summary{HistoryID: historyID, Entity: entity, FileName: fileName}

	fail := func(msg string) (*Summary, error) {
		summary.Status = constants.StatusFailed
		summary.Message = msg
		if err := FinishHistory(ctx, p.DB, historyID, constants.StatusFailed, summary.TotalRows, nil, msg); err != nil {
			logUpload(historyID, fmt.Sprintf("history close failed: %v", err))
		}
		return summary, nil
	}

	wb, err := ParseWorkbook(fileName, data)
	if err != nil {
		return fail(err.Error())
	}

	columnMap, err := LoadColumnMap(ctx, p.DB, entity)
	if err != nil {
		return fail(constants.ErrQueryFailed + err.Error())
	}
	mapped := MapRows(wb, columnMap)
	if mapped == nil {
		return fail(constants.ErrNoMappedColumns)
	}
	if len(mapped) == 0 {
		return fail(constants.ErrNoIngestibleRows)
	}
	summary.TotalRows = len(mapped)

	records := make([]*Record, 0, len(mapped))
	for _, m := range mapped {
		rec := NormalizeRow(entity, historyID, m)
		rec.Channel = ClassifyChannel(entity, m["group_name"], m["invoice_account"])
		records = append(records, rec)
	}

	if RequiresItemMapping(entity) {
		refs, err := LoadRefSet(ctx, p.DB, entity)
		if err != nil {
			return fail(constants.ErrQueryFailed + err.Error())
		}
		refs.Enrich(records)
	}

	recon, err := Reconcile(ctx, NewDBReferenceSums(p.DB), entity, records)
	if err != nil {
		return fail(constants.ErrQueryFailed + err.Error())
	}
	logUpload(historyID, fmt.Sprintf("entity=%s rows=%d duplicates=%d", entity, summary.TotalRows, recon.DuplicateRows))

	loader := NewLoader(NewPgxInserter(p.Pool), time.Now().Add(config.ProcessDeadline))
	res := loader.Load(ctx, recon.Kept)
	summarize(summary, recon, res)

	if err := FinishHistory(ctx, p.DB, historyID, summary.Status, summary.TotalRows, res, summary.Message); err != nil {
		logUpload(historyID, fmt.Sprintf("history close failed: %v", err))
	}
	logUpload(historyID, fmt.Sprintf("status=%s inserted=%d skipped=%d errors=%d remaining=%d",
		summary.Status, res.Inserted, res.Skipped, res.ErrorRows, res.Remaining))
	return summary, nil
}

// summarize folds the reconciliation and load outcomes into the summary.
// Rows discarded as already-loaded duplicates count as skipped, so a full
// re-upload of the same file reports inserted=0 and skipped equal to the
// row count. The fold mutates res so the history row carries the same
// skip count.
func summarize(summary *Summary, recon *ReconcileResult, res *LoadResult) {
	res.Skipped += recon.DuplicateRows
	summary.DuplicateRows = recon.DuplicateRows
	summary.DuplicateGroups = recon.DuplicateGroups
	summary.InsertedRows = res.Inserted
	summary.SkippedRows = res.Skipped
	summary.ErrorRows = res.ErrorRows
	summary.RemainingRows = res.Remaining
	summary.Errors = res.Errors

	status := constants.StatusSuccess
	switch {
	case res.Remaining > 0 || (res.ErrorRows > 0 && res.Inserted > 0):
		status = constants.StatusPartial
	case res.ErrorRows > 0 && res.Inserted == 0:
		status = constants.StatusFailed
	}
	summary.Status = status
	summary.Success = status != constants.StatusFailed
	if recon.DuplicateRows > 0 && summary.Message == "" {
		summary.Message = fmt.Sprintf("%d rows in %d invoice groups were already loaded and were skipped", recon.DuplicateRows, recon.DuplicateGroups)
	}
	if res.Remaining > 0 {
		summary.Message = fmt.Sprintf("processing budget exhausted with %d rows remaining", res.Remaining)
	}
}

func logUpload(batchID, msg string) {
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogUpload(batchID, msg)
	}
}
