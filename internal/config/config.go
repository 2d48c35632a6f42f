package config

import "time"

const (
	DefaultTimeZone = "UTC"

	// Batch loader tuning
	InsertBatchSize   = 200
	MinInsertBatch    = 10
	RowRetryParallel  = 16
	InterBatchDelay   = 100 * time.Millisecond
	ProcessDeadline   = 240 * time.Second
	MaxReportedErrors = 10

	// Duplicate reconciliation
	DuplicateSumEpsilon = "0.01"
	ReferenceQueryBatch = 1000

	// Reference-table paging
	PageSize    = 1000
	MaxRefPages = 100

	// History janitor
	DefaultJanitorSchedule = "*/5 * * * *"
	HistoryStuckAfter      = 10 * time.Minute
)
