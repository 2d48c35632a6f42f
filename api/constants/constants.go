package constants

// Common error messages
const (
	ErrInvalidJSON          = "invalid json or missing fields"
	ErrInvalidRequestBody   = "Invalid request body"
	ErrMethodNotAllowed     = "Method Not Allowed"
	ErrEntityRequired       = "entity is required"
	ErrFileRequired         = "file is required"
	ErrStoragePathRequired  = "storagePath, entity and fileName are required"
	ErrUnsupportedFileType  = "unsupported file type: expected .xlsx, .xls or .csv"
	ErrWorkbookEmpty        = "workbook is empty or could not be parsed"
	ErrNoMappedColumns      = "no mapped columns found for upload file"
	ErrNoIngestibleRows     = "no ingestible rows found in file"
	ErrDB                   = "DB error"
	ErrTxStartFailed        = "failed to start transaction: "
	ErrTxCommitFailed       = "failed to commit transaction: "
	ErrQueryFailed          = "query failed: "
	ErrHistoryCreateFailed  = "failed to create upload history: "
	ErrStorageUploadFailed  = "storage upload failed: "
	ErrStorageDeleteFailed  = "storage delete failed: "
	ErrStorageNotConfigured = "storage not configured; set SUPABASE_URL, SUPABASE_BUCKET and a service role or anon key"
	ErrBucketNotFound       = "storage bucket not found; create it in the Supabase dashboard before uploading"
)

// Content types
const (
	ContentTypeHeader = "Content-Type"
	ContentTypeJSON   = "application/json"
)

// Date formats
const (
	DateTimeFormat  = "2006-01-02 15:04:05"
	DateFormat      = "2006-01-02"
	DateFormatAlt   = "02-01-2006"
	DateFormatSlash = "02/Jan/2006"
	DateFormatDash  = "02-Jan-2006"
)

// Upload history statuses
const (
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusPartial    = "partial"
	StatusFailed     = "failed"
)
