package upload

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"SalesScope/api"
	"SalesScope/api/constants"
	"SalesScope/internal/logger"
)

// HistoryRow is one upload_history record as returned by the list API.
type HistoryRow struct {
	ID           string     `json:"id"`
	Entity       string     `json:"entity"`
	FileName     string     `json:"fileName"`
	StoragePath  *string    `json:"storagePath"`
	Status       string     `json:"status"`
	TotalRows    int        `json:"totalRows"`
	InsertedRows int        `json:"insertedRows"`
	SkippedRows  int        `json:"skippedRows"`
	ErrorRows    int        `json:"errorRows"`
	Message      *string    `json:"message"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt"`
}

// CreateHistory opens an upload_history row in processing state and
// returns its id, which doubles as the upload batch id on sales_data.
func CreateHistory(ctx context.Context, db *sql.DB, entity, fileName string) (string, error) {
	id := uuid.New().String()
	_, err := db.ExecContext(ctx,
		`INSERT INTO upload_history (id, entity, file_name, status, total_rows, inserted_rows, skipped_rows, error_rows, created_at)
		 VALUES ($1, $2, $3, $4, 0, 0, 0, 0, NOW())`,
		id, entity, fileName, constants.StatusProcessing,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ReopenHistory puts an existing row back into processing state for a
// retry run. Unknown ids are an error so retries cannot invent history.
func ReopenHistory(ctx context.Context, db *sql.DB, id string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE upload_history
		 SET status = $2, message = NULL, errors = NULL, updated_at = NOW()
		 WHERE id = $1`,
		id, constants.StatusProcessing,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("upload history %s not found", id)
	}
	return nil
}

// SetHistoryStoragePath records where the original file landed.
func SetHistoryStoragePath(ctx context.Context, db *sql.DB, id, storagePath string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE upload_history SET storage_path = $2, updated_at = NOW() WHERE id = $1`,
		id, storagePath,
	)
	return err
}

// FinishHistory closes out the row with final counts and status. Row
// errors are stored as a JSON array for the UI.
func FinishHistory(ctx context.Context, db *sql.DB, id, status string, totalRows int, res *LoadResult, message string) error {
	var errsJSON []byte
	if res != nil && len(res.Errors) > 0 {
		errsJSON, _ = json.Marshal(res.Errors)
	}
	inserted, skipped, errorRows := 0, 0, 0
	if res != nil {
		inserted, skipped, errorRows = res.Inserted, res.Skipped, res.ErrorRows
	}
	_, err := db.ExecContext(ctx,
		`UPDATE upload_history
		 SET status = $2, total_rows = $3, inserted_rows = $4, skipped_rows = $5,
		     error_rows = $6, errors = $7, message = NULLIF($8, ''), updated_at = NOW()
		 WHERE id = $1`,
		id, status, totalRows, inserted, skipped, errorRows, nullableJSON(errsJSON), message,
	)
	return err
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// ListHistoryHandler returns recent uploads, optionally filtered by
// entity.
func ListHistoryHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		entity := r.URL.Query().Get("entity")
		query := `SELECT id, entity, file_name, storage_path, status, total_rows, inserted_rows,
			skipped_rows, error_rows, message, created_at, updated_at
			FROM upload_history`
		args := []interface{}{}
		if entity != "" {
			query += ` WHERE entity = $1`
			args = append(args, entity)
		}
		query += ` ORDER BY created_at DESC LIMIT 50`

		rows, err := db.QueryContext(r.Context(), query, args...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		defer rows.Close()

		out := []HistoryRow{}
		for rows.Next() {
			var h HistoryRow
			if err := rows.Scan(&h.ID, &h.Entity, &h.FileName, &h.StoragePath, &h.Status,
				&h.TotalRows, &h.InsertedRows, &h.SkippedRows, &h.ErrorRows,
				&h.Message, &h.CreatedAt, &h.UpdatedAt); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
				return
			}
			out = append(out, h)
		}
		api.RespondWithJSON(w, map[string]interface{}{
			"success": true,
			"history": out,
		})
	})
}

// DeleteHistoryHandler removes one history row and its stored file. The
// blob delete is best effort; the row goes regardless.
func DeleteHistoryHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		id := r.URL.Query().Get("id")
		if id == "" {
			api.RespondWithError(w, http.StatusBadRequest, "id is required")
			return
		}

		var storagePath sql.NullString
		err := db.QueryRowContext(r.Context(),
			`SELECT storage_path FROM upload_history WHERE id = $1`, id,
		).Scan(&storagePath)
		if err == sql.ErrNoRows {
			api.RespondWithError(w, http.StatusNotFound, "upload history not found")
			return
		}
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}

		if storagePath.Valid && storagePath.String != "" {
			if delErr := DeleteFromSupabase(r.Context(), storagePath.String); delErr != nil {
				if logger.GlobalLogger != nil {
					logger.GlobalLogger.LogAudit(fmt.Sprintf("upload history %s: blob delete failed: %v", id, delErr))
				}
			}
		}

		if _, err := db.ExecContext(r.Context(), `DELETE FROM upload_history WHERE id = $1`, id); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		api.RespondWithJSON(w, map[string]interface{}{"success": true, "deleted": id})
	})
}
