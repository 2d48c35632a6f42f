package mapping

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"SalesScope/api"
	"SalesScope/api/constants"
)

// ColumnMappingEntry is one Excel header to sales_data column binding.
type ColumnMappingEntry struct {
	ExcelColumn string `json:"excelColumn"`
	DBColumn    string `json:"dbColumn"`
}

type saveColumnMappingRequest struct {
	Entity   string               `json:"entity"`
	Mappings []ColumnMappingEntry `json:"mappings"`
}

// ColumnMappingHandler serves the per-entity header overrides. GET lists
// the active set, POST replaces it (deactivate then upsert so history is
// kept), DELETE deactivates one binding or the whole entity.
func ColumnMappingHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listColumnMappings(db, w, r)
		case http.MethodPost:
			saveColumnMappings(db, w, r)
		case http.MethodDelete:
			deleteColumnMappings(db, w, r)
		default:
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
		}
	})
}

func listColumnMappings(db *sql.DB, w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	if entity == "" {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrEntityRequired)
		return
	}
	rows, err := db.QueryContext(r.Context(),
		`SELECT excel_column, db_column FROM column_mapping WHERE entity = $1 AND is_active = true ORDER BY excel_column`,
		entity)
	if err != nil {
		api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
		return
	}
	defer rows.Close()
	mappings := []ColumnMappingEntry{}
	for rows.Next() {
		var m ColumnMappingEntry
		if err := rows.Scan(&m.ExcelColumn, &m.DBColumn); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		mappings = append(mappings, m)
	}
	api.RespondWithJSON(w, map[string]interface{}{"success": true, "entity": entity, "mappings": mappings})
}

func saveColumnMappings(db *sql.DB, w http.ResponseWriter, r *http.Request) {
	var req saveColumnMappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
		return
	}
	req.Entity = strings.TrimSpace(req.Entity)
	if req.Entity == "" || len(req.Mappings) == 0 {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
		return
	}

	tx, err := db.BeginTx(r.Context(), nil)
	if err != nil {
		api.RespondWithError(w, http.StatusInternalServerError, constants.ErrTxStartFailed+err.Error())
		return
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(r.Context(),
		`UPDATE column_mapping SET is_active = false, updated_at = NOW() WHERE entity = $1`,
		req.Entity); err != nil {
		api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
		return
	}

	saved := 0
	for _, m := range dedupeColumnEntries(req.Mappings) {
		if _, err := tx.ExecContext(r.Context(),
			`INSERT INTO column_mapping (entity, excel_column, db_column, is_active, created_at, updated_at)
			 VALUES ($1, $2, $3, true, NOW(), NOW())
			 ON CONFLICT (entity, excel_column, db_column)
			 DO UPDATE SET is_active = true, updated_at = NOW()`,
			req.Entity, m.ExcelColumn, m.DBColumn); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		api.RespondWithError(w, http.StatusInternalServerError, constants.ErrTxCommitFailed+err.Error())
		return
	}
	api.RespondWithJSON(w, map[string]interface{}{"success": true, "entity": req.Entity, "saved": saved})
}

// dedupeColumnEntries trims and collapses the request so each Excel
// column binds at most one target; the last occurrence wins. Without this
// a request repeating a header would leave two active rows for it.
func dedupeColumnEntries(mappings []ColumnMappingEntry) []ColumnMappingEntry {
	target := map[string]string{}
	order := []string{}
	for _, m := range mappings {
		excelCol := strings.TrimSpace(m.ExcelColumn)
		dbCol := strings.TrimSpace(m.DBColumn)
		if excelCol == "" || dbCol == "" {
			continue
		}
		if _, ok := target[excelCol]; !ok {
			order = append(order, excelCol)
		}
		target[excelCol] = dbCol
	}
	out := make([]ColumnMappingEntry, 0, len(order))
	for _, excelCol := range order {
		out = append(out, ColumnMappingEntry{ExcelColumn: excelCol, DBColumn: target[excelCol]})
	}
	return out
}

func deleteColumnMappings(db *sql.DB, w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	if entity == "" {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrEntityRequired)
		return
	}
	excelColumn := r.URL.Query().Get("excelColumn")

	var res sql.Result
	var err error
	if excelColumn != "" {
		res, err = db.ExecContext(r.Context(),
			`UPDATE column_mapping SET is_active = false, updated_at = NOW() WHERE entity = $1 AND excel_column = $2`,
			entity, excelColumn)
	} else {
		res, err = db.ExecContext(r.Context(),
			`UPDATE column_mapping SET is_active = false, updated_at = NOW() WHERE entity = $1`,
			entity)
	}
	if err != nil {
		api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
		return
	}
	n, _ := res.RowsAffected()
	api.RespondWithJSON(w, map[string]interface{}{"success": true, "deactivated": n})
}
