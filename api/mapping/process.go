package mapping

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"SalesScope/api"
	"SalesScope/api/constants"
	"SalesScope/api/sales/upload"
	"SalesScope/internal/logger"
)

type processItemFileRequest struct {
	StoragePath string `json:"storagePath"`
	Entity      string `json:"entity"`
	FileName    string `json:"fileName"`
	Target      string `json:"target"`
}

// itemColumnSynonyms maps each reference field to the header spellings
// seen in tenant files. Matching is case insensitive.
var itemColumnSynonyms = map[string][]string{
	"item_number":       {"item_number", "item number", "item_code", "item code", "item"},
	"fg_classification": {"fg_classification", "fg classification", "fg", "fg_class"},
	"category":          {"category"},
	"model":             {"model"},
	"product":           {"product", "product_name", "product name"},
}

// ProcessItemFileHandler ingests an item reference workbook from storage
// into item_mapping (or item_master when target says so), then patches
// sales_data. The source file is deleted once consumed.
func ProcessItemFileHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		var req processItemFileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		req.StoragePath = strings.TrimSpace(req.StoragePath)
		req.Entity = strings.TrimSpace(req.Entity)
		req.FileName = strings.TrimSpace(req.FileName)
		if req.StoragePath == "" || req.Entity == "" || req.FileName == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrStoragePathRequired)
			return
		}
		table := "item_mapping"
		if strings.EqualFold(req.Target, "item_master") {
			table = "item_master"
		}

		data, err := upload.DownloadFromSupabase(r.Context(), req.StoragePath)
		if err != nil {
			api.RespondWithError(w, http.StatusBadGateway, err.Error())
			return
		}
		wb, err := upload.ParseWorkbook(req.FileName, data)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		items, err := extractItems(wb)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		items = dedupeItems(items)

		skippedMaster := 0
		if table == "item_mapping" {
			items, skippedMaster, err = dropMasterOwned(r.Context(), db, items)
			if err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
				return
			}
		}

		upserted, err := replaceItems(r.Context(), db, table, req.Entity, items)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		patched, err := patchSalesData(r.Context(), db, req.Entity, items, table == "item_master")
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}

		if err := upload.DeleteFromSupabase(r.Context(), req.StoragePath); err != nil {
			if logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("item file %s: blob delete failed: %v", req.StoragePath, err))
			}
		}

		api.RespondWithJSON(w, map[string]interface{}{
			"success":          true,
			"entity":           req.Entity,
			"table":            table,
			"upserted":         upserted,
			"skippedMaster":    skippedMaster,
			"salesRowsPatched": patched,
		})
	})
}

// extractItems locates the reference columns by synonym and pulls the
// item rows out of the workbook.
func extractItems(wb *upload.Workbook) ([]ItemEntry, error) {
	idx := map[string]int{}
	for field, synonyms := range itemColumnSynonyms {
		idx[field] = -1
		for i, h := range wb.Headers {
			header := strings.ToLower(strings.TrimSpace(h))
			for _, syn := range synonyms {
				if header == syn {
					idx[field] = i
					break
				}
			}
			if idx[field] >= 0 {
				break
			}
		}
	}
	if idx["item_number"] < 0 {
		return nil, fmt.Errorf("no item number column found in file")
	}

	cell := func(row []string, field string) string {
		i := idx[field]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	items := []ItemEntry{}
	for _, row := range wb.Rows {
		it := ItemEntry{
			ItemNumber:       cell(row, "item_number"),
			FGClassification: cell(row, "fg_classification"),
			Category:         cell(row, "category"),
			Model:            cell(row, "model"),
			Product:          cell(row, "product"),
		}
		if it.ItemNumber == "" {
			continue
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf(constants.ErrNoIngestibleRows)
	}
	return items, nil
}

// dropMasterOwned removes items that are actively curated in item_master;
// mapping uploads never shadow master data. The master table is global,
// so the check ignores the uploading entity.
func dropMasterOwned(ctx context.Context, db *sql.DB, items []ItemEntry) ([]ItemEntry, int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT item_number FROM item_master WHERE is_active = true`)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	owned := map[string]bool{}
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return nil, 0, err
		}
		owned[strings.TrimSpace(item)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	kept := make([]ItemEntry, 0, len(items))
	skipped := 0
	for _, it := range items {
		if owned[it.ItemNumber] {
			skipped++
			continue
		}
		kept = append(kept, it)
	}
	return kept, skipped, nil
}
