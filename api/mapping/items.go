package mapping

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"SalesScope/api"
	"SalesScope/api/constants"
)

// ItemEntry is one item classification row for item_master or
// item_mapping.
type ItemEntry struct {
	ItemNumber       string `json:"itemNumber"`
	FGClassification string `json:"fgClassification"`
	Category         string `json:"category"`
	Model            string `json:"model"`
	Product          string `json:"product"`
}

type upsertItemsRequest struct {
	Entity string      `json:"entity"`
	Items  []ItemEntry `json:"items"`
}

const deactivateBatchSize = 500

// UpsertItemsHandler upserts item classification rows and patches
// already-loaded sales rows. item_master is a cross-entity table keyed by
// item number alone; item_mapping replaces the active set of one entity.
func UpsertItemsHandler(db *sql.DB, table string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		var req upsertItemsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		req.Entity = strings.TrimSpace(req.Entity)
		if len(req.Items) == 0 {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if table == "item_mapping" && req.Entity == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrEntityRequired)
			return
		}

		items := dedupeItems(req.Items)
		skippedMaster := 0
		var err error
		if table == "item_mapping" {
			// mapping rows never shadow actively curated master data
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

// dedupeItems keeps the first occurrence of each item number; reference
// files often repeat items and the first row wins.
func dedupeItems(items []ItemEntry) []ItemEntry {
	seen := map[string]bool{}
	out := make([]ItemEntry, 0, len(items))
	for _, it := range items {
		key := strings.TrimSpace(it.ItemNumber)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		it.ItemNumber = key
		out = append(out, it)
	}
	return out
}

// replaceItems writes the new item set. Master rows are upserted in place
// on item number; mapping rows replace the entity's active set, with the
// old set deactivated in slow batches to keep row locks short.
func replaceItems(ctx context.Context, db *sql.DB, table, entity string, items []ItemEntry) (int, error) {
	if table == "item_master" {
		return upsertMasterItems(ctx, db, items)
	}

	for {
		res, err := db.ExecContext(ctx,
			`UPDATE item_mapping SET is_active = false, updated_at = NOW()
			 WHERE ctid IN (
				SELECT ctid FROM item_mapping WHERE entity = $1 AND is_active = true LIMIT $2
			 )`,
			entity, deactivateBatchSize)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		if n < deactivateBatchSize {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	upserted := 0
	for _, it := range items {
		_, err := db.ExecContext(ctx,
			`INSERT INTO item_mapping (entity, item_number, fg_classification, category, model, product, is_active, created_at, updated_at)
			 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), true, NOW(), NOW())
			 ON CONFLICT (entity, item_number)
			 DO UPDATE SET fg_classification = NULLIF($3, ''), category = NULLIF($4, ''),
				model = NULLIF($5, ''), product = NULLIF($6, ''), is_active = true, updated_at = NOW()`,
			entity, it.ItemNumber, strings.TrimSpace(it.FGClassification),
			strings.TrimSpace(it.Category), strings.TrimSpace(it.Model), strings.TrimSpace(it.Product))
		if err != nil {
			return upserted, err
		}
		upserted++
	}
	return upserted, nil
}

func upsertMasterItems(ctx context.Context, db *sql.DB, items []ItemEntry) (int, error) {
	upserted := 0
	for _, it := range items {
		_, err := db.ExecContext(ctx,
			`INSERT INTO item_master (item_number, fg_classification, category, model, product, is_active, created_at, updated_at)
			 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), true, NOW(), NOW())
			 ON CONFLICT (item_number)
			 DO UPDATE SET fg_classification = NULLIF($2, ''), category = NULLIF($3, ''),
				model = NULLIF($4, ''), product = NULLIF($5, ''), is_active = true, updated_at = NOW()`,
			it.ItemNumber, strings.TrimSpace(it.FGClassification),
			strings.TrimSpace(it.Category), strings.TrimSpace(it.Model), strings.TrimSpace(it.Product))
		if err != nil {
			return upserted, err
		}
		upserted++
	}
	return upserted, nil
}

// patchSalesData retroactively applies item classification to rows that
// were loaded before the reference data existed. Master patches reach
// every entity; mapping patches stay inside the owning entity. Only
// non-empty values overwrite.
func patchSalesData(ctx context.Context, db *sql.DB, entity string, items []ItemEntry, allEntities bool) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query := `UPDATE sales_data SET
			fg_classification = COALESCE(NULLIF($2, ''), fg_classification),
			category = COALESCE(NULLIF($3, ''), category),
			model = COALESCE(NULLIF($4, ''), model),
			product = COALESCE(NULLIF($5, ''), product)
		 WHERE item_number = $1`
	if !allEntities {
		query += ` AND entity = $6`
	}

	var patched int64
	for _, it := range items {
		args := []interface{}{it.ItemNumber, strings.TrimSpace(it.FGClassification),
			strings.TrimSpace(it.Category), strings.TrimSpace(it.Model), strings.TrimSpace(it.Product)}
		if !allEntities {
			args = append(args, entity)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		patched += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return patched, nil
}
