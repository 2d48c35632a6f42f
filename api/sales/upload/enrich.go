package upload

import (
	"context"
	"database/sql"
	"strings"

	"SalesScope/internal/config"
)

// ItemRef is one reference row from item_master or item_mapping.
type ItemRef struct {
	FGClassification string
	Category         string
	Model            string
	Product          string
}

// RefSet holds the item reference data for one upload. item_master is a
// cross-entity table keyed by item number; item_mapping is scoped to the
// uploading entity. An active master record shadows the mapping record
// for the same item entirely.
type RefSet struct {
	Master  map[string]ItemRef
	Mapping map[string]ItemRef
}

// itemMappingEntities are the entities whose exports carry bare item
// numbers and rely on the reference tables for classification.
var itemMappingEntities = map[string]bool{
	"HQ":         true,
	"KOROT":      true,
	"HEALTHCARE": true,
	"VIETNAM":    true,
	"BWA":        true,
	"USA":        true,
}

// RequiresItemMapping reports whether enrichment should load reference
// data for the entity at all.
func RequiresItemMapping(entity string) bool {
	return itemMappingEntities[strings.ToUpper(strings.TrimSpace(entity))]
}

// refQuery builds the paged select for a reference table. item_master is
// global, item_mapping carries an entity filter.
func refQuery(table string) string {
	q := `SELECT item_number, COALESCE(fg_classification, ''), COALESCE(category, ''), COALESCE(model, ''), COALESCE(product, '')
		FROM ` + table
	if table == "item_mapping" {
		q += ` WHERE entity = $3 AND is_active = true`
	} else {
		q += ` WHERE is_active = true`
	}
	return q + ` ORDER BY item_number LIMIT $1 OFFSET $2`
}

// LoadRefSet pages through item_master and item_mapping. Paging is capped
// so a runaway reference table cannot stall an upload.
func LoadRefSet(ctx context.Context, db *sql.DB, entity string) (*RefSet, error) {
	master, err := loadItemRefs(ctx, db, "item_master", "")
	if err != nil {
		return nil, err
	}
	mapping, err := loadItemRefs(ctx, db, "item_mapping", entity)
	if err != nil {
		return nil, err
	}
	return &RefSet{Master: master, Mapping: mapping}, nil
}

func loadItemRefs(ctx context.Context, db *sql.DB, table, entity string) (map[string]ItemRef, error) {
	out := map[string]ItemRef{}
	query := refQuery(table)
	for page := 0; page < config.MaxRefPages; page++ {
		args := []interface{}{config.PageSize, page * config.PageSize}
		if table == "item_mapping" {
			args = append(args, entity)
		}
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		count := 0
		for rows.Next() {
			var itemNumber string
			var ref ItemRef
			if err := rows.Scan(&itemNumber, &ref.FGClassification, &ref.Category, &ref.Model, &ref.Product); err != nil {
				rows.Close()
				return nil, err
			}
			out[strings.TrimSpace(itemNumber)] = ref
			count++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		if count < config.PageSize {
			break
		}
	}
	return out, nil
}

// Enrich overlays reference classification onto the records. The master
// record wins whole when present; the mapping record is consulted only
// for items master does not cover. Only non-empty reference values
// overwrite.
func (rs *RefSet) Enrich(records []*Record) {
	if rs == nil {
		return
	}
	for _, rec := range records {
		if rec.ItemNumber == nil {
			continue
		}
		key := strings.TrimSpace(*rec.ItemNumber)
		ref, ok := rs.Master[key]
		if !ok {
			ref, ok = rs.Mapping[key]
		}
		if !ok {
			continue
		}
		overlay(&rec.FGClassification, ref.FGClassification)
		overlay(&rec.Category, ref.Category)
		overlay(&rec.Model, ref.Model)
		overlay(&rec.Product, ref.Product)
	}
}

func overlay(target **string, val string) {
	if v := strings.TrimSpace(val); v != "" {
		*target = &v
	}
}
