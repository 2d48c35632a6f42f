package upload

import (
	"context"
	"database/sql"
	"strings"
)

// defaultColumnMap is the built-in Excel header to sales_data column map.
// Matching is exact and case sensitive, the way the reporting exports name
// their columns.
var defaultColumnMap = map[string]string{
	"Sales Type":               "sales_type",
	"Invoice":                  "invoice",
	"Invoice date":             "invoice_date",
	"Industry":                 "industry",
	"Sales order":              "sales_order",
	"Customer invoice account": "customer_invoice_account",
	"Invoice account":          "invoice_account",
	"Group":                    "group_name",
	"Currency":                 "currency",
	"City":                     "city",
	"State":                    "state",
	"Region":                   "region",
	"Product type":             "product_type",
	"Item group":               "item_group",
	"Category":                 "category",
	"Model":                    "model",
	"Item number":              "item_number",
	"Product name":             "product_name",
	"Quantity":                 "quantity",
	"Net amount":               "net_amount",
	"Line Amount_MST":          "line_amount_mst",
	"Personnel number":         "personnel_number",
	"WORKERNAME":               "worker_name",
	"L DIM NAME":               "l_dim_name",
	"L_DIM_WK":                 "l_dim_wk",
	"L_WK_NAME":                "l_wk_name",
	"L_DIM_CC":                 "l_dim_cc",
	"Country":                  "country",
}

// allowedColumns is the set of sales_data columns an upload may populate.
// Mapped headers pointing anywhere else are dropped.
var allowedColumns = func() map[string]bool {
	out := make(map[string]bool, len(defaultColumnMap))
	for _, col := range defaultColumnMap {
		out[col] = true
	}
	return out
}()

// LoadColumnMap returns the effective header map for an entity: the
// entity's stored column_mapping rows when it has any, the built-in
// defaults otherwise.
func LoadColumnMap(ctx context.Context, db *sql.DB, entity string) (map[string]string, error) {
	stored := map[string]string{}
	if db != nil {
		rows, err := db.QueryContext(ctx,
			`SELECT excel_column, db_column FROM column_mapping WHERE entity = $1 AND is_active = true`,
			entity,
		)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var excelCol, dbCol string
			if err := rows.Scan(&excelCol, &dbCol); err != nil {
				return nil, err
			}
			if allowedColumns[dbCol] {
				stored[excelCol] = dbCol
			}
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return effectiveColumnMap(stored), nil
}

// effectiveColumnMap picks between a tenant's stored map and the default
// table. A stored map replaces the defaults outright, so a tenant can
// drop a built-in column by not mapping it.
func effectiveColumnMap(stored map[string]string) map[string]string {
	if len(stored) > 0 {
		return stored
	}
	out := make(map[string]string, len(defaultColumnMap))
	for k, v := range defaultColumnMap {
		out[k] = v
	}
	return out
}

// MappedRow is one upload row keyed by sales_data column name. Values are
// raw cell strings; normalization happens later.
type MappedRow map[string]string

// MapRows applies the column map to the workbook: headers with no mapping
// are ignored, rows that carry none of the anchor fields (invoice,
// sales_type, item_number) are treated as trailing blanks and dropped.
func MapRows(wb *Workbook, columnMap map[string]string) []MappedRow {
	type binding struct {
		idx int
		col string
	}
	bindings := []binding{}
	for i, h := range wb.Headers {
		if col, ok := columnMap[strings.TrimSpace(h)]; ok {
			bindings = append(bindings, binding{idx: i, col: col})
		}
	}
	if len(bindings) == 0 {
		return nil
	}

	out := make([]MappedRow, 0, len(wb.Rows))
	for _, row := range wb.Rows {
		mapped := MappedRow{}
		for _, b := range bindings {
			if b.idx < len(row) {
				mapped[b.col] = strings.TrimSpace(row[b.idx])
			}
		}
		if mapped["invoice"] == "" && mapped["sales_type"] == "" && mapped["item_number"] == "" {
			continue
		}
		out = append(out, mapped)
	}
	return out
}
