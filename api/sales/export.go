package sales

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"SalesScope/api"
	"SalesScope/api/constants"
)

var exportHeader = []string{
	"Entity", "Invoice", "Invoice Date", "Year", "Quarter", "Channel",
	"Category", "Model", "Item Number", "Product Name", "Region",
	"Currency", "Quantity", "Net Amount", "Line Amount MST",
}

// ExportHandler streams an entity's sales rows as a CSV download. Year is
// optional; only CSV output is supported.
func ExportHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		if f := r.URL.Query().Get("format"); f != "" && f != "csv" {
			api.RespondWithError(w, http.StatusBadRequest, "only csv format is supported")
			return
		}
		entity := r.URL.Query().Get("entity")
		if entity == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrEntityRequired)
			return
		}

		query := `SELECT entity, COALESCE(invoice, ''), COALESCE(TO_CHAR(invoice_date, 'YYYY-MM-DD'), ''),
				COALESCE(year::text, ''), COALESCE(quarter, ''), COALESCE(channel, ''),
				COALESCE(category, ''), COALESCE(model, ''), COALESCE(item_number, ''),
				COALESCE(product_name, ''), COALESCE(region, ''), COALESCE(currency, ''),
				COALESCE(quantity, 0), COALESCE(net_amount, 0), COALESCE(line_amount_mst, 0)
			 FROM sales_data WHERE entity = $1`
		args := []interface{}{entity}
		yearLabel := "all"
		if y := r.URL.Query().Get("year"); y != "" {
			year, err := strconv.Atoi(y)
			if err != nil {
				api.RespondWithError(w, http.StatusBadRequest, "invalid year")
				return
			}
			query += ` AND year = $2`
			args = append(args, year)
			yearLabel = y
		}
		query += ` ORDER BY invoice_date, invoice`

		rows, err := db.QueryContext(r.Context(), query, args...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		defer rows.Close()

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="sales-export-%s-%s.csv"`, entity, yearLabel))

		cw := csv.NewWriter(w)
		cw.Write(exportHeader)
		for rows.Next() {
			var ent, invoice, date, year, quarter, channel, category, model, item, product, region, currency string
			var qty, net, mst float64
			if err := rows.Scan(&ent, &invoice, &date, &year, &quarter, &channel,
				&category, &model, &item, &product, &region, &currency, &qty, &net, &mst); err != nil {
				// headers are already on the wire, nothing better to do
				// than cut the stream short
				return
			}
			cw.Write([]string{ent, invoice, date, year, quarter, channel, category, model, item, product, region, currency,
				strconv.FormatFloat(qty, 'f', -1, 64),
				strconv.FormatFloat(net, 'f', -1, 64),
				strconv.FormatFloat(mst, 'f', -1, 64)})
		}
		cw.Flush()
	})
}
