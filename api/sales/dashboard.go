package sales

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"SalesScope/api"
	"SalesScope/api/constants"
)

// EntitiesHandler lists the entities that have sales data loaded.
func EntitiesHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		rows, err := db.QueryContext(r.Context(),
			`SELECT DISTINCT entity FROM sales_data ORDER BY entity`)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		defer rows.Close()
		entities := []string{}
		for rows.Next() {
			var e string
			if err := rows.Scan(&e); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
				return
			}
			entities = append(entities, e)
		}
		api.RespondWithJSON(w, map[string]interface{}{"success": true, "entities": entities})
	})
}

// YearsHandler lists the invoice years present for an entity.
func YearsHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		entity := r.URL.Query().Get("entity")
		if entity == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrEntityRequired)
			return
		}
		rows, err := db.QueryContext(r.Context(),
			`SELECT DISTINCT year FROM sales_data WHERE entity = $1 AND year IS NOT NULL ORDER BY year DESC`,
			entity)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		defer rows.Close()
		years := []int{}
		for rows.Next() {
			var y int
			if err := rows.Scan(&y); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
				return
			}
			years = append(years, y)
		}
		api.RespondWithJSON(w, map[string]interface{}{"success": true, "years": years})
	})
}

type summaryBucket struct {
	Quarter   string  `json:"quarter"`
	Channel   *string `json:"channel"`
	NetAmount float64 `json:"netAmount"`
	Quantity  float64 `json:"quantity"`
	RowCount  int     `json:"rowCount"`
}

// SummaryHandler aggregates an entity-year by quarter and channel.
func SummaryHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		entity := r.URL.Query().Get("entity")
		if entity == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrEntityRequired)
			return
		}
		year, err := strconv.Atoi(r.URL.Query().Get("year"))
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "year is required")
			return
		}

		rows, err := db.QueryContext(r.Context(),
			`SELECT quarter, channel, COALESCE(SUM(net_amount), 0), COALESCE(SUM(quantity), 0), COUNT(*)
			 FROM sales_data
			 WHERE entity = $1 AND year = $2 AND quarter IS NOT NULL
			 GROUP BY quarter, channel
			 ORDER BY quarter, channel`,
			entity, year)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		defer rows.Close()

		buckets := []summaryBucket{}
		for rows.Next() {
			var b summaryBucket
			if err := rows.Scan(&b.Quarter, &b.Channel, &b.NetAmount, &b.Quantity, &b.RowCount); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
				return
			}
			buckets = append(buckets, b)
		}
		api.RespondWithJSON(w, map[string]interface{}{
			"success": true,
			"entity":  entity,
			"year":    year,
			"summary": buckets,
		})
	})
}

// breakdownDimensions whitelists the sales_data columns a breakdown may
// group by. The query column is taken from here, never from the request.
var breakdownDimensions = map[string]string{
	"category": "category",
	"product":  "product",
	"region":   "region",
	"currency": "currency",
	"industry": "industry",
	"channel":  "channel",
}

// resolveDimension maps the request parameter to a grouping column,
// defaulting to category.
func resolveDimension(name string) (string, bool) {
	if name == "" {
		return "category", true
	}
	col, ok := breakdownDimensions[strings.ToLower(strings.TrimSpace(name))]
	return col, ok
}

type breakdownBucket struct {
	Value     string  `json:"value"`
	NetAmount float64 `json:"netAmount"`
	Quantity  float64 `json:"quantity"`
	RowCount  int     `json:"rowCount"`
}

// BreakdownHandler aggregates an entity's sales along one dimension,
// largest first. Year is optional and narrows the window.
func BreakdownHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		entity := r.URL.Query().Get("entity")
		if entity == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrEntityRequired)
			return
		}
		col, ok := resolveDimension(r.URL.Query().Get("dimension"))
		if !ok {
			api.RespondWithError(w, http.StatusBadRequest, "unknown dimension")
			return
		}

		query := `SELECT COALESCE(` + col + `, ''), COALESCE(SUM(net_amount), 0), COALESCE(SUM(quantity), 0), COUNT(*)
			 FROM sales_data WHERE entity = $1`
		args := []interface{}{entity}
		if y := r.URL.Query().Get("year"); y != "" {
			year, err := strconv.Atoi(y)
			if err != nil {
				api.RespondWithError(w, http.StatusBadRequest, "invalid year")
				return
			}
			query += ` AND year = $2`
			args = append(args, year)
		}
		query += ` GROUP BY 1 ORDER BY 2 DESC`

		rows, err := db.QueryContext(r.Context(), query, args...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		defer rows.Close()

		buckets := []breakdownBucket{}
		for rows.Next() {
			var b breakdownBucket
			if err := rows.Scan(&b.Value, &b.NetAmount, &b.Quantity, &b.RowCount); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
				return
			}
			buckets = append(buckets, b)
		}
		api.RespondWithJSON(w, map[string]interface{}{
			"success":   true,
			"entity":    entity,
			"dimension": col,
			"breakdown": buckets,
		})
	})
}
