package mapping

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"SalesScope/api"
	"SalesScope/api/constants"
	"SalesScope/api/sales/upload"
	"SalesScope/internal/logger"
)

// ExchangeRate is one yearly currency conversion rate into the reporting
// currency. Rates are keyed by (year, currency).
type ExchangeRate struct {
	Year     int     `json:"year"`
	Currency string  `json:"currency"`
	Rate     float64 `json:"rate"`
}

type saveRatesRequest struct {
	Rates []ExchangeRate `json:"rates"`
}

const maxRateWarnings = 5

// ExchangeRatesHandler serves the exchange_rate table. GET lists rates
// (optionally for one year), POST upserts a batch, DELETE clears a year
// or the whole table.
func ExchangeRatesHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listExchangeRates(db, w, r)
		case http.MethodPost:
			saveExchangeRates(db, w, r)
		case http.MethodDelete:
			deleteExchangeRates(db, w, r)
		default:
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
		}
	})
}

func listExchangeRates(db *sql.DB, w http.ResponseWriter, r *http.Request) {
	query := `SELECT year, currency, rate FROM exchange_rate`
	args := []interface{}{}
	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "invalid year")
			return
		}
		query += ` WHERE year = $1`
		args = append(args, year)
	}
	query += ` ORDER BY year DESC, currency ASC`

	rows, err := db.QueryContext(r.Context(), query, args...)
	if err != nil {
		api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
		return
	}
	defer rows.Close()
	rates := []ExchangeRate{}
	for rows.Next() {
		var rate ExchangeRate
		if err := rows.Scan(&rate.Year, &rate.Currency, &rate.Rate); err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}
		rates = append(rates, rate)
	}
	api.RespondWithJSON(w, map[string]interface{}{"success": true, "rates": rates})
}

func saveExchangeRates(db *sql.DB, w http.ResponseWriter, r *http.Request) {
	var req saveRatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
		return
	}
	if len(req.Rates) == 0 {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
		return
	}
	for i := range req.Rates {
		req.Rates[i].Currency = strings.ToUpper(strings.TrimSpace(req.Rates[i].Currency))
		if err := validateRate(req.Rates[i]); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	saved, err := upsertRates(r.Context(), db, req.Rates)
	if err != nil {
		api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
		return
	}
	api.RespondWithJSON(w, map[string]interface{}{"success": true, "saved": saved})
}

func deleteExchangeRates(db *sql.DB, w http.ResponseWriter, r *http.Request) {
	query := `DELETE FROM exchange_rate`
	args := []interface{}{}
	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, "invalid year")
			return
		}
		query += ` WHERE year = $1`
		args = append(args, year)
	}
	res, err := db.ExecContext(r.Context(), query, args...)
	if err != nil {
		api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
		return
	}
	n, _ := res.RowsAffected()
	api.RespondWithJSON(w, map[string]interface{}{"success": true, "deleted": n})
}

func upsertRates(ctx context.Context, db *sql.DB, rates []ExchangeRate) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	saved := 0
	for _, rate := range rates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO exchange_rate (year, currency, rate, created_at, updated_at)
			 VALUES ($1, $2, $3, NOW(), NOW())
			 ON CONFLICT (year, currency)
			 DO UPDATE SET rate = $3, updated_at = NOW()`,
			rate.Year, rate.Currency, rate.Rate); err != nil {
			return 0, err
		}
		saved++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return saved, nil
}

func validateRate(rate ExchangeRate) error {
	if rate.Year < 2000 || rate.Year > 2100 {
		return fmt.Errorf("invalid year %d", rate.Year)
	}
	if len(rate.Currency) < 2 || len(rate.Currency) > 5 {
		return fmt.Errorf("invalid currency %q", rate.Currency)
	}
	if rate.Rate <= 0 {
		return fmt.Errorf("invalid rate %v for %s/%d", rate.Rate, rate.Currency, rate.Year)
	}
	return nil
}

type processRateFileRequest struct {
	StoragePath string `json:"storagePath"`
	FileName    string `json:"fileName"`
}

// rateColumnSynonyms maps each rate field to the header spellings seen in
// finance files. Matching is case insensitive.
var rateColumnSynonyms = map[string][]string{
	"year":     {"year"},
	"currency": {"currency", "curr", "cur"},
	"rate":     {"rate", "exchange_rate", "exchange rate", "exchangerate"},
}

// ProcessRateFileHandler ingests an exchange-rate workbook from storage
// into exchange_rate. The source file is deleted once consumed.
func ProcessRateFileHandler(db *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
			return
		}
		var req processRateFileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		req.StoragePath = strings.TrimSpace(req.StoragePath)
		req.FileName = strings.TrimSpace(req.FileName)
		if req.StoragePath == "" || req.FileName == "" {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrStoragePathRequired)
			return
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

		rates, warnings, err := extractRates(wb)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		saved, err := upsertRates(r.Context(), db, rates)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, constants.ErrQueryFailed+err.Error())
			return
		}

		if err := upload.DeleteFromSupabase(r.Context(), req.StoragePath); err != nil {
			if logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("rate file %s: blob delete failed: %v", req.StoragePath, err))
			}
		}

		resp := map[string]interface{}{"success": true, "saved": saved}
		if len(warnings) > 0 {
			if len(warnings) > maxRateWarnings {
				warnings = warnings[:maxRateWarnings]
			}
			resp["warnings"] = warnings
		}
		api.RespondWithJSON(w, resp)
	})
}

// extractRates locates the rate columns by synonym and validates each
// row. Bad rows become warnings; a file with no valid rows is an error.
func extractRates(wb *upload.Workbook) ([]ExchangeRate, []string, error) {
	idx := map[string]int{}
	for field, synonyms := range rateColumnSynonyms {
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
		if idx[field] < 0 {
			return nil, nil, fmt.Errorf("required columns not found, expected year, currency, rate")
		}
	}

	cell := func(row []string, field string) string {
		i := idx[field]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rates := []ExchangeRate{}
	warnings := []string{}
	for i, row := range wb.Rows {
		year, err := strconv.Atoi(cell(row, "year"))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: invalid year %q", i+2, cell(row, "year")))
			continue
		}
		rateVal, err := strconv.ParseFloat(cell(row, "rate"), 64)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: invalid rate %q", i+2, cell(row, "rate")))
			continue
		}
		rate := ExchangeRate{
			Year:     year,
			Currency: strings.ToUpper(cell(row, "currency")),
			Rate:     rateVal,
		}
		if err := validateRate(rate); err != nil {
			warnings = append(warnings, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		rates = append(rates, rate)
	}
	if len(rates) == 0 {
		return nil, nil, fmt.Errorf(constants.ErrNoIngestibleRows)
	}
	return rates, warnings, nil
}
