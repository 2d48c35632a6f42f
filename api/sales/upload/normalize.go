package upload

import (
	"strconv"
	"strings"
	"time"

	"SalesScope/api/constants"
)

// Record is one normalized sales_data row ready for insert. Optional
// columns are pointers so empty cells land as SQL NULL.
type Record struct {
	Entity        string
	UploadBatchID string

	SalesType              *string
	Invoice                *string
	InvoiceDate            *time.Time
	Industry               *string
	SalesOrder             *string
	CustomerInvoiceAccount *string
	InvoiceAccount         *string
	GroupName              *string
	Currency               *string
	City                   *string
	State                  *string
	Region                 *string
	ProductType            *string
	ItemGroup              *string
	Category               *string
	Model                  *string
	ItemNumber             *string
	ProductName            *string
	Quantity               *float64
	NetAmount              *float64
	LineAmountMST          *float64
	PersonnelNumber        *string
	WorkerName             *string
	LDimName               *string
	LDimWK                 *string
	LWkName                *string
	LDimCC                 *string
	Country                *string

	// Derived fields
	Year    *int
	Quarter *string

	// Enrichment fields, filled by classification and item lookup
	Channel          *string
	FGClassification *string
	Product          *string
}

// NormalizeRow converts a mapped raw row into a Record. Dates, numerics
// and the derived year/quarter are resolved here; industry defaults to
// "Other" when the export leaves it blank.
func NormalizeRow(entity, batchID string, m MappedRow) *Record {
	rec := &Record{Entity: entity, UploadBatchID: batchID}

	rec.SalesType = textPtr(m["sales_type"])
	rec.Invoice = textPtr(m["invoice"])
	rec.SalesOrder = textPtr(m["sales_order"])
	rec.CustomerInvoiceAccount = textPtr(m["customer_invoice_account"])
	rec.InvoiceAccount = textPtr(m["invoice_account"])
	rec.GroupName = textPtr(m["group_name"])
	rec.Currency = textPtr(m["currency"])
	rec.City = textPtr(m["city"])
	rec.State = textPtr(m["state"])
	rec.Region = textPtr(m["region"])
	rec.ProductType = textPtr(m["product_type"])
	rec.ItemGroup = textPtr(m["item_group"])
	rec.Category = textPtr(m["category"])
	rec.Model = textPtr(m["model"])
	rec.ItemNumber = textPtr(m["item_number"])
	rec.ProductName = textPtr(m["product_name"])
	rec.PersonnelNumber = textPtr(m["personnel_number"])
	rec.WorkerName = textPtr(m["worker_name"])
	rec.LDimName = textPtr(m["l_dim_name"])
	rec.LDimWK = textPtr(m["l_dim_wk"])
	rec.LWkName = textPtr(m["l_wk_name"])
	rec.LDimCC = textPtr(m["l_dim_cc"])
	rec.Country = textPtr(m["country"])

	industry := strings.TrimSpace(m["industry"])
	if industry == "" {
		industry = "Other"
	}
	rec.Industry = &industry

	if d := parseDateValue(m["invoice_date"]); d != nil {
		rec.InvoiceDate = d
		year := d.Year()
		rec.Year = &year
		q := quarterOf(*d)
		rec.Quarter = &q
	}

	rec.Quantity = parseNumeric(m["quantity"])
	rec.NetAmount = parseNumeric(m["net_amount"])
	rec.LineAmountMST = parseNumeric(m["line_amount_mst"])

	return rec
}

func textPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// quarterOf maps the invoice month onto the calendar quarter label.
func quarterOf(t time.Time) string {
	switch {
	case t.Month() <= 3:
		return "Q1"
	case t.Month() <= 6:
		return "Q2"
	case t.Month() <= 9:
		return "Q3"
	default:
		return "Q4"
	}
}

var dateLayouts = []string{
	constants.DateFormat,
	constants.DateFormatAlt,
	constants.DateFormatSlash,
	constants.DateFormatDash,
	constants.DateTimeFormat,
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"2-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// parseDateValue accepts Excel serial numbers and a ladder of common text
// layouts. Anything else comes back nil and the cell lands as NULL.
func parseDateValue(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t := excelSerialToDate(serial); t != nil {
			return t
		}
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// excelSerialToDate converts a 1900-system serial to a date. Serial 60 is
// the phantom 1900-02-29, so serials past 59 shift down by one day.
func excelSerialToDate(serial float64) *time.Time {
	if serial <= 0 || serial > 2958465 { // 9999-12-31
		return nil
	}
	days := int(serial)
	if days > 59 {
		days--
	}
	frac := serial - float64(int(serial))
	base := time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)
	t := base.AddDate(0, 0, days).Add(time.Duration(frac * 24 * float64(time.Hour)))
	return &t
}

var numericSentinels = map[string]bool{
	"":    true,
	"-":   true,
	"yes": true,
	"no":  true,
	"n/a": true,
	"na":  true,
}

// parseNumeric strips separators and currency symbols before parsing.
// Export artifacts like "Yes", "N/A" or a bare dash mean no value.
func parseNumeric(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if numericSentinels[strings.ToLower(s)] {
		return nil
	}
	for _, sym := range []string{",", " ", "$", "€", "£", "¥", "₩"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
