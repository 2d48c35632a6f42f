package upload

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"SalesScope/api/constants"
)

// Workbook holds the raw grid of a parsed sales file. Headers is the first
// row as-is, Rows the remaining rows. Row widths may vary per source row.
type Workbook struct {
	Headers []string
	Rows    [][]string
}

// ParseWorkbook dispatches on the file extension and returns the first
// sheet (or the CSV body) as a string grid.
func ParseWorkbook(fileName string, data []byte) (*Workbook, error) {
	var grid [][]string
	var err error
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		grid, err = parseXLSXFile(data)
	case ".xls":
		grid, err = parseXLSFile(data)
	case ".csv":
		grid, err = parseCSVFile(data)
	default:
		return nil, fmt.Errorf("%s: %s", constants.ErrUnsupportedFileType, filepath.Ext(fileName))
	}
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf(constants.ErrWorkbookEmpty)
	}
	return &Workbook{Headers: grid[0], Rows: grid[1:]}, nil
}

// parseXLSXFile reads the first sheet of an XLSX workbook. GetCellValue is
// preferred over the GetRows value because it applies the cell number
// format, which matters for date columns.
func parseXLSXFile(data []byte) ([][]string, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer xl.Close()

	sheetName := xl.GetSheetName(0)
	rawRows, err := xl.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, len(rawRows))
	for i, rawRow := range rawRows {
		rows[i] = make([]string, len(rawRow))
		for j := range rawRow {
			colName, _ := excelize.ColumnNumberToName(j + 1)
			cellRef := fmt.Sprintf("%s%d", colName, i+1)
			cellValue, cellErr := xl.GetCellValue(sheetName, cellRef)
			if cellErr == nil && cellValue != "" {
				rows[i][j] = cellValue
			} else {
				rows[i][j] = rawRow[j]
			}
		}
	}
	return rows, nil
}

// parseXLSFile reads the first sheet of a legacy XLS workbook. The reader
// only works on files, so the bytes go through a temp file.
func parseXLSFile(data []byte) ([][]string, error) {
	tmpFile, err := os.CreateTemp("", "salesupload-*.xls")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err = tmpFile.Write(data); err != nil {
		return nil, err
	}
	tmpFile.Close()

	xlsBook, err := xls.OpenFile(tmpFile.Name())
	if err != nil {
		return nil, err
	}

	sheet, err := xlsBook.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("no sheets found")
	}

	rows := [][]string{}
	for _, xlsRow := range sheet.GetRows() {
		rowData := []string{}
		for _, col := range xlsRow.GetCols() {
			rowData = append(rowData, col.GetString())
		}
		rows = append(rows, rowData)
	}
	return rows, nil
}

func parseCSVFile(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r.ReadAll()
}
