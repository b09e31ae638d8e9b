package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WorkbookReader reads back workbooks produced by TrajectoryWriter
type WorkbookReader struct {
	f *excelize.File
}

// OpenWorkbook opens an exported workbook from disk
func OpenWorkbook(path string) (*WorkbookReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &WorkbookReader{f: f}, nil
}

// ReadWorkbook opens an exported workbook from a stream
func ReadWorkbook(r io.Reader) (*WorkbookReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	return &WorkbookReader{f: f}, nil
}

// Close releases the workbook
func (r *WorkbookReader) Close() error {
	return r.f.Close()
}

// Sheets lists the sheet names in workbook order
func (r *WorkbookReader) Sheets() []string {
	return r.f.GetSheetList()
}

// ModeSheets lists the trajectory sheets, skipping the summary
func (r *WorkbookReader) ModeSheets() []string {
	var out []string
	for _, s := range r.f.GetSheetList() {
		if s != SummarySheet {
			out = append(out, s)
		}
	}
	return out
}

// ReadSheet reads a sheet into header-keyed rows. Rows past the first blank
// row are ignored, so the summary's run metadata block is not returned.
func (r *WorkbookReader) ReadSheet(sheet string) (*SheetData, error) {
	rows, err := r.f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("sheet %s has no header row", sheet)
	}
	return processRows(sheet, rows), nil
}

// ReadMetadata returns the key/value block written below the summary table
func (r *WorkbookReader) ReadMetadata() (map[string]string, error) {
	rows, err := r.f.GetRows(SummarySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", SummarySheet, err)
	}

	meta := make(map[string]string)
	pastTable := false
	for _, row := range rows {
		if isBlank(row) {
			pastTable = true
			continue
		}
		if pastTable && len(row) >= 2 {
			meta[strings.TrimSpace(row[0])] = strings.TrimSpace(row[1])
		}
	}
	return meta, nil
}

// ReadTrajectories parses a mode sheet into one trajectory per player.
// Blank cells (rounds after a trial ended) are skipped.
func (r *WorkbookReader) ReadTrajectories(sheet string) ([]Trajectory, error) {
	data, err := r.ReadSheet(sheet)
	if err != nil {
		return nil, err
	}
	if len(data.Headers) == 0 || data.Headers[0] != "Round" {
		return nil, fmt.Errorf("sheet %s is not a trajectory sheet", sheet)
	}

	out := make([]Trajectory, len(data.Headers)-1)
	for i := range out {
		out[i].Player = data.Headers[i+1]
	}

	for _, row := range data.Rows {
		round, err := strconv.Atoi(row["Round"])
		if err != nil {
			return nil, fmt.Errorf("sheet %s: bad round %q: %w", sheet, row["Round"], err)
		}
		for i := range out {
			cell := row[out[i].Player]
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("sheet %s: bad balance %q: %w", sheet, cell, err)
			}
			out[i].Rounds = append(out[i].Rounds, round)
			out[i].Balances = append(out[i].Balances, v)
		}
	}
	return out, nil
}

// processRows converts raw string rows into SheetData, stopping at the first blank row
func processRows(sheet string, rows [][]string) *SheetData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	var dataRows []RawRowData
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			break
		}
		rowData := make(RawRowData)
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	return &SheetData{
		Name:    sheet,
		Headers: headers,
		Rows:    dataRows,
	}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
