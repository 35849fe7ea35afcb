// Package excel converts records to and from xlsx workbooks using the
// spreadsheet metadata of an entity table.
package excel

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"crudkit/pkg/entity"
)

// CellError reports a cell that could not be parsed on import.
type CellError struct {
	Row    int
	Header string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d, column %q: %v", e.Row, e.Header, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// Write renders records as a single-sheet workbook to w. The header row holds
// the display names of the exported columns; absent values are replaced by
// the column default. Nothing is written when records is empty.
func Write[E any](w io.Writer, table *entity.Table[E], records []*E) error {
	if len(records) == 0 {
		return nil
	}
	f, err := build(table, records)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

// WriteFile is Write to the file at path, creating parent directories. No
// file is created when records is empty.
func WriteFile[E any](path string, table *entity.Table[E], records []*E) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := build(table, records)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.SaveAs(path)
}

func build[E any](table *entity.Table[E], records []*E) (*excelize.File, error) {
	var columns []entity.Column[E]
	for _, c := range table.Columns() {
		if c.Exported {
			columns = append(columns, c)
		}
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, record := range records {
		row := make([]any, len(columns))
		for j, c := range columns {
			text, ok := c.Format(record)
			if !ok {
				text = c.Default
			}
			row[j] = text
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Read parses the first sheet of the workbook in r. The first row is the
// header; every following non-empty row becomes one record. Importable
// columns are looked up by display name and blank cells are skipped.
func Read[E any](r io.Reader, table *entity.Table[E]) ([]*E, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []*E{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*E{}, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}

	records := make([]*E, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		record := table.New()
		for _, c := range table.Columns() {
			if !c.Imported {
				continue
			}
			at, ok := index[c.Header]
			if !ok || at >= len(row) || strings.TrimSpace(row[at]) == "" {
				continue
			}
			if err := c.Parse(record, row[at]); err != nil {
				return nil, &CellError{Row: i + 2, Header: c.Header, Err: err}
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
