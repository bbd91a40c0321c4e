package renderer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Table is a header plus rows, written as one CSV file
type Table struct {
	Header []string
	Rows   [][]string
}

// Append adds a row
func (t *Table) Append(row ...string) {
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows
func (t Table) Len() int {
	return len(t.Rows)
}

// WriteCSV writes the table to w
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the table to path, creating parent directories
func WriteCSVFile(path string, t Table) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file '%s': %w", path, err)
	}
	defer f.Close()

	if err := t.WriteCSV(f); err != nil {
		return fmt.Errorf("failed to write csv file '%s': %w", path, err)
	}
	return f.Close()
}
