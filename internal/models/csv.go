package models

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader is returned by [ReadCSV] when the input holds no header row.
var ErrNoHeader = errors.New("no header row")

// ReadCSV parses a headered CSV document into a [Table].
//
// Header names are kept as written apart from a leading byte order mark; callers normalise them.
// Ragged records are accepted: short records leave trailing columns empty, surplus fields are dropped.
// When a header name repeats, the first column with that name wins.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	positions := make([]int, 0, len(header))
	columns := make([]string, 0, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, name := range header {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		positions = append(positions, i)
		columns = append(columns, name)
	}

	table := NewTable(columns...)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		row := make(Row, len(columns))
		for j, pos := range positions {
			if pos < len(record) {
				row[columns[j]] = record[pos]
			} else {
				row[columns[j]] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// WriteCSV writes the table as a headered CSV document.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range t.Rows {
		if err := writer.Write(t.Record(i)); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}
