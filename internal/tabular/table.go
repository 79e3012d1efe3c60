package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/worksheet-gen/backend/internal/models"
)

// Table is a loosely typed tabular dataset: a header row plus string
// cells. It is the wire shape for both score uploads and the reference
// bank; typed records are extracted from it downstream.
type Table struct {
	Columns []string
	Rows    [][]string
}

// FromCSV reads an entire CSV stream into a Table. The first record is
// the header. Ragged rows are padded or truncated to the header width
// so a sloppy export doesn't shift cells between columns.
func FromCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("csv input is empty")
	}

	header := make([]string, len(records[0]))
	for i, c := range records[0] {
		header[i] = strings.TrimSpace(c)
	}

	t := Table{Columns: header}
	for _, rec := range records[1:] {
		row := make([]string, len(header))
		for i := range header {
			if i < len(rec) {
				row[i] = strings.TrimSpace(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ColumnIndex returns the position of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumns reports whether every named column is present.
func (t Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if t.ColumnIndex(n) < 0 {
			return false
		}
	}
	return true
}

// MissingColumnError marks a table that lacks a column a consumer
// requires. The normalizer never raises it; consumers of canonical
// tables do.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// Records extracts typed score records from a canonical long table.
// The actual grade is batch-level and stamped onto every record.
func Records(t Table, actualGrade int) ([]models.ScoreRecord, error) {
	for _, col := range []string{ColStudentID, ColStudentName, ColSkill, ColScore} {
		if t.ColumnIndex(col) < 0 {
			return nil, &MissingColumnError{Column: col}
		}
	}

	idIdx := t.ColumnIndex(ColStudentID)
	nameIdx := t.ColumnIndex(ColStudentName)
	skillIdx := t.ColumnIndex(ColSkill)
	scoreIdx := t.ColumnIndex(ColScore)

	records := make([]models.ScoreRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		score, err := strconv.ParseFloat(row[scoreIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid score %q", i+1, row[scoreIdx])
		}
		records = append(records, models.ScoreRecord{
			StudentID:   row[idIdx],
			StudentName: row[nameIdx],
			Skill:       row[skillIdx],
			Score:       score,
			ActualGrade: actualGrade,
		})
	}
	return records, nil
}
