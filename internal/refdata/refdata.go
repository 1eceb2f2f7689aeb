// Package refdata reads the static CSV reference tables the bot loads at startup.
package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadError reports a reference table that could not be loaded. It is fatal:
// the bot does not start without its tables.
type LoadError struct {
	Table string
	Path  string
	Line  int
	Err   error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load %s", e.Table)
	if e.Path != "" {
		fmt.Fprintf(&b, " from %s", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Code is used for the err_code log attribute.
func (e *LoadError) Code() string { return e.Table + "_load" }

var (
	// ErrNoHeader is returned for an empty source.
	ErrNoHeader = errors.New("missing header row")
	// ErrHeaderMismatch is returned when the header names other columns.
	ErrHeaderMismatch = errors.New("unexpected header")
)

// ReadTable parses r as CSV with a header row of exactly len(columns)
// fields and returns the data rows with surrounding whitespace trimmed.
// Header names are matched case-insensitively; a UTF-8 BOM is tolerated.
func ReadTable(table string, r io.Reader, columns []string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(columns)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &LoadError{Table: table, Err: ErrNoHeader}
	}
	if err != nil {
		return nil, wrapCSV(table, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i, want := range columns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return nil, &LoadError{Table: table, Line: 1,
				Err: fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i+1, header[i], want)}
		}
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, wrapCSV(table, err)
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, rec)
	}
}

// ReadFile opens path and runs ReadTable on it.
func ReadFile(table, path string, columns []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Table: table, Path: path, Err: err}
	}
	defer f.Close()

	rows, err := ReadTable(table, f, columns)
	var le *LoadError
	if errors.As(err, &le) {
		le.Path = path
	}
	return rows, err
}

func wrapCSV(table string, err error) error {
	le := &LoadError{Table: table, Err: err}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		le.Line = pe.Line
	}
	return le
}
