// Package catalog resolves street names to districts from the static
// address table.
package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/m3rciful/taxibot/core/logger"
	"github.com/m3rciful/taxibot/internal/refdata"
)

// Columns is the expected header of the address table.
var Columns = []string{"district", "streetType", "streetName"}

// ErrNotFound is returned by FindDistrict for a street the catalog does not know.
var ErrNotFound = errors.New("catalog: street not found")

// Record is one row of the address table.
type Record struct {
	District   string
	StreetType string
	StreetName string
}

// Catalog is immutable after construction and safe for concurrent reads.
type Catalog struct {
	byStreet map[string]Record
	rows     int
}

// Load reads the table at path.
func Load(path string) (*Catalog, error) {
	rows, err := refdata.ReadFile("catalog", path, Columns)
	if err != nil {
		return nil, err
	}
	c := build(rows)
	logger.LogEvent(context.Background(), logger.Catalog, slog.LevelInfo, "catalog.load",
		slog.String("status", "ok"),
		slog.String("path", path),
		slog.Int("rows", c.rows),
	)
	return c, nil
}

// Parse reads the table from r.
func Parse(r io.Reader) (*Catalog, error) {
	rows, err := refdata.ReadTable("catalog", r, Columns)
	if err != nil {
		return nil, err
	}
	return build(rows), nil
}

// New builds a catalog from records already in memory.
func New(records ...Record) *Catalog {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.District, r.StreetType, r.StreetName})
	}
	return build(rows)
}

// build keeps the first row for a street name; later duplicates are ignored.
func build(rows [][]string) *Catalog {
	c := &Catalog{byStreet: make(map[string]Record, len(rows)), rows: len(rows)}
	for _, row := range rows {
		key := normalize(row[2])
		if key == "" {
			continue
		}
		if _, dup := c.byStreet[key]; dup {
			logger.LogEvent(context.Background(), logger.Catalog, slog.LevelDebug, "catalog.duplicate",
				slog.String("street", row[2]),
				slog.String("district", row[0]),
			)
			continue
		}
		c.byStreet[key] = Record{District: row[0], StreetType: row[1], StreetName: row[2]}
	}
	return c
}

func normalize(street string) string {
	return strings.ToLower(strings.TrimSpace(street))
}

// FindDistrict looks street up by name, ignoring case and surrounding spaces.
func (c *Catalog) FindDistrict(street string) (Record, error) {
	if rec, ok := c.byStreet[normalize(street)]; ok {
		return rec, nil
	}
	return Record{}, ErrNotFound
}

// Len reports the number of distinct streets.
func (c *Catalog) Len() int {
	return len(c.byStreet)
}
