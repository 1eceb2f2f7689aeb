// Package roster holds the static list of drivers and picks one at random
// for a confirmed order.
package roster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/m3rciful/taxibot/core/logger"
	"github.com/m3rciful/taxibot/internal/refdata"
)

// Columns is the expected header of the driver table.
var Columns = []string{"color", "company", "model", "driverId"}

// ErrEmpty is returned by Pick when the roster has no drivers.
var ErrEmpty = errors.New("roster: no drivers available")

// Driver is one row of the driver table.
type Driver struct {
	Color   string
	Company string
	Model   string
	ID      string
}

// String renders the driver the way the match announcement shows it.
func (d Driver) String() string {
	return fmt.Sprintf("%s %s %s. %s", d.Color, d.Company, d.Model, d.ID)
}

// Roster is immutable after construction. Drivers are never reserved, so
// concurrent orders can be matched with the same driver.
type Roster struct {
	drivers []Driver
	intn    func(n int) int
}

// Option customises a Roster.
type Option func(*Roster)

// WithIntn replaces the random source. intn must return a value in [0, n).
func WithIntn(intn func(n int) int) Option {
	return func(r *Roster) {
		if intn != nil {
			r.intn = intn
		}
	}
}

// New builds a roster from drivers already in memory.
func New(drivers []Driver, opts ...Option) *Roster {
	r := &Roster{drivers: append([]Driver(nil), drivers...), intn: rand.IntN}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads the table at path.
func Load(path string, opts ...Option) (*Roster, error) {
	rows, err := refdata.ReadFile("roster", path, Columns)
	if err != nil {
		return nil, err
	}
	r := New(fromRows(rows), opts...)
	level := slog.LevelInfo
	if r.Len() == 0 {
		level = slog.LevelWarn
	}
	logger.LogEvent(context.Background(), logger.Roster, level, "roster.load",
		slog.String("status", "ok"),
		slog.String("path", path),
		slog.Int("rows", r.Len()),
	)
	return r, nil
}

// Parse reads the table from r.
func Parse(src io.Reader, opts ...Option) (*Roster, error) {
	rows, err := refdata.ReadTable("roster", src, Columns)
	if err != nil {
		return nil, err
	}
	return New(fromRows(rows), opts...), nil
}

func fromRows(rows [][]string) []Driver {
	drivers := make([]Driver, 0, len(rows))
	for _, row := range rows {
		drivers = append(drivers, Driver{Color: row[0], Company: row[1], Model: row[2], ID: row[3]})
	}
	return drivers
}

// Pick returns a uniformly random driver, or ErrEmpty.
func (r *Roster) Pick() (Driver, error) {
	if len(r.drivers) == 0 {
		return Driver{}, ErrEmpty
	}
	return r.drivers[r.intn(len(r.drivers))], nil
}

// Len reports the number of drivers.
func (r *Roster) Len() int {
	return len(r.drivers)
}

