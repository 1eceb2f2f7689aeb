// Package journal appends confirmed orders to the orders table. It is an
// audit log; conversation state never depends on it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/taxibot/core/logger"
	"github.com/m3rciful/taxibot/internal/order"
)

// Entry is one row of the orders table.
type Entry struct {
	ID          uuid.UUID `db:"id"`
	ChatID      int64     `db:"chat_id"`
	Origin      string    `db:"origin"`
	Destination string    `db:"destination"`
	District    string    `db:"district"`
	Tier        string    `db:"tier"`
	PriceKop    int64     `db:"price_kop"`
	DriverID    string    `db:"driver_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// NewEntry builds the row for a matched order.
func NewEntry(chatID int64, done order.Terminal, at time.Time) Entry {
	return Entry{
		ID:          uuid.New(),
		ChatID:      chatID,
		Origin:      done.Trip.Origin.String(),
		Destination: done.Trip.Destination.String(),
		District:    done.Trip.District,
		Tier:        done.Tier.String(),
		PriceKop:    int64(done.Price),
		DriverID:    done.Driver.ID,
		CreatedAt:   at.UTC(),
	}
}

// Journal records confirmed orders.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	Total(ctx context.Context) (int64, error)
}

// DB is the subset of *sqlx.DB the journal needs.
type DB interface {
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

const (
	insertOrder = `INSERT INTO orders (id, chat_id, origin, destination, district, tier, price_kop, driver_id, created_at)
VALUES (:id, :chat_id, :origin, :destination, :district, :tier, :price_kop, :driver_id, :created_at)`
	countOrders = `SELECT COUNT(*) FROM orders`
)

// Postgres writes to the orders table.
type Postgres struct {
	db DB
}

// NewPostgres returns a journal backed by db.
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

// Record inserts e.
func (p *Postgres) Record(ctx context.Context, e Entry) error {
	start := time.Now()
	_, err := p.db.NamedExecContext(ctx, insertOrder, e)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("order_id", e.ID.String()),
		slog.String("district", e.District),
		slog.String("tier", e.Tier),
		slog.Int64("price", e.PriceKop),
		slog.String("driver_id", e.DriverID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		logger.LogEvent(ctx, logger.Journal, slog.LevelError, "journal.insert",
			append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))...)
		return fmt.Errorf("journal insert: %w", err)
	}
	logger.LogEvent(ctx, logger.Journal, slog.LevelInfo, "journal.insert", attrs...)
	return nil
}

// Total counts journaled orders.
func (p *Postgres) Total(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.GetContext(ctx, &n, countOrders); err != nil {
		return 0, fmt.Errorf("journal count: %w", err)
	}
	return n, nil
}

// Nop drops every entry. It is used when the database is disabled.
type Nop struct{}

// Record does nothing.
func (Nop) Record(context.Context, Entry) error { return nil }

// Total is always zero.
func (Nop) Total(context.Context) (int64, error) { return 0, nil }
