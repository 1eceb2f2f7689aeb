// Package bot connects the order conversation to Telegram: per-chat sessions,
// delivery of replies and the command and text handlers.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/m3rciful/taxibot/core/logger"
	"github.com/m3rciful/taxibot/core/telegram/state"
	"github.com/m3rciful/taxibot/internal/journal"
	"github.com/m3rciful/taxibot/internal/order"
)

// ErrNoSession is returned by Handle for a chat without an active order.
var ErrNoSession = errors.New("bot: no active order")

// Transport delivers replies to a chat.
type Transport interface {
	Deliver(ctx context.Context, chatID int64, r order.Reply) error
}

// TransportError wraps a failed delivery.
type TransportError struct {
	ChatID int64
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("deliver to chat %d: %v", e.ChatID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Code is used for the err_code log attribute.
func (e *TransportError) Code() string { return "transport" }

// Conversation owns the per-chat order sessions. Calls for one chat must not
// overlap; the Telegram adapter guarantees that with a per-chat serializer.
type Conversation struct {
	machine   *order.Machine
	store     state.Store[order.State]
	journal   journal.Journal
	now       func() time.Time
	confirmed atomic.Uint64
}

// NewConversation wires a conversation. A nil store gets an in-memory one
// and a nil journal drops confirmed orders.
func NewConversation(m *order.Machine, store state.Store[order.State], j journal.Journal) *Conversation {
	if store == nil {
		store = state.NewMemoryStore[order.State](nil)
	}
	if j == nil {
		j = journal.Nop{}
	}
	return &Conversation{machine: m, store: store, journal: j, now: time.Now}
}

// Start begins a new order for the chat, replacing any session in progress.
func (c *Conversation) Start(ctx context.Context, chatID int64, tr Transport) error {
	out := c.machine.Start()
	if err := deliver(ctx, chatID, tr, out.Replies); err != nil {
		return err
	}
	c.store.Put(chatID, out.Next)
	logger.LogEvent(ctx, logger.Order, slog.LevelInfo, "order.start",
		slog.String("status", "ok"),
		slog.String("next_step", string(out.Next.Step())),
	)
	return nil
}

// Handle feeds one inbound text to the chat's session. The new state is
// stored only after every reply was delivered; on any error the session keeps
// its previous state so the user can resend.
func (c *Conversation) Handle(ctx context.Context, chatID int64, text string, tr Transport) error {
	st, ok := c.store.Get(chatID)
	if !ok {
		return ErrNoSession
	}

	start := time.Now()
	out, err := c.machine.Handle(ctx, st, text)
	if err == nil {
		err = deliver(ctx, chatID, tr, out.Replies)
	}
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("step", string(st.Step())),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		logger.LogEvent(ctx, logger.Order, slog.LevelWarn, "order.step",
			append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))...)
		return err
	}
	logger.LogEvent(ctx, logger.Order, slog.LevelInfo, "order.step",
		append(attrs,
			slog.String("next_step", string(out.Next.Step())),
			slog.Int("messages", len(out.Replies)),
		)...)

	if done, ok := out.Next.(order.Terminal); ok {
		c.store.Clear(chatID)
		c.finish(ctx, chatID, done)
		return nil
	}
	c.store.Put(chatID, out.Next)
	return nil
}

func (c *Conversation) finish(ctx context.Context, chatID int64, done order.Terminal) {
	c.confirmed.Add(1)
	entry := journal.NewEntry(chatID, done, c.now())
	logger.LogEvent(ctx, logger.Order, slog.LevelInfo, "order.confirmed",
		slog.String("order_id", entry.ID.String()),
		slog.String("district", done.Trip.District),
		slog.String("tier", done.Tier.String()),
		slog.String("price", done.Price.String()),
		slog.String("driver_id", done.Driver.ID),
	)
	// The driver is already announced; a journal failure is only logged.
	_ = c.journal.Record(ctx, entry)
}

// Cancel abandons the chat's order. It reports whether one was in progress.
func (c *Conversation) Cancel(ctx context.Context, chatID int64) bool {
	_, ok := c.store.Get(chatID)
	c.store.Clear(chatID)
	if ok {
		logger.LogEvent(ctx, logger.Order, slog.LevelInfo, "order.cancel", slog.String("status", "ok"))
	}
	return ok
}

// InProgress reports whether the chat has an active order.
func (c *Conversation) InProgress(chatID int64) bool {
	_, ok := c.store.Get(chatID)
	return ok
}

// Sessions reports the number of active orders.
func (c *Conversation) Sessions() int {
	return c.store.Len()
}

// Confirmed reports how many orders were matched since start.
func (c *Conversation) Confirmed() uint64 {
	return c.confirmed.Load()
}

// Sweep drops sessions idle for longer than ttl. Chats for which busy
// reports true are mid-step and kept.
func (c *Conversation) Sweep(ctx context.Context, ttl time.Duration, busy func(chatID int64) bool) int {
	n := c.store.Sweep(ttl, busy)
	if n > 0 {
		logger.LogEvent(ctx, logger.Order, slog.LevelInfo, "order.sweep",
			slog.Int("sessions", n),
		)
	}
	return n
}

// deliver sends replies in order, waiting out each reply's pause first.
func deliver(ctx context.Context, chatID int64, tr Transport, replies []order.Reply) error {
	for _, r := range replies {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Pause > 0 {
			timer := time.NewTimer(r.Pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := tr.Deliver(ctx, chatID, r); err != nil {
			var te *TransportError
			if !errors.As(err, &te) {
				err = &TransportError{ChatID: chatID, Err: err}
			}
			return err
		}
	}
	return nil
}
