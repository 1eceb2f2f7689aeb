package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/taxibot/core/logger"
	coretelegram "github.com/m3rciful/taxibot/core/telegram"
	"github.com/m3rciful/taxibot/core/telegram/commands"
	tghelpers "github.com/m3rciful/taxibot/core/telegram/helpers"
	"github.com/m3rciful/taxibot/core/telegram/router"
	"github.com/m3rciful/taxibot/core/telegram/state"
	appconfig "github.com/m3rciful/taxibot/internal/config"
	"github.com/m3rciful/taxibot/internal/journal"
	"github.com/m3rciful/taxibot/internal/order"
)

// Deps are the services the Telegram app is built from.
type Deps struct {
	Config       *appconfig.Config
	Conversation *Conversation
	Journal      journal.Journal
	Streets      int
	Drivers      int
	Districts    int
	// Close releases infrastructure (the database) on shutdown.
	Close func() error
}

// Stats is the admin snapshot shown by /stats.
type Stats struct {
	Sessions  int
	Workers   int
	Streets   int
	Drivers   int
	Districts int
	Confirmed uint64
	Journaled int64
}

// App is the Telegram face of the order conversation.
type App struct {
	deps   Deps
	serial *state.Serializer
	api    atomic.Pointer[TeleTransport]

	janitorStop context.CancelFunc
	janitorDone sync.WaitGroup
}

// NewApp validates deps.
func NewApp(deps Deps) (*App, error) {
	if deps.Config == nil || deps.Conversation == nil {
		return nil, fmt.Errorf("bot: config and conversation are required")
	}
	if deps.Journal == nil {
		deps.Journal = journal.Nop{}
	}
	return &App{deps: deps, serial: state.NewSerializer()}, nil
}

// SetSender installs the API replies are delivered through. RunTelegram
// supplies the bot itself on start.
func (a *App) SetSender(s Sender) {
	a.api.Store(&TeleTransport{API: s})
}

func (a *App) transport() Transport {
	if t := a.api.Load(); t != nil {
		return *t
	}
	return nil
}

// Registry lists the bot commands.
func (a *App) Registry() *coretelegram.Registry {
	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.onStart,
		Description: "Замовити таксі",
		Aliases:     []string{"order"},
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.onCancel,
		Description: "Скасувати замовлення",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.onHelp,
		Description: "Довідка",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.onStats,
		Description: "Статистика",
		AdminOnly:   true,
	})
	reg.SetTextFallback(a.onIdleText)
	return reg
}

// TelegramRunOptions assembles the runtime configuration.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.deps.Config.CoreConfig()
	reg := a.Registry()

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error { return tghelpers.SendText(c, textNotAdmin) },
	})
	routes = append(routes, router.TextRoutes(a, reg, router.TextOptions{})...)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(core, func(c tele.Context) error { return tghelpers.SendText(c, textBusy) }),
		Routes:      routes,
		Synchronous: true,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	if rt.Bot != nil {
		a.SetSender(rt.Bot)
	}
	ttl := a.deps.Config.Order.SessionTTL
	if ttl <= 0 {
		return nil
	}
	jctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.janitorStop = cancel
	a.janitorDone.Add(1)
	go func() {
		defer a.janitorDone.Done()
		a.runJanitor(jctx, ttl)
	}()
	return nil
}

func (a *App) runJanitor(ctx context.Context, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sweep(ctx, ttl)
		}
	}
}

// sweep leaves chats with queued or running work alone so a step in flight
// cannot bring a swept session back.
func (a *App) sweep(ctx context.Context, ttl time.Duration) int {
	return a.deps.Conversation.Sweep(ctx, ttl, a.serial.Pending)
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	if a.janitorStop != nil {
		a.janitorStop()
		a.janitorDone.Wait()
	}
	a.serial.Close()
	if a.deps.Close != nil {
		if err := a.deps.Close(); err != nil {
			logger.LogEvent(ctx, logger.DB, slog.LevelWarn, "db.close",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
	return nil
}

// InProgress reports whether text from the chat belongs to the order flow:
// either a session exists or work for the chat is still queued.
func (a *App) InProgress(chatID int64) bool {
	return a.serial.Pending(chatID) || a.deps.Conversation.InProgress(chatID)
}

// HandleText queues the text for the chat's worker.
func (a *App) HandleText(c tele.Context) error {
	text := c.Text()
	return a.submit(c, func(ctx context.Context, chatID int64, tr Transport) error {
		err := a.deps.Conversation.Handle(ctx, chatID, text, tr)
		if errors.Is(err, ErrNoSession) {
			return deliverText(ctx, chatID, tr, textNoOrder)
		}
		return err
	})
}

func (a *App) onStart(c tele.Context) error {
	return a.submit(c, a.deps.Conversation.Start)
}

func (a *App) onCancel(c tele.Context) error {
	return a.submit(c, func(ctx context.Context, chatID int64, tr Transport) error {
		text := textNoOrder
		if a.deps.Conversation.Cancel(ctx, chatID) {
			text = textCancelled
		}
		return deliverText(ctx, chatID, tr, text)
	})
}

func (a *App) onHelp(c tele.Context) error {
	return tghelpers.SendText(c, textHelp)
}

func (a *App) onIdleText(c tele.Context) error {
	return tghelpers.SendText(c, textNoOrder)
}

func (a *App) onStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return tghelpers.SendText(c, textStats(a.Stats(ctx)))
}

// Stats collects the /stats snapshot.
func (a *App) Stats(ctx context.Context) Stats {
	s := Stats{
		Sessions:  a.deps.Conversation.Sessions(),
		Workers:   a.serial.Active(),
		Streets:   a.deps.Streets,
		Drivers:   a.deps.Drivers,
		Districts: a.deps.Districts,
		Confirmed: a.deps.Conversation.Confirmed(),
	}
	n, err := a.deps.Journal.Total(ctx)
	if err != nil {
		logger.LogEvent(ctx, logger.Journal, slog.LevelWarn, "journal.count",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	s.Journaled = n
	return s
}

type chatWork func(ctx context.Context, chatID int64, tr Transport) error

// submit runs fn on the chat's worker. The poller is not blocked: the driver
// search pause of one chat only delays that chat. Failures are reported to
// the user with a generic notice.
func (a *App) submit(c tele.Context, fn chatWork) error {
	chatID := tghelpers.ChatID(c)
	lctx := tghelpers.BuildContext(c)
	tr := a.transport()
	if tr == nil {
		return fmt.Errorf("bot: sender not installed")
	}

	err := a.serial.Submit(chatID, func(sctx context.Context) {
		ctx, cancel := context.WithCancel(lctx)
		defer cancel()
		stop := context.AfterFunc(sctx, cancel)
		defer stop()

		if err := runChatWork(ctx, chatID, tr, fn); err != nil && ctx.Err() == nil {
			logger.LogEvent(ctx, logger.Order, slog.LevelError, "order.fail",
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			_ = tghelpers.SendText(c, textError)
		}
	})
	if errors.Is(err, state.ErrSerializerClosed) {
		return nil
	}
	return err
}

// runChatWork calls fn, turning a panic into an error. Chat work runs on the
// chat's worker goroutine, outside the recover middleware of the poller.
func runChatWork(ctx context.Context, chatID int64, tr Transport, fn chatWork) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "tg", "tg.panic",
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("chat work panic: %v", r)
		}
	}()
	return fn(ctx, chatID, tr)
}

func deliverText(ctx context.Context, chatID int64, tr Transport, text string) error {
	return deliver(ctx, chatID, tr, []order.Reply{{Text: text, RemoveKeyboard: true}})
}
