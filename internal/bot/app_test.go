package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/taxibot/core/config"
	"github.com/m3rciful/taxibot/core/telegram/state"
	appconfig "github.com/m3rciful/taxibot/internal/config"
	"github.com/m3rciful/taxibot/internal/order"
)

// fakeContext implements the parts of tele.Context the handlers touch.
type fakeContext struct {
	tele.Context
	chatID int64
	text   string
	store  map[string]any

	mu   sync.Mutex
	sent []any
}

func newFakeContext(chatID int64, text string) *fakeContext {
	return &fakeContext{chatID: chatID, text: text, store: map[string]any{}}
}

func (f *fakeContext) Chat() *tele.Chat    { return &tele.Chat{ID: f.chatID, Type: tele.ChatPrivate} }
func (f *fakeContext) Sender() *tele.User  { return &tele.User{ID: f.chatID} }
func (f *fakeContext) Update() tele.Update { return tele.Update{ID: 1} }
func (f *fakeContext) Text() string        { return f.text }
func (f *fakeContext) Get(key string) any  { return f.store[key] }
func (f *fakeContext) Set(key string, v any) {
	f.store[key] = v
}

func (f *fakeContext) Send(what any, _ ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, what)
	return nil
}

func (f *fakeContext) notices() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.sent...)
}

type sentMessage struct {
	to   string
	text string
	opts []interface{}
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []sentMessage
	err  error
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, sentMessage{to: to.Recipient(), text: what.(string), opts: opts})
	return &tele.Message{}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.msgs))
	for i, m := range f.msgs {
		out[i] = m.text
	}
	return out
}

func newTestApp(t *testing.T) (*App, *fakeSender) {
	t.Helper()
	cfg := &appconfig.Config{Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "x", AdminID: 99}}}
	app, err := NewApp(Deps{
		Config:       cfg,
		Conversation: newConversation(t, nil),
		Streets:      1,
		Drivers:      1,
		Districts:    9,
	})
	if err != nil {
		t.Fatal(err)
	}
	s := &fakeSender{}
	app.SetSender(s)
	t.Cleanup(app.serial.Close)
	return app, s
}

func waitIdle(t *testing.T, a *App) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for a.serial.Active() > 0 {
		if time.Now().After(deadline) {
			t.Fatal("chat workers did not drain")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAppStartAndText(t *testing.T) {
	app, sender := newTestApp(t)

	if err := app.onStart(newFakeContext(1, "/start")); err != nil {
		t.Fatal(err)
	}
	if !app.InProgress(1) {
		t.Fatal("chat with queued /start must count as in progress")
	}
	if err := app.HandleText(newFakeContext(1, "Шевченка")); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, app)

	got := sender.texts()
	if len(got) != 2 || got[0] != "Привіт! На якій вулиці ви знаходитесь?" || got[1] != "Введіть номер будинку 'Шевченка':" {
		t.Fatalf("sent = %v", got)
	}
	if sender.msgs[0].to != "1" {
		t.Fatalf("recipient = %q", sender.msgs[0].to)
	}
	if m, ok := sender.msgs[0].opts[0].(*tele.ReplyMarkup); !ok || !m.RemoveKeyboard {
		t.Fatalf("greeting markup = %#v", sender.msgs[0].opts)
	}
}

func TestAppTextWithoutOrder(t *testing.T) {
	app, sender := newTestApp(t)
	if app.InProgress(3) {
		t.Fatal("idle chat reported in progress")
	}
	if err := app.HandleText(newFakeContext(3, "привіт")); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, app)
	if got := sender.texts(); len(got) != 1 || got[0] != textNoOrder {
		t.Fatalf("sent = %v", got)
	}
}

func TestAppDeliveryFailureNotifiesUser(t *testing.T) {
	app, sender := newTestApp(t)
	sender.err = errors.New("telegram: Forbidden")
	c := newFakeContext(4, "/start")
	if err := app.onStart(c); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, app)
	notices := c.notices()
	if len(notices) != 1 || notices[0] != textError {
		t.Fatalf("notices = %v", notices)
	}
	if app.deps.Conversation.InProgress(4) {
		t.Fatal("session stored after failed greeting")
	}
}

type panickingSender struct{}

func (panickingSender) Send(tele.Recipient, interface{}, ...interface{}) (*tele.Message, error) {
	panic("send blew up")
}

func TestAppRecoversPanicInChatWork(t *testing.T) {
	app, sender := newTestApp(t)
	app.SetSender(panickingSender{})
	c := newFakeContext(8, "/start")
	if err := app.onStart(c); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, app)
	if notices := c.notices(); len(notices) != 1 || notices[0] != textError {
		t.Fatalf("notices = %v", notices)
	}
	if app.deps.Conversation.InProgress(8) {
		t.Fatal("session stored after a panicking send")
	}

	app.SetSender(sender)
	if err := app.onStart(newFakeContext(8, "/start")); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, app)
	if !app.deps.Conversation.InProgress(8) {
		t.Fatal("chat unusable after a recovered panic")
	}
}

func TestAppSweepSkipsChatsWithWork(t *testing.T) {
	app, _ := newTestApp(t)
	now := time.Unix(0, 0)
	store := state.NewMemoryStore[order.State](func() time.Time { return now })
	app.deps.Conversation = NewConversation(newMachine(t, -1), store, nil)

	_ = app.onStart(newFakeContext(9, "/start"))
	waitIdle(t, app)
	now = now.Add(time.Hour)

	release := make(chan struct{})
	_ = app.serial.Submit(9, func(context.Context) { <-release })
	if n := app.sweep(context.Background(), 30*time.Minute); n != 0 {
		t.Fatalf("swept %d sessions of a busy chat", n)
	}
	close(release)
	waitIdle(t, app)
	if n := app.sweep(context.Background(), 30*time.Minute); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
}

func TestAppCancel(t *testing.T) {
	app, sender := newTestApp(t)
	_ = app.onStart(newFakeContext(5, "/start"))
	_ = app.onCancel(newFakeContext(5, "/cancel"))
	_ = app.onCancel(newFakeContext(5, "/cancel"))
	waitIdle(t, app)

	got := sender.texts()
	if len(got) != 3 || got[1] != textCancelled || got[2] != textNoOrder {
		t.Fatalf("sent = %v", got)
	}
}

func TestAppStats(t *testing.T) {
	app, _ := newTestApp(t)
	_ = app.onStart(newFakeContext(6, "/start"))
	waitIdle(t, app)
	s := app.Stats(context.Background())
	if s.Sessions != 1 || s.Workers != 0 || s.Streets != 1 || s.Drivers != 1 || s.Districts != 9 || s.Confirmed != 0 {
		t.Fatalf("stats = %+v", s)
	}
	if text := textStats(s); !strings.Contains(text, "Районів у тарифі: 9") {
		t.Fatalf("stats text = %q", text)
	}
}

func TestTelegramRunOptions(t *testing.T) {
	app, _ := newTestApp(t)
	opts, err := app.TelegramRunOptions()
	if err != nil {
		t.Fatal(err)
	}
	if !opts.Synchronous {
		t.Fatal("handlers rely on synchronous dispatch for per-chat ordering")
	}
	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	for _, want := range []any{"/start", "/order", "/cancel", "/help", "/stats", tele.OnText} {
		if !endpoints[want] {
			t.Errorf("missing route %v", want)
		}
	}
	visible := opts.Registry.ListCommands(true)
	for _, cmd := range visible {
		if cmd.Text == "/stats" {
			t.Fatal("admin command published in menu")
		}
	}
}

func TestNewAppValidation(t *testing.T) {
	if _, err := NewApp(Deps{}); err == nil {
		t.Fatal("empty deps accepted")
	}
}
