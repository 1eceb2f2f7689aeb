package middleware

import (
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the parts of tele.Context the middlewares touch.
type fakeContext struct {
	tele.Context
	user  *tele.User
	chat  *tele.Chat
	upd   tele.Update
	store map[string]any
	sent  []any
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{
		user:  &tele.User{ID: userID},
		chat:  &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		upd:   tele.Update{ID: 1, Message: &tele.Message{Text: "hi"}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Sender() *tele.User      { return f.user }
func (f *fakeContext) Chat() *tele.Chat        { return f.chat }
func (f *fakeContext) Update() tele.Update     { return f.upd }
func (f *fakeContext) Text() string            { return f.upd.Message.Text }
func (f *fakeContext) Get(key string) any      { return f.store[key] }
func (f *fakeContext) Set(key string, val any) { f.store[key] = val }
func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Unix(1000, 0)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Now:       func() time.Time { return now },
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	c := newFakeContext(7)
	_ = h(c)
	now = now.Add(500 * time.Millisecond)
	_ = h(c)
	_ = h(newFakeContext(8))
	now = now.Add(600 * time.Millisecond)
	_ = h(c)

	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if limited != 1 {
		t.Fatalf("limited = %d, want 1", limited)
	}
}

func TestRateLimitMiddlewareExclude(t *testing.T) {
	now := time.Unix(1000, 0)
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Minute,
		Exclude:  map[string]struct{}{"message": {}},
		Now:      func() time.Time { return now },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })
	c := newFakeContext(7)
	for i := 0; i < 3; i++ {
		_ = h(c)
	}
	if calls != 3 {
		t.Fatalf("excluded updates limited: calls = %d", calls)
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{
		AdminID:  42,
		OnReject: func(tele.Context) error { rejected++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	_ = h(newFakeContext(42))
	_ = h(newFakeContext(7))
	if calls != 1 || rejected != 1 {
		t.Fatalf("calls=%d rejected=%d, want 1/1", calls, rejected)
	}

	open := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { calls++; return nil })
	_ = open(newFakeContext(0))
	if calls != 1 {
		t.Fatal("unset admin id must reject everyone")
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newFakeContext(1))
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}

	want := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return want })
	if err := h(newFakeContext(1)); !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestLoggerMiddlewareAssignsRID(t *testing.T) {
	c := newFakeContext(5)
	var seen string
	h := LoggerMiddleware(func(c tele.Context) error {
		seen, _ = c.Get("rid").(string)
		return nil
	})
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	if seen != "1:5:5" {
		t.Fatalf("rid = %q, want 1:5:5", seen)
	}
}

func TestMessageMetricsMiddleware(t *testing.T) {
	c := newFakeContext(5)
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Send("one")
		return c.Send("two", &tele.ReplyMarkup{ResizeKeyboard: true})
	})
	if err := h(c); err != nil {
		t.Fatal(err)
	}
	msgs, kb := GetCounters(c)
	if msgs != 2 || !kb {
		t.Fatalf("counters = %d/%v, want 2/true", msgs, kb)
	}
	if len(c.sent) != 2 {
		t.Fatalf("sent = %d", len(c.sent))
	}
}
