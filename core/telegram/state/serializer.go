package state

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/m3rciful/taxibot/core/logger"
)

// ErrSerializerClosed is returned by Submit after Close.
var ErrSerializerClosed = errors.New("state: serializer closed")

// Serializer runs submitted work one item at a time per chat, in submission
// order. Different chats run concurrently. A chat's worker goroutine exits
// once its queue drains and is started again on the next submit.
type Serializer struct {
	mu     sync.Mutex
	queues map[int64][]func(context.Context)
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSerializer creates a Serializer whose work receives a context that is
// cancelled by Close.
func NewSerializer() *Serializer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Serializer{
		queues: make(map[int64][]func(context.Context)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit queues fn for the chat and returns without waiting for it.
func (s *Serializer) Submit(chatID int64, fn func(context.Context)) error {
	if fn == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSerializerClosed
	}
	q, running := s.queues[chatID]
	s.queues[chatID] = append(q, fn)
	if !running {
		s.wg.Add(1)
		go s.drain(chatID)
	}
	return nil
}

func (s *Serializer) drain(chatID int64) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		q := s.queues[chatID]
		if len(q) == 0 {
			delete(s.queues, chatID)
			s.mu.Unlock()
			return
		}
		fn := q[0]
		s.queues[chatID] = q[1:]
		s.mu.Unlock()

		s.run(chatID, fn)
	}
}

// run keeps a panicking item from killing the process; the chat's later
// items still run.
func (s *Serializer) run(chatID int64, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(s.ctx, "tg", "tg.panic",
				slog.Int64("chat_id", chatID),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn(s.ctx)
}

// Pending reports whether the chat has queued or running work.
func (s *Serializer) Pending(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.queues[chatID]
	return ok
}

// Active reports how many chats currently have queued or running work.
func (s *Serializer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}

// Close rejects new work, cancels the context handed to running work and
// waits for every worker to finish its queue.
func (s *Serializer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
