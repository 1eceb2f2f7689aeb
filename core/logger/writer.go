package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// writeReq is either a line to write or, when ack is set, a flush barrier.
type writeReq struct {
	line []byte
	ack  chan error
}

// asyncWriter moves sink I/O off the logging goroutine. Lines are written in
// order to every sink; the first sink error is sticky and returned by later calls.
type asyncWriter struct {
	reqs  chan writeReq
	done  chan struct{}
	once  sync.Once
	sinks []*bufio.Writer

	mu  sync.Mutex
	err error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		reqs: make(chan writeReq, 256),
		done: make(chan struct{}),
	}
	for _, wr := range writers {
		if wr != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(wr, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for req := range w.reqs {
		if req.ack != nil {
			req.ack <- w.flush()
			continue
		}
		for _, s := range w.sinks {
			if _, err := s.Write(req.line); err != nil {
				w.fail(err)
				break
			}
			if err := s.Flush(); err != nil {
				w.fail(err)
				break
			}
		}
	}
	w.fail(w.flush())
}

// Write copies p and queues it. It blocks only when the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.stickyErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.reqs <- writeReq{line: append([]byte(nil), p...)}
	return nil
}

// Flush waits until every line queued before the call has reached the sinks.
func (w *asyncWriter) Flush() error {
	if err := w.stickyErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.reqs <- writeReq{ack: ack}
	return <-ack
}

// Close drains the queue and stops the writer goroutine.
func (w *asyncWriter) Close() error {
	w.once.Do(func() { close(w.reqs) })
	<-w.done
	return w.stickyErr()
}

func (w *asyncWriter) flush() error {
	var errs []error
	for _, s := range w.sinks {
		errs = append(errs, s.Flush())
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) stickyErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) fail(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
