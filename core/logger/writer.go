package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// queueWriter serialises log lines onto a single goroutine that fans them out
// to every sink. Writes never interleave and callers never wait on disk I/O
// unless the queue is full.
type queueWriter struct {
	lines   chan []byte
	flushes chan chan error
	stopped chan struct{}
	stop    sync.Once

	sinks []*bufio.Writer

	mu  sync.Mutex
	err error
}

func newQueueWriter(writers []io.Writer, bufSize int) *queueWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &queueWriter{
		lines:   make(chan []byte, 256),
		flushes: make(chan chan error),
		stopped: make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *queueWriter) run() {
	defer close(w.stopped)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.recordErr(w.flushSinks())
				return
			}
			for _, s := range w.sinks {
				if _, err := s.Write(line); err != nil {
					w.recordErr(err)
				}
			}
			// flush eagerly while idle so tail -f stays current
			if len(w.lines) == 0 {
				w.recordErr(w.flushSinks())
			}
		case ack := <-w.flushes:
			ack <- w.flushSinks()
		}
	}
}

// Write copies p onto the queue.
func (w *queueWriter) Write(p []byte) (int, error) {
	if err := w.firstErr(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	w.lines <- append([]byte(nil), p...)
	return len(p), nil
}

// Flush blocks until everything queued so far reached the sinks.
func (w *queueWriter) Flush() error {
	select {
	case <-w.stopped:
		return w.firstErr()
	default:
	}
	ack := make(chan error, 1)
	select {
	case w.flushes <- ack:
		return <-ack
	case <-w.stopped:
		return w.firstErr()
	}
}

// Close drains the queue and stops the writer goroutine.
func (w *queueWriter) Close() error {
	w.stop.Do(func() { close(w.lines) })
	<-w.stopped
	return w.firstErr()
}

func (w *queueWriter) flushSinks() error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *queueWriter) firstErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *queueWriter) recordErr(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.mu.Unlock()
}
