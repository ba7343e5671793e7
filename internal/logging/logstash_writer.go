package logging

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogstashWriter forwards newline-delimited log entries to a Logstash TCP input.
// Write never blocks on the network: entries are queued and a single goroutine
// owns the connection. When the queue is full or Logstash is unreachable,
// entries are dropped and counted.
type LogstashWriter struct {
	addr          string
	dialTimeout   time.Duration
	writeTimeout  time.Duration
	retryInterval time.Duration

	queue   chan []byte
	done    chan struct{}
	closeMu sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

type Option func(*LogstashWriter)

// WithDialTimeout overrides the TCP dial timeout. Defaults to 2 seconds.
func WithDialTimeout(d time.Duration) Option {
	return func(w *LogstashWriter) { w.dialTimeout = d }
}

// WithWriteTimeout overrides the TCP write timeout. Defaults to 1 second.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *LogstashWriter) { w.writeTimeout = d }
}

// WithRetryInterval sets how long to wait after a failed connect or write
// before dialing again. Defaults to 5 seconds.
func WithRetryInterval(d time.Duration) Option {
	return func(w *LogstashWriter) { w.retryInterval = d }
}

func WithQueueSize(n int) Option {
	return func(w *LogstashWriter) {
		if n > 0 {
			w.queue = make(chan []byte, n)
		}
	}
}

func NewLogstashWriter(addr string, opts ...Option) (*LogstashWriter, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("logstash: empty address")
	}

	w := &LogstashWriter{
		addr:          addr,
		dialTimeout:   2 * time.Second,
		writeTimeout:  time.Second,
		retryInterval: 5 * time.Second,
		queue:         make(chan []byte, 1024),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run()
	return w, nil
}

func (w *LogstashWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	w.closeMu.RLock()
	defer w.closeMu.RUnlock()
	if w.closed {
		return 0, io.ErrClosedPipe
	}

	entry := make([]byte, len(p), len(p)+1)
	copy(entry, p)
	if entry[len(entry)-1] != '\n' {
		entry = append(entry, '\n')
	}

	select {
	case w.queue <- entry:
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

// Sync is a no-op so the writer can back a zap core; delivery is best effort.
func (w *LogstashWriter) Sync() error {
	return nil
}

// Dropped reports how many entries were discarded.
func (w *LogstashWriter) Dropped() int64 {
	return w.dropped.Load()
}

// Close stops accepting entries, flushes what is queued while a connection is
// available and tears the connection down.
func (w *LogstashWriter) Close() error {
	w.closeMu.Lock()
	if w.closed {
		w.closeMu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	w.closeMu.Unlock()

	<-w.done
	return nil
}

func (w *LogstashWriter) run() {
	defer close(w.done)

	var (
		conn      net.Conn
		nextRetry time.Time
	)
	defer func() {
		if conn != nil {
			_ = conn.Close()
		}
	}()

	for entry := range w.queue {
		if conn == nil {
			if time.Now().Before(nextRetry) {
				w.dropped.Add(1)
				continue
			}
			c, err := net.DialTimeout("tcp", w.addr, w.dialTimeout)
			if err != nil {
				nextRetry = time.Now().Add(w.retryInterval)
				w.dropped.Add(1)
				continue
			}
			conn = c
		}

		if w.writeTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
		}
		if _, err := conn.Write(entry); err != nil {
			_ = conn.Close()
			conn = nil
			nextRetry = time.Now().Add(w.retryInterval)
			w.dropped.Add(1)
		}
	}
}
