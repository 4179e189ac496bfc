package store

import (
	"context"
	"log"
	"sync"
	"time"
)

// AsyncWriter makes puts fire-and-forget: values are buffered per key and
// written by a background goroutine, so a burst of puts to one key costs a
// single write. Gets see buffered values. Close flushes.
type AsyncWriter struct {
	kv       KV
	interval time.Duration

	flushMu  sync.Mutex
	mu       sync.Mutex
	pending  map[string][]byte
	inflight map[string][]byte

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewAsyncWriter wraps kv, flushing buffered puts every interval.
func NewAsyncWriter(kv KV, interval time.Duration) *AsyncWriter {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	w := &AsyncWriter{
		kv:       kv,
		interval: interval,
		pending:  make(map[string][]byte),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Put buffers value for key. It never fails.
func (w *AsyncWriter) Put(_ context.Context, key string, value []byte) error {
	w.mu.Lock()
	w.pending[key] = append([]byte(nil), value...)
	w.mu.Unlock()
	return nil
}

// Get returns the newest value for key, buffered or stored.
func (w *AsyncWriter) Get(ctx context.Context, key string) ([]byte, error) {
	w.mu.Lock()
	if v, ok := w.pending[key]; ok {
		w.mu.Unlock()
		return append([]byte(nil), v...), nil
	}
	if v, ok := w.inflight[key]; ok {
		w.mu.Unlock()
		return append([]byte(nil), v...), nil
	}
	w.mu.Unlock()
	return w.kv.Get(ctx, key)
}

// Flush writes all buffered values now.
func (w *AsyncWriter) Flush() {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.pending
	w.pending = make(map[string][]byte)
	w.inflight = batch
	w.mu.Unlock()

	for key, value := range batch {
		if err := w.kv.Put(context.Background(), key, value); err != nil {
			log.Printf("ERROR: flush %q: %v", key, err)
		}
	}

	w.mu.Lock()
	w.inflight = nil
	w.mu.Unlock()
}

// Close flushes buffered values and closes the underlying store.
func (w *AsyncWriter) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stop)
		<-w.done
		err = w.kv.Close()
	})
	return err
}

// run flushes on every tick and once more on Close.
func (w *AsyncWriter) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			w.Flush()
			return
		case <-ticker.C:
			w.Flush()
		}
	}
}
