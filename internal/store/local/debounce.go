package local

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"cvforge/internal/errors"
)

// Saver writes one value under a key.
type Saver interface {
	Save(ctx context.Context, key string, v any) error
}

// Debouncer coalesces writes per key: only the last value scheduled within
// the delay is written.
type Debouncer struct {
	saver  Saver
	delay  time.Duration
	logger *errors.Logger

	// saveMu is held from taking a value to writing it, so writes for a key
	// land in the order they were taken. Acquired before mu.
	saveMu sync.Mutex

	mu      sync.Mutex
	pending map[string]any
	timers  map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
}

// NewDebouncer returns a Debouncer writing through saver after delay.
func NewDebouncer(saver Saver, delay time.Duration, logger *errors.Logger) *Debouncer {
	return &Debouncer{
		saver:   saver,
		delay:   delay,
		logger:  logger,
		pending: make(map[string]any),
		timers:  make(map[string]*time.Timer),
	}
}

// Schedule queues v to be written under key once no newer value arrives
// within the delay. Calls after Close are dropped.
func (d *Debouncer) Schedule(key string, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.pending[key] = v

	if t, ok := d.timers[key]; ok && t.Stop() {
		d.wg.Done()
	}

	d.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.fire(key, &t)
	})
	d.timers[key] = t
}

// fire runs on the timer goroutine. self is read under the lock because
// Schedule assigns it after AfterFunc returns.
func (d *Debouncer) fire(key string, self **time.Timer) {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	d.mu.Lock()
	if d.timers[key] == *self {
		delete(d.timers, key)
	}
	v, ok := d.pending[key]
	delete(d.pending, key)
	d.mu.Unlock()

	if !ok {
		return
	}
	if err := d.saver.Save(context.Background(), key, v); err != nil {
		d.logger.LogError(err, "Autosave failed", "key", key)
	}
}

// Pending returns the number of keys waiting to be written.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush writes every pending value now.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	d.mu.Lock()
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
	}
	pending := d.pending
	d.pending = make(map[string]any)
	d.mu.Unlock()

	keys := make([]string, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if err := d.saver.Save(ctx, k, pending[k]); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Close flushes pending writes and waits for in-flight ones.
func (d *Debouncer) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	err := d.Flush(ctx)
	d.wg.Wait()
	return err
}
