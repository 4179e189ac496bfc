// Package clock drives the displayed instant and formats times for display.
package clock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidHour is returned when a manual hour is outside 0..23.
var ErrInvalidHour = errors.New("hour must be between 0 and 23")

// Interval returns the tick period: twice a second when seconds are shown.
func Interval(showSeconds bool) time.Duration {
	if showSeconds {
		return 500 * time.Millisecond
	}
	return time.Second
}

// Driver pushes the current instant to a sink on every tick. While the user
// has overridden the time (manual mode) ticks are skipped until Reset.
type Driver struct {
	source func() time.Time
	sink   func(time.Time)

	mu          sync.Mutex
	current     time.Time
	manual      bool
	showSeconds bool
	changed     chan struct{}
}

// Option configures a Driver.
type Option func(*Driver)

// WithSource replaces time.Now as the time source.
func WithSource(fn func() time.Time) Option {
	return func(d *Driver) { d.source = fn }
}

// WithShowSeconds sets the initial tick interval.
func WithShowSeconds(show bool) Option {
	return func(d *Driver) { d.showSeconds = show }
}

// NewDriver creates a Driver that reports instants to sink. sink may be nil.
func NewDriver(sink func(time.Time), opts ...Option) *Driver {
	d := &Driver{
		source:  time.Now,
		sink:    sink,
		changed: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run ticks until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	d.Tick()

	ticker := time.NewTicker(d.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.changed:
			ticker.Reset(d.interval())
		case <-ticker.C:
			d.Tick()
		}
	}
}

// Tick reads the time source and pushes it, unless in manual mode.
// It reports whether an instant was pushed.
func (d *Driver) Tick() bool {
	d.mu.Lock()
	if d.manual {
		d.mu.Unlock()
		return false
	}
	now := d.source()
	d.current = now
	d.mu.Unlock()

	d.emit(now)
	return true
}

// Now returns the instant currently displayed.
func (d *Driver) Now() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current.IsZero() {
		return d.source()
	}
	return d.current
}

// Manual reports whether the displayed time is a user override.
func (d *Driver) Manual() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.manual
}

// Adjust switches to manual mode showing t.
func (d *Driver) Adjust(t time.Time) {
	d.mu.Lock()
	d.manual = true
	d.current = t
	d.mu.Unlock()

	d.emit(t)
}

// SetHour moves the displayed time to the given wall-clock hour in loc,
// keeping date, minutes and seconds. A nil loc uses the displayed time's zone.
func (d *Driver) SetHour(hour int, loc *time.Location) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: got %d", ErrInvalidHour, hour)
	}
	base := d.Now()
	if loc != nil {
		base = base.In(loc)
	}
	d.Adjust(time.Date(base.Year(), base.Month(), base.Day(),
		hour, base.Minute(), base.Second(), base.Nanosecond(), base.Location()))
	return nil
}

// StepHour moves the displayed hour in loc by delta, wrapping within the
// same day. A nil loc uses the displayed time's zone.
func (d *Driver) StepHour(delta int, loc *time.Location) {
	cur := d.Now()
	if loc != nil {
		cur = cur.In(loc)
	}
	hour := ((cur.Hour()+delta)%24 + 24) % 24
	_ = d.SetHour(hour, loc)
}

// Reset leaves manual mode and pushes the live time.
func (d *Driver) Reset() {
	d.mu.Lock()
	d.manual = false
	d.mu.Unlock()

	d.Tick()
}

// SetShowSeconds changes the tick interval of a running driver.
func (d *Driver) SetShowSeconds(show bool) {
	d.mu.Lock()
	changed := d.showSeconds != show
	d.showSeconds = show
	d.mu.Unlock()

	if changed {
		select {
		case d.changed <- struct{}{}:
		default:
		}
	}
}

func (d *Driver) interval() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Interval(d.showSeconds)
}

func (d *Driver) emit(t time.Time) {
	if d.sink != nil {
		d.sink(t)
	}
}
