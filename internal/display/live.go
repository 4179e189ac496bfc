package display

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/agent-platform/tools/tzcompare/internal/clock"
	"github.com/agent-platform/tools/tzcompare/internal/locations"
	"github.com/agent-platform/tools/tzcompare/internal/settings"
)

// View is the live terminal view. Its clock driver feeds the store, and the
// screen is redrawn on every tick and every store change.
type View struct {
	store       *locations.Store
	driver      *clock.Driver
	out         io.Writer
	in          *os.File
	interactive bool
	redraw      chan struct{}
}

// NewView builds a view of st writing to out. Keys are read from in when it
// is a terminal; in may be nil.
func NewView(st *locations.Store, out io.Writer, in *os.File) *View {
	v := &View{
		store:  st,
		out:    out,
		in:     in,
		redraw: make(chan struct{}, 1),
	}
	v.driver = clock.NewDriver(v.tick, clock.WithShowSeconds(st.Settings().ShowSeconds))
	return v
}

// Driver returns the clock driver, e.g. to start in manual mode.
func (v *View) Driver() *clock.Driver {
	return v.driver
}

// Run draws until ctx is cancelled or the user quits.
func (v *View) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := v.store.Subscribe(func(snap locations.Snapshot) {
		v.driver.SetShowSeconds(snap.Settings.ShowSeconds)
		v.poke()
	})
	defer unsubscribe()

	var keys <-chan Key
	if v.in != nil && term.IsTerminal(int(v.in.Fd())) {
		fd := int(v.in.Fd())
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer term.Restore(fd, state)
		v.interactive = true
		keys = readKeys(ctx, v.in)
	}

	go v.driver.Run(ctx)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-v.redraw:
			v.draw()
		case k, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if v.handle(k) {
				break loop
			}
		}
	}

	if v.interactive {
		fmt.Fprint(v.out, clearScreen+cursorHome)
	}
	return nil
}

// handle applies one key and reports whether to quit.
func (v *View) handle(k Key) bool {
	switch k {
	case KeyUp:
		v.driver.StepHour(1, v.homeLocation())
	case KeyDown:
		v.driver.StepHour(-1, v.homeLocation())
	case KeyReset:
		v.driver.Reset()
	case KeyToggleSeconds:
		show := !v.store.Settings().ShowSeconds
		_, _ = v.store.UpdateSettings(settings.Patch{ShowSeconds: &show})
	case KeyToggle24Hour:
		use24 := !v.store.Settings().Use24HourFormat
		_, _ = v.store.UpdateSettings(settings.Patch{Use24HourFormat: &use24})
	case KeyQuit:
		return true
	}
	return false
}

func (v *View) homeLocation() *time.Location {
	home, ok := v.store.Home()
	if !ok {
		return nil
	}
	return v.store.Resolver().LocationOrLocal(home.Label)
}

func (v *View) tick(t time.Time) {
	v.store.SetCurrentTime(t)
	v.poke()
}

func (v *View) poke() {
	select {
	case v.redraw <- struct{}{}:
	default:
	}
}

func (v *View) draw() {
	f := FrameOf(v.store, v.driver.Now(), v.driver.Manual())
	f.Interactive = v.interactive
	Render(v.out, f)
}

// readKeys forwards decoded keys until r fails or ctx is done. A Read in
// progress when ctx ends returns with the next key press.
func readKeys(ctx context.Context, r io.Reader) <-chan Key {
	ch := make(chan Key)
	go func() {
		defer close(ch)
		buf := make([]byte, 16)
		for {
			n, err := r.Read(buf)
			for _, k := range parseKeys(buf[:n]) {
				select {
				case ch <- k:
				case <-ctx.Done():
					return
				}
			}
			if err != nil || ctx.Err() != nil {
				return
			}
		}
	}()
	return ch
}
