package display

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/agent-platform/tools/tzcompare/internal/gradient"
	"github.com/agent-platform/tools/tzcompare/internal/locations"
	"github.com/agent-platform/tools/tzcompare/internal/settings"
	"github.com/agent-platform/tools/tzcompare/internal/store"
	"github.com/agent-platform/tools/tzcompare/internal/tz"
)

var noon = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = !enabled
	t.Cleanup(func() { color.NoColor = prev })
}

func sampleLocations() []locations.Location {
	return []locations.Location{
		{ID: "home", Name: "Current Location", Label: "UTC", IsCurrent: true},
		{ID: "tokyo", Name: "Tokyo", Label: "Asia/Tokyo", SecondaryLabels: []string{"Standup", "Retro"}},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleLocations(), tz.NewResolver(), noon, settings.Default())
	if len(rows) != 2 {
		t.Fatalf("Rows() returned %d rows, want 2", len(rows))
	}

	home, tokyo := rows[0], rows[1]
	checks := []struct {
		name, got, want string
	}{
		{"home time", home.Time, "12:00"},
		{"home date", home.Date, "Mon, 15 Jan"},
		{"home abbreviation", home.Abbreviation, "UTC"},
		{"home offset", home.Offset, "UTC+00:00"},
		{"home relative", home.Relative, "±0h"},
		{"home background", home.Background, "#f9e886"},
		{"home foreground", home.Foreground, "#1f1f1f"},
		{"tokyo time", tokyo.Time, "21:00"},
		{"tokyo zone", tokyo.Zone, "Asia/Tokyo"},
		{"tokyo abbreviation", tokyo.Abbreviation, "JST"},
		{"tokyo offset", tokyo.Offset, "UTC+09:00"},
		{"tokyo relative", tokyo.Relative, "+9h"},
		{"tokyo background", tokyo.Background, "#2d1852"},
		{"tokyo foreground", tokyo.Foreground, "#ffffff"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if !home.IsHome || tokyo.IsHome {
		t.Error("IsHome should be set only on the home row")
	}
	if tokyo.Hour != 21 {
		t.Errorf("tokyo hour = %v, want 21", tokyo.Hour)
	}
	if tokyo.RelativeHours != 9 {
		t.Errorf("tokyo relative hours = %v, want 9", tokyo.RelativeHours)
	}
	if strings.Join(tokyo.SecondaryLabels, ",") != "Standup,Retro" {
		t.Errorf("tokyo secondary labels = %v", tokyo.SecondaryLabels)
	}
}

func TestRowsRespectsSettings(t *testing.T) {
	s := settings.Settings{ShowSeconds: true, Use24HourFormat: false, ShowTimezoneAbbreviation: false, Theme: settings.ThemeDark}
	rows := Rows(sampleLocations(), tz.NewResolver(), noon.Add(5*time.Second), s)

	if rows[1].Time != "09:00:05 PM" {
		t.Errorf("Time = %q, want %q", rows[1].Time, "09:00:05 PM")
	}
	if rows[1].Abbreviation != "" {
		t.Errorf("Abbreviation = %q, want empty when disabled", rows[1].Abbreviation)
	}
}

func TestRowsRelativeToHome(t *testing.T) {
	locs := []locations.Location{
		{ID: "la", Name: "LA", Label: "Pacific Standard Time"},
		{ID: "home", Name: "Home", Label: "Asia/Tokyo", IsCurrent: true},
	}
	rows := Rows(locs, tz.NewResolver(), noon, settings.Default())
	if rows[0].Zone != "America/Los_Angeles" {
		t.Errorf("Zone = %q, want America/Los_Angeles", rows[0].Zone)
	}
	if rows[0].Relative != "-17h" {
		t.Errorf("Relative = %q, want -17h", rows[0].Relative)
	}
}

func TestRowsInvalidLabelFallsBack(t *testing.T) {
	locs := []locations.Location{{ID: "x", Name: "Nowhere", Label: "Mars/Olympus"}}
	rows := Rows(locs, tz.NewResolver(), noon, settings.Default())
	if rows[0].Zone != "Mars/Olympus" {
		t.Errorf("Zone = %q, want the label unchanged", rows[0].Zone)
	}
	if rows[0].Abbreviation != "" {
		t.Errorf("Abbreviation = %q, want empty for an invalid zone", rows[0].Abbreviation)
	}
	if want := noon.In(time.Local).Format("15:04"); rows[0].Time != want {
		t.Errorf("Time = %q, want local time %q", rows[0].Time, want)
	}
}

func TestRender_PlainOutput(t *testing.T) {
	withColor(t, false)

	var buf bytes.Buffer
	Render(&buf, Frame{
		Rows:     Rows(sampleLocations(), tz.NewResolver(), noon, settings.Default()),
		At:       noon,
		Settings: settings.Default(),
	})
	output := buf.String()

	for _, want := range []string{"Time Zones", "2024-01-15 12:00", "live", "Current Location", "Tokyo", "21:00", "JST", "+9h", "Standup · Retro", homeMarker} {
		if !strings.Contains(output, want) {
			t.Errorf("Render output missing %q, got:\n%s", want, output)
		}
	}
	if strings.Contains(output, clearScreen) || strings.Contains(output, "\r\n") {
		t.Error("non-interactive output should not clear the screen or use CRLF")
	}
	if strings.Contains(output, "q quit") {
		t.Error("non-interactive output should not show key help")
	}
}

func TestRender_Interactive(t *testing.T) {
	withColor(t, false)

	var buf bytes.Buffer
	Render(&buf, Frame{
		Rows:        Rows(sampleLocations(), tz.NewResolver(), noon, settings.Default()),
		At:          noon,
		Manual:      true,
		Interactive: true,
	})
	output := buf.String()

	if !strings.HasPrefix(output, clearScreen+cursorHome) {
		t.Error("interactive output should start by clearing the screen")
	}
	if !strings.Contains(output, "\r\n") {
		t.Error("interactive output should use CRLF line endings")
	}
	if !strings.Contains(output, "manual") || !strings.Contains(output, "q quit") {
		t.Errorf("interactive output missing mode or help, got:\n%s", output)
	}
}

func TestRender_PaintsGradient(t *testing.T) {
	withColor(t, true)

	var buf bytes.Buffer
	Render(&buf, Frame{
		Rows: Rows(sampleLocations(), tz.NewResolver(), noon, settings.Default()),
		At:   noon,
	})

	bg := gradient.ColorForHour(12)
	want := fmt.Sprintf("48;2;%d;%d;%d", bg.R, bg.G, bg.B)
	if !strings.Contains(buf.String(), want) {
		t.Errorf("Render output missing background sequence %q", want)
	}
	if !strings.Contains(buf.String(), "38;2;31;31;31") {
		t.Error("Render output missing dark foreground on a light background")
	}
}

func TestParseKeys(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Key
	}{
		{"arrows", "\x1b[A\x1b[B", []Key{KeyUp, KeyDown}},
		{"vi keys", "kj", []Key{KeyUp, KeyDown}},
		{"reset and toggles", "rst", []Key{KeyReset, KeyToggleSeconds, KeyToggle24Hour}},
		{"quit", "q", []Key{KeyQuit}},
		{"ctrl-c", "\x03", []Key{KeyQuit}},
		{"bare escape", "\x1b", []Key{KeyQuit}},
		{"other arrows ignored", "\x1b[C\x1b[D", nil},
		{"unknown ignored", "xyz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseKeys([]byte(tt.in))
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("parseKeys(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReadKeys(t *testing.T) {
	var got []Key
	for k := range readKeys(context.Background(), strings.NewReader("k\x1b[Bq")) {
		got = append(got, k)
	}
	want := []Key{KeyUp, KeyDown, KeyQuit}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("readKeys = %v, want %v", got, want)
	}
}

func TestReadKeysStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	keys := readKeys(ctx, strings.NewReader("kkkk"))
	if k := <-keys; k != KeyUp {
		t.Fatalf("first key = %v, want %v", k, KeyUp)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		for range keys {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("readKeys did not close its channel after cancel")
	}
}

func newTestStore(t *testing.T) *locations.Store {
	t.Helper()
	st, err := locations.Open(context.Background(), store.NewMemory(), locations.WithHomeZone("UTC"))
	if err != nil {
		t.Fatalf("locations.Open() error: %v", err)
	}
	return st
}

func TestViewHandleKeys(t *testing.T) {
	st := newTestStore(t)
	v := NewView(st, &bytes.Buffer{}, nil)

	if v.handle(KeyToggleSeconds) {
		t.Fatal("toggle should not quit")
	}
	if !st.Settings().ShowSeconds {
		t.Error("KeyToggleSeconds did not enable seconds")
	}
	v.handle(KeyToggle24Hour)
	if st.Settings().Use24HourFormat {
		t.Error("KeyToggle24Hour did not switch to 12-hour format")
	}

	before := v.Driver().Now().UTC().Hour()
	v.handle(KeyUp)
	if !v.Driver().Manual() {
		t.Fatal("KeyUp should switch to manual mode")
	}
	if got := v.Driver().Now().UTC().Hour(); got != (before+1)%24 {
		t.Errorf("hour after KeyUp = %d, want %d", got, (before+1)%24)
	}
	if !st.CurrentTime().Equal(v.Driver().Now()) {
		t.Error("manual time was not pushed to the store")
	}

	v.handle(KeyReset)
	if v.Driver().Manual() {
		t.Error("KeyReset should return to live time")
	}
	if !v.handle(KeyQuit) {
		t.Error("KeyQuit should quit")
	}
}

func TestViewRunDrawsUntilCancelled(t *testing.T) {
	withColor(t, false)
	st := newTestStore(t)

	var buf bytes.Buffer
	v := NewView(st, &buf, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := v.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !strings.Contains(buf.String(), "Current Location") {
		t.Errorf("Run output missing home row, got:\n%s", buf.String())
	}
}
