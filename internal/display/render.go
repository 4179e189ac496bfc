package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/agent-platform/tools/tzcompare/internal/gradient"
	"github.com/agent-platform/tools/tzcompare/internal/settings"
)

const (
	clearScreen = "\033[2J"
	cursorHome  = "\033[H"
	homeMarker  = "⌂"
)

// Frame is everything drawn in one refresh.
type Frame struct {
	Rows     []Row
	At       time.Time
	Manual   bool
	Settings settings.Settings
	// Interactive clears the screen, ends lines with \r\n for raw mode and
	// shows the key help.
	Interactive bool
}

// Render writes f to w. Each row is painted with its gradient background.
func Render(w io.Writer, f Frame) {
	nl := "\n"
	if f.Interactive {
		nl = "\r\n"
		fmt.Fprint(w, clearScreen+cursorHome)
	}

	header := headerColor(f.Settings.Theme)
	mode := "live"
	if f.Manual {
		mode = "manual"
	}
	fmt.Fprintf(w, "%s %s%s", header.Sprint(" Time Zones "),
		color.New(color.Faint).Sprintf("(UTC %s, %s)", f.At.UTC().Format("2006-01-02 15:04"), mode), nl)

	nameWidth := 4
	for _, row := range f.Rows {
		nameWidth = max(nameWidth, runewidth.StringWidth(row.Name))
	}
	ruleWidth := nameWidth + 48
	fmt.Fprint(w, strings.Repeat("─", ruleWidth)+nl)

	for _, row := range f.Rows {
		fmt.Fprint(w, paint(row, formatRow(row, nameWidth))+nl)
		if len(row.SecondaryLabels) > 0 {
			indent := strings.Repeat(" ", nameWidth+4)
			fmt.Fprint(w, color.New(color.Faint).Sprint(indent+strings.Join(row.SecondaryLabels, " · "))+nl)
		}
	}

	fmt.Fprint(w, strings.Repeat("─", ruleWidth)+nl)
	if f.Interactive {
		fmt.Fprint(w, color.New(color.Faint).Sprint("↑/k +1h  ↓/j -1h  r live  s seconds  t 12/24h  q quit")+nl)
	}
}

// formatRow lays out the columns of one row.
func formatRow(row Row, nameWidth int) string {
	marker := " "
	if row.IsHome {
		marker = homeMarker
	}
	abbr := row.Abbreviation
	return fmt.Sprintf(" %s %s  %-11s  %-11s  %-5s  %-9s  %6s ",
		marker,
		runewidth.FillRight(row.Name, nameWidth),
		row.Time,
		row.Date,
		abbr,
		row.Offset,
		row.Relative,
	)
}

// paint applies the row's background and contrast foreground.
func paint(row Row, text string) string {
	bg, err := gradient.ParseHex(row.Background)
	if err != nil {
		return text
	}
	fg, err := gradient.ParseHex(row.Foreground)
	if err != nil {
		fg = gradient.Foreground(bg)
	}
	c := color.RGB(int(fg.R), int(fg.G), int(fg.B)).AddBgRGB(int(bg.R), int(bg.G), int(bg.B))
	return c.Sprint(text)
}

func headerColor(theme settings.Theme) *color.Color {
	switch theme {
	case settings.ThemeLight:
		return color.New(color.Bold, color.FgBlack, color.BgWhite)
	case settings.ThemeDark:
		return color.New(color.Bold, color.FgHiWhite, color.BgBlack)
	default:
		return color.New(color.Bold, color.FgCyan)
	}
}
