// Package gradient maps an hour of the day to a background color on a
// night -> dawn -> day -> dusk -> night sweep and picks a readable
// foreground for it.
package gradient

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

// Hex encodes the color as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return c.Hex()
}

// luminance1000 is the luminance scaled by 1000 so threshold checks stay exact.
func (c RGB) luminance1000() int {
	return 299*int(c.R) + 587*int(c.G) + 114*int(c.B)
}

// ParseHex decodes "#rrggbb" or "rrggbb".
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("parse color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// keyframe anchors a color at an hour of the day.
type keyframe struct {
	Hour  float64
	Color RGB
}

// Black is returned for hours outside [0, 24].
var Black = RGB{}

var (
	darkText  = RGB{0x1f, 0x1f, 0x1f}
	lightText = RGB{0xff, 0xff, 0xff}
)

// keyframes covers every integer hour; 24 repeats 0 to close the cycle.
var keyframes = [...]keyframe{
	{0, RGB{0x16, 0x05, 0x3a}},
	{1, RGB{0x04, 0x0b, 0x1d}},
	{2, RGB{0x03, 0x0c, 0x1b}},
	{3, RGB{0x04, 0x0f, 0x21}},
	{4, RGB{0x08, 0x19, 0x30}},
	{5, RGB{0x1b, 0x47, 0x5b}},
	{6, RGB{0x47, 0x7a, 0x88}},
	{7, RGB{0x69, 0xaa, 0xb1}},
	{8, RGB{0x93, 0xc6, 0xbc}},
	{9, RGB{0xc1, 0xda, 0xbe}},
	{10, RGB{0xe9, 0xeb, 0xb5}},
	{11, RGB{0xf5, 0xeb, 0x9f}},
	{12, RGB{0xf9, 0xe8, 0x86}},
	{13, RGB{0xfe, 0xe5, 0x6d}},
	{14, RGB{0xfb, 0xcf, 0x63}},
	{15, RGB{0xf7, 0xb4, 0x5b}},
	{16, RGB{0xf2, 0x9b, 0x55}},
	{17, RGB{0xd3, 0x7d, 0x5c}},
	{18, RGB{0x9a, 0x62, 0x6a}},
	{19, RGB{0x6a, 0x42, 0x77}},
	{20, RGB{0x4d, 0x29, 0x71}},
	{21, RGB{0x2d, 0x18, 0x52}},
	{22, RGB{0x30, 0x17, 0x55}},
	{23, RGB{0x0c, 0x05, 0x2c}},
	{24, RGB{0x16, 0x05, 0x3a}},
}

// ColorForHour interpolates the background color for a fractional hour in
// [0, 24]. Callers clamp; anything outside the table yields Black.
func ColorForHour(hour float64) RGB {
	for i := 0; i < len(keyframes)-1; i++ {
		lo, hi := keyframes[i], keyframes[i+1]
		if hour >= lo.Hour && hour <= hi.Hour {
			ratio := (hour - lo.Hour) / (hi.Hour - lo.Hour)
			return RGB{
				R: channel(lo.Color.R, hi.Color.R, ratio),
				G: channel(lo.Color.G, hi.Color.G, ratio),
				B: channel(lo.Color.B, hi.Color.B, ratio),
			}
		}
	}
	return Black
}

func channel(start, end uint8, ratio float64) uint8 {
	return uint8(math.Round(float64(start) + (float64(end)-float64(start))*ratio))
}

// IsLight reports whether c is bright enough to need dark text.
// The cutoff is strict: luminance 155 is dark, 156 is light.
func IsLight(c RGB) bool {
	return c.luminance1000() > 155_000
}

// IsLightHex is IsLight for an encoded color. Malformed input is treated as dark.
func IsLightHex(s string) bool {
	c, err := ParseHex(s)
	if err != nil {
		return false
	}
	return IsLight(c)
}

// Foreground returns the text color to draw on bg.
func Foreground(bg RGB) RGB {
	if IsLight(bg) {
		return darkText
	}
	return lightText
}

// HourOf returns the fractional wall-clock hour of t in t's location.
func HourOf(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// ForTime is ColorForHour at t's wall-clock hour.
func ForTime(t time.Time) RGB {
	return ColorForHour(HourOf(t))
}
