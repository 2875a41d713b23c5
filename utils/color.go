package utils

import (
	"fmt"
	"os"
)

// Color is an ANSI foreground color code
type Color int

const (
	ColorNone     Color = 0
	ColorRed      Color = 31
	ColorGreen    Color = 32
	ColorYellow   Color = 33
	ColorCyan     Color = 36
	ColorDarkGray Color = 90
)

// Colorize wraps s in the escape sequence of c, NO_COLOR in the environment disables it
func Colorize(s interface{}, c Color, enabled bool) string {
	if !enabled || c == ColorNone || os.Getenv("NO_COLOR") != "" {
		return fmt.Sprint(s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}

// StatusColor picks the color of an HTTP status class
func StatusColor(status int) Color {
	switch {
	case status >= 500:
		return ColorRed
	case status >= 400:
		return ColorYellow
	case status >= 300:
		return ColorCyan
	case status >= 200:
		return ColorGreen
	}
	return ColorNone
}
