package cli

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	colorGreen  = color.New(color.FgGreen)
	colorYellow = color.New(color.FgYellow)
	colorGray   = color.New(color.FgHiBlack)
)

const indent = "  "

// successf prints a success line.
func successf(msg string, v ...any) {
	fmt.Fprintf(color.Output, "%s%s %s\n", indent, colorGreen.Sprint("✔"), fmt.Sprintf(msg, v...))
}

// warnf prints something the user has to act on.
func warnf(msg string, v ...any) {
	fmt.Fprintf(color.Output, "%s%s %s\n", indent, colorYellow.Sprint("!"), fmt.Sprintf(msg, v...))
}

// detailf prints a secondary line.
func detailf(msg string, v ...any) {
	fmt.Fprintf(color.Output, "%s%s\n", indent, colorGray.Sprintf(msg, v...))
}
