// Package console prints the startup report shown before the frame loop.
package console

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"
)

const lineWidth = 46

// DisplayWidth is the number of terminal columns s occupies. Wide and
// fullwidth East Asian runes take two.
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func Banner(w io.Writer, name, version string) {
	title := fmt.Sprintf("%s  %s", name, version)
	pad := lineWidth - 4 - DisplayWidth(title)
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	fmt.Fprintln(w)
	fmt.Fprintf(w, "\033[36;1m  ┌%s┐\033[0m\n", strings.Repeat("─", lineWidth-4))
	fmt.Fprintf(w, "\033[36;1m  │\033[0m%s%s%s\033[36;1m│\033[0m\n",
		strings.Repeat(" ", left), title, strings.Repeat(" ", pad-left))
	fmt.Fprintf(w, "\033[36;1m  └%s┘\033[0m\n", strings.Repeat("─", lineWidth-4))
	fmt.Fprintln(w)
}

func Section(w io.Writer, title string) {
	lineLen := lineWidth - DisplayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Fprintf(w, "  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

// Stat prints label, a dotted leader and value right-aligned.
func Stat(w io.Writer, label string, value any) {
	v := fmt.Sprint(value)
	dotsLen := lineWidth - 4 - DisplayWidth(label) - DisplayWidth(v)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Fprintf(w, "  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), v)
}

func OK(w io.Writer, msg string) {
	fmt.Fprintf(w, "  \033[32m✓\033[0m %s\n", msg)
}

func Ready(w io.Writer, msg string) {
	fmt.Fprintf(w, "  \033[32m▶\033[0m %s\n", msg)
}

// Order prints the resolved controller order, one numbered line each.
func Order(w io.Writer, names []string, disabled map[string]bool) {
	for i, name := range names {
		mark := ""
		if disabled[name] {
			mark = " \033[90m(disabled)\033[0m"
		}
		fmt.Fprintf(w, "  %2d. %s%s\n", i+1, name, mark)
	}
}
