package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the fullform banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Using a subtle gradient-like color scheme (Teal/Cyan)
	lines := []struct{ text, color string }{
		{"   __       _ _  __                     ", "#2dd4bf"},
		{"  / _|_   _| | |/ _| ___  _ __ _ __ ___ ", "#22d3ee"},
		{" | |_| | | | | | |_ / _ \\| '__| '_ ` _ \\", "#38bdf8"},
		{" |  _| |_| | | |  _| (_) | |  | | | | | |", "#60a5fa"},
		{" |_|  \\__,_|_|_|_|  \\___/|_|  |_| |_| |_|", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
