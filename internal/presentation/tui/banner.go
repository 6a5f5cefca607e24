package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`                  _`, "#34d399"},
	{` _ __   __ _ _ __| | ___ _   _`, "#2dd4bf"},
	{`| '_ \ / _' | '__| |/ _ \ | | |`, "#22d3ee"},
	{`| |_) | (_| | |  | |  __/ |_| |`, "#38bdf8"},
	{`| .__/ \__,_|_|  |_|\___|\__, |`, "#60a5fa"},
	{`|_|                      |___/`, "#818cf8"},
}

// PrintBanner writes the parley banner to w, colored when w supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, out.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
