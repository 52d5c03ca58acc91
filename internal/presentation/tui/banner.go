// Package tui holds terminal decorations shared by the commands.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"     _                       _             ",
	"  __| |_ ___ _ __ _ _ ___| |__ _ _  _ ",
	" (_-<  _/ -_) '_ \\ '_/ -_) / _` | || |",
	" /__/\\__\\___| .__/_| \\___|_\\__,_|\\_, |",
	"            |_|                  |__/ ",
}

var bannerColors = []string{"#38bdf8", "#22d3ee", "#2dd4bf", "#34d399", "#4ade80"}

// PrintBanner writes the steprelay banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, out.String("  step-by-step execution relay "+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
