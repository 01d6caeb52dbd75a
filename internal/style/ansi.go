// Package style paints heatmap glyphs with ANSI SGR escapes.
package style

import (
	"github.com/fatih/color"
	"github.com/tartampluch/go-heatmap/internal/heatmap"
)

// ANSI paints each intensity with its terminal color.
// Colors are forced on: whether to use this styler at all is the caller's decision.
type ANSI struct {
	palette map[heatmap.Intensity]*color.Color
}

// NewANSI builds the palette: dim dots, green/yellow/red foregrounds, magenta background.
func NewANSI() *ANSI {
	palette := map[heatmap.Intensity]*color.Color{
		heatmap.L0: color.New(color.Faint),
		heatmap.L1: color.New(color.FgGreen),
		heatmap.L2: color.New(color.FgYellow),
		heatmap.L3: color.New(color.FgRed),
		heatmap.L4: color.New(color.BgMagenta),
	}
	for _, c := range palette {
		c.EnableColor()
	}
	return &ANSI{palette: palette}
}

// Paint returns the glyph wrapped in its SGR sequence. Empty cells stay bare.
func (a *ANSI) Paint(i heatmap.Intensity) string {
	c, ok := a.palette[i]
	if !ok {
		return i.Glyph()
	}
	return c.Sprint(i.Glyph())
}

// ErrorTag returns tag in red, for the error reporter.
func ErrorTag(tag string, enabled bool) string {
	if !enabled {
		return tag
	}
	c := color.New(color.FgRed)
	c.EnableColor()
	return c.Sprint(tag)
}
