package heatmap

import (
	"github.com/tartampluch/go-heatmap/internal/config"
)

// Intensity is the bucket a day's count falls into.
type Intensity uint8

const (
	// Empty marks a padding cell. Bucket never returns it.
	Empty Intensity = iota
	L0
	L1
	L2
	L3
	L4
)

// Bucket maps a count to its intensity. It is total.
func Bucket(count uint32) Intensity {
	switch count {
	case 0:
		return L0
	case 1:
		return L1
	case 2:
		return L2
	case 3:
		return L3
	default:
		return L4
	}
}

// Glyph returns the single-cell character drawn for the intensity.
func (i Intensity) Glyph() string {
	switch i {
	case L0:
		return config.GlyphL0
	case L1:
		return config.GlyphL1
	case L2:
		return config.GlyphL2
	case L3:
		return config.GlyphL3
	case L4:
		return config.GlyphL4
	default:
		return config.GlyphEmpty
	}
}

// Styler turns an intensity into the printable text of a glyph.
// The result must occupy exactly one terminal column once escapes are stripped.
type Styler interface {
	Paint(Intensity) string
}

// PlainStyler emits bare glyphs.
type PlainStyler struct{}

// Paint returns the glyph without decoration.
func (PlainStyler) Paint(i Intensity) string {
	return i.Glyph()
}
