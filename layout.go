package cms

import (
	"fmt"

	"github.com/kovidgoyal/cms/internal/engine"
)

// Layout is the arrangement of interleaved samples in a pixel buffer. The
// 16 bit layouts are also used by 10 and 12 bit transforms.
type Layout int

const (
	Rgb8 Layout = iota
	Rgba8
	Gray8
	GrayAlpha8
	Cmyk8
	Rgb16
	Rgba16
	Gray16
	GrayAlpha16
	Cmyk16
	RgbF32
	RgbaF32
	GrayF32
	GrayAlphaF32
	CmykF32
)

type layout_info struct {
	name      string
	color     int
	alpha     bool
	bit_depth int
}

var layouts = [...]layout_info{
	Rgb8: {"Rgb8", 3, false, 8}, Rgba8: {"Rgba8", 3, true, 8}, Gray8: {"Gray8", 1, false, 8},
	GrayAlpha8: {"GrayAlpha8", 1, true, 8}, Cmyk8: {"Cmyk8", 4, false, 8},
	Rgb16: {"Rgb16", 3, false, 16}, Rgba16: {"Rgba16", 3, true, 16}, Gray16: {"Gray16", 1, false, 16},
	GrayAlpha16: {"GrayAlpha16", 1, true, 16}, Cmyk16: {"Cmyk16", 4, false, 16},
	RgbF32: {"RgbF32", 3, false, 32}, RgbaF32: {"RgbaF32", 3, true, 32}, GrayF32: {"GrayF32", 1, false, 32},
	GrayAlphaF32: {"GrayAlphaF32", 1, true, 32}, CmykF32: {"CmykF32", 4, false, 32},
}

func (l Layout) valid() bool { return l >= 0 && int(l) < len(layouts) }

func (l Layout) info() layout_info {
	if !l.valid() {
		return layout_info{name: fmt.Sprintf("Layout(%d)", int(l))}
	}
	return layouts[l]
}

// Channels is the number of samples per pixel
func (l Layout) Channels() int {
	i := l.info()
	if i.alpha {
		return i.color + 1
	}
	return i.color
}

// ColorChannels is the number of samples per pixel excluding alpha
func (l Layout) ColorChannels() int { return l.info().color }
func (l Layout) HasAlpha() bool     { return l.info().alpha }
func (l Layout) String() string     { return l.info().name }

// BitDepth is 8, 16 or 32 (float)
func (l Layout) BitDepth() int { return l.info().bit_depth }
func (l Layout) IsFloat() bool { return l.info().bit_depth == 32 }

// AlphaIndex is the position of the alpha sample in a pixel or -1
func (l Layout) AlphaIndex() int {
	if l.HasAlpha() {
		return l.ColorChannels()
	}
	return -1
}

func (l Layout) format() engine.Format {
	return engine.Format{Channels: l.Channels(), ColorChannels: l.ColorChannels(), AlphaIndex: l.AlphaIndex()}
}
