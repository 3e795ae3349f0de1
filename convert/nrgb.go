package convert

import (
	"fmt"
	"image"
	"image/color"
)

// NRGBColor is an opaque 8 bit RGB color
type NRGBColor struct {
	R, G, B uint8
}

func (c NRGBColor) String() string {
	return fmt.Sprintf("NRGBColor{%02X %02X %02X}", c.R, c.G, c.B)
}

func (c NRGBColor) RGBA() (r, g, b, a uint32) {
	r, g, b = uint32(c.R), uint32(c.G), uint32(c.B)
	return r | r<<8, g | g<<8, b | b<<8, 0xffff
}

func nrgb_model(c color.Color) color.Color {
	if _, ok := c.(NRGBColor); ok {
		return c
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return NRGBColor{n.R, n.G, n.B}
}

var NRGBModel color.Model = color.ModelFunc(nrgb_model)

// NRGB is an opaque image with three samples per pixel, the output of
// converting gray and CMYK images to RGB
type NRGB struct {
	// Pix holds the pixels in R, G, B order. The pixel at (x, y) starts at
	// Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

var _ image.Image = (*NRGB)(nil)

func NewNRGB(r image.Rectangle) *NRGB {
	return &NRGB{Pix: make([]uint8, 3*r.Dx()*r.Dy()), Stride: 3 * r.Dx(), Rect: r}
}

func (p *NRGB) ColorModel() color.Model { return NRGBModel }
func (p *NRGB) Bounds() image.Rectangle { return p.Rect }
func (p *NRGB) Opaque() bool            { return true }

func (p *NRGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

func (p *NRGB) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(p.Rect)) {
		return NRGBColor{}
	}
	s := p.Pix[p.PixOffset(x, y):]
	return NRGBColor{s[0], s[1], s[2]}
}

func (p *NRGB) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	c1 := NRGBModel.Convert(c).(NRGBColor)
	s := p.Pix[p.PixOffset(x, y):]
	s[0], s[1], s[2] = c1.R, c1.G, c1.B
}

// SubImage returns the part of p visible through r, sharing pixels with p
func (p *NRGB) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &NRGB{}
	}
	return &NRGB{Pix: p.Pix[p.PixOffset(r.Min.X, r.Min.Y):], Stride: p.Stride, Rect: r}
}
