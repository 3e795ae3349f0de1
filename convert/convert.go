// Package convert applies color transforms to the pixels of Go images.
package convert

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/kovidgoyal/cms"
	"github.com/kovidgoyal/cms/icc"
	"github.com/kovidgoyal/go-parallel"
	"golang.org/x/image/draw"
)

// ToSRGB converts img from src to sRGB, see Image
func ToSRGB(src *cms.ColorProfile, img image.Image) (image.Image, error) {
	return Image(src, cms.NewSRGB(), img, cms.DefaultTransformOptions())
}

// Image converts the pixels of img from src to dst, which must be an RGB
// or gray profile. A nil src is taken to be sRGB. Images of type
// *image.NRGBA, *image.RGBA, *image.NRGBA64, *image.RGBA64,
// *image.Paletted and *NRGB are converted in place and returned, as are
// *image.Gray and *image.Gray16 when dst is a gray profile. Other gray
// images and *image.CMYK are converted into a new *NRGB or
// *image.NRGBA64. Any other image is first drawn into a new *image.NRGBA.
func Image(src, dst *cms.ColorProfile, img image.Image, opts cms.TransformOptions) (image.Image, error) {
	if dst == nil {
		return nil, fmt.Errorf("%w: no destination profile", cms.ErrUnsupportedConversion)
	}
	if src == nil {
		src = cms.NewSRGB()
	}
	gray_dst := false
	switch dst.ColorSpace() {
	case icc.ColorSpaceRGB:
	case icc.ColorSpaceGray:
		gray_dst = true
	default:
		return nil, fmt.Errorf("%w: cannot convert images to %s", cms.ErrUnsupportedConversion, dst.ColorSpace())
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	switch img := img.(type) {
	case *image.NRGBA:
		return in_place(src, dst, cms.Rgba8, img, img.Pix, img.Stride, width, height, opts)
	case *NRGB:
		return in_place(src, dst, cms.Rgb8, img, img.Pix, img.Stride, width, height, opts)
	case *image.RGBA:
		t, err := src.CreateTransform8Bit(cms.Rgba8, dst, cms.Rgba8, opts)
		if err != nil || t.IsIdentity() {
			return identity_or_error(img, err)
		}
		return img, premultiplied8(t, img.Pix, img.Stride, width, height)
	case *image.NRGBA64:
		return in_place_wide(src, dst, cms.Rgba16, img, img.Pix, img.Stride, width, height, false, opts)
	case *image.RGBA64:
		return in_place_wide(src, dst, cms.Rgba16, img, img.Pix, img.Stride, width, height, true, opts)
	case *image.Gray:
		if gray_dst {
			return in_place(src, dst, cms.Gray8, img, img.Pix, img.Stride, width, height, opts)
		}
		return to_nrgb(src, dst, cms.Gray8, img.Pix, img.Stride, b, opts)
	case *image.CMYK:
		return to_nrgb(src, dst, cms.Cmyk8, img.Pix, img.Stride, b, opts)
	case *image.Gray16:
		if gray_dst {
			return in_place_wide(src, dst, cms.Gray16, img, img.Pix, img.Stride, width, height, false, opts)
		}
		t, err := src.CreateTransform16Bit(cms.Gray16, dst, cms.Rgba16, opts)
		if err != nil {
			return nil, err
		}
		d := image.NewNRGBA64(b)
		if err = wide(t, img.Pix, img.Stride, d.Pix, d.Stride, width, height, false); err != nil {
			return nil, err
		}
		return d, nil
	case *image.Paletted:
		return palette(src, dst, img, opts)
	}
	d := image.NewNRGBA(b)
	draw.Draw(d, b, img, b.Min, draw.Src)
	return Image(src, dst, d, opts)
}

func identity_or_error(img image.Image, err error) (image.Image, error) {
	if err != nil {
		return nil, err
	}
	return img, nil
}

// over_rows runs f over disjoint ranges of rows in parallel and returns the
// first error any range returned
func over_rows(height int, f func(start, limit int) error) error {
	var mutex sync.Mutex
	var first error
	err := parallel.Run_in_parallel_over_range(0, func(start, limit int) {
		if ferr := f(start, limit); ferr != nil {
			mutex.Lock()
			if first == nil {
				first = ferr
			}
			mutex.Unlock()
		}
	}, 0, height)
	if err != nil {
		return err
	}
	return first
}

func strided[T cms.Sample](t *cms.Transform[T], in []T, in_stride int, out []T, out_stride int, width, height int) error {
	return over_rows(height, func(start, limit int) error {
		return t.TransformWithStride(in[start*in_stride:], in_stride, out[start*out_stride:], out_stride, width, limit-start)
	})
}

func in_place(src, dst *cms.ColorProfile, l cms.Layout, img image.Image, pix []uint8, stride, width, height int, opts cms.TransformOptions) (image.Image, error) {
	t, err := src.CreateTransform8Bit(l, dst, l, opts)
	if err != nil || t.IsIdentity() {
		return identity_or_error(img, err)
	}
	if err = strided(t, pix, stride, pix, stride, width, height); err != nil {
		return nil, err
	}
	return img, nil
}

func in_place_wide(src, dst *cms.ColorProfile, l cms.Layout, img image.Image, pix []uint8, stride, width, height int, premultiplied bool, opts cms.TransformOptions) (image.Image, error) {
	t, err := src.CreateTransform16Bit(l, dst, l, opts)
	if err != nil || t.IsIdentity() {
		return identity_or_error(img, err)
	}
	if err = wide(t, pix, stride, pix, stride, width, height, premultiplied); err != nil {
		return nil, err
	}
	return img, nil
}

func to_nrgb(src, dst *cms.ColorProfile, l cms.Layout, pix []uint8, stride int, b image.Rectangle, opts cms.TransformOptions) (image.Image, error) {
	t, err := src.CreateTransform8Bit(l, dst, cms.Rgb8, opts)
	if err != nil {
		return nil, err
	}
	d := NewNRGB(b)
	if err = strided(t, pix, stride, d.Pix, d.Stride, b.Dx(), b.Dy()); err != nil {
		return nil, err
	}
	return d, nil
}

// wide converts rows of big endian 16 bit samples. When premultiplied is
// set the last sample of every pixel is alpha and the others are
// premultiplied by it.
func wide(t *cms.Transform[uint16], in []uint8, in_stride int, out []uint8, out_stride int, width, height int, premultiplied bool) error {
	ic, oc := t.SourceLayout().Channels(), t.DestinationLayout().Channels()
	return over_rows(height, func(start, limit int) error {
		ibuf, obuf := make([]uint16, width*ic), make([]uint16, width*oc)
		for y := start; y < limit; y++ {
			row := in[y*in_stride : y*in_stride+2*len(ibuf)]
			for i := range ibuf {
				ibuf[i] = binary.BigEndian.Uint16(row[2*i:])
			}
			if premultiplied {
				unpremultiply(ibuf, ic, 0xffff)
			}
			if err := t.Transform(ibuf, obuf); err != nil {
				return err
			}
			if premultiplied {
				premultiply(obuf, oc, 0xffff)
			}
			row = out[y*out_stride : y*out_stride+2*len(obuf)]
			for i, v := range obuf {
				binary.BigEndian.PutUint16(row[2*i:], v)
			}
		}
		return nil
	})
}

func premultiplied8(t *cms.Transform[uint8], pix []uint8, stride, width, height int) error {
	return over_rows(height, func(start, limit int) error {
		buf := make([]uint8, width*4)
		for y := start; y < limit; y++ {
			row := pix[y*stride : y*stride+len(buf)]
			copy(buf, row)
			unpremultiply(buf, 4, 0xff)
			if err := t.Transform(buf, buf); err != nil {
				return err
			}
			premultiply(buf, 4, 0xff)
			copy(row, buf)
		}
		return nil
	})
}

func unpremultiply[T uint8 | uint16](px []T, channels int, top uint32) {
	for p := 0; p+channels <= len(px); p += channels {
		s := px[p : p+channels]
		a := uint32(s[channels-1])
		if a == top {
			continue
		}
		for i := range s[:channels-1] {
			if a == 0 {
				s[i] = 0
			} else {
				s[i] = T(min((uint32(s[i])*top+a/2)/a, top))
			}
		}
	}
}

func premultiply[T uint8 | uint16](px []T, channels int, top uint32) {
	for p := 0; p+channels <= len(px); p += channels {
		s := px[p : p+channels]
		a := uint32(s[channels-1])
		if a == top {
			continue
		}
		for i := range s[:channels-1] {
			s[i] = T((uint32(s[i])*a + top/2) / top)
		}
	}
}

func palette(src, dst *cms.ColorProfile, img *image.Paletted, opts cms.TransformOptions) (image.Image, error) {
	t, err := src.CreateTransform8Bit(cms.Rgba8, dst, cms.Rgba8, opts)
	if err != nil || t.IsIdentity() {
		return identity_or_error(img, err)
	}
	buf := make([]uint8, 0, 4*len(img.Palette))
	for _, c := range img.Palette {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		buf = append(buf, n.R, n.G, n.B, n.A)
	}
	if err = t.Transform(buf, buf); err != nil {
		return nil, err
	}
	for i := range img.Palette {
		s := buf[4*i:]
		img.Palette[i] = color.NRGBA{R: s[0], G: s[1], B: s[2], A: s[3]}
	}
	return img, nil
}
