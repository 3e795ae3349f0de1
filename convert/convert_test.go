package convert

import (
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/kovidgoyal/cms"
	"github.com/kovidgoyal/cms/internal/iccbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func random_pixels(pix []uint8, seed uint64) {
	r := rand.New(rand.NewPCG(seed, 7))
	for i := range pix {
		pix[i] = uint8(r.UintN(256))
	}
}

func opaque_nrgba(w, h int, seed uint64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	random_pixels(img.Pix, seed)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func in_delta(t *testing.T, expected, actual, delta int, msg ...any) {
	t.Helper()
	assert.InDelta(t, expected, actual, float64(delta), msg...)
}

func TestIdentityIsNoOp(t *testing.T) {
	img := opaque_nrgba(5, 4, 1)
	orig := append([]uint8(nil), img.Pix...)
	ans, err := ToSRGB(cms.NewSRGB(), img)
	require.NoError(t, err)
	assert.Same(t, img, ans)
	assert.Equal(t, orig, img.Pix)
	ans, err = ToSRGB(nil, img)
	require.NoError(t, err)
	assert.Same(t, img, ans)
	assert.Equal(t, orig, img.Pix)
}

func TestNRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(3, 5, 40, 28))
	random_pixels(img.Pix, 2)
	expected := append([]uint8(nil), img.Pix...)
	opts := cms.DefaultTransformOptions()
	tr, err := cms.NewSRGB().CreateTransform8Bit(cms.Rgba8, cms.NewDisplayP3(), cms.Rgba8, opts)
	require.NoError(t, err)
	require.NoError(t, tr.TransformWithStride(expected, img.Stride, expected, img.Stride, 37, 23))

	ans, err := Image(cms.NewSRGB(), cms.NewDisplayP3(), img, opts)
	require.NoError(t, err)
	assert.Same(t, img, ans)
	assert.Equal(t, expected, img.Pix)
}

func TestSubImage(t *testing.T) {
	img := opaque_nrgba(10, 10, 3)
	for i := range img.Pix {
		if i%4 != 3 {
			img.Pix[i] = 128
		}
	}
	sub := img.SubImage(image.Rect(2, 2, 5, 5))
	_, err := Image(nil, cms.NewLinearSRGB(), sub, cms.DefaultTransformOptions())
	require.NoError(t, err)
	for y := range 10 {
		for x := range 10 {
			c := img.NRGBAAt(x, y)
			if (image.Point{x, y}).In(sub.Bounds()) {
				in_delta(t, 55, int(c.R), 1, "x=%d y=%d", x, y)
			} else {
				assert.Equal(t, uint8(128), c.R, "x=%d y=%d", x, y)
			}
			assert.Equal(t, uint8(0xff), c.A)
		}
	}
}

func TestRGBA(t *testing.T) {
	n := opaque_nrgba(9, 7, 4)
	p := image.NewRGBA(n.Rect)
	copy(p.Pix, n.Pix)
	p.Pix[3], p.Pix[0], p.Pix[1], p.Pix[2] = 0, 0, 0, 0
	opts := cms.DefaultTransformOptions()
	_, err := Image(nil, cms.NewDisplayP3(), n, opts)
	require.NoError(t, err)
	ans, err := Image(nil, cms.NewDisplayP3(), p, opts)
	require.NoError(t, err)
	assert.Same(t, p, ans)
	assert.Equal(t, []uint8{0, 0, 0, 0}, p.Pix[:4])
	assert.Equal(t, n.Pix[4:], p.Pix[4:])

	half := image.NewRGBA(image.Rect(0, 0, 1, 1))
	half.Pix = []uint8{64, 64, 64, 128}
	_, err = Image(nil, cms.NewLinearSRGB(), half, opts)
	require.NoError(t, err)
	// 64/128 is a half intensity sRGB value, about 0.214 linear
	in_delta(t, 27, int(half.Pix[0]), 1)
	assert.Equal(t, uint8(128), half.Pix[3])
}

func TestWideImages(t *testing.T) {
	img := image.NewNRGBA64(image.Rect(0, 0, 3, 2))
	for y := range 2 {
		for x := range 3 {
			img.SetNRGBA64(x, y, color.NRGBA64{0x8000, 0x8000, 0x8000, 0x1234})
		}
	}
	_, err := Image(nil, cms.NewLinearSRGB(), img, cms.DefaultTransformOptions())
	require.NoError(t, err)
	c := img.NRGBA64At(2, 1)
	in_delta(t, 14027, int(c.R), 64)
	in_delta(t, 14027, int(c.B), 64)
	assert.Equal(t, uint16(0x1234), c.A)

	p := image.NewRGBA64(image.Rect(0, 0, 2, 1))
	p.SetRGBA64(0, 0, color.RGBA64{0x4000, 0x4000, 0x4000, 0x8000})
	_, err = Image(nil, cms.NewLinearSRGB(), p, cms.DefaultTransformOptions())
	require.NoError(t, err)
	pc := p.RGBA64At(0, 0)
	in_delta(t, 14027/2, int(pc.G), 64)
	assert.Equal(t, uint16(0x8000), pc.A)
	assert.Equal(t, color.RGBA64{}, p.RGBA64At(1, 0))
}

func TestGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 256, 2))
	for x := range 256 {
		img.SetGray(x, 0, color.Gray{uint8(x)})
		img.SetGray(x, 1, color.Gray{uint8(255 - x)})
	}
	ans, err := ToSRGB(nil, img)
	require.NoError(t, err)
	d, ok := ans.(*NRGB)
	require.True(t, ok)
	assert.Equal(t, img.Rect, d.Rect)
	for x := range 256 {
		c := d.At(x, 0).(NRGBColor)
		in_delta(t, x, int(c.R), 1)
		in_delta(t, x, int(c.G), 1)
		in_delta(t, x, int(c.B), 1)
	}

	g, err := cms.NewGrayWithGamma(2.2)
	require.NoError(t, err)
	ans, err = Image(g, g, img, cms.DefaultTransformOptions())
	require.NoError(t, err)
	assert.Same(t, img, ans)

	// untagged gray is sRGB gray
	mid := image.NewGray(image.Rect(0, 0, 1, 1))
	mid.SetGray(0, 0, color.Gray{188})
	ans, err = Image(nil, g, mid, cms.DefaultTransformOptions())
	require.NoError(t, err)
	assert.Same(t, mid, ans)
	// sRGB 188 is 50% linear, which is 186 at gamma 2.2
	in_delta(t, 186, int(mid.GrayAt(0, 0).Y), 2)

	g16 := image.NewGray16(image.Rect(0, 0, 2, 1))
	g16.SetGray16(1, 0, color.Gray16{0xffff})
	ans, err = ToSRGB(nil, g16)
	require.NoError(t, err)
	w, ok := ans.(*image.NRGBA64)
	require.True(t, ok)
	in_delta(t, 0xffff, int(w.NRGBA64At(1, 0).R), 64)
	in_delta(t, 0, int(w.NRGBA64At(0, 0).G), 64)
	assert.Equal(t, uint16(0xffff), w.NRGBA64At(0, 0).A)
}

func TestCMYK(t *testing.T) {
	p, err := cms.NewFromSlice(iccbuild.CMYK(5))
	require.NoError(t, err)
	img := image.NewCMYK(image.Rect(0, 0, 4, 3))
	ans, err := ToSRGB(p, img)
	require.NoError(t, err)
	d, ok := ans.(*NRGB)
	require.True(t, ok)
	for y := range 3 {
		for x := range 4 {
			c := d.At(x, y).(NRGBColor)
			in_delta(t, 255, int(c.R), 3)
			in_delta(t, 255, int(c.G), 3)
			in_delta(t, 255, int(c.B), 3)
		}
	}
	_, err = ToSRGB(nil, img)
	require.ErrorIs(t, err, cms.ErrUnsupportedConversion)
}

func TestPaletted(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.RGBA{128, 128, 128, 255}, color.Transparent})
	ans, err := Image(nil, cms.NewLinearSRGB(), img, cms.DefaultTransformOptions())
	require.NoError(t, err)
	assert.Same(t, img, ans)
	c := img.Palette[0].(color.NRGBA)
	in_delta(t, 55, int(c.R), 1)
	assert.Equal(t, uint8(0xff), c.A)
	assert.Equal(t, uint8(0), img.Palette[1].(color.NRGBA).A)
}

func TestOtherImagesAreNormalized(t *testing.T) {
	img := image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio444)
	for i := range img.Y {
		img.Y[i], img.Cb[i], img.Cr[i] = 128, 128, 128
	}
	ans, err := ToSRGB(cms.NewDisplayP3(), img)
	require.NoError(t, err)
	d, ok := ans.(*image.NRGBA)
	require.True(t, ok)
	c := d.NRGBAAt(3, 3)
	// neutral colors are preserved between sRGB and Display P3
	in_delta(t, 128, int(c.R), 2)
	in_delta(t, 128, int(c.B), 2)
	assert.Equal(t, uint8(0xff), c.A)
}

func TestNRGBImage(t *testing.T) {
	img := NewNRGB(image.Rect(1, 1, 4, 3))
	img.Set(2, 2, color.NRGBA{10, 20, 30, 0xff})
	assert.Equal(t, NRGBColor{10, 20, 30}, img.At(2, 2))
	assert.Equal(t, NRGBColor{}, img.At(0, 0))
	sub := img.SubImage(image.Rect(2, 2, 10, 10)).(*NRGB)
	assert.Equal(t, image.Rect(2, 2, 4, 3), sub.Rect)
	assert.Equal(t, NRGBColor{10, 20, 30}, sub.At(2, 2))
	assert.True(t, img.Opaque())
	assert.Equal(t, "NRGBColor{0A 14 1E}", NRGBColor{10, 20, 30}.String())

	ans, err := Image(nil, cms.NewLinearSRGB(), img, cms.DefaultTransformOptions())
	require.NoError(t, err)
	assert.Same(t, img, ans)
	in_delta(t, 1, int(img.At(2, 2).(NRGBColor).R), 1)
}

func TestErrors(t *testing.T) {
	img := opaque_nrgba(2, 2, 5)
	_, err := Image(nil, nil, img, cms.DefaultTransformOptions())
	require.ErrorIs(t, err, cms.ErrUnsupportedConversion)
	cmyk, err := cms.NewFromSlice(iccbuild.CMYK(5))
	require.NoError(t, err)
	_, err = Image(nil, cmyk, img, cms.DefaultTransformOptions())
	require.ErrorIs(t, err, cms.ErrUnsupportedConversion)
}
