package cms

import (
	"testing"

	"github.com/kovidgoyal/cms/icc"
	"github.com/kovidgoyal/cms/internal/iccbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromSlice(t *testing.T) {
	data := iccbuild.SRGB()
	p, err := NewFromSlice(data)
	require.NoError(t, err)
	assert.Equal(t, icc.ColorSpaceRGB, p.ColorSpace())
	assert.Equal(t, icc.ColorSpaceXYZ, p.ProfileConnectionSpace())
	assert.Equal(t, icc.DeviceClassDisplay, p.DeviceClass())
	assert.True(t, p.IsMatrixShaper())
	assert.False(t, p.HasLUT(Perceptual, true))
	assert.Equal(t, icc.SRGBProfile, p.WellKnownProfile())
	d, err := p.Description()
	require.NoError(t, err)
	assert.Equal(t, "sRGB IEC61966-2.1", d)
	w := p.MediaWhitePoint()
	assert.InDelta(t, 0.9642, w.X, 1e-4)
	assert.Nil(t, p.CICP())
	assert.Same(t, p.ICC(), NewFromProfile(p.ICC()).ICC())

	t.Run("Malformed", func(t *testing.T) {
		for _, n := range []int{0, 10, 131, 200, len(data) - 1} {
			_, err := NewFromSlice(data[:n])
			require.ErrorIs(t, err, ErrMalformedProfile, "length: %d", n)
		}
		bad := append([]byte(nil), data...)
		copy(bad[36:], "xxxx")
		_, err := NewFromSlice(bad)
		require.ErrorIs(t, err, ErrMalformedProfile)
	})
}

func TestBuiltins(t *testing.T) {
	for name, p := range builtins() {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, icc.ColorSpaceRGB, p.ColorSpace())
			assert.True(t, p.IsMatrixShaper())
			assert.Same(t, p.ICC(), builtins()[name].ICC(), "built-in profiles are created once")
			assert.Equal(t, uint8(4), p.Version().Major)
		})
	}
	assert.Equal(t, icc.SRGBProfile, NewSRGB().WellKnownProfile())
	g, err := NewGrayWithGamma(1.8)
	require.NoError(t, err)
	assert.Equal(t, icc.ColorSpaceGray, g.ColorSpace())
	_, err = NewGrayWithGamma(0)
	require.ErrorIs(t, err, ErrUnsupportedConversion)
}

func TestFromCICP(t *testing.T) {
	p, err := NewFromCICP(9, 16)
	require.NoError(t, err)
	c := p.CICP()
	require.NotNil(t, c)
	assert.Equal(t, uint8(9), c.ColorPrimaries)
	assert.Equal(t, uint8(16), c.TransferCharacteristics)
	tr, err := p.CreateTransform16Bit(Rgb16, NewBT2020PQ(), Rgb16, DefaultTransformOptions())
	require.NoError(t, err)
	in := []uint16{0, 1000, 65535}
	out := make([]uint16, 3)
	require.NoError(t, tr.Transform(in, out))
	within(t, in, out, 2)
	_, err = NewFromCICP(2, 13)
	require.ErrorIs(t, err, ErrUnsupportedConversion)
	_, err = NewFromCICP(1, 3)
	require.ErrorIs(t, err, ErrUnsupportedConversion)
}

func TestLayouts(t *testing.T) {
	for _, tc := range []struct {
		l               Layout
		name            string
		channels, color int
		alpha, depth    int
		is_float        bool
	}{
		{Rgb8, "Rgb8", 3, 3, -1, 8, false},
		{Rgba8, "Rgba8", 4, 3, 3, 8, false},
		{Gray8, "Gray8", 1, 1, -1, 8, false},
		{GrayAlpha8, "GrayAlpha8", 2, 1, 1, 8, false},
		{Cmyk8, "Cmyk8", 4, 4, -1, 8, false},
		{Rgba16, "Rgba16", 4, 3, 3, 16, false},
		{Cmyk16, "Cmyk16", 4, 4, -1, 16, false},
		{GrayAlphaF32, "GrayAlphaF32", 2, 1, 1, 32, true},
		{CmykF32, "CmykF32", 4, 4, -1, 32, true},
	} {
		assert.Equal(t, tc.name, tc.l.String())
		assert.Equal(t, tc.channels, tc.l.Channels(), tc.name)
		assert.Equal(t, tc.color, tc.l.ColorChannels(), tc.name)
		assert.Equal(t, tc.alpha, tc.l.AlphaIndex(), tc.name)
		assert.Equal(t, tc.alpha >= 0, tc.l.HasAlpha(), tc.name)
		assert.Equal(t, tc.depth, tc.l.BitDepth(), tc.name)
		assert.Equal(t, tc.is_float, tc.l.IsFloat(), tc.name)
	}
	assert.Equal(t, "Layout(-1)", Layout(-1).String())
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "1.0.0", Version.String())
	assert.True(t, LibraryVersion{1, 2, 0}.After(LibraryVersion{1, 1, 9}))
	assert.False(t, LibraryVersion{0, 9, 9}.After(LibraryVersion{1, 0, 0}))
	assert.True(t, Version.Equal(LibraryVersion{1, 0, 0}))
	assert.Equal(t, "Tetrahedral", DefaultTransformOptions().Interpolation.String())
}
