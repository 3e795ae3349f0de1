package icc

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/kovidgoyal/cms/internal/iccbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSRGBProfile(t *testing.T) {
	p, err := DecodeProfile(iccbuild.SRGB())
	require.NoError(t, err)
	assert.Equal(t, Version{4, 4, 0}, p.Header.Version)
	assert.Equal(t, DeviceClassDisplay, p.Header.DeviceClass)
	assert.Equal(t, ColorSpaceRGB, p.Header.DataColorSpace)
	assert.Equal(t, ColorSpaceXYZ, p.Header.ProfileConnectionSpace)
	assert.Equal(t, PerceptualRenderingIntent, p.Header.RenderingIntent)
	in_delta(t, D50.X, p.PCSIlluminant.X, 1e-4)
	in_delta(t, D50.Z, p.PCSIlluminant.Z, 1e-4)

	d, err := p.Description()
	require.NoError(t, err)
	assert.Equal(t, "sRGB IEC61966-2.1", d)
	c, err := p.Copyright()
	require.NoError(t, err)
	assert.Equal(t, "No copyright", c)
	_, err = p.DeviceModelDescription()
	require.Error(t, err)
	assert.Equal(t, SRGBProfile, p.WellKnownProfile())
	assert.True(t, p.IsMatrixShaper())
	assert.NotNil(t, p.ChromaticAdaptation())
	assert.Nil(t, p.CICP())
	wp := p.MediaWhitePoint()
	in_delta(t, D50.X, wp.X, 1e-4)
	in_delta(t, D50.Y, wp.Y, 1e-4)

	trcs, err := p.TRCs()
	require.NoError(t, err)
	require.Len(t, trcs, 3)
	// identical tag data is stored once and decoded once
	require.Same(t, trcs[0], trcs[1])
	require.Same(t, trcs[1], trcs[2])
	assert.IsType(t, &SplitCurve{}, trcs[0])
	assert.False(t, p.HasLUT(PerceptualRenderingIntent, true))
}

func TestParsedMatchesBuiltin(t *testing.T) {
	parsed, err := DecodeProfile(iccbuild.SRGB())
	require.NoError(t, err)
	pm, err := parsed.RGBColorants()
	require.NoError(t, err)
	bm, err := SRGB().RGBColorants()
	require.NoError(t, err)
	assert.True(t, pm.Equals(&bm, 1e-4), "parsed: %s builtin: %s", &pm, &bm)

	a, err := parsed.CreateTransformerToPCS(PerceptualRenderingIntent)
	require.NoError(t, err)
	b, err := SRGB().CreateTransformerToPCS(PerceptualRenderingIntent)
	require.NoError(t, err)
	for _, c := range [][3]unit_float{{0, 0, 0}, {1, 1, 1}, {0.2, 0.5, 0.8}, {1, 0, 0}, {0.01, 0.02, 0.03}} {
		x1, y1, z1 := a.Transform(c[0], c[1], c[2])
		x2, y2, z2 := b.Transform(c[0], c[1], c[2])
		in_delta(t, x2, x1, 1e-3)
		in_delta(t, y2, y1, 1e-3)
		in_delta(t, z2, z1, 1e-3)
	}
	x, y, z := b.Transform(1, 1, 1)
	in_delta(t, D50.X, x, 1e-6)
	in_delta(t, D50.Y, y, 1e-6)
	in_delta(t, D50.Z, z, 1e-6)
}

func TestMatrixShaperRoundTrip(t *testing.T) {
	for _, p := range []*Profile{SRGB(), DisplayP3(), AdobeRGB(), ProPhotoRGB(), BT2020PQ(), BT2020HLG(), LinearSRGB()} {
		d, _ := p.Description()
		t.Run(d, func(t *testing.T) {
			fwd, err := p.CreateTransformerToPCS(RelativeColorimetricRenderingIntent)
			require.NoError(t, err)
			inv, err := p.CreateTransformerFromPCS(RelativeColorimetricRenderingIntent)
			require.NoError(t, err)
			pipe := NewPipeline(fwd, inv)
			require.NoError(t, pipe.Validate())
			for _, c := range [][3]unit_float{{0, 0, 0}, {1, 1, 1}, {0.2, 0.5, 0.8}, {0.9, 0.1, 0.4}} {
				r, g, b := pipe.Transform(c[0], c[1], c[2])
				in_delta(t, c[0], r, 1e-6)
				in_delta(t, c[1], g, 1e-6)
				in_delta(t, c[2], b, 1e-6)
			}
		})
	}
}

func TestGrayProfile(t *testing.T) {
	p, err := DecodeProfile(iccbuild.Gray(2.2))
	require.NoError(t, err)
	assert.Equal(t, ColorSpaceGray, p.Header.DataColorSpace)
	assert.True(t, p.IsMatrixShaper())
	fwd, err := p.CreateTransformerToPCS(PerceptualRenderingIntent)
	require.NoError(t, err)
	i, o := fwd.IOSig()
	assert.Equal(t, 1, i)
	assert.Equal(t, 3, o)
	xyz := make([]unit_float, 3)
	fwd.TransformGeneral(xyz, []unit_float{1})
	assert.InDeltaSlice(t, []unit_float{D50.X, D50.Y, D50.Z}, xyz, 1e-9)
	inv, err := p.CreateTransformerFromPCS(PerceptualRenderingIntent)
	require.NoError(t, err)
	fwd.TransformGeneral(xyz, []unit_float{0.5})
	gray := make([]unit_float, 1)
	inv.TransformGeneral(gray, xyz)
	in_delta(t, 0.5, gray[0], 1e-9)

	g, err := NewGrayWithGamma(1.8)
	require.NoError(t, err)
	trcs, err := g.TRCs()
	require.NoError(t, err)
	in_delta(t, 0.5, trcs[0].InverseTransform(trcs[0].Transform(0.5)), 1e-12)
	_, err = NewGrayWithGamma(0)
	require.ErrorIs(t, err, ErrUnsupportedConversion)
}

func TestCMYKProfile(t *testing.T) {
	p, err := DecodeProfile(iccbuild.CMYK(5))
	require.NoError(t, err)
	assert.Equal(t, ColorSpaceCMYK, p.Header.DataColorSpace)
	assert.Equal(t, DeviceClassOutput, p.Header.DeviceClass)
	assert.False(t, p.IsMatrixShaper())
	d, err := p.Description()
	require.NoError(t, err)
	assert.Equal(t, "Naive CMYK", d)
	assert.True(t, p.HasLUT(PerceptualRenderingIntent, true))
	// the relative colorimetric table falls back to A2B0
	assert.True(t, p.HasLUT(RelativeColorimetricRenderingIntent, true))
	assert.True(t, p.HasLUT(SaturationRenderingIntent, false))

	fwd, err := p.CreateTransformerToPCS(PerceptualRenderingIntent)
	require.NoError(t, err)
	i, o := fwd.IOSig()
	require.Equal(t, 4, i)
	require.Equal(t, 3, o)
	xyz := make([]unit_float, 3)
	fwd.TransformGeneral(xyz, []unit_float{0, 0, 0, 0})
	assert.InDeltaSlice(t, []unit_float{D50.X, D50.Y, D50.Z}, xyz, 1e-4)
	fwd.TransformGeneral(xyz, []unit_float{0, 0, 0, 1})
	assert.InDeltaSlice(t, []unit_float{0, 0, 0}, xyz, 1e-4)

	inv, err := p.CreateTransformerFromPCS(PerceptualRenderingIntent)
	require.NoError(t, err)
	i, o = inv.IOSig()
	require.Equal(t, 3, i)
	require.Equal(t, 4, o)
	cmyk := make([]unit_float, 4)
	inv.TransformGeneral(cmyk, []unit_float{D50.X, D50.Y, D50.Z})
	// white needs no black ink
	in_delta(t, 0, cmyk[3], 0.01)
	for _, v := range cmyk {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestCICPProfiles(t *testing.T) {
	p, err := NewFromCICP(9, 16)
	require.NoError(t, err)
	c := p.CICP()
	require.NotNil(t, c)
	assert.Equal(t, uint8(9), c.ColorPrimaries)
	assert.Equal(t, uint8(16), c.TransferCharacteristics)
	trcs, err := p.TRCs()
	require.NoError(t, err)
	assert.IsType(t, PQCurve(0), trcs[0])
	a, err := p.RGBColorants()
	require.NoError(t, err)
	b, err := BT2020PQ().RGBColorants()
	require.NoError(t, err)
	assert.True(t, a.Equals(&b, 1e-12))

	_, err = NewFromCICP(2, 13)
	require.ErrorIs(t, err, ErrUnsupportedConversion)
	_, err = NewFromCICP(1, 2)
	require.ErrorIs(t, err, ErrUnsupportedConversion)
	for _, primaries := range []uint8{1, 4, 5, 6, 7, 8, 9, 11, 12, 22} {
		for _, transfer := range []uint8{1, 4, 5, 6, 8, 13, 14, 15, 16, 18} {
			_, err := NewFromCICP(primaries, transfer)
			require.NoError(t, err, "primaries: %d transfer: %d", primaries, transfer)
		}
	}
}

func TestBuiltinMetadata(t *testing.T) {
	assert.Equal(t, SRGBProfile, SRGB().WellKnownProfile())
	assert.Equal(t, AdobeRGBProfile, AdobeRGB().WellKnownProfile())
	assert.Equal(t, DisplayP3Profile, DisplayP3().WellKnownProfile())
	assert.Equal(t, PhotoProProfile, ProPhotoRGB().WellKnownProfile())
	assert.Equal(t, UnknownProfile, BT2020().WellKnownProfile())
	require.Same(t, SRGB(), SRGB())
	c, err := SRGB().Copyright()
	require.NoError(t, err)
	assert.NotEmpty(t, c)

	// white point of a D65 built-in adapts to D50 through the chad tag
	chad := SRGB().ChromaticAdaptation()
	require.NotNil(t, chad)
	m, err := SRGB().RGBColorants()
	require.NoError(t, err)
	x, y, z := m.Transform(1, 1, 1)
	in_delta(t, D50.X, x, 1e-9)
	in_delta(t, D50.Y, y, 1e-9)
	in_delta(t, D50.Z, z, 1e-9)
}

func TestWellKnownProfileByModel(t *testing.T) {
	raw := iccbuild.MatrixShaper("Some display", PrimariesP3, D50.AsVec3(), iccbuild.SRGBPara())
	p, err := DecodeProfile(raw)
	require.NoError(t, err)
	assert.Equal(t, UnknownProfile, p.WellKnownProfile())
	copy(raw[48:], "appl")
	copy(raw[52:], "p3  ")
	p, err = DecodeProfile(raw)
	require.NoError(t, err)
	assert.Equal(t, DisplayP3Profile, p.WellKnownProfile())
}

func TestMalformedProfiles(t *testing.T) {
	good := iccbuild.SRGB()
	is_malformed := func(t *testing.T, data []byte, contains string) {
		t.Helper()
		p, err := DecodeProfile(data)
		require.Nil(t, p)
		require.ErrorIs(t, err, ErrMalformedProfile)
		if contains != "" {
			require.ErrorContains(t, err, contains)
		}
	}
	t.Run("Truncation", func(t *testing.T) {
		for n := range len(good) {
			is_malformed(t, good[:n], "")
		}
	})
	t.Run("DeclaredSize", func(t *testing.T) {
		for n := range len(good) {
			data := append([]byte(nil), good...)
			binary.BigEndian.PutUint32(data, uint32(n))
			require.NotPanics(t, func() { _, _ = DecodeProfile(data) })
		}
		data := append([]byte(nil), good...)
		binary.BigEndian.PutUint32(data, 100)
		is_malformed(t, data, "too small")
		data = append(data, make([]byte, MaxProfileSize)...)
		binary.BigEndian.PutUint32(data, uint32(len(data)))
		is_malformed(t, data, "too large")
	})
	t.Run("BadMagic", func(t *testing.T) {
		data := append([]byte(nil), good...)
		data[36] = 'x'
		is_malformed(t, data, "signature")
	})
	t.Run("UnknownColorSpace", func(t *testing.T) {
		data := append([]byte(nil), good...)
		copy(data[16:], "ABCD")
		is_malformed(t, data, "color space")
	})
	t.Run("BadPCS", func(t *testing.T) {
		data := append([]byte(nil), good...)
		copy(data[20:], "CMYK")
		is_malformed(t, data, "connection space")
	})
	t.Run("TagCount", func(t *testing.T) {
		data := append([]byte(nil), good...)
		binary.BigEndian.PutUint32(data[128:], 100000)
		is_malformed(t, data, "tag count")
	})
	t.Run("TagOutOfBounds", func(t *testing.T) {
		data := append([]byte(nil), good...)
		binary.BigEndian.PutUint32(data[136:], uint32(len(data)-4))
		is_malformed(t, data, "out of bounds")
		data = append([]byte(nil), good...)
		binary.BigEndian.PutUint32(data[136:], 64)
		is_malformed(t, data, "out of bounds")
		data = append([]byte(nil), good...)
		binary.BigEndian.PutUint32(data[140:], 4)
		is_malformed(t, data, "out of bounds")
		data = append([]byte(nil), good...)
		binary.BigEndian.PutUint32(data[140:], 0xffffffff)
		is_malformed(t, data, "out of bounds")
	})
	t.Run("BadTagData", func(t *testing.T) {
		raw := iccbuild.New("mntr", "GRAY", "XYZ ").Add("kTRC", iccbuild.Curve(0, 40000, 20000, 65535)).Bytes()
		is_malformed(t, raw, "monotonic")
	})
	t.Run("MissingRepresentation", func(t *testing.T) {
		raw := iccbuild.New("mntr", "RGB ", "XYZ ").Add("desc", iccbuild.Desc("nothing")).Bytes()
		is_malformed(t, raw, "no usable device to PCS representation")
		raw = iccbuild.New("prtr", "CMYK", "Lab ").Add("desc", iccbuild.Desc("nothing")).Bytes()
		is_malformed(t, raw, "representation")
	})
	t.Run("WrongLUTType", func(t *testing.T) {
		raw := iccbuild.New("prtr", "CMYK", "Lab ").Add("A2B0", iccbuild.Curve()).Bytes()
		is_malformed(t, raw, "unsupported type")
	})
}

func TestUnknownAndLinkTags(t *testing.T) {
	unknown := append([]byte("zzzz\x00\x00\x00\x00"), "payload"...)
	raw := iccbuild.New("link", "RGB ", "CMYK").Add("zzzz", unknown).Bytes()
	p, err := DecodeProfile(raw)
	require.NoError(t, err)
	u, ok := p.TagTable.Get(Signature(binary.BigEndian.Uint32([]byte("zzzz")))).(*UnknownTag)
	require.True(t, ok)
	assert.Equal(t, unknown, u.Data)
	assert.Equal(t, 1, p.TagTable.Len())
	_, err = p.CreateTransformerToPCS(PerceptualRenderingIntent)
	require.Error(t, err)
}

func TestDecodedProfileDoesNotAliasInput(t *testing.T) {
	unknown := append([]byte("zzzz\x00\x00\x00\x00"), "payload!"...)
	raw := iccbuild.New("mntr", "GRAY", "XYZ ").Add("kTRC", iccbuild.Gamma(2)).Add("zzzz", unknown).Bytes()
	p, err := DecodeProfile(raw)
	require.NoError(t, err)
	for i := range raw {
		raw[i] = 0
	}
	u := p.TagTable.Get(Signature(binary.BigEndian.Uint32([]byte("zzzz")))).(*UnknownTag)
	assert.Equal(t, unknown, u.Data)
}

func TestSignatures(t *testing.T) {
	p, err := DecodeProfile(iccbuild.Gray(2.2))
	require.NoError(t, err)
	assert.Equal(t, []Signature{DescSignature, GrayTRCTagSignature, MediaWhitePointTagSignature}, p.TagTable.Signatures())
	assert.True(t, errors.Is(malformed("x %d", 1), ErrMalformedProfile))
}

func FuzzDecodeProfile(f *testing.F) {
	f.Add(iccbuild.SRGB())
	f.Add(iccbuild.Gray(2.2))
	f.Add(iccbuild.CMYK(3))
	f.Add(iccbuild.New("mntr", "RGB ", "XYZ ").Add("A2B0", iccbuild.Modular{
		AToB: true, In: 3, Out: 3, B: curves(3, iccbuild.Curve()), Grid: []int{2, 2, 2}, CLUT: identity_clut16(2),
	}.Bytes()).Bytes())
	f.Fuzz(func(t *testing.T, data []byte) {
		p, err := DecodeProfile(data)
		if err != nil {
			if !errors.Is(err, ErrMalformedProfile) {
				t.Fatalf("unexpected error type: %v", err)
			}
			return
		}
		fwd, err := p.CreateTransformerToPCS(PerceptualRenderingIntent)
		if err != nil || fwd == nil {
			return
		}
		var in, out [MaxChannels]unit_float
		for i := range in {
			in[i] = 0.5
		}
		fwd.TransformGeneral(out[:], in[:])
	})
}
