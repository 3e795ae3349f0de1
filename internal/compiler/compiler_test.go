package compiler

import (
	"testing"

	"github.com/kovidgoyal/cms/icc"
	"github.com/kovidgoyal/cms/internal/engine"
	"github.com/kovidgoyal/cms/internal/iccbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rgb  = Format{Channels: 3, ColorChannels: 3, AlphaIndex: -1}
	rgba = Format{Channels: 4, ColorChannels: 3, AlphaIndex: 3}
	gray = Format{Channels: 1, ColorChannels: 1, AlphaIndex: -1}
	cmyk = Format{Channels: 4, ColorChannels: 4, AlphaIndex: -1}
)

func decode(t *testing.T, data []byte) *icc.Profile {
	t.Helper()
	p, err := icc.DecodeProfile(data)
	require.NoError(t, err)
	return p
}

func gray_profile(t *testing.T) *icc.Profile {
	p, err := icc.NewGrayWithGamma(2.2)
	require.NoError(t, err)
	return p
}

// mixed_trc_profile has sRGB colorants with a different TRC for green
func mixed_trc_profile(t *testing.T) *icc.Profile {
	b := iccbuild.New("mntr", "RGB ", "XYZ ")
	b.Add("desc", iccbuild.Desc("Mixed TRC"))
	b.Add("wtpt", iccbuild.XYZ(0.9642, 1, 0.8249))
	b.Add("rXYZ", iccbuild.XYZ(0.4361, 0.2225, 0.0139))
	b.Add("gXYZ", iccbuild.XYZ(0.3851, 0.7169, 0.0971))
	b.Add("bXYZ", iccbuild.XYZ(0.1431, 0.0606, 0.7141))
	b.Add("rTRC", iccbuild.Gamma(2.2)).Add("gTRC", iccbuild.Gamma(1.8)).Add("bTRC", iccbuild.Gamma(2.2))
	return decode(t, b.Bytes())
}

func compile[P engine.Plan](t *testing.T, src, dst *icc.Profile, sl, dl Format, opts Options) P {
	t.Helper()
	plan, err := Compile(src, dst, sl, dl, opts)
	require.NoError(t, err)
	require.IsType(t, *new(P), plan)
	return plan.(P)
}

func TestIdentityIsCopy(t *testing.T) {
	for _, p := range []*icc.Profile{icc.SRGB(), icc.DisplayP3(), icc.AdobeRGB(), icc.BT2020PQ(), icc.ProPhotoRGB()} {
		for _, intent := range []icc.RenderingIntent{icc.PerceptualRenderingIntent, icc.AbsoluteColorimetricRenderingIntent} {
			plan := compile[*engine.CopyPlan](t, p, p, rgba, rgb, Options{RenderingIntent: intent})
			assert.Equal(t, 3, plan.Channels)
		}
	}
	g := gray_profile(t)
	plan := compile[*engine.CopyPlan](t, g, g, gray, gray, Options{})
	assert.Equal(t, 1, plan.Channels)
	// parsed and built-in sRGB differ only by fixed point rounding
	compile[*engine.MatrixShaperPlan](t, decode(t, iccbuild.SRGB()), icc.SRGB(), rgb, rgb, Options{})
}

func TestMatrixShaper(t *testing.T) {
	plan := compile[*engine.MatrixShaperPlan](t, icc.SRGB(), icc.DisplayP3(), rgb, rgb, Options{})
	assert.Len(t, plan.Decode, 3)
	assert.Len(t, plan.Encode, 3)
	assert.False(t, plan.Matrix.IsIdentity(1e-3))
	// white maps to white
	r, g, b := plan.Matrix.Transform(1, 1, 1)
	assert.InDelta(t, 1, r, 1e-6)
	assert.InDelta(t, 1, g, 1e-6)
	assert.InDelta(t, 1, b, 1e-6)
	assert.Contains(t, plan.String(), "TRC")
}

func TestGrayConversions(t *testing.T) {
	g := gray_profile(t)
	t.Run("GrayToRGB", func(t *testing.T) {
		plan := compile[*engine.MatrixShaperPlan](t, g, icc.SRGB(), gray, rgb, Options{})
		require.Len(t, plan.Decode, 1)
		require.Len(t, plan.Encode, 3)
		// gray white is RGB white
		r, gg, b := plan.Matrix.Transform(1, 0, 0)
		assert.InDelta(t, 1, r, 1e-6)
		assert.InDelta(t, 1, gg, 1e-6)
		assert.InDelta(t, 1, b, 1e-6)
	})
	t.Run("RGBToGray", func(t *testing.T) {
		plan := compile[*engine.MatrixShaperPlan](t, icc.SRGB(), g, rgba, gray, Options{})
		require.Len(t, plan.Decode, 3)
		require.Len(t, plan.Encode, 1)
		colorants, err := icc.SRGB().RGBColorants()
		require.NoError(t, err)
		for i := range 3 {
			assert.InDelta(t, colorants[1][i], plan.Matrix[0][i], 1e-12)
		}
	})
	t.Run("GrayProfileWithRGBLayout", func(t *testing.T) {
		plan := compile[*engine.MatrixShaperPlan](t, g, g, rgb, rgba, Options{})
		assert.True(t, plan.AverageInput)
		assert.True(t, plan.ReplicateOutput)
		io, oo := plan.IOSig()
		assert.Equal(t, 3, io)
		assert.Equal(t, 3, oo)
		assert.InDelta(t, 1, plan.Matrix[0][0], 1e-9)
	})
	t.Run("RGBProfileWithGrayLayout", func(t *testing.T) {
		plan := compile[*engine.MatrixShaperPlan](t, icc.SRGB(), icc.SRGB(), gray, rgb, Options{})
		require.Len(t, plan.Decode, 1)
		require.Len(t, plan.Encode, 3)
		r, gg, b := plan.Matrix.Transform(1, 0, 0)
		assert.InDelta(t, 1, r, 1e-6)
		assert.InDelta(t, 1, gg, 1e-6)
		assert.InDelta(t, 1, b, 1e-6)

		copy_plan := compile[*engine.CopyPlan](t, icc.SRGB(), icc.SRGB(), gray, gray, Options{})
		assert.Equal(t, 1, copy_plan.Channels)

		plan = compile[*engine.MatrixShaperPlan](t, icc.SRGB(), g, gray, gray, Options{})
		assert.InDelta(t, 1, plan.Matrix[0][0], 1e-9)
		plan = compile[*engine.MatrixShaperPlan](t, g, icc.SRGB(), gray, gray, Options{})
		assert.InDelta(t, 1, plan.Matrix[0][0], 1e-9)

		_, err := Compile(decode(t, iccbuild.CMYK(3)), icc.SRGB(), gray, rgb, Options{})
		require.ErrorIs(t, err, ErrUnsupportedConversion)
	})
	t.Run("RGBProfileWithUnequalTRCsAndGrayLayout", func(t *testing.T) {
		mixed := mixed_trc_profile(t)
		plan := compile[*engine.LUTPlan](t, mixed, icc.SRGB(), gray, rgb, Options{})
		assert.Equal(t, 1, plan.Inputs)
		assert.Equal(t, 3, plan.Outputs)
		assert.Contains(t, plan.Source, "ReplicateChannel")
		plan = compile[*engine.LUTPlan](t, icc.SRGB(), mixed, rgb, gray, Options{GridSize: 9})
		assert.Equal(t, 3, plan.Inputs)
		assert.Equal(t, 1, plan.Outputs)
		assert.Contains(t, plan.Source, "AverageChannels")
		// white stays white
		assert.InDelta(t, 1, plan.Samples[len(plan.Samples)-1], 1e-3)
	})
	t.Run("GrayToCMYK", func(t *testing.T) {
		plan := compile[*engine.LUTPlan](t, g, decode(t, iccbuild.CMYK(5)), rgb, cmyk, Options{})
		assert.Equal(t, 3, plan.Inputs)
		assert.Equal(t, 4, plan.Outputs)
		assert.Contains(t, plan.Source, "AverageChannels")
	})
}

func TestCMYK(t *testing.T) {
	c := decode(t, iccbuild.CMYK(5))
	t.Run("ToRGB", func(t *testing.T) {
		plan := compile[*engine.LUTPlan](t, c, icc.SRGB(), cmyk, rgb, Options{})
		assert.Equal(t, 4, plan.Inputs)
		assert.Equal(t, 3, plan.Outputs)
		assert.Equal(t, DefaultGridSize4D, plan.GridPoints)
		// the first grid point is zero ink
		for _, v := range plan.Samples[:3] {
			assert.InDelta(t, 1, v, 3./255)
		}
		// the last is full ink
		for _, v := range plan.Samples[len(plan.Samples)-3:] {
			assert.InDelta(t, 0, v, 3./255)
		}
		for _, v := range plan.Samples {
			assert.GreaterOrEqual(t, v, float32(0))
			assert.LessOrEqual(t, v, float32(1))
		}
	})
	t.Run("FromRGB", func(t *testing.T) {
		calls := 0
		opts := Options{GridSize: 9, Trilinear: true, Debug: func(in, out []float64, t icc.ChannelTransformer) { calls++ }}
		plan := compile[*engine.LUTPlan](t, icc.SRGB(), c, rgba, cmyk, opts)
		assert.Equal(t, 3, plan.Inputs)
		assert.Equal(t, 4, plan.Outputs)
		assert.Equal(t, 9, plan.GridPoints)
		assert.True(t, plan.Trilinear)
		assert.Len(t, plan.Samples, 9*9*9*4)
		assert.Positive(t, calls)
		assert.Zero(t, calls%(9*9*9))
	})
	t.Run("GridTooLarge", func(t *testing.T) {
		_, err := Compile(c, icc.SRGB(), cmyk, rgb, Options{GridSize: 255})
		require.ErrorIs(t, err, ErrUnsupportedConversion)
		_, err = Compile(c, icc.SRGB(), cmyk, rgb, Options{GridSize: 1})
		require.ErrorIs(t, err, ErrUnsupportedConversion)
		for _, n := range []int{1 << 62, 1 << 32, engine.MaxLUTPlanSamples + 1} {
			_, err = Compile(c, icc.SRGB(), cmyk, rgb, Options{GridSize: n})
			require.ErrorIs(t, err, ErrUnsupportedConversion, "grid size: %d", n)
		}
	})
	t.Run("WrongLayout", func(t *testing.T) {
		_, err := Compile(c, icc.SRGB(), rgb, rgb, Options{})
		require.ErrorIs(t, err, ErrUnsupportedConversion)
	})
}

func TestAbsoluteColorimetric(t *testing.T) {
	half := iccbuild.New("mntr", "GRAY", "XYZ ").
		Add("desc", iccbuild.Desc("dim")).
		Add("wtpt", iccbuild.XYZ(0.9642/2, 0.5, 0.8249/2)).
		Add("kTRC", iccbuild.Gamma(1)).Bytes()
	src := decode(t, half)
	dst, err := icc.NewGrayWithGamma(1)
	require.NoError(t, err)
	compile[*engine.CopyPlan](t, src, dst, gray, gray, Options{RenderingIntent: icc.RelativeColorimetricRenderingIntent})
	plan := compile[*engine.MatrixShaperPlan](t, src, dst, gray, gray, Options{RenderingIntent: icc.AbsoluteColorimetricRenderingIntent})
	assert.InDelta(t, 0.5, plan.Matrix[0][0], 1e-4)
}

func cicp_profile(t *testing.T, transfer uint8) *icc.Profile {
	m, err := icc.SRGB().RGBColorants()
	require.NoError(t, err)
	b := iccbuild.New("mntr", "RGB ", "XYZ ").Add("desc", iccbuild.Desc("cicp")).Add("wtpt", iccbuild.XYZ(0.9642, 1, 0.8249))
	for col, s := range []string{"rXYZ", "gXYZ", "bXYZ"} {
		b.Add(s, iccbuild.XYZ(m[0][col], m[1][col], m[2][col]))
	}
	trc := iccbuild.Gamma(1)
	b.Add("rTRC", trc).Add("gTRC", trc).Add("bTRC", trc).Add("cicp", iccbuild.CICP(1, transfer, 0, true))
	return decode(t, b.Bytes())
}

func TestCICPTransfer(t *testing.T) {
	p := cicp_profile(t, 13)
	plan := compile[*engine.MatrixShaperPlan](t, p, icc.SRGB(), rgb, rgb, Options{})
	assert.Equal(t, "IdentityCurve{}", plan.Decode[0].String())
	plan = compile[*engine.MatrixShaperPlan](t, p, icc.SRGB(), rgb, rgb, Options{AllowCICPTransfer: true})
	for _, c := range plan.Decode {
		assert.True(t, icc.CurvesEqual(icc.SRGBCurve(), c))
	}
	// unknown transfer characteristics leave the TRCs alone
	plan = compile[*engine.MatrixShaperPlan](t, cicp_profile(t, 2), icc.SRGB(), rgb, rgb, Options{AllowCICPTransfer: true})
	assert.Equal(t, "IdentityCurve{}", plan.Decode[0].String())
}

func TestUnsupportedProfiles(t *testing.T) {
	link := *icc.SRGB()
	link.Header.DeviceClass = icc.DeviceClassLink
	lab := *icc.SRGB()
	lab.Header.DataColorSpace = icc.ColorSpaceLab
	for name, tc := range map[string]struct {
		src, dst *icc.Profile
	}{
		"link":   {&link, icc.SRGB()},
		"lab":    {icc.SRGB(), &lab},
		"nil":    {nil, icc.SRGB()},
		"nilDst": {icc.SRGB(), nil},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Compile(tc.src, tc.dst, rgb, rgb, Options{})
			require.ErrorIs(t, err, ErrUnsupportedConversion)
		})
	}
}

func TestLUTProfile(t *testing.T) {
	// an RGB profile with only an A2B table behaves like linear sRGB
	m, err := icc.LinearSRGB().RGBColorants()
	require.NoError(t, err)
	id := iccbuild.Para(0, 1)
	// the table output is u1Fixed15 encoded XYZ
	matrix := make([]float64, 12)
	for i := range 9 {
		matrix[i] = m[i/3][i%3] * 32768 / 65535
	}
	a2b := iccbuild.Modular{AToB: true, In: 3, Out: 3, B: [][]byte{id, id, id}, M: [][]byte{id, id, id}, Matrix: matrix}
	src := decode(t, iccbuild.New("mntr", "RGB ", "XYZ ").Add("desc", iccbuild.Desc("lut")).Add("A2B0", a2b.Bytes()).Bytes())
	plan := compile[*engine.LUTPlan](t, src, icc.LinearSRGB(), rgb, rgb, Options{GridSize: 5})
	assert.Equal(t, 5, plan.GridPoints)
	// grid nodes reproduce their own coordinates
	for n := range 5 * 5 * 5 {
		expected := []float32{float32(n/25) / 4, float32(n/5%5) / 4, float32(n%5) / 4}
		for k := range 3 {
			assert.InDelta(t, expected[k], plan.Samples[n*3+k], 2e-4, "node=%d", n)
		}
	}
	// the B2A direction is missing
	_, err = Compile(icc.SRGB(), src, rgb, rgb, Options{})
	require.ErrorIs(t, err, ErrUnsupportedConversion)
}
