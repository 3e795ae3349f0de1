package icc

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kovidgoyal/cms/colorconv"
)

var ErrUnsupportedConversion = errors.New("unsupported color conversion")

var (
	PrimariesBT709    = colorconv.Primaries{Red: colorconv.Chromaticity{X: 0.64, Y: 0.33}, Green: colorconv.Chromaticity{X: 0.30, Y: 0.60}, Blue: colorconv.Chromaticity{X: 0.15, Y: 0.06}}
	PrimariesBT470M   = colorconv.Primaries{Red: colorconv.Chromaticity{X: 0.67, Y: 0.33}, Green: colorconv.Chromaticity{X: 0.21, Y: 0.71}, Blue: colorconv.Chromaticity{X: 0.14, Y: 0.08}}
	PrimariesBT470BG  = colorconv.Primaries{Red: colorconv.Chromaticity{X: 0.64, Y: 0.33}, Green: colorconv.Chromaticity{X: 0.29, Y: 0.60}, Blue: colorconv.Chromaticity{X: 0.15, Y: 0.06}}
	PrimariesBT601    = colorconv.Primaries{Red: colorconv.Chromaticity{X: 0.630, Y: 0.340}, Green: colorconv.Chromaticity{X: 0.310, Y: 0.595}, Blue: colorconv.Chromaticity{X: 0.155, Y: 0.070}}
	PrimariesFilm     = colorconv.Primaries{Red: colorconv.Chromaticity{X: 0.681, Y: 0.319}, Green: colorconv.Chromaticity{X: 0.243, Y: 0.692}, Blue: colorconv.Chromaticity{X: 0.145, Y: 0.049}}
	PrimariesBT2020   = colorconv.Primaries{Red: colorconv.Chromaticity{X: 0.708, Y: 0.292}, Green: colorconv.Chromaticity{X: 0.170, Y: 0.797}, Blue: colorconv.Chromaticity{X: 0.131, Y: 0.046}}
	PrimariesP3       = colorconv.Primaries{Red: colorconv.Chromaticity{X: 0.680, Y: 0.320}, Green: colorconv.Chromaticity{X: 0.265, Y: 0.690}, Blue: colorconv.Chromaticity{X: 0.150, Y: 0.060}}
	PrimariesEBU3213  = colorconv.Primaries{Red: colorconv.Chromaticity{X: 0.630, Y: 0.340}, Green: colorconv.Chromaticity{X: 0.295, Y: 0.605}, Blue: colorconv.Chromaticity{X: 0.155, Y: 0.077}}
	PrimariesAdobeRGB = colorconv.Primaries{Red: colorconv.Chromaticity{X: 0.64, Y: 0.33}, Green: colorconv.Chromaticity{X: 0.21, Y: 0.71}, Blue: colorconv.Chromaticity{X: 0.15, Y: 0.06}}
	PrimariesProPhoto = colorconv.Primaries{Red: colorconv.Chromaticity{X: 0.7347, Y: 0.2653}, Green: colorconv.Chromaticity{X: 0.1596, Y: 0.8404}, Blue: colorconv.Chromaticity{X: 0.0366, Y: 0.0001}}

	WhiteC = colorconv.Chromaticity{X: 0.310, Y: 0.316}.XYZ()
)

func must[T any](x T, err error) T {
	if err != nil {
		panic(err)
	}
	return x
}

// SRGBCurve is the IEC 61966-2-1 transfer function
func SRGBCurve() Curve1D {
	return must(NewParametricCurve(2.4, 1/1.055, 0.055/1.055, 1/12.92, 0.04045))
}

// BT709Curve is the ITU-R BT.709 transfer function
func BT709Curve() Curve1D {
	a := 1 / 1.099
	return must(NewParametricCurve(1/0.45, a, 1-a, 1/4.5, 4.5*0.018))
}

func new_builtin_header(cs ColorSpace) Header {
	return Header{
		PreferredCMM:           UnknownSignature,
		Version:                Version{4, 4, 0},
		DeviceClass:            DeviceClassDisplay,
		DataColorSpace:         cs,
		ProfileConnectionSpace: ColorSpaceXYZ,
		CreatedAt:              time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		RenderingIntent:        PerceptualRenderingIntent,
	}
}

// NewMatrixShaperProfile creates an RGB display profile from the
// chromaticities of its primaries and white. The colorants are adapted to
// D50 with the Bradford transform, which is also stored as the chad tag.
func NewMatrixShaperProfile(description string, primaries colorconv.Primaries, white colorconv.Vec3, trc Curve1D) (*Profile, error) {
	colorants, err := colorconv.RGBToXYZD50(primaries, white)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid primaries: %s", ErrUnsupportedConversion, err)
	}
	p := newProfile()
	p.Header = new_builtin_header(ColorSpaceRGB)
	t := &p.TagTable
	t.set(DescSignature, &TextDescription{ASCII: description})
	t.set(CopyrightTagSignature, &TextTag{Text: "No copyright, use freely"})
	t.set(MediaWhitePointTagSignature, &XYZType{D50.X, D50.Y, D50.Z})
	chad := Matrix3(colorconv.ChromaticAdaptationMatrix(white, colorconv.WhiteD50))
	t.set(ChromaticAdaptationTagSignature, &chad)
	for col, s := range []Signature{RedMatrixColumnTagSignature, GreenMatrixColumnTagSignature, BlueMatrixColumnTagSignature} {
		t.set(s, &XYZType{colorants[0][col], colorants[1][col], colorants[2][col]})
	}
	for _, s := range []Signature{RedTRCTagSignature, GreenTRCTagSignature, BlueTRCTagSignature} {
		t.set(s, trc)
	}
	return p, nil
}

// NewGrayProfile creates a gray display profile with a D50 white
func NewGrayProfile(description string, trc Curve1D) *Profile {
	p := newProfile()
	p.Header = new_builtin_header(ColorSpaceGray)
	t := &p.TagTable
	t.set(DescSignature, &TextDescription{ASCII: description})
	t.set(MediaWhitePointTagSignature, &XYZType{D50.X, D50.Y, D50.Z})
	t.set(GrayTRCTagSignature, trc)
	return p
}

func builtin(description string, primaries colorconv.Primaries, white colorconv.Vec3, trc func() Curve1D) func() *Profile {
	return sync.OnceValue(func() *Profile {
		return must(NewMatrixShaperProfile(description, primaries, white, trc()))
	})
}

func pq() Curve1D  { return PQCurve(0) }
func hlg() Curve1D { return HLGCurve(0) }
func gamma(g unit_float) func() Curve1D {
	return func() Curve1D { return must(NewGammaCurve(g)) }
}

var (
	SRGB        = builtin("sRGB built-in", PrimariesBT709, colorconv.WhiteD65, SRGBCurve)
	DisplayP3   = builtin("Display P3 built-in", PrimariesP3, colorconv.WhiteD65, SRGBCurve)
	DisplayP3PQ = builtin("Display P3 PQ built-in", PrimariesP3, colorconv.WhiteD65, pq)
	DCIP3       = builtin("DCI-P3 built-in", PrimariesP3, colorconv.WhiteDCI, gamma(2.6))
	AdobeRGB    = builtin("Adobe RGB compatible", PrimariesAdobeRGB, colorconv.WhiteD65, gamma(2.19921875))
	ProPhotoRGB = builtin("ProPhoto RGB built-in", PrimariesProPhoto, colorconv.WhiteD50, gamma(1.8))
	BT2020      = builtin("Rec. 2020 built-in", PrimariesBT2020, colorconv.WhiteD65, SRGBCurve)
	BT2020PQ    = builtin("Rec. 2020 PQ built-in", PrimariesBT2020, colorconv.WhiteD65, pq)
	BT2020HLG   = builtin("Rec. 2020 HLG built-in", PrimariesBT2020, colorconv.WhiteD65, hlg)
	LinearSRGB  = builtin("Linear sRGB built-in", PrimariesBT709, colorconv.WhiteD65, gamma(1))
)

func NewGrayWithGamma(g unit_float) (*Profile, error) {
	c, err := NewGammaCurve(g)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConversion, err)
	}
	return NewGrayProfile(fmt.Sprintf("Gray gamma %.4g built-in", g), c), nil
}

// CICPPrimaries returns the primaries and white for an ITU-T H.273
// ColourPrimaries code point
func CICPPrimaries(code uint8) (p colorconv.Primaries, white colorconv.Vec3, err error) {
	switch code {
	case 1:
		return PrimariesBT709, colorconv.WhiteD65, nil
	case 4:
		return PrimariesBT470M, WhiteC, nil
	case 5:
		return PrimariesBT470BG, colorconv.WhiteD65, nil
	case 6, 7:
		return PrimariesBT601, colorconv.WhiteD65, nil
	case 8:
		return PrimariesFilm, WhiteC, nil
	case 9:
		return PrimariesBT2020, colorconv.WhiteD65, nil
	case 11:
		return PrimariesP3, colorconv.WhiteDCI, nil
	case 12:
		return PrimariesP3, colorconv.WhiteD65, nil
	case 22:
		return PrimariesEBU3213, colorconv.WhiteD65, nil
	}
	return p, white, fmt.Errorf("%w: unsupported CICP color primaries: %d", ErrUnsupportedConversion, code)
}

// CICPTransfer returns the curve for an ITU-T H.273
// TransferCharacteristics code point
func CICPTransfer(code uint8) (Curve1D, error) {
	switch code {
	case 1, 6, 14, 15:
		return BT709Curve(), nil
	case 4:
		return NewGammaCurve(2.2)
	case 5:
		return NewGammaCurve(2.8)
	case 8:
		return NewGammaCurve(1)
	case 13:
		return SRGBCurve(), nil
	case 16:
		return PQCurve(0), nil
	case 18:
		return HLGCurve(0), nil
	}
	return nil, fmt.Errorf("%w: unsupported CICP transfer characteristics: %d", ErrUnsupportedConversion, code)
}

// NewFromCICP creates an RGB profile from ITU-T H.273 code points. The
// profile carries a cicp tag with the code points.
func NewFromCICP(primaries, transfer uint8) (*Profile, error) {
	p, white, err := CICPPrimaries(primaries)
	if err != nil {
		return nil, err
	}
	trc, err := CICPTransfer(transfer)
	if err != nil {
		return nil, err
	}
	ans, err := NewMatrixShaperProfile(fmt.Sprintf("CICP %d/%d", primaries, transfer), p, white, trc)
	if err != nil {
		return nil, err
	}
	ans.TagTable.set(CICPTagSignature, &CICPTag{ColorPrimaries: primaries, TransferCharacteristics: transfer, VideoFullRange: true})
	return ans, nil
}
