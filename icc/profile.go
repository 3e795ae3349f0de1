package icc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrMalformedProfile = errors.New("malformed ICC profile")

// The largest profile this package will decode
const MaxProfileSize = 3 * 1024 * 1024

type WellKnownProfile int

const (
	UnknownProfile WellKnownProfile = iota
	SRGBProfile
	AdobeRGBProfile
	PhotoProProfile
	DisplayP3Profile
)

func WellKnownProfileFromDescription(x string) WellKnownProfile {
	switch x {
	case "sRGB IEC61966-2.1", "sRGB IEC61966-2-1 black scaled", "sRGB_ICC_v4_Appearance.icc", "sRGB built-in":
		return SRGBProfile
	case "Adobe RGB (1998)", "Adobe RGB compatible":
		return AdobeRGBProfile
	case "Display P3", "Display P3 built-in":
		return DisplayP3Profile
	case "ProPhoto RGB", "ROMM RGB", "ProPhoto RGB built-in":
		return PhotoProProfile
	default:
		return UnknownProfile
	}
}

func (p WellKnownProfile) String() string {
	switch p {
	case SRGBProfile:
		return "sRGB IEC61966-2.1"
	case AdobeRGBProfile:
		return "Adobe RGB (1998)"
	case PhotoProProfile:
		return "ProPhoto RGB"
	case DisplayP3Profile:
		return "Display P3"
	default:
		return "Unknown Profile"
	}
}

type Profile struct {
	Header        Header
	TagTable      TagTable
	PCSIlluminant XYZType
}

func newProfile() *Profile {
	return &Profile{TagTable: emptyTagTable(), PCSIlluminant: D50}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedProfile, fmt.Sprintf(format, args...))
}

// DecodeProfile parses an ICC profile. All tags are decoded eagerly, any
// failure is reported as ErrMalformedProfile.
func DecodeProfile(data []byte) (*Profile, error) {
	if len(data) < HeaderSize+4 {
		return nil, malformed("profile too short: %d bytes", len(data))
	}
	h, err := parseHeader(data)
	if err != nil {
		return nil, malformed("%s", err)
	}
	size := int(h.ProfileSize)
	switch {
	case size < HeaderSize+4:
		return nil, malformed("declared profile size too small: %d", size)
	case size > len(data):
		return nil, malformed("profile truncated: declared size %d exceeds %d available bytes", size, len(data))
	case size > MaxProfileSize:
		return nil, malformed("profile too large: %d bytes", size)
	}
	data = bytes.Clone(data[:size])
	p := newProfile()
	p.Header = h
	p.PCSIlluminant = h.ParsedPCSIlluminant()
	be := binary.BigEndian
	count := int(be.Uint32(data[HeaderSize : HeaderSize+4]))
	if count > (size-HeaderSize-4)/12 {
		return nil, malformed("tag count %d exceeds profile size", count)
	}
	type entry struct{ offset, size int }
	decoded := make(map[entry]any, count)
	dir := data[HeaderSize+4:]
	for i := range count {
		rec := dir[i*12 : (i+1)*12]
		sig := Signature(be.Uint32(rec[0:4]))
		e := entry{int(be.Uint32(rec[4:8])), int(be.Uint32(rec[8:12]))}
		if e.offset < HeaderSize || e.size < 8 || e.offset > size || e.size > size-e.offset {
			return nil, malformed("tag %s out of bounds: offset=%d size=%d", sig, e.offset, e.size)
		}
		val, found := decoded[e]
		if !found {
			if val, err = decode_tag(data[e.offset : e.offset+e.size]); err != nil {
				return nil, malformed("failed to decode tag %s: %s", sig, err)
			}
			decoded[e] = val
		}
		p.TagTable.set(sig, val)
	}
	if err = p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// validate checks that the profile can map its device space to the PCS
func (p *Profile) validate() error {
	switch p.Header.DeviceClass {
	case DeviceClassLink, DeviceClassAbstract, DeviceClassNamedColor:
		return nil
	}
	if p.IsMatrixShaper() {
		return nil
	}
	if p.TagTable.Has(AToB0TagSignature) || p.TagTable.Has(AToB1TagSignature) || p.TagTable.Has(AToB2TagSignature) {
		if _, err := p.lut_tag(AToB0TagSignature, AToB1TagSignature, AToB2TagSignature); err != nil {
			return malformed("%s", err)
		}
		return nil
	}
	if err := p.matrix_shaper_error(); err != nil {
		return malformed("%s profile has no usable device to PCS representation: %s", p.Header.DataColorSpace, err)
	}
	return malformed("%s profile has no device to PCS representation", p.Header.DataColorSpace)
}

func (p *Profile) String() string {
	d, _ := p.Description()
	return fmt.Sprintf("Profile{%q %s}", d, p.Header)
}

func (p *Profile) Description() (string, error) {
	return p.TagTable.getText(DescSignature)
}

func (p *Profile) Copyright() (string, error) {
	return p.TagTable.getText(CopyrightTagSignature)
}

func (p *Profile) DeviceManufacturerDescription() (string, error) {
	return p.TagTable.getText(DeviceManufacturerDescriptionSignature)
}

func (p *Profile) DeviceModelDescription() (string, error) {
	return p.TagTable.getText(DeviceModelDescriptionSignature)
}

func (p *Profile) WellKnownProfile() WellKnownProfile {
	model, err := p.DeviceModelDescription()
	if err == nil {
		switch model {
		case "IEC 61966-2-1 Default RGB Colour Space - sRGB", "IEC 61966-2.1 Default RGB colour space - sRGB":
			return SRGBProfile
		}
	}
	d, err := p.Description()
	if err == nil {
		if ans := WellKnownProfileFromDescription(d); ans != UnknownProfile {
			return ans
		}
	}
	switch p.Header.DeviceManufacturer {
	case IECManufacturerSignature:
		switch p.Header.DeviceModel {
		case SRGBModelSignature:
			return SRGBProfile
		}
	case AdobeManufacturerSignature:
		switch p.Header.DeviceModel {
		case AdobeRGBModelSignature:
			return AdobeRGBProfile
		case PhotoProModelSignature:
			return PhotoProProfile
		}
	case AppleManufacturerSignature, AppleUpperManufacturerSignature:
		switch p.Header.DeviceModel {
		case DisplayP3ModelSignature:
			return DisplayP3Profile
		}
	}
	return UnknownProfile
}

// MediaWhitePoint returns the wtpt tag or D50 if the profile has none
func (p *Profile) MediaWhitePoint() XYZType {
	if x, err := p.TagTable.load_xyz(MediaWhitePointTagSignature); err == nil {
		return *x
	}
	return D50
}

// ChromaticAdaptation returns the chad tag or nil if absent
func (p *Profile) ChromaticAdaptation() *Matrix3 {
	m, _ := p.TagTable.Get(ChromaticAdaptationTagSignature).(*Matrix3)
	return m
}

// CICP returns the cicp tag or nil if absent
func (p *Profile) CICP() *CICPTag {
	c, _ := p.TagTable.Get(CICPTagSignature).(*CICPTag)
	return c
}

func (p *Profile) matrix_shaper_error() error {
	switch p.Header.DataColorSpace {
	case ColorSpaceRGB:
		if _, err := p.RGBColorants(); err != nil {
			return err
		}
	case ColorSpaceGray:
	default:
		return fmt.Errorf("%s profiles cannot be matrix/TRC based", p.Header.DataColorSpace)
	}
	if p.Header.ProfileConnectionSpace != ColorSpaceXYZ && p.Header.DataColorSpace == ColorSpaceRGB {
		return fmt.Errorf("matrix/TRC profiles must have an XYZ PCS not %s", p.Header.ProfileConnectionSpace)
	}
	_, err := p.TRCs()
	return err
}

// IsMatrixShaper reports whether the profile is a usable RGB or Gray
// matrix/TRC profile
func (p *Profile) IsMatrixShaper() bool {
	return p.matrix_shaper_error() == nil
}

// RGBColorants returns the matrix whose columns are the rXYZ, gXYZ and bXYZ
// tags
func (p *Profile) RGBColorants() (ans Matrix3, err error) {
	for col, s := range []Signature{RedMatrixColumnTagSignature, GreenMatrixColumnTagSignature, BlueMatrixColumnTagSignature} {
		x, err := p.TagTable.load_xyz(s)
		if err != nil {
			return ans, err
		}
		ans[0][col], ans[1][col], ans[2][col] = x.X, x.Y, x.Z
	}
	return ans, nil
}

// TRCs returns the tone reproduction curves, three for RGB and one for Gray
func (p *Profile) TRCs() ([]Curve1D, error) {
	sigs := []Signature{RedTRCTagSignature, GreenTRCTagSignature, BlueTRCTagSignature}
	if p.Header.DataColorSpace == ColorSpaceGray {
		sigs = []Signature{GrayTRCTagSignature}
	}
	ans := make([]Curve1D, len(sigs))
	for i, s := range sigs {
		c, err := p.TagTable.load_curve_tag(s)
		if err != nil {
			return nil, err
		}
		ans[i] = c
	}
	return ans, nil
}

func (p *Profile) lut_tag(sigs ...Signature) (ChannelTransformer, error) {
	for _, s := range sigs {
		switch t := p.TagTable.Get(s).(type) {
		case nil:
			continue
		case *MFT:
			return t, nil
		case *ModularTag:
			return t, nil
		default:
			return nil, fmt.Errorf("%s tag has unsupported type: %T", s, t)
		}
	}
	return nil, nil
}

func intent_tags(base Signature, intent RenderingIntent) []Signature {
	// See section 8.10.2 of ICC.1-2202-05.pdf for tag selection algorithm.
	// Absolute colorimetric uses the media relative colorimetric table.
	switch intent {
	case RelativeColorimetricRenderingIntent, AbsoluteColorimetricRenderingIntent:
		return []Signature{base + 1, base}
	case SaturationRenderingIntent:
		return []Signature{base + 2, base}
	}
	return []Signature{base}
}

func pcs_encoding(t ChannelTransformer) PCSEncoding {
	if m, ok := t.(*MFT); ok && !m.is8bit {
		return LegacyLab16PCSEncoding
	}
	return StandardPCSEncoding
}

// HasLUT reports whether the profile has an A2B (to_pcs) or B2A table
// usable for the intent
func (p *Profile) HasLUT(intent RenderingIntent, to_pcs bool) bool {
	t, err := p.lut_tag(intent_tags(IfElse(to_pcs, AToB0TagSignature, BToA0TagSignature), intent)...)
	return err == nil && t != nil
}

// CreateTransformerToPCS returns a transformer from normalized device values
// to the PCS of the profile, in XYZ (Y=1 for white) or Lab (L in [0, 100])
// units. The A2B table for the intent is preferred, then the matrix/TRC
// representation.
func (p *Profile) CreateTransformerToPCS(rendering_intent RenderingIntent) (ans ChannelTransformer, err error) {
	lut, err := p.lut_tag(intent_tags(AToB0TagSignature, rendering_intent)...)
	if err != nil {
		return nil, err
	}
	if lut != nil {
		return NewPipeline(lut, NewPCSDecoder(p.Header.ProfileConnectionSpace, pcs_encoding(lut))), nil
	}
	return p.MatrixShaperToPCS()
}

// CreateTransformerFromPCS is the inverse of CreateTransformerToPCS
func (p *Profile) CreateTransformerFromPCS(rendering_intent RenderingIntent) (ans ChannelTransformer, err error) {
	lut, err := p.lut_tag(intent_tags(BToA0TagSignature, rendering_intent)...)
	if err != nil {
		return nil, err
	}
	if lut != nil {
		return NewPipeline(NewPCSEncoder(p.Header.ProfileConnectionSpace, pcs_encoding(lut)), lut), nil
	}
	return p.MatrixShaperFromPCS()
}

// MatrixShaperToPCS builds TRC followed by the colorant matrix, see section
// F.3 of ICC.1-2202-5.pdf
func (p *Profile) MatrixShaperToPCS() (ChannelTransformer, error) {
	if err := p.matrix_shaper_error(); err != nil {
		return nil, err
	}
	trcs, _ := p.TRCs()
	if p.Header.DataColorSpace == ColorSpaceGray {
		ans := NewPipeline(NewCurveTransformer("TRC", trcs...), NewGrayToXYZ())
		if p.Header.ProfileConnectionSpace == ColorSpaceLab {
			ans.Append(NewXYZToLab())
		}
		return ans, nil
	}
	m, _ := p.RGBColorants()
	return NewPipeline(NewCurveTransformer("TRC", trcs...), &m), nil
}

func (p *Profile) MatrixShaperFromPCS() (ChannelTransformer, error) {
	if err := p.matrix_shaper_error(); err != nil {
		return nil, err
	}
	trcs, _ := p.TRCs()
	if p.Header.DataColorSpace == ColorSpaceGray {
		ans := NewPipeline()
		if p.Header.ProfileConnectionSpace == ColorSpaceLab {
			ans.Append(NewLabToXYZ())
		}
		ans.Append(NewXYZToGray(), NewInverseCurveTransformer("InverseTRC", trcs...))
		return ans, nil
	}
	m, _ := p.RGBColorants()
	inv, err := m.Inverted()
	if err != nil {
		return nil, fmt.Errorf("the colorant matrix is not invertible: %w", err)
	}
	return NewPipeline(&inv, NewInverseCurveTransformer("InverseTRC", trcs...)), nil
}
