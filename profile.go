package cms

import (
	"fmt"

	"github.com/kovidgoyal/cms/icc"
)

// ColorProfile is an immutable, parsed or built-in ICC profile. It is safe
// for concurrent use.
type ColorProfile struct {
	p *icc.Profile
}

// NewFromSlice parses ICC profile data. data is not retained.
func NewFromSlice(data []byte) (*ColorProfile, error) {
	p, err := icc.DecodeProfile(data)
	if err != nil {
		return nil, err
	}
	return &ColorProfile{p}, nil
}

// NewFromProfile wraps an already decoded profile, which must not be
// modified afterwards
func NewFromProfile(p *icc.Profile) *ColorProfile { return &ColorProfile{p} }

func NewSRGB() *ColorProfile        { return &ColorProfile{icc.SRGB()} }
func NewDisplayP3() *ColorProfile   { return &ColorProfile{icc.DisplayP3()} }
func NewDisplayP3PQ() *ColorProfile { return &ColorProfile{icc.DisplayP3PQ()} }
func NewDCIP3() *ColorProfile       { return &ColorProfile{icc.DCIP3()} }
func NewAdobeRGB() *ColorProfile    { return &ColorProfile{icc.AdobeRGB()} }
func NewProPhotoRGB() *ColorProfile { return &ColorProfile{icc.ProPhotoRGB()} }
func NewBT2020() *ColorProfile      { return &ColorProfile{icc.BT2020()} }
func NewBT2020PQ() *ColorProfile    { return &ColorProfile{icc.BT2020PQ()} }
func NewBT2020HLG() *ColorProfile   { return &ColorProfile{icc.BT2020HLG()} }
func NewLinearSRGB() *ColorProfile  { return &ColorProfile{icc.LinearSRGB()} }

// NewGrayWithGamma returns a gray profile with a D50 white and a pure power
// law TRC
func NewGrayWithGamma(gamma float64) (*ColorProfile, error) {
	p, err := icc.NewGrayWithGamma(gamma)
	if err != nil {
		return nil, err
	}
	return &ColorProfile{p}, nil
}

// NewFromCICP returns an RGB profile for ITU-T H.273 color primaries and
// transfer characteristics code points. Unknown code points give
// ErrUnsupportedConversion.
func NewFromCICP(primaries, transfer uint8) (*ColorProfile, error) {
	p, err := icc.NewFromCICP(primaries, transfer)
	if err != nil {
		return nil, err
	}
	return &ColorProfile{p}, nil
}

// ICC returns the underlying profile, which must not be modified
func (c *ColorProfile) ICC() *icc.Profile { return c.p }

func (c *ColorProfile) ColorSpace() icc.ColorSpace                      { return c.p.Header.DataColorSpace }
func (c *ColorProfile) ProfileConnectionSpace() icc.ColorSpace          { return c.p.Header.ProfileConnectionSpace }
func (c *ColorProfile) DeviceClass() icc.DeviceClass                    { return c.p.Header.DeviceClass }
func (c *ColorProfile) Version() icc.Version                            { return c.p.Header.Version }
func (c *ColorProfile) RenderingIntent() RenderingIntent                { return c.p.Header.RenderingIntent }
func (c *ColorProfile) MediaWhitePoint() icc.XYZType                    { return c.p.MediaWhitePoint() }
func (c *ColorProfile) CICP() *icc.CICPTag                              { return c.p.CICP() }
func (c *ColorProfile) WellKnownProfile() icc.WellKnownProfile          { return c.p.WellKnownProfile() }
func (c *ColorProfile) IsMatrixShaper() bool                            { return c.p.IsMatrixShaper() }
func (c *ColorProfile) Description() (string, error)                    { return c.p.Description() }
func (c *ColorProfile) Copyright() (string, error)                      { return c.p.Copyright() }
func (c *ColorProfile) HasLUT(intent RenderingIntent, to_pcs bool) bool { return c.p.HasLUT(intent, to_pcs) }

func (c *ColorProfile) String() string {
	d, _ := c.Description()
	return fmt.Sprintf("ColorProfile{%s %s %q}", c.ColorSpace(), c.DeviceClass(), d)
}
