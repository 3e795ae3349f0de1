package icc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const HeaderSize = 128

type ColorSpace uint32

const (
	ColorSpaceXYZ   ColorSpace = 0x58595A20 // 'XYZ '
	ColorSpaceLab   ColorSpace = 0x4C616220 // 'Lab '
	ColorSpaceLuv   ColorSpace = 0x4C757620 // 'Luv '
	ColorSpaceYCbCr ColorSpace = 0x59436272 // 'YCbr'
	ColorSpaceYxy   ColorSpace = 0x59787920 // 'Yxy '
	ColorSpaceRGB   ColorSpace = 0x52474220 // 'RGB '
	ColorSpaceGray  ColorSpace = 0x47524159 // 'GRAY'
	ColorSpaceHSV   ColorSpace = 0x48535620 // 'HSV '
	ColorSpaceHLS   ColorSpace = 0x484C5320 // 'HLS '
	ColorSpaceCMYK  ColorSpace = 0x434D594B // 'CMYK'
	ColorSpaceCMY   ColorSpace = 0x434D5920 // 'CMY '
	// 2CLR .. FCLR, the generic n-colour spaces
	ColorSpace2Color ColorSpace = 0x32434C52
	ColorSpace3Color ColorSpace = 0x33434C52
	ColorSpace4Color ColorSpace = 0x34434C52
	ColorSpace5Color ColorSpace = 0x35434C52
	ColorSpace6Color ColorSpace = 0x36434C52
	ColorSpace7Color ColorSpace = 0x37434C52
	ColorSpace8Color ColorSpace = 0x38434C52
	ColorSpace9Color ColorSpace = 0x39434C52
	ColorSpaceAColor ColorSpace = 0x41434C52
	ColorSpaceBColor ColorSpace = 0x42434C52
	ColorSpaceCColor ColorSpace = 0x43434C52
	ColorSpaceDColor ColorSpace = 0x44434C52
	ColorSpaceEColor ColorSpace = 0x45434C52
	ColorSpaceFColor ColorSpace = 0x46434C52
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceXYZ:
		return "XYZ"
	case ColorSpaceLab:
		return "Lab"
	case ColorSpaceRGB:
		return "RGB"
	case ColorSpaceGray:
		return "Gray"
	case ColorSpaceCMYK:
		return "CMYK"
	}
	return Signature(c).String()
}

// NumberOfChannels returns the number of components of a color in this
// space or zero for unrecognized spaces.
func (c ColorSpace) NumberOfChannels() int {
	switch c {
	case ColorSpaceGray:
		return 1
	case ColorSpaceXYZ, ColorSpaceLab, ColorSpaceLuv, ColorSpaceYCbCr, ColorSpaceYxy, ColorSpaceRGB, ColorSpaceHSV, ColorSpaceHLS, ColorSpaceCMY:
		return 3
	case ColorSpaceCMYK:
		return 4
	}
	if c&0xffffff == 0x434C52 { // 'nCLR'
		n := byte(c >> 24)
		switch {
		case n >= '2' && n <= '9':
			return int(n - '0')
		case n >= 'A' && n <= 'F':
			return int(n-'A') + 10
		}
	}
	return 0
}

type DeviceClass uint32

const (
	DeviceClassInput      DeviceClass = 0x73636E72 // 'scnr'
	DeviceClassDisplay    DeviceClass = 0x6D6E7472 // 'mntr'
	DeviceClassOutput     DeviceClass = 0x70727472 // 'prtr'
	DeviceClassLink       DeviceClass = 0x6C696E6B // 'link'
	DeviceClassColorSpace DeviceClass = 0x73706163 // 'spac'
	DeviceClassAbstract   DeviceClass = 0x61627374 // 'abst'
	DeviceClassNamedColor DeviceClass = 0x6E6D636C // 'nmcl'
)

func (c DeviceClass) String() string {
	switch c {
	case DeviceClassInput:
		return "Input"
	case DeviceClassDisplay:
		return "Display"
	case DeviceClassOutput:
		return "Output"
	case DeviceClassLink:
		return "DeviceLink"
	case DeviceClassColorSpace:
		return "ColorSpace"
	case DeviceClassAbstract:
		return "Abstract"
	case DeviceClassNamedColor:
		return "NamedColor"
	}
	return Signature(c).String()
}

func (c DeviceClass) is_known() bool {
	switch c {
	case DeviceClassInput, DeviceClassDisplay, DeviceClassOutput, DeviceClassLink, DeviceClassColorSpace, DeviceClassAbstract, DeviceClassNamedColor:
		return true
	}
	return false
}

type RenderingIntent uint32

const (
	PerceptualRenderingIntent RenderingIntent = iota
	RelativeColorimetricRenderingIntent
	SaturationRenderingIntent
	AbsoluteColorimetricRenderingIntent
)

func (r RenderingIntent) String() string {
	switch r {
	case PerceptualRenderingIntent:
		return "Perceptual"
	case RelativeColorimetricRenderingIntent:
		return "RelativeColorimetric"
	case SaturationRenderingIntent:
		return "Saturation"
	case AbsoluteColorimetricRenderingIntent:
		return "AbsoluteColorimetric"
	}
	return fmt.Sprintf("RenderingIntent(%d)", uint32(r))
}

type Version struct {
	Major, Minor, Bugfix uint8
}

func (v Version) String() string { return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Bugfix) }

type Header struct {
	ProfileSize            uint32
	PreferredCMM           Signature
	Version                Version
	DeviceClass            DeviceClass
	DataColorSpace         ColorSpace
	ProfileConnectionSpace ColorSpace
	CreatedAt              time.Time
	PrimaryPlatform        Signature
	Flags                  uint32
	DeviceManufacturer     Signature
	DeviceModel            Signature
	DeviceAttributes       uint64
	RenderingIntent        RenderingIntent
	PCSIlluminant          [12]byte
	ProfileCreator         Signature
	ProfileID              [16]byte
}

func (h Header) ParsedPCSIlluminant() XYZType {
	return XYZType{
		X: readS15Fixed16BE(h.PCSIlluminant[0:4]),
		Y: readS15Fixed16BE(h.PCSIlluminant[4:8]),
		Z: readS15Fixed16BE(h.PCSIlluminant[8:12]),
	}
}

func (h Header) Embedded() bool { return h.Flags&1 != 0 }

func (h Header) String() string {
	return fmt.Sprintf("Header{v%s %s %s -> %s intent: %s}", h.Version, h.DeviceClass, h.DataColorSpace, h.ProfileConnectionSpace, h.RenderingIntent)
}

func parse_date_time(raw []byte) time.Time {
	var v [6]uint16
	_, _ = binary.Decode(raw, binary.BigEndian, v[:])
	if v[0] == 0 {
		return time.Time{}
	}
	return time.Date(int(v[0]), time.Month(v[1]), int(v[2]), int(v[3]), int(v[4]), int(v[5]), 0, time.UTC)
}

// See section 7.2 of ICC.1-2202-05.pdf for the header layout
func parseHeader(raw []byte) (h Header, err error) {
	if len(raw) < HeaderSize {
		return h, errors.New("profile too short to contain a header")
	}
	be := binary.BigEndian
	sig := func(offset int) Signature { return Signature(be.Uint32(raw[offset : offset+4])) }
	if s := sig(36); s != ProfileFileSignature {
		return h, fmt.Errorf("invalid profile file signature: %s", s)
	}
	h.ProfileSize = be.Uint32(raw[0:4])
	h.PreferredCMM = sig(4)
	h.Version = Version{raw[8], raw[9] >> 4, raw[9] & 0xf}
	h.DeviceClass = DeviceClass(sig(12))
	h.DataColorSpace = ColorSpace(sig(16))
	h.ProfileConnectionSpace = ColorSpace(sig(20))
	h.CreatedAt = parse_date_time(raw[24:36])
	h.PrimaryPlatform = sig(40)
	h.Flags = be.Uint32(raw[44:48])
	h.DeviceManufacturer = sig(48)
	h.DeviceModel = sig(52)
	h.DeviceAttributes = be.Uint64(raw[56:64])
	h.RenderingIntent = RenderingIntent(be.Uint32(raw[64:68]) & 0xffff)
	copy(h.PCSIlluminant[:], raw[68:80])
	h.ProfileCreator = sig(80)
	copy(h.ProfileID[:], raw[84:100])

	if !h.DeviceClass.is_known() {
		return h, fmt.Errorf("unknown profile device class: %s", h.DeviceClass)
	}
	if h.DataColorSpace.NumberOfChannels() == 0 {
		return h, fmt.Errorf("unknown data color space: %s", h.DataColorSpace)
	}
	switch h.ProfileConnectionSpace {
	case ColorSpaceXYZ, ColorSpaceLab:
	default:
		// device link profiles use a data color space as their PCS
		if h.DeviceClass != DeviceClassLink || h.ProfileConnectionSpace.NumberOfChannels() == 0 {
			return h, fmt.Errorf("invalid profile connection space: %s", h.ProfileConnectionSpace)
		}
	}
	if h.RenderingIntent > AbsoluteColorimetricRenderingIntent {
		return h, fmt.Errorf("invalid rendering intent: %d", uint32(h.RenderingIntent))
	}
	return h, nil
}
