package icc

import (
	"fmt"

	"github.com/kovidgoyal/cms/colorconv"
)

var D50 = XYZType{0.9642, 1.0, 0.8249}

// The largest value representable by the u1Fixed15 XYZ PCS encoding
const max_encoded_xyz = 65535.0 / 32768.0

// The 16 bit legacy Lab encoding maps 0xff00 to L=100
const legacy_lab_scale = 65535.0 / 0xff00

// PCSEncoding identifies how a LUT based tag stores PCS values in [0, 1]
type PCSEncoding int

const (
	// Lab v4 and lut8: L = n*100, a,b = n*255 - 128. XYZ is u1Fixed15.
	StandardPCSEncoding PCSEncoding = iota
	// lut16 Lab where L = 100 is stored as 0xff00
	LegacyLab16PCSEncoding
)

// PCSDecoder converts normalized values from a LUT to Lab or XYZ
type PCSDecoder struct {
	pcs      ColorSpace
	encoding PCSEncoding
}

// PCSEncoder converts Lab or XYZ into normalized values suitable for a LUT
type PCSEncoder struct {
	pcs      ColorSpace
	encoding PCSEncoding
}

var _ ChannelTransformer = (*PCSDecoder)(nil)
var _ ChannelTransformer = (*PCSEncoder)(nil)

func NewPCSDecoder(pcs ColorSpace, e PCSEncoding) *PCSDecoder {
	return &PCSDecoder{pcs, e}
}

func NewPCSEncoder(pcs ColorSpace, e PCSEncoding) *PCSEncoder {
	return &PCSEncoder{pcs, e}
}

func (n *PCSDecoder) String() string                       { return fmt.Sprintf("Decode%s", n.pcs) }
func (n *PCSDecoder) IOSig() (int, int)                    { return 3, 3 }
func (n *PCSDecoder) Iter(f func(ChannelTransformer) bool) { f(n) }
func (n *PCSDecoder) TransformGeneral(o, i []unit_float)   { transform3(n, o, i) }
func (n *PCSDecoder) Transform(x, y, z unit_float) (unit_float, unit_float, unit_float) {
	if n.pcs == ColorSpaceXYZ {
		return x * max_encoded_xyz, y * max_encoded_xyz, z * max_encoded_xyz
	}
	if n.encoding == LegacyLab16PCSEncoding {
		x, y, z = x*legacy_lab_scale, y*legacy_lab_scale, z*legacy_lab_scale
	}
	return x * 100, y*255 - 128, z*255 - 128
}

func (n *PCSEncoder) String() string                       { return fmt.Sprintf("Encode%s", n.pcs) }
func (n *PCSEncoder) IOSig() (int, int)                    { return 3, 3 }
func (n *PCSEncoder) Iter(f func(ChannelTransformer) bool) { f(n) }
func (n *PCSEncoder) TransformGeneral(o, i []unit_float)   { transform3(n, o, i) }
func (n *PCSEncoder) Transform(x, y, z unit_float) (unit_float, unit_float, unit_float) {
	if n.pcs == ColorSpaceXYZ {
		return x / max_encoded_xyz, y / max_encoded_xyz, z / max_encoded_xyz
	}
	x, y, z = x/100, (y+128)/255, (z+128)/255
	if n.encoding == LegacyLab16PCSEncoding {
		x, y, z = x/legacy_lab_scale, y/legacy_lab_scale, z/legacy_lab_scale
	}
	return x, y, z
}

// LabToXYZ converts D50 relative Lab to XYZ
type LabToXYZ int

// XYZToLab converts XYZ to D50 relative Lab
type XYZToLab int

var _ ChannelTransformer = (*LabToXYZ)(nil)
var _ ChannelTransformer = (*XYZToLab)(nil)

func NewLabToXYZ() *LabToXYZ { return new(LabToXYZ) }
func NewXYZToLab() *XYZToLab { return new(XYZToLab) }

func (n *LabToXYZ) String() string                       { return "LabToXYZ" }
func (n *LabToXYZ) IOSig() (int, int)                    { return 3, 3 }
func (n *LabToXYZ) Iter(f func(ChannelTransformer) bool) { f(n) }
func (n *LabToXYZ) TransformGeneral(o, i []unit_float)   { transform3(n, o, i) }
func (n *LabToXYZ) Transform(l, a, b unit_float) (unit_float, unit_float, unit_float) {
	return colorconv.LabToXYZ(l, a, b, D50.AsVec3())
}

func (n *XYZToLab) String() string                       { return "XYZToLab" }
func (n *XYZToLab) IOSig() (int, int)                    { return 3, 3 }
func (n *XYZToLab) Iter(f func(ChannelTransformer) bool) { f(n) }
func (n *XYZToLab) TransformGeneral(o, i []unit_float)   { transform3(n, o, i) }
func (n *XYZToLab) Transform(x, y, z unit_float) (unit_float, unit_float, unit_float) {
	return colorconv.XYZToLab(x, y, z, D50.AsVec3())
}

// GrayToXYZ broadcasts a linear gray value onto the D50 white
type GrayToXYZ int

// XYZToGray extracts the luminance from XYZ
type XYZToGray int

var _ ChannelTransformer = (*GrayToXYZ)(nil)
var _ ChannelTransformer = (*XYZToGray)(nil)

func NewGrayToXYZ() *GrayToXYZ { return new(GrayToXYZ) }
func NewXYZToGray() *XYZToGray { return new(XYZToGray) }

func (n *GrayToXYZ) String() string                       { return "GrayToXYZ" }
func (n *GrayToXYZ) IOSig() (int, int)                    { return 1, 3 }
func (n *GrayToXYZ) Iter(f func(ChannelTransformer) bool) { f(n) }
func (n *GrayToXYZ) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	return D50.X * r, D50.Y * r, D50.Z * r
}
func (n *GrayToXYZ) TransformGeneral(o, i []unit_float) {
	o[0], o[1], o[2] = n.Transform(i[0], 0, 0)
}

func (n *XYZToGray) String() string                       { return "XYZToGray" }
func (n *XYZToGray) IOSig() (int, int)                    { return 3, 1 }
func (n *XYZToGray) Iter(f func(ChannelTransformer) bool) { f(n) }
func (n *XYZToGray) Transform(x, y, z unit_float) (unit_float, unit_float, unit_float) {
	return y, y, y
}
func (n *XYZToGray) TransformGeneral(o, i []unit_float) { o[0] = i[1] }

// AverageChannels collapses three channels into one by averaging
type AverageChannels int

// ReplicateChannel expands one channel into three
type ReplicateChannel int

var _ ChannelTransformer = (*AverageChannels)(nil)
var _ ChannelTransformer = (*ReplicateChannel)(nil)

func NewAverageChannels() *AverageChannels   { return new(AverageChannels) }
func NewReplicateChannel() *ReplicateChannel { return new(ReplicateChannel) }

func (n *AverageChannels) String() string                       { return "AverageChannels" }
func (n *AverageChannels) IOSig() (int, int)                    { return 3, 1 }
func (n *AverageChannels) Iter(f func(ChannelTransformer) bool) { f(n) }
func (n *AverageChannels) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	v := (r + g + b) / 3
	return v, v, v
}
func (n *AverageChannels) TransformGeneral(o, i []unit_float) { o[0] = (i[0] + i[1] + i[2]) / 3 }

func (n *ReplicateChannel) String() string                       { return "ReplicateChannel" }
func (n *ReplicateChannel) IOSig() (int, int)                    { return 1, 3 }
func (n *ReplicateChannel) Iter(f func(ChannelTransformer) bool) { f(n) }
func (n *ReplicateChannel) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	return r, r, r
}
func (n *ReplicateChannel) TransformGeneral(o, i []unit_float) { o[0], o[1], o[2] = i[0], i[0], i[0] }

// Clamp limits every channel to [0, 1]
type Clamp struct{ channels int }

var _ ChannelTransformer = (*Clamp)(nil)

func NewClamp(channels int) *Clamp { return &Clamp{channels} }

func (n *Clamp) String() string                       { return "Clamp" }
func (n *Clamp) IOSig() (int, int)                    { return n.channels, n.channels }
func (n *Clamp) Iter(f func(ChannelTransformer) bool) { f(n) }
func (n *Clamp) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	return clamp01(r), clamp01(g), clamp01(b)
}
func (n *Clamp) TransformGeneral(o, i []unit_float) {
	for k, v := range i[:n.channels] {
		o[k] = clamp01(v)
	}
}
