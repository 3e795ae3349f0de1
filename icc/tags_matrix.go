package icc

import (
	"errors"
	"fmt"
	"math"

	"github.com/kovidgoyal/cms/colorconv"
)

type Matrix3 [3][3]unit_float
type IdentityMatrix int

type MatrixWithOffset struct {
	m                         ChannelTransformer
	offset1, offset2, offset3 unit_float
}

var _ ChannelTransformer = (*Matrix3)(nil)
var _ ChannelTransformer = (*IdentityMatrix)(nil)
var _ ChannelTransformer = (*MatrixWithOffset)(nil)

func is_identity_matrix(m *Matrix3) bool {
	return m[0][0] == 1 && m[0][1] == 0 && m[0][2] == 0 && m[1][0] == 0 && m[1][1] == 1 && m[1][2] == 0 && m[2][0] == 0 && m[2][1] == 0 && m[2][2] == 1
}

func NewIdentityMatrix3() Matrix3 { return Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} }

// Diagonal matrix that scales each channel independently
func NewScalingMatrix3(x, y, z unit_float) Matrix3 { return Matrix3{{x, 0, 0}, {0, y, 0}, {0, 0, z}} }

func (m *Matrix3) IsIdentity(tolerance unit_float) bool {
	id := NewIdentityMatrix3()
	return m.Equals(&id, tolerance)
}

func (m *Matrix3) Equals(o *Matrix3, tolerance unit_float) bool {
	for i := range 3 {
		for j := range 3 {
			if math.Abs(m[i][j]-o[i][j]) > tolerance {
				return false
			}
		}
	}
	return true
}

func (m *Matrix3) AsMatrix3() *Matrix3 { return m }

// Multiply returns m * o, that is the transform that applies o first and
// then m.
func (m *Matrix3) Multiply(o Matrix3) Matrix3 {
	return Matrix3(colorconv.Mat3(*m).Mul(colorconv.Mat3(o)))
}

func (m *Matrix3) Inverted() (ans Matrix3, err error) {
	inv, err := colorconv.Mat3(*m).Inverted()
	if err != nil {
		return ans, err
	}
	return Matrix3(inv), nil
}

func (m *Matrix3) String() string {
	return fmt.Sprintf("Matrix3{%.6v, %.6v, %.6v}", m[0], m[1], m[2])
}

func (m *Matrix3) IOSig() (int, int)                    { return 3, 3 }
func (m *Matrix3) Iter(f func(ChannelTransformer) bool) { f(m) }

func (m *Matrix3) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	return m[0][0]*r + m[0][1]*g + m[0][2]*b,
		m[1][0]*r + m[1][1]*g + m[1][2]*b,
		m[2][0]*r + m[2][1]*g + m[2][2]*b
}

func (m *Matrix3) TransformGeneral(out, in []unit_float) { transform3(m, out, in) }

func (m *IdentityMatrix) String() string                        { return "IdentityMatrix" }
func (m *IdentityMatrix) IOSig() (int, int)                     { return 3, 3 }
func (m *IdentityMatrix) Iter(f func(ChannelTransformer) bool)  { f(m) }
func (m *IdentityMatrix) TransformGeneral(out, in []unit_float) { copy(out[:3], in[:3]) }
func (m *IdentityMatrix) AsMatrix3() *Matrix3 {
	ans := NewIdentityMatrix3()
	return &ans
}
func (m *IdentityMatrix) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	return r, g, b
}

func (m *MatrixWithOffset) String() string {
	return fmt.Sprintf("MatrixWithOffset{%s, %.6v}", m.m, [3]unit_float{m.offset1, m.offset2, m.offset3})
}
func (m *MatrixWithOffset) IOSig() (int, int)                     { return 3, 3 }
func (m *MatrixWithOffset) Iter(f func(ChannelTransformer) bool)  { f(m) }
func (m *MatrixWithOffset) TransformGeneral(out, in []unit_float) { transform3(m, out, in) }
func (m *MatrixWithOffset) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	r, g, b = m.m.Transform(r, g, b)
	return r + m.offset1, g + m.offset2, b + m.offset3
}

func readS15Fixed16BE(raw []byte) unit_float {
	msb := int16(raw[0])<<8 | int16(raw[1])
	lsb := uint16(raw[2])<<8 | uint16(raw[3])
	return unit_float(msb) + unit_float(lsb)/65536
}

// embeddedMatrixDecoder reads a 3x3 matrix optionally followed by three
// offsets. The result is one of *IdentityMatrix, *Matrix3 or
// *MatrixWithOffset.
func embeddedMatrixDecoder(body []byte) (ChannelTransformer, error) {
	if len(body) < 36 {
		return nil, errors.New("matrix too short")
	}
	result := Matrix3{}
	var m ChannelTransformer = &result
	for i := range 9 {
		result[i/3][i%3] = readS15Fixed16BE(body[i*4 : (i+1)*4])
	}
	if is_identity_matrix(&result) {
		t := IdentityMatrix(0)
		m = &t
	}
	body = body[36:]
	if len(body) < 3*4 {
		return m, nil
	}
	r2 := &MatrixWithOffset{m: m}
	r2.offset1 = readS15Fixed16BE(body[:4])
	r2.offset2 = readS15Fixed16BE(body[4:8])
	r2.offset3 = readS15Fixed16BE(body[8:12])
	if r2.offset1 == 0 && r2.offset2 == 0 && r2.offset3 == 0 {
		return m, nil
	}
	return r2, nil
}

// The chad tag is an sf32 array of nine values
func matrixDecoder(raw []byte) (any, error) {
	if len(raw) < 8+(9*4) {
		return nil, errors.New("sf32 matrix tag too short")
	}
	ans := Matrix3{}
	for i := range 9 {
		ans[i/3][i%3] = readS15Fixed16BE(raw[8+i*4 : 8+(i+1)*4])
	}
	return &ans, nil
}

type XYZType struct{ X, Y, Z unit_float }

func (x XYZType) String() string { return fmt.Sprintf("XYZ{%.6v, %.6v, %.6v}", x.X, x.Y, x.Z) }

func (x XYZType) AsVec3() colorconv.Vec3 { return colorconv.Vec3{x.X, x.Y, x.Z} }

func xyzFromVec3(v colorconv.Vec3) XYZType { return XYZType{v[0], v[1], v[2]} }

func xyzDecoder(raw []byte) (any, error) {
	if len(raw) < 20 {
		return nil, errors.New("XYZ tag too short")
	}
	return &XYZType{readS15Fixed16BE(raw[8:12]), readS15Fixed16BE(raw[12:16]), readS15Fixed16BE(raw[16:20])}, nil
}
