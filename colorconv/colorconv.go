// Package colorconv holds the colorimetric math shared by the profile parser
// and the pipeline compiler: CIE L*a*b* <-> XYZ, Bradford chromatic
// adaptation and the construction of RGB -> XYZ matrices from primaries.
//
// All XYZ values are normalized so that Y = 1.0 for the reference white.
package colorconv

import (
	"errors"
	"math"
)

type Vec3 [3]float64
type Mat3 [3][3]float64

// Chromaticity is a CIE xy coordinate.
type Chromaticity struct{ X, Y float64 }

// Primaries are the chromaticities of the red, green and blue colorants.
type Primaries struct{ Red, Green, Blue Chromaticity }

// Standard reference whites (CIE XYZ) normalized so Y = 1.0
// Note that WhiteD50 uses the ICC.1 values rather than the CIE ones.
var (
	WhiteD50 = Vec3{0.9642, 1.0, 0.8249}
	WhiteD65 = Chromaticity{0.3127, 0.3290}.XYZ()
	WhiteDCI = Chromaticity{0.314, 0.351}.XYZ()
)

// Bradford transform matrices (forward and inverse)
var (
	bradford = Mat3{
		{0.8951, 0.2664, -0.1614},
		{-0.7502, 1.7135, 0.0367},
		{0.0389, -0.0685, 1.0296},
	}
	invBradford = func() Mat3 {
		m, err := bradford.Inverted()
		if err != nil {
			panic(err)
		}
		return m
	}()
)

var ErrSingularMatrix = errors.New("matrix is singular and cannot be inverted")

// XYZ returns the tristimulus value of the chromaticity with Y = 1.
func (c Chromaticity) XYZ() Vec3 {
	if c.Y == 0 {
		return Vec3{}
	}
	return Vec3{c.X / c.Y, 1, (1 - c.X - c.Y) / c.Y}
}

// ChromaticityFromXYZ is the inverse of Chromaticity.XYZ
func ChromaticityFromXYZ(v Vec3) Chromaticity {
	s := v[0] + v[1] + v[2]
	if s == 0 {
		return Chromaticity{}
	}
	return Chromaticity{v[0] / s, v[1] / s}
}

func (a Mat3) Mul(b Mat3) Mat3 {
	var out Mat3
	for i := range 3 {
		for j := range 3 {
			sum := 0.0
			for k := range 3 {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

func (m Mat3) Transposed() (ans Mat3) {
	for i := range 3 {
		for j := range 3 {
			ans[i][j] = m[j][i]
		}
	}
	return
}

func (m Mat3) Determinant() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func (m Mat3) Inverted() (ans Mat3, err error) {
	det := m.Determinant()
	if math.Abs(det) < 1e-12 {
		return ans, ErrSingularMatrix
	}
	inv := 1 / det
	ans = Mat3{
		{
			(m[1][1]*m[2][2] - m[1][2]*m[2][1]) * inv,
			(m[0][2]*m[2][1] - m[0][1]*m[2][2]) * inv,
			(m[0][1]*m[1][2] - m[0][2]*m[1][1]) * inv,
		},
		{
			(m[1][2]*m[2][0] - m[1][0]*m[2][2]) * inv,
			(m[0][0]*m[2][2] - m[0][2]*m[2][0]) * inv,
			(m[0][2]*m[1][0] - m[0][0]*m[1][2]) * inv,
		},
		{
			(m[1][0]*m[2][1] - m[1][1]*m[2][0]) * inv,
			(m[0][1]*m[2][0] - m[0][0]*m[2][1]) * inv,
			(m[0][0]*m[1][1] - m[0][1]*m[1][0]) * inv,
		},
	}
	return
}

func Identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func Diagonal(v Vec3) Mat3 {
	return Mat3{{v[0], 0, 0}, {0, v[1], 0}, {0, 0, v[2]}}
}

// ChromaticAdaptationMatrix constructs a 3x3 matrix that adapts XYZ values
// from sourceWhite to targetWhite using the Bradford method.
func ChromaticAdaptationMatrix(sourceWhite, targetWhite Vec3) Mat3 {
	src := bradford.MulVec(sourceWhite)
	tgt := bradford.MulVec(targetWhite)
	diag := Diagonal(Vec3{tgt[0] / src[0], tgt[1] / src[1], tgt[2] / src[2]})
	// adapt = invB * diag * B
	return invBradford.Mul(diag.Mul(bradford))
}

// RGBToXYZ returns the matrix mapping linear RGB to XYZ relative to white,
// so that (1, 1, 1) maps to white.
func RGBToXYZ(p Primaries, white Vec3) (Mat3, error) {
	r, g, b := p.Red.XYZ(), p.Green.XYZ(), p.Blue.XYZ()
	m := Mat3{
		{r[0], g[0], b[0]},
		{r[1], g[1], b[1]},
		{r[2], g[2], b[2]},
	}
	inv, err := m.Inverted()
	if err != nil {
		return m, err
	}
	s := inv.MulVec(white)
	return m.Mul(Diagonal(s)), nil
}

// RGBToXYZD50 is RGBToXYZ followed by Bradford adaptation from white to D50,
// which is how ICC colorants are stored.
func RGBToXYZD50(p Primaries, white Vec3) (Mat3, error) {
	m, err := RGBToXYZ(p, white)
	if err != nil {
		return m, err
	}
	return ChromaticAdaptationMatrix(white, WhiteD50).Mul(m), nil
}

const (
	labEpsilon = 216.0 / 24389.0
	labKappa   = 24389.0 / 27.0
)

func finv(t float64) float64 {
	if t3 := t * t * t; t3 > labEpsilon {
		return t3
	}
	return (116*t - 16) / labKappa
}

func ff(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return (labKappa*t + 16) / 116
}

// LabToXYZ converts L*a*b* relative to white into XYZ.
func LabToXYZ(L, a, b float64, white Vec3) (X, Y, Z float64) {
	fy := (L + 16) / 116
	fx := fy + a/500
	fz := fy - b/200
	return white[0] * finv(fx), white[1] * finv(fy), white[2] * finv(fz)
}

// XYZToLab converts XYZ into L*a*b* relative to white.
func XYZToLab(X, Y, Z float64, white Vec3) (L, a, b float64) {
	fx, fy, fz := ff(X/white[0]), ff(Y/white[1]), ff(Z/white[2])
	return 116*fy - 16, 500 * (fx - fy), 200 * (fy - fz)
}
