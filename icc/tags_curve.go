package icc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
)

// Determinant lower than that are assumed zero (used on matrix invert)
const MATRIX_DET_TOLERANCE = 0.0001

// The largest number of entries accepted in a sampled curve
const MaxCurveEntries = 40000

type IdentityCurve int
type GammaCurve struct {
	gamma, inv_gamma unit_float
	is_one           bool
}
type PointsCurve struct {
	points, ascending []unit_float
	max_idx           unit_float
	descending        bool
}
type ConditionalZeroCurve struct{ g, a, b, threshold, inv_gamma, inv_a unit_float }
type ConditionalCCurve struct{ g, a, b, c, threshold, inv_gamma, inv_a unit_float }
type SplitCurve struct{ g, a, b, c, d, inv_g, inv_a, inv_c, threshold unit_float }
type ComplexCurve struct{ g, a, b, c, d, e, f, inv_g, inv_a, inv_c, threshold unit_float }

// Curve1D is a tone reproduction curve mapping [0, 1] to [0, 1]. Inputs
// outside the domain are clamped.
type Curve1D interface {
	Transform(x unit_float) unit_float
	InverseTransform(x unit_float) unit_float
	Prepare() error
	String() string
}

var _ Curve1D = (*IdentityCurve)(nil)
var _ Curve1D = (*GammaCurve)(nil)
var _ Curve1D = (*PointsCurve)(nil)
var _ Curve1D = (*ConditionalZeroCurve)(nil)
var _ Curve1D = (*ConditionalCCurve)(nil)
var _ Curve1D = (*SplitCurve)(nil)
var _ Curve1D = (*ComplexCurve)(nil)

// CurvesEqual reports whether two curves have the same definition
func CurvesEqual(a, b Curve1D) bool {
	if a == b {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// clamp01 maps NaN to zero
func clamp01(v unit_float) unit_float {
	if v > 0 {
		if v < 1 {
			return v
		}
		return 1
	}
	return 0
}

type CurveTransformer struct {
	curves []Curve1D
	name   string
}
type InverseCurveTransformer struct {
	curves []Curve1D
	name   string
}

var _ ChannelTransformer = (*CurveTransformer)(nil)
var _ ChannelTransformer = (*InverseCurveTransformer)(nil)

func NewCurveTransformer(name string, curves ...Curve1D) *CurveTransformer {
	return &CurveTransformer{curves: curves, name: name}
}

func NewInverseCurveTransformer(name string, curves ...Curve1D) *InverseCurveTransformer {
	return &InverseCurveTransformer{curves: curves, name: name}
}

func (c *CurveTransformer) Curves() []Curve1D                    { return c.curves }
func (c *CurveTransformer) IOSig() (int, int)                    { return len(c.curves), len(c.curves) }
func (c *CurveTransformer) Iter(f func(ChannelTransformer) bool) { f(c) }
func (c *CurveTransformer) String() string                       { return fmt.Sprintf("%s%s", c.name, curves_as_string(c.curves)) }
func (c *CurveTransformer) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	return c.curves[0].Transform(r), c.curves[1].Transform(g), c.curves[2].Transform(b)
}
func (c *CurveTransformer) TransformGeneral(out, in []unit_float) {
	for i, x := range in[:len(c.curves)] {
		out[i] = c.curves[i].Transform(x)
	}
}

func (c *InverseCurveTransformer) Curves() []Curve1D                    { return c.curves }
func (c *InverseCurveTransformer) IOSig() (int, int)                    { return len(c.curves), len(c.curves) }
func (c *InverseCurveTransformer) Iter(f func(ChannelTransformer) bool) { f(c) }
func (c *InverseCurveTransformer) String() string {
	return fmt.Sprintf("%s%s", c.name, curves_as_string(c.curves))
}
func (c *InverseCurveTransformer) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	return c.curves[0].InverseTransform(r), c.curves[1].InverseTransform(g), c.curves[2].InverseTransform(b)
}
func (c *InverseCurveTransformer) TransformGeneral(out, in []unit_float) {
	for i, x := range in[:len(c.curves)] {
		out[i] = c.curves[i].InverseTransform(x)
	}
}

func curves_as_string(c []Curve1D) string {
	if len(c) > 0 && !slices.ContainsFunc(c[1:], func(x Curve1D) bool { return !CurvesEqual(x, c[0]) }) {
		return fmt.Sprintf("{%s x%d}", c[0], len(c))
	}
	return fmt.Sprintf("%v", c)
}

type ParametricCurveFunction uint16

const (
	SimpleGammaFunction     ParametricCurveFunction = 0 // Y = X^g
	ConditionalZeroFunction ParametricCurveFunction = 1 // Y = (aX+b)^g for X >= d, else 0
	ConditionalCFunction    ParametricCurveFunction = 2 // Y = (aX+b)^g for X >= d, else c
	SplitFunction           ParametricCurveFunction = 3 // Two different functions split at d
	ComplexFunction         ParametricCurveFunction = 4 // More complex piecewise function
)

func align_to_4(x int) int {
	if extra := x % 4; extra > 0 {
		x += 4 - extra
	}
	return x
}

func fixed88ToFloat(raw []byte) unit_float {
	return unit_float(uint16(raw[0])<<8|uint16(raw[1])) / 256
}

func NewGammaCurve(gamma unit_float) (Curve1D, error) {
	if math.Abs(gamma-1) < 1e-9 {
		c := IdentityCurve(0)
		return &c, nil
	}
	c := &GammaCurve{gamma: gamma}
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewParametricCurve creates a curve from the parameters of an ICC para tag
// in the order they are stored: g, a, b, c, d, e, f.
func NewParametricCurve(params ...unit_float) (Curve1D, error) {
	var c Curve1D
	p := func(i int) unit_float { return params[i] }
	switch len(params) {
	case 1:
		return NewGammaCurve(p(0))
	case 3:
		c = &ConditionalZeroCurve{g: p(0), a: p(1), b: p(2)}
	case 4:
		c = &ConditionalCCurve{g: p(0), a: p(1), b: p(2), c: p(3)}
	case 5:
		c = &SplitCurve{g: p(0), a: p(1), b: p(2), c: p(3), d: p(4)}
	case 7:
		c = &ComplexCurve{g: p(0), a: p(1), b: p(2), c: p(3), d: p(4), e: p(5), f: p(6)}
	default:
		return nil, fmt.Errorf("invalid number of parametric curve parameters: %d", len(params))
	}
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewPointsCurve creates a sampled curve. Samples are in [0, 1] and must be
// monotonic.
func NewPointsCurve(points []unit_float) (*PointsCurve, error) {
	c := &PointsCurve{points: points}
	if err := c.Prepare(); err != nil {
		return nil, err
	}
	return c, nil
}

func embeddedCurveDecoder(raw []byte) (any, int, error) {
	if len(raw) < 12 {
		return nil, 0, errors.New("curv tag too short")
	}
	count := int(binary.BigEndian.Uint32(raw[8:12]))
	if count > MaxCurveEntries {
		return nil, 0, fmt.Errorf("curv tag has too many entries: %d", count)
	}
	consumed := align_to_4(12 + count*2)
	switch count {
	case 0:
		c := IdentityCurve(0)
		return &c, consumed, nil
	case 1:
		if len(raw) < 14 {
			return nil, 0, errors.New("curv tag missing gamma value")
		}
		c, err := NewGammaCurve(fixed88ToFloat(raw[12:14]))
		if err != nil {
			return nil, 0, err
		}
		return c, consumed, nil
	default:
		if len(raw) < 12+count*2 {
			return nil, 0, errors.New("curv tag truncated")
		}
		points := make([]uint16, count)
		_, _ = binary.Decode(raw[12:], binary.BigEndian, points)
		fp := make([]unit_float, len(points))
		for i, p := range points {
			fp[i] = unit_float(p) / 65535
		}
		c, err := NewPointsCurve(fp)
		if err != nil {
			return nil, 0, err
		}
		return c, consumed, nil
	}
}

func curveDecoder(raw []byte) (any, error) {
	ans, _, err := embeddedCurveDecoder(raw)
	return ans, err
}

var parametric_param_counts = [...]int{1, 3, 4, 5, 7}

func embeddedParametricCurveDecoder(raw []byte) (ans any, consumed int, err error) {
	block_len := len(raw)
	if block_len < 16 {
		return nil, 0, errors.New("para tag too short")
	}
	funcType := ParametricCurveFunction(binary.BigEndian.Uint16(raw[8:10]))
	if int(funcType) >= len(parametric_param_counts) {
		return nil, 0, fmt.Errorf("unknown parametric function type: %d", funcType)
	}
	const header_len = 12
	n := parametric_param_counts[funcType]
	if consumed = header_len + 4*n; block_len < consumed {
		return nil, 0, errors.New("para tag too short")
	}
	params := make([]unit_float, n)
	for i := range params {
		params[i] = readS15Fixed16BE(raw[header_len+4*i:])
	}
	c, err := NewParametricCurve(params...)
	if err != nil {
		return nil, 0, err
	}
	return c, align_to_4(consumed), nil
}

func parametricCurveDecoder(raw []byte) (any, error) {
	ans, _, err := embeddedParametricCurveDecoder(raw)
	return ans, err
}

func (c IdentityCurve) Transform(x unit_float) unit_float {
	return clamp01(x)
}

func (c IdentityCurve) InverseTransform(x unit_float) unit_float {
	return clamp01(x)
}

func (c IdentityCurve) Prepare() error { return nil }
func (c IdentityCurve) String() string { return "IdentityCurve{}" }

func (c GammaCurve) Transform(x unit_float) unit_float {
	x = clamp01(x)
	if c.is_one {
		return x
	}
	return math.Pow(x, c.gamma)
}

func (c GammaCurve) InverseTransform(x unit_float) unit_float {
	x = clamp01(x)
	if c.is_one {
		return x
	}
	return math.Pow(x, c.inv_gamma)
}

func (c *GammaCurve) Prepare() error {
	if c.gamma <= 0 {
		return fmt.Errorf("gamma curve has invalid gamma value: %f", c.gamma)
	}
	c.inv_gamma = 1 / c.gamma
	c.is_one = math.Abs(c.gamma-1) < MATRIX_DET_TOLERANCE
	return nil
}
func (c GammaCurve) String() string { return fmt.Sprintf("GammaCurve{%.6g}", c.gamma) }

func (c *PointsCurve) Prepare() error {
	if len(c.points) < 2 {
		return fmt.Errorf("sampled curve must have at least two points not %d", len(c.points))
	}
	c.max_idx = unit_float(len(c.points) - 1)
	non_decreasing, non_increasing := true, true
	for i := 1; i < len(c.points) && (non_decreasing || non_increasing); i++ {
		switch d := c.points[i] - c.points[i-1]; {
		case d < 0:
			non_decreasing = false
		case d > 0:
			non_increasing = false
		}
	}
	switch {
	case non_decreasing:
		c.ascending = c.points
	case non_increasing:
		c.descending = true
		c.ascending = slices.Clone(c.points)
		slices.Reverse(c.ascending)
	default:
		return errors.New("sampled curve is not monotonic")
	}
	return nil
}

func sampled_value(samples []unit_float, max_idx unit_float, x unit_float) unit_float {
	idx := clamp01(x) * max_idx
	lof := math.Trunc(idx)
	lo := int(lof)
	if lof == idx {
		return samples[lo]
	}
	p := idx - lof
	vhi := samples[lo+1]
	vlo := samples[lo]
	return vlo + p*(vhi-vlo)
}

func (c *PointsCurve) Transform(v unit_float) unit_float {
	return sampled_value(c.points, c.max_idx, v)
}

func (c *PointsCurve) InverseTransform(y unit_float) unit_float {
	a := c.ascending
	y = max(a[0], min(y, a[len(a)-1]))
	i := sort.SearchFloat64s(a, y)
	var idx unit_float
	if i > 0 {
		y0, y1 := a[i-1], a[i]
		idx = unit_float(i-1) + (y-y0)/(y1-y0)
	}
	x := idx / c.max_idx
	if c.descending {
		x = 1 - x
	}
	return x
}

func (c *PointsCurve) Points() []unit_float { return c.points }
func (c *PointsCurve) String() string       { return fmt.Sprintf("PointsCurve{%d}", len(c.points)) }

func (c *ConditionalZeroCurve) Prepare() error {
	if c.a == 0 || c.g == 0 {
		return fmt.Errorf("conditional zero curve has zero parameter value: a=%f or g=%f", c.a, c.g)
	}
	c.threshold, c.inv_gamma, c.inv_a = -c.b/c.a, 1/c.g, 1/c.a
	return nil
}

func (c *ConditionalZeroCurve) String() string {
	return fmt.Sprintf("ConditionalZeroCurve{a: %v b: %v g: %v}", c.a, c.b, c.g)
}

func (c *ConditionalZeroCurve) Transform(x unit_float) unit_float {
	// Y = (aX+b)^g if X ≥ -b/a else 0
	x = clamp01(x)
	if x >= c.threshold {
		if e := c.a*x + c.b; e > 0 {
			return math.Pow(e, c.g)
		}
	}
	return 0
}

func (c *ConditionalZeroCurve) InverseTransform(y unit_float) unit_float {
	// X = (Y^(1/g) - b) / a
	return clamp01((math.Pow(clamp01(y), c.inv_gamma) - c.b) * c.inv_a)
}

func (c *ConditionalCCurve) Prepare() error {
	if c.a == 0 || c.g == 0 {
		return fmt.Errorf("conditional C curve has zero parameter value: a=%f or g=%f", c.a, c.g)
	}
	c.threshold, c.inv_gamma, c.inv_a = -c.b/c.a, 1/c.g, 1/c.a
	return nil
}

func (c *ConditionalCCurve) String() string {
	return fmt.Sprintf("ConditionalCCurve{a: %v b: %v c: %v g: %v}", c.a, c.b, c.c, c.g)
}

func (c *ConditionalCCurve) Transform(x unit_float) unit_float {
	// Y = (aX+b)^g + c if X ≥ -b/a else c
	x = clamp01(x)
	if x >= c.threshold {
		if e := c.a*x + c.b; e > 0 {
			return math.Pow(e, c.g) + c.c
		}
	}
	return c.c
}

func (c *ConditionalCCurve) InverseTransform(y unit_float) unit_float {
	// X = ((Y-c)^(1/g) - b) / a if Y >= c else X = -b/a
	y = clamp01(y)
	if e := y - c.c; e > 0 {
		return clamp01((math.Pow(e, c.inv_gamma) - c.b) * c.inv_a)
	}
	return clamp01(c.threshold)
}

func (c *SplitCurve) Prepare() error {
	if c.a == 0 || c.g == 0 {
		return fmt.Errorf("split curve has zero parameter value: a=%f or g=%f", c.a, c.g)
	}
	c.threshold, c.inv_g, c.inv_a = math.Pow(max(0, c.a*c.d+c.b), c.g), 1/c.g, 1/c.a
	if c.c != 0 {
		c.inv_c = 1 / c.c
	}
	return nil
}

func (c *SplitCurve) String() string {
	return fmt.Sprintf("SplitCurve{a: %v b: %v c: %v d: %v g: %v}", c.a, c.b, c.c, c.d, c.g)
}

func (c *SplitCurve) Transform(x unit_float) unit_float {
	// Y = (aX+b)^g if X ≥ d else cX
	x = clamp01(x)
	if x >= c.d {
		if e := c.a*x + c.b; e > 0 {
			return math.Pow(e, c.g)
		}
		return 0
	}
	return c.c * x
}

func (c *SplitCurve) InverseTransform(y unit_float) unit_float {
	// X=((Y^1/g-b)/a)    | Y >= (ad+b)^g
	// X=Y/c              | Y< (ad+b)^g
	y = clamp01(y)
	if y < c.threshold {
		return clamp01(y * c.inv_c)
	}
	return clamp01((math.Pow(y, c.inv_g) - c.b) * c.inv_a)
}

func (c *ComplexCurve) Prepare() error {
	if c.a == 0 || c.g == 0 {
		return fmt.Errorf("complex curve has zero parameter value: a=%f or g=%f", c.a, c.g)
	}
	c.threshold, c.inv_g, c.inv_a = math.Pow(max(0, c.a*c.d+c.b), c.g)+c.e, 1/c.g, 1/c.a
	if c.c != 0 {
		c.inv_c = 1 / c.c
	}
	return nil
}

func (c *ComplexCurve) String() string {
	return fmt.Sprintf("ComplexCurve{a: %v b: %v c: %v d: %v e: %v f: %v g: %v}", c.a, c.b, c.c, c.d, c.e, c.f, c.g)
}

func (c *ComplexCurve) Transform(x unit_float) unit_float {
	// Y = (aX+b)^g + e if X ≥ d else cX+f
	x = clamp01(x)
	if x >= c.d {
		if e := c.a*x + c.b; e > 0 {
			return math.Pow(e, c.g) + c.e
		}
		return c.e
	}
	return c.c*x + c.f
}

func (c *ComplexCurve) InverseTransform(y unit_float) unit_float {
	// X=((Y-e)1/g-b)/a   | Y >=(ad+b)^g+e), cd+f
	// X=(Y-f)/c          | else
	y = clamp01(y)
	if y < c.threshold {
		return clamp01((y - c.f) * c.inv_c)
	}
	if e := y - c.e; e > 0 {
		return clamp01((math.Pow(e, c.inv_g) - c.b) * c.inv_a)
	}
	return 0
}

// PQCurve is the SMPTE ST 2084 EOTF with 10000 cd/m² mapped to 1
type PQCurve int

const (
	pq_m1 = 0.1593017578125
	pq_m2 = 78.84375
	pq_c1 = 0.8359375
	pq_c2 = 18.8515625
	pq_c3 = 18.6875
)

func (c PQCurve) Prepare() error { return nil }
func (c PQCurve) String() string { return "PQCurve{}" }

func (c PQCurve) Transform(x unit_float) unit_float {
	p := math.Pow(clamp01(x), 1/pq_m2)
	return clamp01(math.Pow(max(p-pq_c1, 0)/(pq_c2-pq_c3*p), 1/pq_m1))
}

func (c PQCurve) InverseTransform(y unit_float) unit_float {
	p := math.Pow(clamp01(y), pq_m1)
	return clamp01(math.Pow((pq_c1+pq_c2*p)/(1+pq_c3*p), pq_m2))
}

// HLGCurve is the inverse of the ARIB STD-B67 OETF, mapping signal values to
// normalized scene light
type HLGCurve int

const (
	hlg_a = 0.17883277
	hlg_b = 0.28466892
	hlg_c = 0.55991073
)

func (c HLGCurve) Prepare() error { return nil }
func (c HLGCurve) String() string { return "HLGCurve{}" }

func (c HLGCurve) Transform(x unit_float) unit_float {
	x = clamp01(x)
	if x <= 0.5 {
		return x * x / 3
	}
	return clamp01((math.Exp((x-hlg_c)/hlg_a) + hlg_b) / 12)
}

func (c HLGCurve) InverseTransform(y unit_float) unit_float {
	y = clamp01(y)
	if y <= 1./12 {
		return math.Sqrt(3 * y)
	}
	return clamp01(hlg_a*math.Log(12*y-hlg_b) + hlg_c)
}

var _ Curve1D = PQCurve(0)
var _ Curve1D = HLGCurve(0)
