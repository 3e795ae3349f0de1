package icc

import (
	"encoding/binary"
	"testing"

	"github.com/kovidgoyal/cms/internal/iccbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func curves(n int, c []byte) [][]byte {
	ans := make([][]byte, n)
	for i := range ans {
		ans[i] = c
	}
	return ans
}

func stage_names(c ChannelTransformer) (ans []string) {
	c.Iter(func(s ChannelTransformer) bool {
		ans = append(ans, s.String())
		return true
	})
	return
}

func TestModularMatrixWithOffset(t *testing.T) {
	raw := iccbuild.Modular{
		AToB: true, In: 3, Out: 3,
		B:      curves(3, iccbuild.Curve()),
		Matrix: []float64{0.5, 0, 0, 0, 0.5, 0, 0, 0, 0.5, 0.1, 0.1, 0.1},
	}.Bytes()
	val, err := modularDecoder(raw)
	require.NoError(t, err)
	m := val.(*ModularTag)
	assert.True(t, m.IsAToB())
	require.Len(t, stage_names(m), 1)
	for _, x := range []unit_float{0, 0.3, 1} {
		r, g, b := m.Transform(x, x, x)
		in_delta(t, 0.5*x+0.1, r, 1e-4)
		in_delta(t, 0.5*x+0.1, g, 1e-4)
		in_delta(t, 0.5*x+0.1, b, 1e-4)
	}
}

func TestModularAToBWithCLUT(t *testing.T) {
	raw := iccbuild.Modular{
		AToB: true, In: 3, Out: 3,
		B:    curves(3, iccbuild.Curve()),
		A:    curves(3, iccbuild.Para(0, 2)),
		Grid: []int{2, 2, 2},
		CLUT: identity_clut16(2),
	}.Bytes()
	val, err := modularDecoder(raw)
	require.NoError(t, err)
	m := val.(*ModularTag)
	names := stage_names(m)
	require.Len(t, names, 2)
	assert.Equal(t, "A{GammaCurve{2} x3}", names[0])
	out := make([]unit_float, 3)
	m.TransformGeneral(out, []unit_float{0.5, 0.2, 0.9})
	assert.InDeltaSlice(t, []unit_float{0.25, 0.04, 0.81}, out, 1e-4)
}

func TestModularBToA(t *testing.T) {
	raw := iccbuild.Modular{
		AToB: false, In: 3, Out: 3,
		B:      curves(3, iccbuild.Para(0, 2)),
		Matrix: []float64{0, 1, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0},
		M:      curves(3, iccbuild.Curve()),
		A:      curves(3, iccbuild.Curve()),
		Grid:   []int{2, 2, 2},
		CLUT:   identity_clut16(2),
	}.Bytes()
	val, err := modularDecoder(raw)
	require.NoError(t, err)
	m := val.(*ModularTag)
	assert.False(t, m.IsAToB())
	// B curves, then the channel swapping matrix, then the CLUT
	require.Len(t, stage_names(m), 3)
	r, g, b := m.Transform(0.5, 0.2, 0.9)
	in_delta(t, 0.04, r, 1e-4)
	in_delta(t, 0.25, g, 1e-4)
	in_delta(t, 0.81, b, 1e-4)
}

func TestModularFourInputs(t *testing.T) {
	clut := make([]uint16, 0, 16*3)
	for c := range 2 {
		for m := range 2 {
			for y := range 2 {
				for k := range 2 {
					clut = append(clut, uint16(c*65535), uint16(m*65535), uint16((y|k)*65535))
				}
			}
		}
	}
	raw := iccbuild.Modular{
		AToB: true, In: 4, Out: 3,
		B:    curves(3, iccbuild.Curve()),
		A:    curves(4, iccbuild.Curve()),
		Grid: []int{2, 2, 2, 2},
		CLUT: clut,
	}.Bytes()
	val, err := modularDecoder(raw)
	require.NoError(t, err)
	m := val.(*ModularTag)
	i, o := m.IOSig()
	assert.Equal(t, 4, i)
	assert.Equal(t, 3, o)
	out := make([]unit_float, 3)
	m.TransformGeneral(out, []unit_float{1, 0, 0, 0})
	assert.InDeltaSlice(t, []unit_float{1, 0, 0}, out, 1e-9)
	m.TransformGeneral(out, []unit_float{0, 1, 0, 1})
	assert.InDeltaSlice(t, []unit_float{0, 1, 1}, out, 1e-9)
}

func TestModularDecoderErrors(t *testing.T) {
	base := iccbuild.Modular{
		AToB: true, In: 3, Out: 3,
		B:    curves(3, iccbuild.Curve()),
		Grid: []int{2, 2, 2},
		CLUT: identity_clut16(2),
	}
	_, err := modularDecoder(base.Bytes())
	require.NoError(t, err)

	_, err = modularDecoder(base.Bytes()[:20])
	require.ErrorContains(t, err, "too short")

	raw := base.Bytes()
	binary.BigEndian.PutUint32(raw[12:], uint32(len(raw)+100))
	_, err = modularDecoder(raw)
	require.ErrorContains(t, err, "out of bounds")

	raw = base.Bytes()
	binary.BigEndian.PutUint32(raw[12:], 8)
	_, err = modularDecoder(raw)
	require.ErrorContains(t, err, "out of bounds")

	nob := base
	nob.B = nil
	_, err = modularDecoder(nob.Bytes())
	require.ErrorContains(t, err, "no B curves")

	noclut := iccbuild.Modular{AToB: true, In: 4, Out: 3, B: curves(3, iccbuild.Curve()), A: curves(4, iccbuild.Curve())}
	_, err = modularDecoder(noclut.Bytes())
	require.ErrorContains(t, err, "without a CLUT")

	badm := iccbuild.Modular{AToB: false, In: 4, Out: 4, B: curves(4, iccbuild.Curve()), Matrix: make([]float64, 12)}
	_, err = modularDecoder(badm.Bytes())
	require.ErrorContains(t, err, "matrix")

	raw = base.Bytes()
	copy(raw[0:4], "mXYZ")
	_, err = modularDecoder(raw)
	require.ErrorContains(t, err, "unknown signature")
}
