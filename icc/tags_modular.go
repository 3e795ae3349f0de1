package icc

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ModularTag represents a modular tag section 10.12 and 10.13 of ICC.1-2202-05.pdf
type ModularTag struct {
	num_input_channels, num_output_channels int
	a_curves, m_curves, b_curves            []Curve1D
	clut                                    *CLUT
	matrix                                  ChannelTransformer
	transform_objects                       []ChannelTransformer
	is_a_to_b                               bool
}

var _ ChannelTransformer = (*ModularTag)(nil)

func (m *ModularTag) String() string {
	return fmt.Sprintf("%s{ %s }", IfElse(m.is_a_to_b, "mAB", "mBA"), transformers_as_string(m.transform_objects...))
}

func (m *ModularTag) IOSig() (int, int) { return m.num_input_channels, m.num_output_channels }
func (m *ModularTag) IsAToB() bool      { return m.is_a_to_b }

func (m *ModularTag) Iter(f func(ChannelTransformer) bool) {
	for _, c := range m.transform_objects {
		if !f(c) {
			return
		}
	}
}

func (m *ModularTag) Transform(r, g, b unit_float) (unit_float, unit_float, unit_float) {
	return general3(m, r, g, b)
}

func (m *ModularTag) TransformGeneral(out, in []unit_float) {
	NewPipeline(m.transform_objects...).TransformGeneral(out, in)
}

func has_non_identity_curve(c []Curve1D) bool {
	for _, x := range c {
		if _, ok := x.(*IdentityCurve); !ok {
			return true
		}
	}
	return false
}

func modularDecoder(raw []byte) (ans any, err error) {
	if len(raw) < 32 {
		return nil, errors.New("modular (mAB/mBA) tag too short")
	}
	s := Signature(binary.BigEndian.Uint32(raw[:4]))
	is_a_to_b := false
	switch s {
	case LutAtoBTypeSignature:
		is_a_to_b = true
	case LutBtoATypeSignature:
		is_a_to_b = false
	default:
		return nil, fmt.Errorf("modular tag has unknown signature: %s", s)
	}
	inputCh, outputCh := int(raw[8]), int(raw[9])
	if inputCh < 1 || inputCh > MaxCLUTInputs || outputCh < 1 || outputCh > MaxChannels {
		return nil, fmt.Errorf("modular tag has invalid channel counts: %d -> %d", inputCh, outputCh)
	}
	var offsets [5]uint32
	if _, err := binary.Decode(raw[12:32], binary.BigEndian, offsets[:]); err != nil {
		return nil, err
	}
	for _, o := range offsets {
		if o != 0 && (o < 32 || int(o) >= len(raw)) {
			return nil, fmt.Errorf("modular tag has out of bounds element offset: %d", o)
		}
	}
	b, matrix, m, clut, a := offsets[0], offsets[1], offsets[2], offsets[3], offsets[4]
	mt := &ModularTag{num_input_channels: inputCh, num_output_channels: outputCh, is_a_to_b: is_a_to_b}
	read_curves := func(offset uint32, num_curves_reqd int) (ans []Curve1D, err error) {
		if offset == 0 {
			return nil, nil
		}
		block := raw[offset:]
		var c any
		var consumed int
		for range num_curves_reqd {
			if len(block) < 12 {
				return nil, errors.New("modular (mAB/mBA) tag too short")
			}
			sig := Signature(binary.BigEndian.Uint32(block[:4]))
			switch sig {
			case CurveTypeSignature:
				c, consumed, err = embeddedCurveDecoder(block)
			case ParametricCurveTypeSignature:
				c, consumed, err = embeddedParametricCurveDecoder(block)
			default:
				return nil, fmt.Errorf("unknown curve type: %s in modularDecoder", sig)
			}
			if err != nil {
				return nil, err
			}
			block = block[min(consumed, len(block)):]
			ans = append(ans, c.(Curve1D))
		}
		return
	}
	// In both directions A curves sit on the device side and B curves on
	// the PCS side. M curves sit between the matrix and the CLUT.
	a_channels, b_channels := IfElse(is_a_to_b, inputCh, outputCh), IfElse(is_a_to_b, outputCh, inputCh)
	if mt.b_curves, err = read_curves(b, b_channels); err != nil {
		return nil, err
	}
	if mt.b_curves == nil {
		return nil, errors.New("modular tag has no B curves")
	}
	if mt.a_curves, err = read_curves(a, a_channels); err != nil {
		return nil, err
	}
	if mt.m_curves, err = read_curves(m, b_channels); err != nil {
		return nil, err
	}
	if clut > 0 {
		if mt.clut, err = embeddedClutDecoder(raw[clut:], inputCh, outputCh); err != nil {
			return nil, err
		}
	} else if inputCh != outputCh {
		return nil, fmt.Errorf("modular tag without a CLUT must have equal input and output channels not %d -> %d", inputCh, outputCh)
	}
	if matrix > 0 {
		if b_channels != 3 {
			return nil, fmt.Errorf("modular tag has a matrix but %d PCS side channels", b_channels)
		}
		if mt.matrix, err = embeddedMatrixDecoder(raw[matrix:]); err != nil {
			return nil, err
		}
	}
	add_curves := func(c []Curve1D, name string) {
		if has_non_identity_curve(c) {
			mt.transform_objects = append(mt.transform_objects, NewCurveTransformer(name, c...))
		}
	}
	add := func(c ChannelTransformer) {
		if !is_nil(c) {
			if _, is_identity := c.(*IdentityMatrix); !is_identity {
				mt.transform_objects = append(mt.transform_objects, c)
			}
		}
	}
	if is_a_to_b {
		add_curves(mt.a_curves, "A")
		add(mt.clut)
		add_curves(mt.m_curves, "M")
		add(mt.matrix)
		add_curves(mt.b_curves, "B")
	} else {
		add_curves(mt.b_curves, "B")
		add(mt.matrix)
		add_curves(mt.m_curves, "M")
		add(mt.clut)
		add_curves(mt.a_curves, "A")
	}
	return mt, nil
}
