package icc

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// UnknownTag holds the raw bytes of a tag whose type is not decoded
type UnknownTag struct {
	Type Signature
	Data []byte
}

func (u UnknownTag) String() string { return fmt.Sprintf("UnknownTag{%s %d bytes}", u.Type, len(u.Data)) }

type tag_decoder = func([]byte) (any, error)

var tag_decoders = map[Signature]tag_decoder{
	TextTagSignature:               textDecoder,
	DescSignature:                  textDescriptionDecoder,
	MultiLocalisedUnicodeSignature: multiLocalisedUnicodeDecoder,
	CurveTypeSignature:             curveDecoder,
	ParametricCurveTypeSignature:   parametricCurveDecoder,
	XYZTypeSignature:               xyzDecoder,
	S15Fixed16ArrayTypeSignature:   matrixDecoder,
	Lut8TypeSignature:              decode_mft8,
	Lut16TypeSignature:             decode_mft16,
	LutAtoBTypeSignature:           modularDecoder,
	LutBtoATypeSignature:           modularDecoder,
	CICPTypeSignature:              cicpDecoder,
}

func decode_tag(data []byte) (any, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("tag too short: %d bytes", len(data))
	}
	sig := Signature(binary.BigEndian.Uint32(data[:4]))
	if d, ok := tag_decoders[sig]; ok {
		return d(data)
	}
	return &UnknownTag{Type: sig, Data: data}, nil
}

// TagTable holds the decoded tags of a profile
type TagTable struct {
	entries map[Signature]any
}

func emptyTagTable() TagTable {
	return TagTable{entries: make(map[Signature]any)}
}

func (t *TagTable) set(sig Signature, val any) { t.entries[sig] = val }

func (t *TagTable) Has(sig Signature) bool {
	_, ok := t.entries[sig]
	return ok
}

// Get returns the decoded tag or nil if absent
func (t *TagTable) Get(sig Signature) any { return t.entries[sig] }

func (t *TagTable) Signatures() []Signature {
	ans := make([]Signature, 0, len(t.entries))
	for s := range t.entries {
		ans = append(ans, s)
	}
	slices.Sort(ans)
	return ans
}

func (t *TagTable) Len() int { return len(t.entries) }

func (t *TagTable) load_curve_tag(s Signature) (Curve1D, error) {
	switch c := t.entries[s].(type) {
	case nil:
		return nil, fmt.Errorf("could not find the %s tag", s)
	case Curve1D:
		return c, nil
	default:
		return nil, fmt.Errorf("%s tag is not a curve but: %T", s, c)
	}
}

func (t *TagTable) load_xyz(s Signature) (*XYZType, error) {
	switch c := t.entries[s].(type) {
	case nil:
		return nil, fmt.Errorf("could not find the %s tag", s)
	case *XYZType:
		return c, nil
	default:
		return nil, fmt.Errorf("%s tag is not an XYZ tag but: %T", s, c)
	}
}

func (t *TagTable) getText(s Signature) (string, error) {
	switch v := t.entries[s].(type) {
	case nil:
		return "", fmt.Errorf("no %s tag in ICC profile", s)
	case *TextDescription:
		return v.ASCII, nil
	case *MultiLocalisedUnicode:
		return v.BestString(), nil
	case *TextTag:
		return v.Text, nil
	default:
		return "", fmt.Errorf("unknown text tag type for %s: %T", s, v)
	}
}
