package icc

import (
	"errors"
	"fmt"
)

// CICPTag holds ITU-T H.273 coding independent code points
type CICPTag struct {
	ColorPrimaries, TransferCharacteristics, MatrixCoefficients uint8
	VideoFullRange                                              bool
}

func (c CICPTag) String() string {
	return fmt.Sprintf("CICP{primaries: %d transfer: %d matrix: %d full_range: %v}", c.ColorPrimaries, c.TransferCharacteristics, c.MatrixCoefficients, c.VideoFullRange)
}

func cicpDecoder(raw []byte) (any, error) {
	if len(raw) < 12 {
		return nil, errors.New("cicp tag too short")
	}
	return &CICPTag{ColorPrimaries: raw[8], TransferCharacteristics: raw[9], MatrixCoefficients: raw[10], VideoFullRange: raw[11] != 0}, nil
}
