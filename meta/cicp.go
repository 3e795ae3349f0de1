package meta

import (
	"fmt"

	"github.com/kovidgoyal/cms"
)

// CodingIndependentCodePoints are the ITU-T H.273 code points an image
// container may carry instead of, or as well as, an ICC profile
type CodingIndependentCodePoints struct {
	ColorPrimaries, TransferCharacteristics, MatrixCoefficients, VideoFullRange uint8
}

func (c CodingIndependentCodePoints) String() string {
	return fmt.Sprintf("CICP{%d/%d/%d/%d}", c.ColorPrimaries, c.TransferCharacteristics, c.MatrixCoefficients, c.VideoFullRange)
}

// IsSet is false for the zero value, zero is reserved for both primaries
// and transfer characteristics
func (c CodingIndependentCodePoints) IsSet() bool {
	return c.ColorPrimaries != 0 && c.TransferCharacteristics != 0
}

// DescribesRGB is true when the code points apply to RGB samples, that is
// the matrix coefficients are identity and the range is full
func (c CodingIndependentCodePoints) DescribesRGB() bool {
	return c.MatrixCoefficients == 0 && c.VideoFullRange == 1
}

// ColorProfile returns the profile for the code points. The common
// combinations map to the shared built-in profiles.
func (c CodingIndependentCodePoints) ColorProfile() (*cms.ColorProfile, error) {
	switch c.TransferCharacteristics {
	case 13:
		switch c.ColorPrimaries {
		case 1:
			return cms.NewSRGB(), nil
		case 12:
			return cms.NewDisplayP3(), nil
		}
	case 16:
		switch c.ColorPrimaries {
		case 9:
			return cms.NewBT2020PQ(), nil
		case 12:
			return cms.NewDisplayP3PQ(), nil
		}
	case 18:
		if c.ColorPrimaries == 9 {
			return cms.NewBT2020HLG(), nil
		}
	}
	return cms.NewFromCICP(c.ColorPrimaries, c.TransferCharacteristics)
}
