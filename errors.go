package cms

import (
	"errors"

	"github.com/kovidgoyal/cms/icc"
)

var (
	// ErrMalformedProfile is returned when ICC data cannot be parsed
	ErrMalformedProfile = icc.ErrMalformedProfile
	// ErrUnsupportedConversion is returned when no transform can be
	// compiled for a pair of profiles and layouts
	ErrUnsupportedConversion = icc.ErrUnsupportedConversion
	// ErrBufferLengthMismatch is returned when pixel buffers do not agree
	// with the layouts of a transform or with each other
	ErrBufferLengthMismatch = errors.New("buffer length mismatch")
)
