// Package meta holds color related metadata extracted from an image
// container and resolves it to a color profile.
package meta

import (
	"bytes"
	"strings"
	"sync"

	"github.com/kovidgoyal/cms"
	"github.com/rwcarlsen/goexif/exif"
	exif_tiff "github.com/rwcarlsen/goexif/tiff"
)

// EXIF ColorSpace values
const (
	ExifColorSpaceSRGB         = 1
	ExifColorSpaceUncalibrated = 0xffff
)

// Data represents the color metadata for an image. It is safe for
// concurrent use.
type Data struct {
	Format           ImageFormat
	PixelWidth       uint32
	PixelHeight      uint32
	BitsPerComponent uint32
	CICP             CodingIndependentCodePoints
	exifData         []byte
	exif             *exif.Exif
	exifErr          error
	iccProfileData   []byte
	iccProfileErr    error
	iccProfile       *cms.ColorProfile
	mutex            sync.Mutex
}

type ImageFormat string

// Returns an extracted EXIF metadata object from this metadata.
//
// An error is returned if the EXIF data could not be correctly parsed.
//
// If no EXIF data was found, nil is returned without an error.
func (md *Data) Exif() (*exif.Exif, error) {
	md.mutex.Lock()
	defer md.mutex.Unlock()

	if md.exifErr != nil {
		return nil, md.exifErr
	}
	if md.exif != nil {
		return md.exif, nil
	}
	if len(md.exifData) == 0 {
		return nil, nil
	}
	md.exif, md.exifErr = exif.Decode(bytes.NewReader(md.exifData))
	return md.exif, md.exifErr
}

func (md *Data) SetExifData(data []byte) {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	md.exifData = data
	md.exifErr = nil
	md.exif = nil
}

func (md *Data) SetExif(e *exif.Exif) {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	md.exifData = nil
	md.exifErr = nil
	md.exif = e
}

func (md *Data) SetExifError(e error) {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	md.exifData = nil
	md.exifErr = e
	md.exif = nil
}

func (md *Data) ExifData() []byte {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	return md.exifData
}

// ICCProfile returns the parsed embedded ICC profile.
//
// An error wrapping cms.ErrMalformedProfile is returned if the profile
// could not be parsed.
//
// If no profile data was found, nil is returned without an error.
func (md *Data) ICCProfile() (*cms.ColorProfile, error) {
	md.mutex.Lock()
	defer md.mutex.Unlock()

	if md.iccProfileErr != nil || md.iccProfile != nil {
		return md.iccProfile, md.iccProfileErr
	}
	if len(md.iccProfileData) == 0 {
		return nil, nil
	}
	md.iccProfile, md.iccProfileErr = cms.NewFromSlice(md.iccProfileData)
	return md.iccProfile, md.iccProfileErr
}

// ICCProfileData returns the raw ICC profile data from this metadata
func (md *Data) ICCProfileData() []byte {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	return md.iccProfileData
}

func (md *Data) SetICCProfileData(data []byte) {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	md.iccProfileData = data
	md.iccProfileErr = nil
	md.iccProfile = nil
}

func (md *Data) SetICCProfileError(err error) {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	md.iccProfileData = nil
	md.iccProfile = nil
	md.iccProfileErr = err
}

func exif_int(x *exif.Exif, name exif.FieldName) (int, bool) {
	tag, err := x.Get(name)
	if err != nil || tag == nil || tag.Format() != exif_tiff.IntVal {
		return 0, false
	}
	v, err := tag.Int(0)
	return v, err == nil
}

func exif_string(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil || tag == nil || tag.Format() != exif_tiff.StringVal {
		return ""
	}
	s, _ := tag.StringVal()
	return strings.TrimRight(s, "\x00 ")
}

// profile_from_exif implements the DCF convention: ColorSpace 1 is sRGB
// and an uncalibrated ColorSpace with the R03 interoperability index is
// Adobe RGB
func profile_from_exif(x *exif.Exif) *cms.ColorProfile {
	switch cs, _ := exif_int(x, exif.ColorSpace); cs {
	case ExifColorSpaceSRGB:
		return cms.NewSRGB()
	case ExifColorSpaceUncalibrated:
		if exif_string(x, exif.InteroperabilityIndex) == "R03" {
			return cms.NewAdobeRGB()
		}
	}
	return nil
}

// ColorProfile returns the profile the pixels of the image are in. It is,
// in order of preference, the embedded ICC profile, the profile for the
// CICP code points, or the one implied by the EXIF ColorSpace. nil is
// returned when the metadata says nothing about color. Broken ICC data is
// an error, broken EXIF data or unknown CICP code points are ignored.
func (md *Data) ColorProfile() (*cms.ColorProfile, error) {
	if p, err := md.ICCProfile(); p != nil || err != nil {
		return p, err
	}
	if md.CICP.IsSet() && md.CICP.DescribesRGB() {
		if p, err := md.CICP.ColorProfile(); err == nil {
			return p, nil
		}
	}
	if x, err := md.Exif(); err == nil && x != nil {
		return profile_from_exif(x), nil
	}
	return nil, nil
}
