/*
Package cms converts pixels between ICC color profiles.

Profiles are parsed with NewFromSlice or created from built-in definitions
such as NewSRGB. A pair of profiles and pixel layouts is compiled into a
Transform, either a matrix with tone curves or a lookup table baked from the
full profile pipeline, which is then applied to pixel buffers:

	src, err := cms.NewFromSlice(icc_data)
	t, err := src.CreateTransform8Bit(cms.Rgba8, cms.NewSRGB(), cms.Rgba8, cms.DefaultTransformOptions())
	err = t.Transform(pixels, pixels)

Profiles and transforms are immutable and may be shared between goroutines.
*/
package cms

import "fmt"

type LibraryVersion struct {
	Major, Minor, Patch uint
}

var Version = LibraryVersion{1, 0, 0}

func (v LibraryVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v LibraryVersion) Equal(o LibraryVersion) bool {
	return v.Major == o.Major && v.Minor == o.Minor && v.Patch == o.Patch
}

func (v LibraryVersion) After(o LibraryVersion) bool {
	switch {
	case v.Major != o.Major:
		return v.Major > o.Major
	case v.Minor != o.Minor:
		return v.Minor > o.Minor
	}
	return v.Patch > o.Patch
}
