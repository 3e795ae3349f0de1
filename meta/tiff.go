package meta

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	exif_tiff "github.com/rwcarlsen/goexif/tiff"
	"golang.org/x/image/tiff"
)

// TIFF tag holding an embedded ICC profile
const TIFFTagICCProfile = 0x8773

// BitsPerComponent is the sample depth of the color model of an image
// config, paletted and custom models are probed with an opaque red
func BitsPerComponent(c image.Config) uint32 {
	switch c.ColorModel {
	case color.RGBAModel, color.NRGBAModel, color.YCbCrModel, color.CMYKModel, color.GrayModel, color.AlphaModel:
		return 8
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model, color.Alpha16Model:
		return 16
	}
	if c.ColorModel == nil {
		return 0
	}
	r, g, b, a := c.ColorModel.Convert(color.RGBA{R: 255, A: 255}).RGBA()
	if r|g|b|a <= 0xff {
		return 8
	}
	return 16
}

// ExtractTIFF reads the dimensions, the embedded ICC profile and the EXIF
// data of a TIFF file. The reader is left positioned where it was.
func ExtractTIFF(r io.ReadSeeker) (md *Data, err error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	rewind := func() error {
		_, err := r.Seek(pos, io.SeekStart)
		return err
	}
	defer func() {
		if rerr := rewind(); err == nil {
			err = rerr
		}
	}()
	c, err := tiff.DecodeConfig(r)
	if err != nil {
		return nil, err
	}
	md = &Data{
		Format: ImageFormat("TIFF"), PixelWidth: uint32(c.Width), PixelHeight: uint32(c.Height),
		BitsPerComponent: BitsPerComponent(c),
	}
	if err = rewind(); err != nil {
		return nil, err
	}
	t, terr := exif_tiff.Decode(r)
	if terr != nil {
		return nil, fmt.Errorf("failed to read TIFF directories: %w", terr)
	}
	if len(t.Dirs) > 0 {
		for _, tag := range t.Dirs[0].Tags {
			if tag.Id == TIFFTagICCProfile {
				md.SetICCProfileData(tag.Val)
				break
			}
		}
	}
	if err = rewind(); err != nil {
		return nil, err
	}
	if e, xerr := exif.Decode(r); xerr == nil {
		md.SetExif(e)
	} else {
		md.SetExifError(xerr)
	}
	return md, nil
}
