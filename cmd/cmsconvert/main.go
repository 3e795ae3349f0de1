package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"slices"
	"strings"

	"github.com/kovidgoyal/cms"
	"github.com/kovidgoyal/cms/convert"
	"github.com/kovidgoyal/cms/meta"
	"github.com/spf13/pflag"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var profiles = map[string]func() *cms.ColorProfile{
	"srgb":        cms.NewSRGB,
	"linear-srgb": cms.NewLinearSRGB,
	"display-p3":  cms.NewDisplayP3,
	"dci-p3":      cms.NewDCIP3,
	"adobe-rgb":   cms.NewAdobeRGB,
	"prophoto":    cms.NewProPhotoRGB,
	"bt2020":      cms.NewBT2020,
}

var intents = map[string]cms.RenderingIntent{
	"perceptual": cms.Perceptual,
	"relative":   cms.RelativeColorimetric,
	"saturation": cms.Saturation,
	"absolute":   cms.AbsoluteColorimetric,
}

func names[T any](m map[string]T) string {
	ans := make([]string, 0, len(m))
	for k := range m {
		ans = append(ans, k)
	}
	slices.Sort(ans)
	return strings.Join(ans, ", ")
}

// source_profile is the profile described by the metadata of the image, nil
// for untagged images and formats without metadata support
func source_profile(md *meta.Data, err error) (*cms.ColorProfile, error) {
	if err != nil {
		if errors.Is(err, meta.ErrUnsupportedFormat) {
			return nil, nil
		}
		return nil, err
	}
	return md.ColorProfile()
}

func main() {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}()
	profile_name := pflag.StringP("profile", "p", "srgb", "The profile to convert to, one of: "+names(profiles))
	intent_name := pflag.StringP("intent", "i", "perceptual", "The rendering intent, one of: "+names(intents))
	trilinear := pflag.Bool("trilinear", false, "Use trilinear instead of tetrahedral interpolation for LUT based profiles")
	pflag.Parse()
	args := pflag.Args()
	if len(args) == 0 || len(args) > 2 {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/cmsconvert [options] input-file [output-file]")
		pflag.PrintDefaults()
		os.Exit(1)
	}
	dst, ok := profiles[*profile_name]
	if !ok {
		err = fmt.Errorf("unknown profile: %s", *profile_name)
		return
	}
	opts := cms.DefaultTransformOptions()
	if opts.RenderingIntent, ok = intents[*intent_name]; !ok {
		err = fmt.Errorf("unknown rendering intent: %s", *intent_name)
		return
	}
	if *trilinear {
		opts.Interpolation = cms.Trilinear
	}
	f, err := os.Open(args[0])
	if err != nil {
		return
	}
	defer f.Close()
	md, stream, lerr := meta.Load(f)
	src, err := source_profile(md, lerr)
	if err != nil {
		return
	}
	if src == nil {
		fmt.Println("No color profile found, assuming sRGB")
	} else {
		fmt.Println("Source profile:", src)
	}
	img, _, err := image.Decode(stream)
	if err != nil {
		return
	}
	if img, err = convert.Image(src, dst(), img, opts); err != nil {
		return
	}
	output_file := args[0] + ".png"
	if len(args) == 2 {
		output_file = args[1]
	}
	out, err := os.OpenFile(output_file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return
	}
	if err = png.Encode(out, img); err != nil {
		out.Close()
		return
	}
	if err = out.Close(); err == nil {
		fmt.Println("PNG saved to:", output_file)
	}
}
