package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kovidgoyal/cms"
	"github.com/kovidgoyal/cms/icc"
	"github.com/kovidgoyal/cms/meta"
)

type profile_info struct {
	Description     string     `json:"description"`
	Copyright       string     `json:"copyright,omitempty"`
	ColorSpace      string     `json:"color_space"`
	PCS             string     `json:"pcs"`
	DeviceClass     string     `json:"device_class"`
	Version         string     `json:"version"`
	RenderingIntent string     `json:"rendering_intent"`
	MediaWhitePoint [3]float64 `json:"media_white_point"`
	MatrixShaper    bool       `json:"matrix_shaper"`
	WellKnown       string     `json:"well_known,omitempty"`
	Tags            []string   `json:"tags"`
	StagesToSRGB    string     `json:"stages_to_srgb,omitempty"`
	ErrorCompiling  string     `json:"error_compiling,omitempty"`
}

type image_info struct {
	Format           string        `json:"format"`
	Width            uint32        `json:"width"`
	Height           uint32        `json:"height"`
	BitsPerComponent uint32        `json:"bits_per_component"`
	CICP             string        `json:"cicp,omitempty"`
	EmbeddedICC      int           `json:"embedded_icc_size,omitempty"`
	Profile          *profile_info `json:"profile"`
}

var layouts = map[icc.ColorSpace]cms.Layout{
	icc.ColorSpaceRGB:  cms.Rgb8,
	icc.ColorSpaceGray: cms.Gray8,
	icc.ColorSpaceCMYK: cms.Cmyk8,
}

func describe(p *cms.ColorProfile) *profile_info {
	ans := &profile_info{
		ColorSpace:      p.ColorSpace().String(),
		PCS:             p.ProfileConnectionSpace().String(),
		DeviceClass:     p.DeviceClass().String(),
		Version:         p.Version().String(),
		RenderingIntent: p.RenderingIntent().String(),
		MatrixShaper:    p.IsMatrixShaper(),
	}
	ans.Description, _ = p.Description()
	ans.Copyright, _ = p.Copyright()
	w := p.MediaWhitePoint()
	ans.MediaWhitePoint = [3]float64{float64(w.X), float64(w.Y), float64(w.Z)}
	if wk := p.WellKnownProfile(); wk != icc.UnknownProfile {
		ans.WellKnown = wk.String()
	}
	for _, s := range p.ICC().TagTable.Signatures() {
		ans.Tags = append(ans.Tags, s.String())
	}
	if l, ok := layouts[p.ColorSpace()]; ok {
		if t, err := p.CreateTransform8Bit(l, cms.NewSRGB(), cms.Rgb8, cms.DefaultTransformOptions()); err == nil {
			ans.StagesToSRGB = t.Stages()
		} else {
			ans.ErrorCompiling = err.Error()
		}
	}
	return ans
}

func main() {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}()
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/iccinfo image-or-icc-file")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		return
	}
	var info any
	if p, perr := cms.NewFromSlice(data); perr == nil {
		info = describe(p)
	} else {
		md, _, lerr := meta.Load(bytes.NewReader(data))
		if lerr != nil {
			err = fmt.Errorf("%s is neither an ICC profile (%s) nor a supported image (%w)", os.Args[1], perr, lerr)
			return
		}
		ii := &image_info{
			Format: string(md.Format), Width: md.PixelWidth, Height: md.PixelHeight,
			BitsPerComponent: md.BitsPerComponent, EmbeddedICC: len(md.ICCProfileData()),
		}
		if md.CICP.IsSet() {
			ii.CICP = md.CICP.String()
		}
		p, cerr := md.ColorProfile()
		if cerr != nil {
			err = cerr
			return
		}
		if p != nil {
			ii.Profile = describe(p)
		}
		info = ii
	}
	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(b))
}
