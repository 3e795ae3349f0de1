//go:build lcms2cgo

package lcmsref

import (
	"testing"

	"github.com/kovidgoyal/cms"
	"github.com/kovidgoyal/cms/colorconv"
	"github.com/kovidgoyal/cms/icc"
	"github.com/kovidgoyal/cms/internal/iccbuild"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T, data []byte) (*cms.ColorProfile, *Profile) {
	t.Helper()
	ours, err := cms.NewFromSlice(data)
	require.NoError(t, err)
	theirs, err := Open(data)
	require.NoError(t, err)
	t.Cleanup(theirs.Close)
	return ours, theirs
}

func grid8(channels, steps int) []uint8 {
	n := 1
	for range channels {
		n *= steps
	}
	ans := make([]uint8, 0, n*channels)
	for i := range n {
		for c := range channels {
			v := i
			for range c {
				v /= steps
			}
			ans = append(ans, uint8((v%steps)*255/(steps-1)))
		}
	}
	return ans
}

func max_diff(a, b []uint8) (ans int) {
	for i := range a {
		ans = max(ans, abs(int(a[i])-int(b[i])))
	}
	return
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestOpen(t *testing.T) {
	_, err := Open([]byte("invalid profile"))
	require.Error(t, err)
	p, err := Open(iccbuild.SRGB())
	require.NoError(t, err)
	p.Close()
	p.Close()
}

func TestAgainstLCMS2(t *testing.T) {
	srgb_data := iccbuild.SRGB()
	adobe := iccbuild.MatrixShaper("Adobe RGB", icc.PrimariesAdobeRGB, colorconv.WhiteD65, iccbuild.Gamma(563./256))
	for _, tc := range []struct {
		name      string
		data      []byte
		layout    cms.Layout
		format    Format
		intent    cms.RenderingIntent
		tolerance int
	}{
		{"sRGB", srgb_data, cms.Rgb8, RGB8, cms.Perceptual, 1},
		{"AdobeRGB", adobe, cms.Rgb8, RGB8, cms.RelativeColorimetric, 2},
		{"Gray", iccbuild.Gray(2.2), cms.Gray8, Gray8, cms.Perceptual, 2},
		{"CMYK", iccbuild.CMYK(9), cms.Cmyk8, CMYK8, cms.Perceptual, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ours, theirs := open(t, tc.data)
			dst, dst_theirs := open(t, srgb_data)
			in := grid8(tc.layout.Channels(), 9)
			n := len(in) / tc.layout.Channels()
			expected := make([]uint8, 3*n)
			require.NoError(t, theirs.Transform(in, tc.format, dst_theirs, expected, RGB8, int(tc.intent), n))
			tr, err := ours.CreateTransform8Bit(tc.layout, dst, cms.Rgb8, cms.TransformOptions{RenderingIntent: tc.intent})
			require.NoError(t, err)
			actual := make([]uint8, 3*n)
			require.NoError(t, tr.Transform(in, actual))
			require.LessOrEqual(t, max_diff(expected, actual), tc.tolerance, "stages: %s", tr.Stages())
		})
	}
}
