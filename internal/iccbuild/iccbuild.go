// Package iccbuild serializes synthetic ICC profiles. It is used to create
// test inputs and fuzzing seeds without shipping binary fixtures.
package iccbuild

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf16"

	"github.com/kovidgoyal/cms/colorconv"
)

type tag struct {
	sig  string
	data []byte
}

// Builder assembles a profile from a header and a list of tags. Tags with
// identical contents share storage, as real profiles commonly do for TRCs.
type Builder struct {
	Version                      uint32
	DeviceClass, ColorSpace, PCS string
	RenderingIntent              uint32
	Manufacturer, Model          string
	tags                         []tag
}

func New(device_class, color_space, pcs string) *Builder {
	return &Builder{Version: 0x04400000, DeviceClass: device_class, ColorSpace: color_space, PCS: pcs}
}

func (b *Builder) Add(sig string, data []byte) *Builder {
	b.tags = append(b.tags, tag{sig, data})
	return b
}

func sig(s string) []byte {
	ans := []byte("    ")
	copy(ans, s)
	return ans
}

func pad4(b *bytes.Buffer) {
	for b.Len()%4 != 0 {
		b.WriteByte(0)
	}
}

// Bytes serializes the profile
func (b *Builder) Bytes() []byte {
	be := binary.BigEndian
	header := make([]byte, 128)
	be.PutUint32(header[8:], b.Version)
	copy(header[12:], sig(b.DeviceClass))
	copy(header[16:], sig(b.ColorSpace))
	copy(header[20:], sig(b.PCS))
	be.PutUint16(header[24:], 2025)
	be.PutUint16(header[26:], 1)
	be.PutUint16(header[28:], 1)
	copy(header[36:], "acsp")
	if b.Manufacturer != "" {
		copy(header[48:], sig(b.Manufacturer))
	}
	if b.Model != "" {
		copy(header[52:], sig(b.Model))
	}
	be.PutUint32(header[64:], b.RenderingIntent)
	copy(header[68:], XYZNumber(colorconv.WhiteD50[0], colorconv.WhiteD50[1], colorconv.WhiteD50[2]))

	dir := &bytes.Buffer{}
	body := &bytes.Buffer{}
	_ = binary.Write(dir, be, uint32(len(b.tags)))
	data_start := 128 + 4 + 12*len(b.tags)
	type loc struct{ offset, size int }
	seen := map[string]loc{}
	for _, t := range b.tags {
		l, found := seen[string(t.data)]
		if !found {
			l = loc{data_start + body.Len(), len(t.data)}
			body.Write(t.data)
			pad4(body)
			seen[string(t.data)] = l
		}
		dir.Write(sig(t.sig))
		_ = binary.Write(dir, be, uint32(l.offset))
		_ = binary.Write(dir, be, uint32(l.size))
	}
	ans := append(header, dir.Bytes()...)
	ans = append(ans, body.Bytes()...)
	be.PutUint32(ans[0:], uint32(len(ans)))
	return ans
}

func S15Fixed16(v float64) []byte {
	ans := make([]byte, 4)
	binary.BigEndian.PutUint32(ans, uint32(int32(math.Round(v*65536))))
	return ans
}

func XYZNumber(x, y, z float64) []byte {
	return append(append(S15Fixed16(x), S15Fixed16(y)...), S15Fixed16(z)...)
}

func type_header(s string) []byte {
	return append(sig(s), 0, 0, 0, 0)
}

func XYZ(x, y, z float64) []byte {
	return append(type_header("XYZ "), XYZNumber(x, y, z)...)
}

func Sf32(vals ...float64) []byte {
	ans := type_header("sf32")
	for _, v := range vals {
		ans = append(ans, S15Fixed16(v)...)
	}
	return ans
}

// Curve returns a curv element with the specified samples
func Curve(points ...uint16) []byte {
	ans := binary.BigEndian.AppendUint32(type_header("curv"), uint32(len(points)))
	for _, p := range points {
		ans = binary.BigEndian.AppendUint16(ans, p)
	}
	for len(ans)%4 != 0 {
		ans = append(ans, 0)
	}
	return ans
}

// Gamma returns a curv element with a single u8Fixed8 gamma value
func Gamma(g float64) []byte {
	return Curve(uint16(math.Round(g * 256)))
}

// Para returns a para element, params are in the order g, a, b, c, d, e, f
func Para(function_type uint16, params ...float64) []byte {
	ans := binary.BigEndian.AppendUint16(type_header("para"), function_type)
	ans = append(ans, 0, 0)
	for _, p := range params {
		ans = append(ans, S15Fixed16(p)...)
	}
	return ans
}

func SRGBPara() []byte {
	return Para(3, 2.4, 1/1.055, 0.055/1.055, 1/12.92, 0.04045)
}

func Desc(s string) []byte {
	ans := binary.BigEndian.AppendUint32(type_header("desc"), uint32(len(s)+1))
	ans = append(append(ans, s...), 0)
	// empty unicode and scriptcode descriptions
	ans = append(ans, make([]byte, 8+3+67)...)
	return ans
}

func Text(s string) []byte {
	return append(append(type_header("text"), s...), 0)
}

// MLUC returns an mluc element with one record per language/country pair
// in records, for example "enUS" -> "sRGB".
func MLUC(records ...[2]string) []byte {
	be := binary.BigEndian
	ans := type_header("mluc")
	ans = be.AppendUint32(ans, uint32(len(records)))
	ans = be.AppendUint32(ans, 12)
	strings_start := 16 + 12*len(records)
	var strs []byte
	for _, r := range records {
		ans = append(ans, r[0][:4]...)
		u := utf16.Encode([]rune(r[1]))
		ans = be.AppendUint32(ans, uint32(2*len(u)))
		ans = be.AppendUint32(ans, uint32(strings_start+len(strs)))
		for _, x := range u {
			strs = be.AppendUint16(strs, x)
		}
	}
	return append(ans, strs...)
}

func CICP(primaries, transfer, matrix uint8, full_range bool) []byte {
	f := uint8(0)
	if full_range {
		f = 1
	}
	return append(type_header("cicp"), primaries, transfer, matrix, f)
}

// EncodeU16 maps [0, 1] to [0, 65535]
func EncodeU16(v float64) uint16 {
	return uint16(math.Round(max(0, min(v, 1)) * 65535))
}

// IdentityTable returns a two entry linear table
func IdentityTable() []uint16 { return []uint16{0, 65535} }

// Lut16 returns an mft2 element. matrix is only meaningful for three
// inputs, nil means identity.
func Lut16(in, out, grid int, matrix []float64, input_tables [][]uint16, clut []uint16, output_tables [][]uint16) []byte {
	be := binary.BigEndian
	ans := type_header("mft2")
	ans = append(ans, uint8(in), uint8(out), uint8(grid), 0)
	if matrix == nil {
		matrix = []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}
	for _, v := range matrix {
		ans = append(ans, S15Fixed16(v)...)
	}
	ans = be.AppendUint16(ans, uint16(len(input_tables[0])))
	ans = be.AppendUint16(ans, uint16(len(output_tables[0])))
	for _, t := range input_tables {
		for _, v := range t {
			ans = be.AppendUint16(ans, v)
		}
	}
	for _, v := range clut {
		ans = be.AppendUint16(ans, v)
	}
	for _, t := range output_tables {
		for _, v := range t {
			ans = be.AppendUint16(ans, v)
		}
	}
	return ans
}

// Lut8 returns an mft1 element, tables must have 256 entries each
func Lut8(in, out, grid int, input_tables [][]uint8, clut []uint8, output_tables [][]uint8) []byte {
	ans := type_header("mft1")
	ans = append(ans, uint8(in), uint8(out), uint8(grid), 0)
	for _, v := range []float64{1, 0, 0, 0, 1, 0, 0, 0, 1} {
		ans = append(ans, S15Fixed16(v)...)
	}
	for _, t := range input_tables {
		ans = append(ans, t...)
	}
	ans = append(ans, clut...)
	for _, t := range output_tables {
		ans = append(ans, t...)
	}
	return ans
}

// Modular describes an mAB or mBA element. Curve lists hold curv or para
// elements. Matrix, when present, has twelve values: 3x3 then offsets.
type Modular struct {
	AToB    bool
	In, Out int
	B, M, A [][]byte
	Matrix  []float64
	Grid    []int
	CLUT    []uint16
}

func (m Modular) Bytes() []byte {
	be := binary.BigEndian
	ans := type_header(map[bool]string{true: "mAB ", false: "mBA "}[m.AToB])
	ans = append(ans, uint8(m.In), uint8(m.Out), 0, 0)
	offsets_at := len(ans)
	ans = append(ans, make([]byte, 20)...)
	set := func(idx int) { be.PutUint32(ans[offsets_at+4*idx:], uint32(len(ans))) }
	curves := func(idx int, c [][]byte) {
		if len(c) == 0 {
			return
		}
		set(idx)
		for _, x := range c {
			ans = append(ans, x...)
			for len(ans)%4 != 0 {
				ans = append(ans, 0)
			}
		}
	}
	curves(0, m.B)
	if m.Matrix != nil {
		set(1)
		for _, v := range m.Matrix {
			ans = append(ans, S15Fixed16(v)...)
		}
	}
	curves(2, m.M)
	if m.CLUT != nil {
		set(3)
		grid := make([]byte, 16)
		for i, g := range m.Grid {
			grid[i] = uint8(g)
		}
		ans = append(ans, grid...)
		ans = append(ans, 2, 0, 0, 0)
		for _, v := range m.CLUT {
			ans = be.AppendUint16(ans, v)
		}
		for len(ans)%4 != 0 {
			ans = append(ans, 0)
		}
	}
	curves(4, m.A)
	return ans
}

// MatrixShaper returns a v4 RGB display profile whose colorants are derived
// from primaries and white, adapted to D50. trc is a curv or para element
// used for all three channels.
func MatrixShaper(description string, p colorconv.Primaries, white colorconv.Vec3, trc []byte) []byte {
	m, err := colorconv.RGBToXYZD50(p, white)
	if err != nil {
		panic(err)
	}
	chad := colorconv.ChromaticAdaptationMatrix(white, colorconv.WhiteD50)
	b := New("mntr", "RGB ", "XYZ ")
	b.Add("desc", Desc(description))
	b.Add("cprt", Text("No copyright"))
	b.Add("wtpt", XYZ(colorconv.WhiteD50[0], colorconv.WhiteD50[1], colorconv.WhiteD50[2]))
	b.Add("chad", Sf32(chad[0][0], chad[0][1], chad[0][2], chad[1][0], chad[1][1], chad[1][2], chad[2][0], chad[2][1], chad[2][2]))
	b.Add("rXYZ", XYZ(m[0][0], m[1][0], m[2][0]))
	b.Add("gXYZ", XYZ(m[0][1], m[1][1], m[2][1]))
	b.Add("bXYZ", XYZ(m[0][2], m[1][2], m[2][2]))
	b.Add("rTRC", trc).Add("gTRC", trc).Add("bTRC", trc)
	return b.Bytes()
}

var sRGBPrimaries = colorconv.Primaries{Red: colorconv.Chromaticity{X: 0.64, Y: 0.33}, Green: colorconv.Chromaticity{X: 0.30, Y: 0.60}, Blue: colorconv.Chromaticity{X: 0.15, Y: 0.06}}
var whiteD65 = colorconv.Chromaticity{X: 0.3127, Y: 0.3290}.XYZ()

func SRGB() []byte {
	return MatrixShaper("sRGB IEC61966-2.1", sRGBPrimaries, whiteD65, SRGBPara())
}

// Gray returns a gray display profile with a pure gamma TRC
func Gray(g float64) []byte {
	b := New("mntr", "GRAY", "XYZ ")
	b.Add("desc", Desc("Gray"))
	b.Add("wtpt", XYZ(colorconv.WhiteD50[0], colorconv.WhiteD50[1], colorconv.WhiteD50[2]))
	b.Add("kTRC", Gamma(g))
	return b.Bytes()
}

func srgb_to_linear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linear_to_srgb(v float64) float64 {
	v = max(0, min(v, 1))
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

// CMYK returns an output profile for a naive subtractive CMYK space:
// R = (1-C)(1-K) and so on, with the resulting values interpreted as sRGB.
// A2B0 is an mft2 table mapping to XYZ and B2A0 is its approximate inverse.
func CMYK(grid int) []byte {
	to_xyz, err := colorconv.RGBToXYZD50(sRGBPrimaries, whiteD65)
	if err != nil {
		panic(err)
	}
	from_xyz, _ := to_xyz.Inverted()
	encode_xyz := func(v colorconv.Vec3) []uint16 {
		ans := make([]uint16, 3)
		for i, x := range v {
			ans[i] = uint16(math.Round(max(0, min(x*32768, 65535))))
		}
		return ans
	}
	n := grid - 1
	clut := make([]uint16, 0, grid*grid*grid*grid*3)
	for c := range grid {
		for m := range grid {
			for y := range grid {
				for k := range grid {
					kk := 1 - float64(k)/float64(n)
					rgb := colorconv.Vec3{
						srgb_to_linear((1 - float64(c)/float64(n)) * kk),
						srgb_to_linear((1 - float64(m)/float64(n)) * kk),
						srgb_to_linear((1 - float64(y)/float64(n)) * kk),
					}
					clut = append(clut, encode_xyz(to_xyz.MulVec(rgb))...)
				}
			}
		}
	}
	id4 := [][]uint16{IdentityTable(), IdentityTable(), IdentityTable(), IdentityTable()}
	id3 := id4[:3]
	a2b := Lut16(4, 3, grid, nil, id4, clut, id3)

	clut = clut[:0]
	for x := range grid {
		for y := range grid {
			for z := range grid {
				xyz := colorconv.Vec3{float64(x), float64(y), float64(z)}
				for i := range xyz {
					xyz[i] = xyz[i] / float64(n) * 65535 / 32768
				}
				lin := from_xyz.MulVec(xyz)
				r, g, b := linear_to_srgb(lin[0]), linear_to_srgb(lin[1]), linear_to_srgb(lin[2])
				k := 1 - max(r, g, b)
				var cc, mm, yy float64
				if k < 1 {
					cc, mm, yy = (1-r-k)/(1-k), (1-g-k)/(1-k), (1-b-k)/(1-k)
				}
				clut = append(clut, EncodeU16(cc), EncodeU16(mm), EncodeU16(yy), EncodeU16(k))
			}
		}
	}
	b2a := Lut16(3, 4, grid, nil, id3, clut, id4)
	b := New("prtr", "CMYK", "XYZ ")
	b.Add("desc", MLUC([2]string{"enUS", "Naive CMYK"}, [2]string{"deDE", "Naives CMYK"}))
	b.Add("wtpt", XYZ(colorconv.WhiteD50[0], colorconv.WhiteD50[1], colorconv.WhiteD50[2]))
	b.Add("A2B0", a2b)
	b.Add("B2A0", b2a)
	return b.Bytes()
}
