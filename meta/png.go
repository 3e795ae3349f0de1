package meta

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

const png_signature = "\x89PNG\r\n\x1a\n"

// Upper bound on a metadata chunk, larger chunks are malformed
const max_png_chunk_size = 64 * 1024 * 1024

// ExtractPNG reads the header, iCCP, cICP and eXIf chunks of a PNG stream.
// Only the chunks before the first image data chunk are consumed.
func ExtractPNG(r io.Reader) (md *Data, err error) {
	br := bufio.NewReader(r)
	sig := make([]byte, len(png_signature))
	if _, err = io.ReadFull(br, sig); err != nil {
		return nil, err
	}
	if string(sig) != png_signature {
		return nil, fmt.Errorf("not a PNG stream")
	}
	md = &Data{Format: ImageFormat("PNG")}
	var header [8]byte
	for {
		if _, err = io.ReadFull(br, header[:]); err != nil {
			return nil, err
		}
		size := binary.BigEndian.Uint32(header[:4])
		kind := string(header[4:])
		if kind == "IDAT" || kind == "IEND" {
			if md.PixelWidth == 0 {
				return nil, fmt.Errorf("PNG stream has no IHDR chunk")
			}
			return md, nil
		}
		if size > max_png_chunk_size {
			return nil, fmt.Errorf("PNG %s chunk is too large: %d bytes", kind, size)
		}
		data := make([]byte, size+4)
		if _, err = io.ReadFull(br, data); err != nil {
			return nil, err
		}
		data = data[:size]
		switch kind {
		case "IHDR":
			if size < 13 {
				return nil, fmt.Errorf("truncated PNG IHDR chunk")
			}
			md.PixelWidth = binary.BigEndian.Uint32(data)
			md.PixelHeight = binary.BigEndian.Uint32(data[4:])
			md.BitsPerComponent = uint32(data[8])
		case "iCCP":
			if profile, err := decompress_iccp(data); err == nil {
				md.SetICCProfileData(profile)
			} else {
				md.SetICCProfileError(err)
			}
		case "cICP":
			if size >= 4 {
				md.CICP = CodingIndependentCodePoints{data[0], data[1], data[2], data[3]}
			}
		case "eXIf":
			md.SetExifData(data)
		}
	}
}

// decompress_iccp unpacks an iCCP chunk: a profile name terminated by a
// NUL, the compression method and the zlib compressed profile
func decompress_iccp(data []byte) ([]byte, error) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 || idx+2 > len(data) {
		return nil, fmt.Errorf("malformed PNG iCCP chunk")
	}
	if method := data[idx+1]; method != 0 {
		return nil, fmt.Errorf("unknown PNG iCCP compression method: %d", method)
	}
	zr, err := zlib.NewReader(bytes.NewReader(data[idx+2:]))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress PNG iCCP chunk: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(io.LimitReader(zr, max_png_chunk_size))
}
