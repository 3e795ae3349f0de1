package meta

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
)

var icc_profile_marker = []byte("ICC_PROFILE\x00")
var exif_marker = []byte("Exif\x00\x00")

// ExtractJPEG reads the frame header, the ICC profile from the APP2
// segments and the EXIF data from the APP1 segment of a JPEG stream. Only
// the segments before the first scan are consumed.
func ExtractJPEG(r io.Reader) (md *Data, err error) {
	br := bufio.NewReader(r)
	var head [2]byte
	if _, err = io.ReadFull(br, head[:]); err != nil {
		return nil, err
	}
	if head != [2]byte{0xff, 0xd8} {
		return nil, fmt.Errorf("not a JPEG stream")
	}
	md = &Data{Format: ImageFormat("JPEG")}
	var icc_chunks [][]byte
	for {
		marker, err := next_marker(br)
		if err != nil {
			return nil, err
		}
		switch {
		case marker == 0xd8 || marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7):
			continue
		case marker == 0xd9 || marker == 0xda:
			if md.PixelWidth == 0 {
				return nil, fmt.Errorf("JPEG stream has no frame header")
			}
			if data, err := assemble_icc(icc_chunks); err != nil {
				md.SetICCProfileError(err)
			} else if data != nil {
				md.SetICCProfileData(data)
			}
			return md, nil
		}
		var size uint16
		if err = binary.Read(br, binary.BigEndian, &size); err != nil {
			return nil, err
		}
		if size < 2 {
			return nil, fmt.Errorf("invalid JPEG segment length: %d", size)
		}
		payload := make([]byte, size-2)
		if _, err = io.ReadFull(br, payload); err != nil {
			return nil, err
		}
		switch {
		case marker == 0xe1 && bytes.HasPrefix(payload, exif_marker) && md.ExifData() == nil:
			md.SetExifData(payload[len(exif_marker):])
		case marker == 0xe2 && bytes.HasPrefix(payload, icc_profile_marker):
			icc_chunks = append(icc_chunks, payload[len(icc_profile_marker):])
		case is_start_of_frame(marker):
			if len(payload) < 6 {
				return nil, fmt.Errorf("truncated JPEG frame header")
			}
			md.BitsPerComponent = uint32(payload[0])
			md.PixelHeight = uint32(binary.BigEndian.Uint16(payload[1:]))
			md.PixelWidth = uint32(binary.BigEndian.Uint16(payload[3:]))
		}
	}
}

func next_marker(br *bufio.Reader) (byte, error) {
	b, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0xff {
		return 0, fmt.Errorf("invalid JPEG marker prefix: 0x%x", b)
	}
	for b == 0xff {
		if b, err = br.ReadByte(); err != nil {
			return 0, err
		}
	}
	return b, nil
}

func is_start_of_frame(marker byte) bool {
	return marker >= 0xc0 && marker <= 0xcf && marker != 0xc4 && marker != 0xc8 && marker != 0xcc
}

// assemble_icc joins the APP2 chunks in sequence order, each chunk starts
// with its one based sequence number and the total number of chunks
func assemble_icc(chunks [][]byte) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	total := 0
	for _, c := range chunks {
		if len(c) < 2 {
			return nil, errors.New("truncated ICC_PROFILE segment")
		}
		total = int(c[1])
		if int(c[0]) < 1 || int(c[0]) > total {
			return nil, fmt.Errorf("invalid ICC_PROFILE segment sequence number: %d of %d", c[0], total)
		}
	}
	if total != len(chunks) {
		return nil, fmt.Errorf("found %d ICC_PROFILE segments, expected %d", len(chunks), total)
	}
	slices.SortStableFunc(chunks, func(a, b []byte) int { return int(a[0]) - int(b[0]) })
	var ans []byte
	for i, c := range chunks {
		if int(c[0]) != i+1 {
			return nil, fmt.Errorf("ICC_PROFILE segment %d is missing", i+1)
		}
		ans = append(ans, c[2:]...)
	}
	return ans, nil
}
