package meta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// Number of leading bytes needed to recognize a format
const sniff_size = 262

func sniff(head []byte) types.Type {
	kind, err := filetype.Match(head)
	if err != nil {
		return types.Unknown
	}
	return kind
}

func extract(kind types.Type, r io.Reader) (*Data, error) {
	switch kind {
	case matchers.TypeJpeg:
		return ExtractJPEG(r)
	case matchers.TypePng:
		return ExtractPNG(r)
	}
	name := kind.MIME.Value
	if name == "" {
		name = "unknown"
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Load loads the color metadata of a JPEG, PNG or TIFF stream.
//
// Only as much of the stream is consumed as necessary to extract the
// metadata. The returned stream replays the consumed data followed by the
// rest of the input, so the full image can be decoded from it afterwards.
// A seekable input is instead rewound and returned as is.
//
// An error wrapping ErrUnsupportedFormat is returned for other formats, the
// returned stream still provides the full image data.
func Load(r io.Reader) (md *Data, stream io.Reader, err error) {
	if s, ok := r.(io.ReadSeeker); ok {
		if pos, serr := s.Seek(0, io.SeekCurrent); serr == nil {
			return load_seekable(s, pos)
		}
	}
	br := bufio.NewReaderSize(r, 4096)
	head, _ := br.Peek(sniff_size)
	kind := sniff(head)
	if kind == matchers.TypeTiff {
		data, err := io.ReadAll(br)
		s := bytes.NewReader(data)
		if err != nil {
			return nil, s, err
		}
		md, err = ExtractTIFF(s)
		return md, s, err
	}
	var consumed bytes.Buffer
	md, err = extract(kind, io.TeeReader(br, &consumed))
	return md, io.MultiReader(&consumed, br), err
}

func load_seekable(s io.ReadSeeker, pos int64) (md *Data, stream io.Reader, err error) {
	defer func() {
		if _, serr := s.Seek(pos, io.SeekStart); err == nil {
			err = serr
		}
	}()
	head := make([]byte, sniff_size)
	n, _ := io.ReadFull(s, head)
	if _, err = s.Seek(pos, io.SeekStart); err != nil {
		return nil, s, err
	}
	if kind := sniff(head[:n]); kind == matchers.TypeTiff {
		md, err = ExtractTIFF(s)
	} else {
		md, err = extract(kind, s)
	}
	return md, s, err
}
