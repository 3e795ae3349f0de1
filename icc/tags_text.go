package icc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
)

type TextTag struct {
	Text string
}

func (t TextTag) String() string { return t.Text }

// TextDescription is the v2 desc tag. Only the ASCII form is kept.
type TextDescription struct {
	ASCII string
}

func (t TextDescription) String() string { return t.ASCII }

type languageCountry struct {
	language [2]byte
	country  [2]byte
}

func (lc languageCountry) String() string {
	return fmt.Sprintf("%c%c_%c%c", lc.language[0], lc.language[1], lc.country[0], lc.country[1])
}

type MultiLocalisedUnicode struct {
	entries []mlucEntry
}

type mlucEntry struct {
	languageCountry
	text string
}

func (mluc *MultiLocalisedUnicode) String() string { return mluc.BestString() }

func (mluc *MultiLocalisedUnicode) getString(language [2]byte, country [2]byte) string {
	for _, e := range mluc.entries {
		if e.language == language && e.country == country {
			return e.text
		}
	}
	return ""
}

func (mluc *MultiLocalisedUnicode) getStringForLanguage(language [2]byte) string {
	for _, e := range mluc.entries {
		if e.language == language {
			return e.text
		}
	}
	return ""
}

// BestString returns the en_US string if present, then any English string
// and finally the first string in the tag.
func (mluc *MultiLocalisedUnicode) BestString() string {
	if s := mluc.getString([2]byte{'e', 'n'}, [2]byte{'U', 'S'}); s != "" {
		return s
	}
	if s := mluc.getStringForLanguage([2]byte{'e', 'n'}); s != "" {
		return s
	}
	if len(mluc.entries) > 0 {
		return mluc.entries[0].text
	}
	return ""
}

func trim_nul(s string) string {
	if i := strings.IndexByte(s, 0); i > -1 {
		return s[:i]
	}
	return s
}

func textDecoder(data []byte) (any, error) {
	if len(data) < 8 {
		return nil, errors.New("text tag too short")
	}
	return &TextTag{Text: trim_nul(string(data[8:]))}, nil
}

func textDescriptionDecoder(data []byte) (any, error) {
	if len(data) < 12 {
		return nil, errors.New("desc tag too short")
	}
	ascii_count := int(binary.BigEndian.Uint32(data[8:12]))
	data = data[12:]
	if ascii_count > len(data) {
		return nil, fmt.Errorf("desc tag ASCII length %d exceeds tag size", ascii_count)
	}
	return &TextDescription{ASCII: trim_nul(string(data[:ascii_count]))}, nil
}

func multiLocalisedUnicodeDecoder(data []byte) (any, error) {
	if len(data) < 16 {
		return nil, errors.New("mluc tag too short")
	}
	be := binary.BigEndian
	record_count, record_size := int(be.Uint32(data[8:12])), int(be.Uint32(data[12:16]))
	if record_size < 12 {
		return nil, fmt.Errorf("mluc tag has invalid record size: %d", record_size)
	}
	if record_count > (len(data)-16)/record_size {
		return nil, errors.New("mluc tag records exceed tag size")
	}
	result := &MultiLocalisedUnicode{entries: make([]mlucEntry, 0, record_count)}
	records := data[16:]
	for range record_count {
		var e mlucEntry
		copy(e.language[:], records[0:2])
		copy(e.country[:], records[2:4])
		length, offset := uint64(be.Uint32(records[4:8])), uint64(be.Uint32(records[8:12]))
		if offset+length > uint64(len(data)) {
			return nil, errors.New("mluc record exceeds tag data length")
		}
		raw := data[offset : offset+length]
		u := make([]uint16, len(raw)/2)
		for i := range u {
			u[i] = be.Uint16(raw[2*i:])
		}
		e.text = trim_nul(string(utf16.Decode(u)))
		result.entries = append(result.entries, e)
		records = records[record_size:]
	}
	return result, nil
}
