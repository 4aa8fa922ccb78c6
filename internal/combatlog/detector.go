package combatlog

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

type Format int

const (
	FormatTraditional Format = iota
	FormatLuaTable
)

func (f Format) String() string {
	switch f {
	case FormatTraditional:
		return "traditional"
	case FormatLuaTable:
		return "lua_table"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

const (
	detectPeekBytes = 100
	luaTableMarker  = "pvpanalyticsdb"
	utf8BOM         = "\uFEFF"
)

// DetectFormat peeks at the head of rs and restores its position before
// returning. Empty input is Traditional.
func DetectFormat(rs io.ReadSeeker) (Format, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return FormatTraditional, fmt.Errorf("failed to read stream position: %w", err)
	}

	buf := make([]byte, detectPeekBytes)
	n, err := io.ReadFull(rs, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return FormatTraditional, fmt.Errorf("failed to peek stream: %w", err)
	}

	if _, err := rs.Seek(pos, io.SeekStart); err != nil {
		return FormatTraditional, fmt.Errorf("failed to restore stream position: %w", err)
	}

	return DetectFormatBytes(buf[:n]), nil
}

// DetectFormatBytes classifies an already buffered header.
func DetectFormatBytes(head []byte) Format {
	if len(head) > detectPeekBytes {
		head = head[:detectPeekBytes]
	}
	s := strings.TrimPrefix(string(head), utf8BOM)
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if strings.HasPrefix(strings.ToLower(s), luaTableMarker) {
		return FormatLuaTable
	}
	return FormatTraditional
}
