package buffer

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// EncodeUTF16 converts UTF-8 text to little-endian UTF-16 for wide string
// literals (char16_t / L"" on 16-bit wchar targets).
func EncodeUTF16(s string) ([]byte, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("utf-16 encode: %w", err)
	}
	return out, nil
}

// EncodeUTF32 converts UTF-8 text to little-endian UTF-32.
func EncodeUTF32(s string) ([]byte, error) {
	enc := utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM).NewEncoder()
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("utf-32 encode: %w", err)
	}
	return out, nil
}

// WriteWide appends s encoded with the given element width (1, 2 or 4 bytes).
// Width 1 copies the UTF-8 bytes as they are.
func (b *Buffer) WriteWide(s string, width int) error {
	var (
		out []byte
		err error
	)
	switch width {
	case 1:
		_, _ = b.WriteString(s)
		return nil
	case 2:
		out, err = EncodeUTF16(s)
	case 4:
		out, err = EncodeUTF32(s)
	default:
		return fmt.Errorf("unsupported character width %d", width)
	}
	if err != nil {
		return err
	}
	_, _ = b.Write(out)
	return nil
}
