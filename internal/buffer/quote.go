package buffer

import "fmt"

// Format is Printf into a throwaway buffer.
func Format(format string, args ...any) string {
	b := New()
	b.Printf(format, args...)
	return b.Body()
}

func escapeChar(c byte) (string, bool) {
	switch c {
	case '\\':
		return `\\`, true
	case '\a':
		return `\a`, true
	case '\b':
		return `\b`, true
	case '\f':
		return `\f`, true
	case '\n':
		return `\n`, true
	case '\r':
		return `\r`, true
	case '\t':
		return `\t`, true
	case '\v':
		return `\v`, true
	}
	return "", false
}

func (b *Buffer) quoteByte(c byte, quote byte) {
	if c == quote {
		b.AppendByte('\\')
		b.AppendByte(c)
		return
	}
	if esc, ok := escapeChar(c); ok {
		_, _ = b.WriteString(esc)
		return
	}
	if c < 0x20 || c >= 0x7f {
		// octal keeps the next character from being read as part of the escape
		b.Printf(`\%03o`, c)
		return
	}
	b.AppendByte(c)
}

// QuoteCString escapes s the way a C string literal body would be spelled,
// without the surrounding quotes.
func QuoteCString(s string) string {
	b := NewSize(len(s))
	for i := 0; i < len(s); i++ {
		b.quoteByte(s[i], '"')
	}
	return b.Body()
}

// QuoteChar escapes c for use inside a C character literal.
func QuoteChar(c byte) string {
	if c == '\\' {
		return `\\`
	}
	if c == '\'' {
		return `\'`
	}
	b := New()
	b.quoteByte(c, '\'')
	return b.Body()
}

// Quoted wraps QuoteCString output in double quotes.
func Quoted(s string) string {
	return fmt.Sprintf("\"%s\"", QuoteCString(s))
}
