package recovery

import (
	"regexp"
	"strings"
)

// maxClosers bounds how many missing closers are appended to a truncated
// document.
const maxClosers = 8

var (
	fenceMarker = regexp.MustCompile("```[A-Za-z]*")
	jsonNumber  = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)
)

// FramingStage strips markdown fences and surrounding prose, then closes
// a truncated document.
func FramingStage() Stage {
	return Stage{
		Name: "framing",
		Transforms: []Transform{
			{Name: "strip_fences", Apply: StripFences},
			{Name: "trim_leading_prose", Apply: TrimLeadingProse},
			{Name: "balance", Apply: Balance},
		},
	}
}

// StripFences removes markdown code fence markers.
func StripFences(s string) string {
	return strings.TrimSpace(fenceMarker.ReplaceAllString(s, ""))
}

// TrimLeadingProse drops everything before the first '{'. Text with no
// object start is returned unchanged.
func TrimLeadingProse(s string) string {
	if i := strings.IndexByte(s, '{'); i > 0 {
		return s[i:]
	}
	return s
}

// Balance cuts s after the point where its first value closes, dropping
// trailing prose. When the value never closes, an open string literal is
// terminated, a scalar cut mid-token is dropped, and the missing closers
// are appended in nesting order.
func Balance(s string) string {
	var stack []byte
	inString := false
	escaped := false
	started := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
			started = true
		case '[':
			stack = append(stack, ']')
			started = true
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if started && len(stack) == 0 {
				return s[:i+1]
			}
		}
	}

	if !started || len(stack) == 0 {
		return s
	}

	s = strings.TrimRight(s, " \t\r\n")
	switch {
	case inString && escaped:
		// A lone trailing backslash would escape the closing quote.
		s = s[:len(s)-1]
	case !inString:
		s = dropPartialScalar(s)
	}

	var b strings.Builder
	b.WriteString(s)
	if inString {
		b.WriteByte('"')
	}
	n := 0
	for i := len(stack) - 1; i >= 0 && n < maxClosers; i-- {
		b.WriteByte(stack[i])
		n++
	}
	return b.String()
}

// dropPartialScalar removes a trailing bare token, such as "tr" or "1.",
// that is not a complete literal. The emptied slot is left for the syntax
// stage to fill or drop.
func dropPartialScalar(s string) string {
	i := len(s)
	for i > 0 && isScalarByte(s[i-1]) {
		i--
	}
	tok := s[i:]
	if tok == "" {
		return s
	}
	switch tok {
	case "true", "false", "null":
		return s
	}
	if jsonNumber.MatchString(tok) {
		return s
	}
	prev := strings.TrimRight(s[:i], " \t\r\n")
	if prev == "" || !strings.ContainsRune(":[,", rune(prev[len(prev)-1])) {
		return s
	}
	return prev
}

func isScalarByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '.' || c == '-' || c == '+'
}
