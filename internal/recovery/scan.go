package recovery

import "strings"

// segment is a run of text that is either a double-quoted string literal
// (quotes included) or everything between literals.
type segment struct {
	text   string
	quoted bool
}

// splitSegments splits s at double-quoted string boundaries. An
// unterminated literal runs to the end of s.
func splitSegments(s string) []segment {
	var out []segment
	start := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				out = append(out, segment{text: s[start : i+1], quoted: true})
				start = i + 1
				inString = false
			}
			continue
		}
		if c == '"' {
			if i > start {
				out = append(out, segment{text: s[start:i]})
			}
			start = i
			inString = true
		}
	}
	if start < len(s) {
		out = append(out, segment{text: s[start:], quoted: inString})
	}
	return out
}

// mapCode applies fn to every part of s outside string literals.
func mapCode(s string, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, seg := range splitSegments(s) {
		if seg.quoted {
			b.WriteString(seg.text)
		} else {
			b.WriteString(fn(seg.text))
		}
	}
	return b.String()
}

// endsInString reports whether s ends inside an unterminated literal.
func endsInString(s string) bool {
	segs := splitSegments(s)
	if len(segs) == 0 {
		return false
	}
	last := segs[len(segs)-1]
	if !last.quoted {
		return false
	}
	t := last.text
	if len(t) < 2 || t[len(t)-1] != '"' {
		return true
	}
	// A literal ending in an escaped quote is still open.
	backslashes := 0
	for i := len(t) - 2; i > 0 && t[i] == '\\'; i-- {
		backslashes++
	}
	return backslashes%2 == 1
}
