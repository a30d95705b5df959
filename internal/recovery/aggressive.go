package recovery

import (
	"regexp"
	"strconv"
	"strings"
)

// AggressiveStage rewrites JavaScript-like object literals into JSON:
// single-quoted strings, unquoted scalar values and quoted primitives.
func AggressiveStage() Stage {
	return Stage{
		Name: "aggressive",
		Transforms: []Transform{
			{Name: "single_to_double_quotes", Apply: SingleToDoubleQuotes},
			{Name: "quote_bare_keys", Apply: QuoteBareKeys},
			{Name: "quote_bare_values", Apply: QuoteBareValues},
			{Name: "coerce_primitives", Apply: CoercePrimitives},
			{Name: "remove_trailing_commas", Apply: RemoveTrailingCommas},
		},
	}
}

var (
	bareValue       = regexp.MustCompile(`(:\s*)([A-Za-z][^,{}\[\]\n]*)`)
	quotedPrimitive = regexp.MustCompile(`:(\s*)"(true|false|null|-?\d+(?:\.\d+)?)"`)
)

// SingleToDoubleQuotes converts single-quoted literals in structural
// positions to double-quoted ones. Apostrophes inside words are kept.
func SingleToDoubleQuotes(s string) string {
	return mapCode(s, convertSingleQuoted)
}

func convertSingleQuoted(code string) string {
	var b strings.Builder
	b.Grow(len(code))

	for i := 0; i < len(code); i++ {
		c := code[i]
		if c != '\'' || !structuralBefore(code[:i]) {
			b.WriteByte(c)
			continue
		}
		end := closingQuote(code, i+1)
		if end < 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteString(strconv.Quote(strings.ReplaceAll(code[i+1:end], `\'`, `'`)))
		i = end
	}
	return b.String()
}

// structuralBefore reports whether the last non-space byte of s opens a
// value position.
func structuralBefore(s string) bool {
	t := strings.TrimRight(s, " \t\r\n")
	if t == "" {
		return true
	}
	switch t[len(t)-1] {
	case '{', '[', ',', ':':
		return true
	}
	return false
}

// closingQuote finds the single quote that ends a literal starting at
// from: the next unescaped quote followed by a structural byte or the end.
func closingQuote(s string, from int) int {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '\'':
			rest := strings.TrimLeft(s[i+1:], " \t\r\n")
			if rest == "" || strings.ContainsRune(",:}]", rune(rest[0])) {
				return i
			}
		}
	}
	return -1
}

// QuoteBareValues wraps unquoted word values in double quotes. The
// literals true, false and null are left alone.
func QuoteBareValues(s string) string {
	return mapCode(s, func(code string) string {
		return bareValue.ReplaceAllStringFunc(code, func(m string) string {
			sub := bareValue.FindStringSubmatch(m)
			word := strings.TrimRight(sub[2], " \t\r")
			trail := sub[2][len(word):]
			switch word {
			case "true", "false", "null":
				return m
			}
			return sub[1] + strconv.Quote(word) + trail
		})
	})
}

// CoercePrimitives unquotes values that are string-wrapped booleans,
// nulls or numbers.
func CoercePrimitives(s string) string {
	return quotedPrimitive.ReplaceAllString(s, `:$1$2`)
}
