package recovery

import "regexp"

// SyntaxStage repairs local syntax damage: unquoted keys, missing commas
// between lines, keys with no value and trailing commas.
func SyntaxStage() Stage {
	return Stage{
		Name: "syntax",
		Transforms: []Transform{
			{Name: "quote_bare_keys", Apply: QuoteBareKeys},
			{Name: "insert_missing_commas", Apply: InsertMissingCommas},
			{Name: "fill_dangling_values", Apply: FillDanglingValues},
			{Name: "drop_dangling_keys", Apply: DropDanglingKeys},
			{Name: "remove_trailing_commas", Apply: RemoveTrailingCommas},
		},
	}
}

var (
	bareKey        = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_\-]*)(\s*):`)
	lineBreakValue = regexp.MustCompile(`("|\}|\]|\d|true|false|null)([ \t]*\r?\n\s*)("|\{|\[)`)
	danglingColon  = regexp.MustCompile(`:(\s*)([,}\]])`)
	danglingKey    = regexp.MustCompile(`([{,])\s*"(?:[^"\\]|\\.)*"\s*\}`)
	trailingComma  = regexp.MustCompile(`,(\s*[}\]])`)
)

// QuoteBareKeys wraps unquoted object keys in double quotes.
func QuoteBareKeys(s string) string {
	return mapCode(s, func(code string) string {
		return bareKey.ReplaceAllString(code, `$1"$2"$3:`)
	})
}

// InsertMissingCommas adds a comma between a value that ends a line and
// a value that starts the next one.
func InsertMissingCommas(s string) string {
	return lineBreakValue.ReplaceAllString(s, `$1,$2$3`)
}

// FillDanglingValues gives a key with no value an explicit null.
func FillDanglingValues(s string) string {
	return mapCode(s, func(code string) string {
		return danglingColon.ReplaceAllString(code, `: null$1$2`)
	})
}

// DropDanglingKeys removes a trailing key that has neither colon nor
// value, as left behind by truncation.
func DropDanglingKeys(s string) string {
	for {
		next := danglingKey.ReplaceAllStringFunc(s, func(m string) string {
			if m[0] == '{' {
				return "{}"
			}
			return "}"
		})
		if next == s {
			return s
		}
		s = next
	}
}

// RemoveTrailingCommas drops commas directly before a closer.
func RemoveTrailingCommas(s string) string {
	return mapCode(s, func(code string) string {
		return trailingComma.ReplaceAllString(code, `$1`)
	})
}
