package engine

import (
	"strings"
	"unicode"
)

// Split breaks SQL text into statements on top-level semicolons. Semicolons
// inside string literals, quoted identifiers, comments and trigger bodies do
// not terminate a statement. Statements that hold only whitespace or
// comments are dropped.
func Split(text string) []string {
	var (
		stmts      []string
		start      int
		hasContent bool
		words      []string // leading words of the current statement, upper-cased
		trigger    bool
		depth      int // BEGIN/CASE nesting inside a trigger body
	)

	flush := func(end int) {
		if hasContent {
			stmts = append(stmts, strings.TrimSpace(text[start:end]))
		}
		start = end + 1
		hasContent = false
		words = words[:0]
		trigger = false
		depth = 0
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(text, i, c)
			hasContent = true
		case c == '[':
			i = skipQuoted(text, i, ']')
			hasContent = true
		case c == '-' && i+1 < len(text) && text[i+1] == '-':
			for i < len(text) && text[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				i = len(text)
			} else {
				i += end + 3
			}
		case c == ';':
			if depth == 0 {
				flush(i)
			}
		case isWordByte(c):
			j := i
			for j < len(text) && isWordByte(text[j]) {
				j++
			}
			word := strings.ToUpper(text[i:j])
			hasContent = true
			if len(words) < 4 {
				words = append(words, word)
				if word == "TRIGGER" && words[0] == "CREATE" {
					trigger = true
				}
			}
			if trigger {
				switch word {
				case "BEGIN", "CASE":
					depth++
				case "END":
					if depth > 0 {
						depth--
					}
				}
			}
			i = j - 1
		case !unicode.IsSpace(rune(c)):
			hasContent = true
		}
	}
	if start < len(text) {
		flush(len(text))
	}

	return stmts
}

// skipQuoted returns the index of the closing quote matching the one at i.
// A doubled closing quote is an escaped quote.
func skipQuoted(text string, i int, closing byte) int {
	for j := i + 1; j < len(text); j++ {
		if text[j] != closing {
			continue
		}
		if closing != ']' && j+1 < len(text) && text[j+1] == closing {
			j++
			continue
		}
		return j
	}
	return len(text) - 1
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
