package texparser

import "strings"

// Trim returns text with leading and trailing TeX whitespace removed.
func Trim(text string) string {
	return strings.Trim(text, " \t\r\n")
}

// StripComments returns text with every "%...end-of-line" comment
// removed, preserving the newline that ended it. A "\%" is an escaped
// percent sign, not a comment marker.
func StripComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) {
			b.WriteByte(c)
			b.WriteByte(text[i+1])
			i++
			continue
		}
		if c == '%' {
			for i < len(text) && text[i] != '\n' {
				i++
			}
			if i < len(text) {
				b.WriteByte('\n')
			}
			continue
		}
		b.WriteByte(c)
	}

	return b.String()
}

// Blank reports whether pos lies within horizontal whitespace on its
// line (spaces or tabs only — not a newline, which ends the line).
func Blank(text string, pos int) bool {
	i := pos - 1
	if i < 0 || i >= len(text) {
		return false
	}
	return text[i] == ' ' || text[i] == '\t'
}
