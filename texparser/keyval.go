package texparser

import "github.com/mava/digestif/internal/span"

// KeyValue is one key[=value] entry found by ParseKeys. Value.Len == 0
// when the key has no value (a bare flag).
type KeyValue struct {
	Key   span.Range
	Value span.Range
}

// ParseKeys parses a comma-separated key[=value] list within
// [pos, pos+len). Whitespace around keys, '=', and ',' is ignored;
// nested braces within a value are honoured (a comma or '=' inside a
// brace group does not terminate the key or value).
func ParseKeys(text string, pos span.Pos, length int) []KeyValue {
	end := pos + length - 1 // 0-based exclusive end
	i := pos - 1
	if i < 0 {
		i = 0
	}
	if end > len(text) {
		end = len(text)
	}

	var out []KeyValue

	for i < end {
		i = skipWS(text, i, end)
		if i >= end {
			break
		}

		keyStart := i
		i = scanUntil(text, i, end, '=', ',')
		keyEnd := trimTrailingWS(text, keyStart, i)

		kv := KeyValue{Key: span.Of(keyStart+1, keyEnd+1)}

		if i < end && text[i] == '=' {
			i++ // consume '='
			i = skipWS(text, i, end)
			valStart := i
			i = scanUntil(text, i, end, ',', 0)
			valEnd := trimTrailingWS(text, valStart, i)
			kv.Value = span.Of(valStart+1, valEnd+1)
		}

		if keyEnd > keyStart || kv.Value.Len > 0 {
			out = append(out, kv)
		}

		if i < end && text[i] == ',' {
			i++
		}
	}

	return out
}

// scanUntil advances from i (0-based) until it finds stop1, stop2 (0
// disables a stop byte), or end, honouring brace nesting so a comma or
// '=' inside {...} does not stop the scan.
func scanUntil(text string, i, end int, stop1, stop2 byte) int {
	depth := 0
	for i < end {
		c := text[i]
		switch {
		case c == '{':
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (c == stop1 || (stop2 != 0 && c == stop2)):
			return i
		}
		i++
	}
	return i
}

func skipWS(text string, i, end int) int {
	for i < end && isSpace(text[i]) {
		i++
	}
	return i
}

// trimTrailingWS returns the exclusive end of the non-whitespace
// content in [start, i).
func trimTrailingWS(text string, start, i int) int {
	for i > start && isSpace(text[i-1]) {
		i--
	}
	return i
}
