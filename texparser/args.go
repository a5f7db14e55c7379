package texparser

import "github.com/mava/digestif/internal/span"

// ArgKind is the shape of one formal argument in a Signature (spec §3).
type ArgKind int

const (
	// ArgMandatory is a brace group: {...}.
	ArgMandatory ArgKind = iota
	// ArgOptional is a bracket group, possibly absent: [...].
	ArgOptional
	// ArgStar is an optional literal "*" immediately following the
	// command name.
	ArgStar
	// ArgLiteral is a fixed delimiter string that must appear (and is
	// consumed but not captured as its own range).
	ArgLiteral
	// ArgKeyVal is a brace- or bracket-delimited comma-separated
	// key[=value] list, further parsed by ParseKeys.
	ArgKeyVal
)

// Arg describes one formal argument of a command or environment.
type Arg struct {
	Kind          ArgKind
	Name          string // display name, e.g. "reference"
	Documentation string
	Literal       string         // delimiter text, for ArgKind == ArgLiteral
	KeySchema     []KeySchema    // nested key schema, for ArgKind == ArgKeyVal
	Optional      bool           // for ArgKeyVal: bracket-delimited and may be absent
}

// KeySchema describes one recognized key within a key=value argument.
type KeySchema struct {
	Name          string
	Documentation string
	ValueKind     string   // "text", "enum", "command-list", ... (implementation-defined, spec §9)
	Values        []string // enumerated candidates for ValueKind == "enum"
}

// Signature is an ordered list of formal arguments.
type Signature []Arg

// ArgResult is one entry in the list ParseArgs returns: the range the
// argument's content occupies (sans delimiters) and whether it was
// present. Absent optionals have Range.Len == 0 and Present == false.
type ArgResult struct {
	Range    span.Range
	Present  bool
	Arg      Arg
	RawLen   int // full span including delimiters, used for local_scan bookkeeping
	RawStart span.Pos
}

// ArgList is the return value of ParseArgs: one ArgResult per entry of
// the signature, plus the overall span from the first argument's start
// to the last argument's end (spec §4.2).
type ArgList struct {
	Results []ArgResult
	Pos     span.Pos // first-argument start; equals input pos if signature is empty
	Len     int       // span from first start to last end
}

// ParseArgs consumes the argument list described by sig starting at
// pos (the position just after a control sequence name, i.e. the
// Resume value from the NextThing token that produced it). It never
// fails: missing optional arguments are recorded as absent, and
// unterminated groups are closed at end-of-file.
func ParseArgs(text string, pos span.Pos, sig Signature) ArgList {
	list := ArgList{
		Results: make([]ArgResult, len(sig)),
		Pos:     pos,
	}

	cur := skipSpace(text, pos)
	firstStart := cur
	haveFirst := false

	for idx, arg := range sig {
		cur = skipSpace(text, cur)

		switch arg.Kind {
		case ArgStar:
			if cur-1 < len(text) && cur-1 >= 0 && text[cur-1] == '*' {
				list.Results[idx] = ArgResult{
					Range:    span.Range{Pos: cur, Len: 1},
					Present:  true,
					Arg:      arg,
					RawStart: cur,
					RawLen:   1,
				}
				if !haveFirst {
					firstStart = cur
					haveFirst = true
				}
				cur++
			} else {
				list.Results[idx] = ArgResult{Arg: arg}
			}

		case ArgLiteral:
			lit := arg.Literal
			if hasPrefixAt(text, cur, lit) {
				cur += len(lit)
			}
			list.Results[idx] = ArgResult{Arg: arg}

		case ArgMandatory:
			rng, rawStart, rawLen, next, ok := consumeGroup(text, cur, '{', '}')
			cur = next
			res := ArgResult{Arg: arg, RawStart: rawStart, RawLen: rawLen}
			if ok {
				res.Range = rng
				res.Present = true
			}
			list.Results[idx] = res
			if ok && !haveFirst {
				firstStart = rawStart
				haveFirst = true
			}

		case ArgOptional:
			if cur-1 < len(text) && cur-1 >= 0 && text[cur-1] == '[' {
				rng, rawStart, rawLen, next, ok := consumeGroup(text, cur, '[', ']')
				cur = next
				res := ArgResult{Arg: arg, RawStart: rawStart, RawLen: rawLen}
				if ok {
					res.Range = rng
					res.Present = true
				}
				list.Results[idx] = res
				if ok && !haveFirst {
					firstStart = rawStart
					haveFirst = true
				}
			} else {
				list.Results[idx] = ArgResult{Arg: arg}
			}

		case ArgKeyVal:
			open, close := byte('{'), byte('}')
			if arg.Optional {
				open, close = '[', ']'
			}
			if cur-1 >= 0 && cur-1 < len(text) && text[cur-1] == open {
				rng, rawStart, rawLen, next, ok := consumeGroup(text, cur, open, close)
				cur = next
				res := ArgResult{Arg: arg, RawStart: rawStart, RawLen: rawLen}
				if ok {
					res.Range = rng
					res.Present = true
				}
				list.Results[idx] = res
				if ok && !haveFirst {
					firstStart = rawStart
					haveFirst = true
				}
			} else if !arg.Optional {
				// Mandatory key=value group missing entirely: treat
				// as an empty, absent group rather than raising.
				list.Results[idx] = ArgResult{Arg: arg}
			} else {
				list.Results[idx] = ArgResult{Arg: arg}
			}
		}
	}

	if haveFirst {
		list.Pos = firstStart
		end := firstStart
		for _, r := range list.Results {
			if r.Present && r.RawStart+span.Pos(r.RawLen) > end {
				end = r.RawStart + span.Pos(r.RawLen)
			}
		}
		list.Len = end - firstStart
	}

	return list
}

// consumeGroup consumes a single open/close-delimited group starting
// at pos (pos must point at the open delimiter for the group to be
// present). Returns the inner range (sans delimiters), the raw start
// (the open delimiter), the raw length (including delimiters), the
// resume position, and whether a group was actually present.
//
// Unterminated groups are closed at end-of-file (spec §4.2 malformed
// input policy): the inner range extends to end-of-text and Resume is
// len(text)+1.
func consumeGroup(text string, pos span.Pos, open, closeCh byte) (inner span.Range, rawStart span.Pos, rawLen int, resume span.Pos, ok bool) {
	i := pos - 1
	if i < 0 || i >= len(text) || text[i] != open {
		return span.Range{}, 0, 0, pos, false
	}
	rawStart = pos
	depth := 1
	j := i + 1
	innerStart := j
	for j < len(text) && depth > 0 {
		switch text[j] {
		case open:
			if open != closeCh {
				depth++
			}
		case closeCh:
			depth--
			if depth == 0 {
				inner = span.Of(innerStart+1, j+1)
				resume = j + 2
				rawLen = resume - rawStart
				return inner, rawStart, rawLen, resume, true
			}
		case '\\':
			// Skip the escaped character so \} inside a group does
			// not prematurely close it.
			j++
		}
		j++
	}

	// Unterminated: close at EOF.
	inner = span.Of(innerStart+1, len(text)+1)
	resume = len(text) + 1
	rawLen = resume - rawStart
	return inner, rawStart, rawLen, resume, true
}

func skipSpace(text string, pos span.Pos) span.Pos {
	i := pos - 1
	for i < len(text) && i >= 0 && isSpace(text[i]) {
		i++
	}
	return i + 1
}

func hasPrefixAt(text string, pos span.Pos, prefix string) bool {
	i := pos - 1
	if i < 0 || i+len(prefix) > len(text) {
		return false
	}
	return text[i:i+len(prefix)] == prefix
}
