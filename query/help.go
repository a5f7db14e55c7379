// Package query implements the three entry points of spec §4.6 —
// get_help, complete, and the signature-help addition of SPEC_FULL.md
// §4.6 — each consuming a manuscript.Node's local context stack and
// the data dictionary to produce a structured reply.
package query

import (
	"github.com/mava/digestif/dictionary"
	"github.com/mava/digestif/internal/span"
	"github.com/mava/digestif/manuscript"
)

// Help is the reply to get_help(pos): {text, detail?, data, arg?}
// per spec §4.6.
type Help struct {
	Text          string
	Detail        string // "command", "environment", "key", "value", or the argument's declared name
	Documentation string
	Arg           int // 1-based active argument index; 0 when not inside an argument
}

// GetHelp runs local_scan at pos and walks the context stack outward
// for the innermost frame carrying renderable information.
func GetHelp(n *manuscript.Node, pos span.Pos) (*Help, bool) {
	for f := n.LocalScan(pos); f != nil; f = f.Parent {
		if h, ok := renderFrame(n.Src, f); ok {
			return h, true
		}
	}
	return nil, false
}

func renderFrame(src string, f *manuscript.Frame) (*Help, bool) {
	switch f.Kind {
	case manuscript.FrameValueInKey:
		if f.KeySchema != nil && f.KeySchema.ValueKind == "enum" {
			return &Help{Text: f.Name, Detail: "value", Documentation: enumSummary(f.KeySchema)}, true
		}
	case manuscript.FrameKeyInList:
		if f.KeySchema != nil {
			return &Help{Text: f.Name, Detail: "key", Documentation: f.KeySchema.Documentation}, true
		}
	case manuscript.FrameArgument:
		// Hover text is the literal content under the cursor (e.g. the
		// "y" in \ref{y}), not the dictionary's static argument-slot
		// name — that name is still useful context, so it goes in
		// Detail instead.
		return &Help{Text: sliceRange(src, f.ArgRange), Detail: f.Arg.Name, Documentation: f.Arg.Documentation, Arg: f.ArgIndex}, true
	case manuscript.FrameCommand:
		if f.Command != nil {
			return &Help{Text: f.Name, Detail: "command", Documentation: f.Command.Documentation}, true
		}
	case manuscript.FrameEnvironment:
		if f.Environment != nil {
			return &Help{Text: f.Name, Detail: "environment", Documentation: f.Environment.Documentation}, true
		}
	}
	return nil, false
}

func sliceRange(text string, r span.Range) string {
	if r.Len <= 0 {
		return ""
	}
	lo, hi := r.Pos-1, r.End()-1
	if lo < 0 {
		lo = 0
	}
	if hi > len(text) {
		hi = len(text)
	}
	if hi < lo {
		return ""
	}
	return text[lo:hi]
}

func enumSummary(s *dictionary.KeySchema) string {
	out := s.Documentation
	for i, v := range s.Values {
		if i == 0 && out != "" {
			out += " "
		}
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}
