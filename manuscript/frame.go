package manuscript

import (
	"github.com/mava/digestif/dictionary"
	"github.com/mava/digestif/internal/span"
	"github.com/mava/digestif/texparser"
)

// FrameKind classifies one layer of the context stack built by
// local_scan (spec §4.4 "Frame kinds, innermost first").
type FrameKind int

const (
	FrameRoot FrameKind = iota
	FrameCommand
	FrameEnvironment
	FrameArgument
	FrameKeyInList
	FrameValueInKey
)

func (k FrameKind) String() string {
	switch k {
	case FrameCommand:
		return "command"
	case FrameEnvironment:
		return "environment"
	case FrameArgument:
		return "argument"
	case FrameKeyInList:
		return "key-in-list"
	case FrameValueInKey:
		return "value-in-key"
	default:
		return "root"
	}
}

// Frame is one layer of the context stack: {pos, len, parent, data}
// per spec §4.4. Parent is nil only for the root sentinel.
type Frame struct {
	Kind   FrameKind
	Range  span.Range
	Parent *Frame

	Name string // command/environment/key name, where relevant

	Command     *dictionary.Command
	Environment *dictionary.Environment
	Arg         texparser.Arg
	ArgIndex    int // 1-based, valid when Kind == FrameArgument
	KeySchema   *dictionary.KeySchema

	// ArgRange is the argument's content span, sans delimiters (e.g.
	// the "x" inside "{x}"), valid when Kind == FrameArgument. Range
	// itself spans the delimiters too, since local_scan's containment
	// walk needs the caret to land inside the braces/brackets even
	// when it sits right against them.
	ArgRange span.Range
}

// RootFrame returns the bottom-of-stack sentinel frame covering the
// whole manuscript.
func RootFrame(src string) *Frame {
	return &Frame{Kind: FrameRoot, Range: span.Of(1, len(src)+1)}
}
