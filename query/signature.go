package query

import (
	"github.com/mava/digestif/dictionary"
	"github.com/mava/digestif/internal/span"
	"github.com/mava/digestif/manuscript"
)

// Parameter is one formal argument rendered for signature help.
type Parameter struct {
	Label         string
	Documentation string
}

// Signature is one renderable command/environment invocation shape.
type Signature struct {
	Label         string
	Documentation string
	Parameters    []Parameter
}

// SignatureResult is the reply to signature_help(pos) (spec §6):
// {signatures, activeSignature, activeParameter?}. A single Manuscript
// only ever has one dictionary entry per name, so Signatures always
// has length 1 when present; ActiveSignature is always 0.
type SignatureResult struct {
	Signatures      []Signature
	ActiveSignature int
	ActiveParameter *int
}

// SignatureHelp walks the context stack outward from pos for the
// innermost command or environment invocation and renders its
// Signature as LSP SignatureInformation, tracking ActiveParameter from
// an enclosing argument frame's index (SPEC_FULL.md §4.6).
func SignatureHelp(n *manuscript.Node, pos span.Pos) (*SignatureResult, bool) {
	var argIndex int
	var invocation *manuscript.Frame

	for f := n.LocalScan(pos); f != nil; f = f.Parent {
		if f.Kind == manuscript.FrameArgument && argIndex == 0 {
			argIndex = f.ArgIndex
		}
		if f.Kind == manuscript.FrameCommand || f.Kind == manuscript.FrameEnvironment {
			invocation = f
			break
		}
	}
	if invocation == nil {
		return nil, false
	}

	var args []dictionary.ArgSpec
	var label, doc string
	switch {
	case invocation.Kind == manuscript.FrameCommand && invocation.Command != nil:
		args = invocation.Command.Args
		label = "\\" + invocation.Name
		doc = invocation.Command.Documentation
	case invocation.Kind == manuscript.FrameEnvironment && invocation.Environment != nil:
		args = invocation.Environment.Args
		label = "\\begin{" + invocation.Name + "}"
		doc = invocation.Environment.Documentation
	default:
		return nil, false
	}

	params := make([]Parameter, len(args))
	for i, a := range args {
		params[i] = Parameter{Label: argLabel(a), Documentation: a.Documentation}
	}

	result := &SignatureResult{
		Signatures:      []Signature{{Label: label, Documentation: doc, Parameters: params}},
		ActiveSignature: 0,
	}
	if argIndex > 0 && argIndex <= len(params) {
		active := argIndex - 1
		result.ActiveParameter = &active
	}
	return result, true
}

func argLabel(a dictionary.ArgSpec) string {
	switch a.Kind {
	case dictionary.ArgOptional:
		return "[" + a.Name + "]"
	case dictionary.ArgStar:
		return "*"
	case dictionary.ArgLiteral:
		return a.Literal
	case dictionary.ArgKeyVal:
		if a.Optional {
			return "[" + a.Name + "]"
		}
		return a.Name
	default:
		return a.Name
	}
}
