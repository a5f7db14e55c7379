package manuscript

import (
	"github.com/mava/digestif/dictionary"
	"github.com/mava/digestif/texparser"
)

// toSignature converts a dictionary.ArgSpec list (the on-disk schema)
// into the texparser.Signature the parser primitives consume.
func toSignature(specs []dictionary.ArgSpec) texparser.Signature {
	sig := make(texparser.Signature, len(specs))
	for i, s := range specs {
		sig[i] = texparser.Arg{
			Kind:          toArgKind(s.Kind),
			Name:          s.Name,
			Documentation: s.Documentation,
			Literal:       s.Literal,
			Optional:      s.Optional,
			KeySchema:     toKeySchema(s.KeySchema),
		}
	}
	return sig
}

func toArgKind(k dictionary.ArgKind) texparser.ArgKind {
	switch k {
	case dictionary.ArgOptional:
		return texparser.ArgOptional
	case dictionary.ArgStar:
		return texparser.ArgStar
	case dictionary.ArgLiteral:
		return texparser.ArgLiteral
	case dictionary.ArgKeyVal:
		return texparser.ArgKeyVal
	default:
		return texparser.ArgMandatory
	}
}

func toKeySchema(specs []dictionary.KeySchema) []texparser.KeySchema {
	out := make([]texparser.KeySchema, len(specs))
	for i, s := range specs {
		out[i] = texparser.KeySchema{
			Name:          s.Name,
			Documentation: s.Documentation,
			ValueKind:     s.ValueKind,
			Values:        s.Values,
		}
	}
	return out
}

// mandatorySignature builds a single-mandatory-argument signature, used
// to parse the {name} immediately following \begin or \end.
func mandatorySignature(name string) texparser.Signature {
	return texparser.Signature{{Kind: texparser.ArgMandatory, Name: name}}
}
