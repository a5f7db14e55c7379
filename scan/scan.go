// Package scan implements the generic driven traversal of spec §4.4:
// at each step it calls texparser.NextThing, looks up a callback by
// the current command's action (or, absent that, by raw token kind),
// and invokes it. The callback returns the position to resume from and
// whether to continue; returning false stops the scan and its final
// state becomes the traversal's result. An absent callback resumes
// from the token's own Resume position.
//
// This is reused verbatim by both global scan (building indices) and
// local scan (building the context stack) — they differ only in their
// callback Table and the shape of their state, which is why Run is
// generic over the state type S per Design Note 9 (an explicit loop
// carrying a small state tuple, not a reliance on proper tail calls).
package scan

import (
	"github.com/mava/digestif/internal/span"
	"github.com/mava/digestif/texparser"
)

// Callback is invoked when the driver finds a token its Table
// recognizes. tok.Start is "pos1" in spec terms. It returns the
// position to resume scanning from, the updated state, and whether
// scanning should continue.
type Callback[S any] func(text string, tok texparser.Token, state S) (resume span.Pos, next S, cont bool)

// Table maps an action name (for control sequences whose name is known
// to the active command/environment table) or a raw token kind (for
// everything else) to a Callback. Action lookup takes priority.
type Table[S any] struct {
	ByAction map[string]Callback[S]
	ByKind   map[texparser.Kind]Callback[S]
}

func (t Table[S]) lookup(action string, kind texparser.Kind) (Callback[S], bool) {
	if action != "" {
		if cb, ok := t.ByAction[action]; ok {
			return cb, true
		}
	}
	cb, ok := t.ByKind[kind]
	return cb, ok
}

// ActionOf resolves the action name for a token; only meaningful for
// KindCS tokens, where it should consult the scope's command/
// environment table. Returning "" means "no action, fall back to
// raw-kind dispatch".
type ActionOf func(tok texparser.Token) string

// Run drives the traversal from pos until a callback stops it or
// end-of-text is reached, returning the final state.
func Run[S any](text string, pos span.Pos, table Table[S], actionOf ActionOf, initial S) S {
	state := initial
	cur := pos

	for {
		tok, ok := texparser.NextThing(text, cur)
		if !ok {
			return state
		}

		action := ""
		if tok.Kind == texparser.KindCS && actionOf != nil {
			action = actionOf(tok)
		}

		cb, found := table.lookup(action, tok.Kind)
		if !found {
			cur = tok.Resume
			continue
		}

		resume, next, cont := cb(text, tok, state)
		state = next
		if !cont {
			return state
		}
		cur = resume
	}
}
