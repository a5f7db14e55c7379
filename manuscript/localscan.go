package manuscript

import (
	"strings"

	"github.com/mava/digestif/dictionary"
	"github.com/mava/digestif/internal/span"
	"github.com/mava/digestif/scan"
	"github.com/mava/digestif/texparser"
)

// localState carries the answer local_scan is building: nil until a
// containing frame is identified, at which point the driving callback
// stops the traversal.
type localState struct {
	frame *Frame
}

// LocalScan returns the context stack at pos, innermost frame first,
// terminating in the root sentinel (spec §4.4 local_scan). It starts
// scanning from the start of the paragraph enclosing pos.
func (n *Node) LocalScan(pos span.Pos) *Frame {
	start := findParagraphStart(n.Src, pos)
	table := n.buildLocalTable(pos)
	result := scan.Run(n.Src, start, table, n.actionOf, &localState{})

	root := RootFrame(n.Src)
	if result.frame == nil {
		return root
	}
	attachRoot(result.frame, root)
	return result.frame
}

// attachRoot walks to the outermost frame of the chain and sets its
// Parent to root.
func attachRoot(frame, root *Frame) {
	f := frame
	for f.Parent != nil {
		f = f.Parent
	}
	f.Parent = root
}

// findParagraphStart walks backward from pos for the nearest preceding
// paragraph break (two consecutive newlines with only whitespace or
// comments between), a single linear scan bounded by the distance to
// that break rather than a repeated forward walk from the file start.
func findParagraphStart(text string, pos span.Pos) span.Pos {
	i := pos - 1
	if i > len(text) {
		i = len(text)
	}
	if i < 0 {
		i = 0
	}

	j := i
	for j > 0 {
		if text[j-1] == '\n' {
			// The line ending at this newline is blank or comment-only,
			// and is itself preceded by a newline.
			k := j - 2
			for k >= 0 && text[k] != '\n' {
				k--
			}
			line := strings.TrimLeft(text[k+1:j-1], " \t\r")
			if k >= 0 && (line == "" || line[0] == '%') {
				return span.Pos(j + 1)
			}
		}
		j--
	}
	return 1
}

func (n *Node) buildLocalTable(pos span.Pos) scan.Table[*localState] {
	return scan.Table[*localState]{
		ByAction: map[string]scan.Callback[*localState]{
			string(dictionary.ActionBegin): n.localBeginCallback(pos),
			string(dictionary.ActionEnd):   n.localEndCallback(pos),
			"tikzpath":                     n.localTikzPathCallback(pos),
		},
		ByKind: map[texparser.Kind]scan.Callback[*localState]{
			texparser.KindCS: n.localCommandCallback(pos),
		},
	}
}

// localCommandCallback handles every control sequence with no special
// action: the dictionary action, if any, is irrelevant to frame
// shape — only begin/end and extension actions need bespoke parsing.
func (n *Node) localCommandCallback(pos span.Pos) scan.Callback[*localState] {
	return func(text string, tok texparser.Token, state *localState) (span.Pos, *localState, bool) {
		if tok.Start > pos {
			return tok.Resume, state, false
		}

		cmd, hasCmd := n.scope.Command(tok.Detail)
		sig := toSignature(cmd.Args)
		list := texparser.ParseArgs(text, tok.Resume, sig)

		nameEnd := tok.Start + span.Pos(1+len(tok.Detail))
		invocationEnd := nameEnd
		if end := list.Pos + span.Pos(list.Len); list.Len > 0 && end > invocationEnd {
			invocationEnd = end
		}

		if pos > invocationEnd {
			return invocationEnd, state, true
		}

		frame := &Frame{Kind: FrameCommand, Range: span.Of(tok.Start, invocationEnd), Name: tok.Detail}
		if hasCmd {
			c := cmd
			frame.Command = &c
		}

		if pos <= nameEnd {
			state.frame = frame
			return invocationEnd, state, false
		}

		state.frame = n.findArgFrame(text, list, pos, frame)
		return invocationEnd, state, false
	}
}

// localBeginCallback builds an Environment frame for \begin{name},
// additionally parsing the environment's own argument signature so
// caret positions inside environment arguments are recognized as such
// (spec §4.4 "\begin handling").
func (n *Node) localBeginCallback(pos span.Pos) scan.Callback[*localState] {
	return func(text string, tok texparser.Token, state *localState) (span.Pos, *localState, bool) {
		if tok.Start > pos {
			return tok.Resume, state, false
		}
		return n.localEnvironmentInvocation(text, tok, pos, state)
	}
}

// localEndCallback mirrors localBeginCallback for \end{name}; \end
// takes no further arguments beyond its own name.
func (n *Node) localEndCallback(pos span.Pos) scan.Callback[*localState] {
	return func(text string, tok texparser.Token, state *localState) (span.Pos, *localState, bool) {
		if tok.Start > pos {
			return tok.Resume, state, false
		}
		return n.localEnvironmentInvocation(text, tok, pos, state)
	}
}

func (n *Node) localEnvironmentInvocation(text string, tok texparser.Token, pos span.Pos, state *localState) (span.Pos, *localState, bool) {
	// A first pass just reads off the environment's name, since its
	// own declared arguments (if any) depend on looking that name up.
	probe := texparser.ParseArgs(text, tok.Resume, mandatorySignature("name"))
	envName := ""
	if probe.Results[0].Present {
		envName = sliceRange(text, probe.Results[0].Range)
	}
	env, hasEnv := n.scope.Environment(envName)

	// Combine the {name} slot with the environment's own declared
	// arguments into a single parse so caret positions inside e.g.
	// thebibliography's widest-label argument land in an argument
	// frame, not the environment frame.
	// \end takes only its {name}.
	var envArgs []dictionary.ArgSpec
	if tok.Detail == "begin" {
		envArgs = env.Args
	}
	sig := append(texparser.Signature{{Kind: texparser.ArgMandatory, Name: "name"}}, toSignature(envArgs)...)
	list := texparser.ParseArgs(text, tok.Resume, sig)
	nameResult := list.Results[0]

	invocationEnd := tok.Start + span.Pos(1+len(tok.Detail))
	if nameResult.RawLen > 0 {
		end := nameResult.RawStart + span.Pos(nameResult.RawLen)
		if end > invocationEnd {
			invocationEnd = end
		}
	}
	if list.Len > 0 {
		if end := list.Pos + span.Pos(list.Len); end > invocationEnd {
			invocationEnd = end
		}
	}

	if pos > invocationEnd {
		return invocationEnd, state, true
	}

	frame := &Frame{Kind: FrameEnvironment, Range: span.Of(tok.Start, invocationEnd), Name: envName}
	if hasEnv {
		e := env
		frame.Environment = &e
	}

	nameEnd := tok.Start + span.Pos(1+len(tok.Detail))
	if nameResult.RawLen > 0 {
		nameEnd = nameResult.RawStart + span.Pos(nameResult.RawLen)
	}
	if pos <= nameEnd {
		state.frame = frame
		return invocationEnd, state, false
	}

	// list[0] is the {name} slot itself; only the environment's own
	// declared arguments (index 1 onward) are candidates for an
	// argument frame.
	if len(list.Results) > 1 {
		rest := texparser.ArgList{Results: list.Results[1:], Pos: list.Pos, Len: list.Len}
		state.frame = n.findArgFrame(text, rest, pos, frame)
	} else {
		state.frame = frame
	}
	return invocationEnd, state, false
}

// localTikzPathCallback gives \draw/\fill/\node-style extension
// commands a single Command frame spanning the whole ";"-terminated
// statement; the alternating unbraced/bracketed argument shape isn't
// broken into individual argument frames (spec §4.4 "Extension
// callbacks" — bespoke parsing, not the standard signature shapes).
func (n *Node) localTikzPathCallback(pos span.Pos) scan.Callback[*localState] {
	return func(text string, tok texparser.Token, state *localState) (span.Pos, *localState, bool) {
		if tok.Start > pos {
			return tok.Resume, state, false
		}

		i := tok.Resume - 1
		for i < len(text) && text[i] != ';' {
			i++
		}
		if i < len(text) {
			i++
		}
		invocationEnd := span.Pos(i + 1)

		if pos > invocationEnd {
			return invocationEnd, state, true
		}

		cmd, hasCmd := n.scope.Command(tok.Detail)
		frame := &Frame{Kind: FrameCommand, Range: span.Of(tok.Start, invocationEnd), Name: tok.Detail}
		if hasCmd {
			c := cmd
			frame.Command = &c
		}
		state.frame = frame
		return invocationEnd, state, false
	}
}

// findArgFrame locates the argument slot containing pos within list,
// recursing into key=value structure when present. Returns parent
// unchanged if pos falls in a gap between arguments rather than inside
// any specific one.
func (n *Node) findArgFrame(text string, list texparser.ArgList, pos span.Pos, parent *Frame) *Frame {
	for i := range list.Results {
		r := list.Results[i]
		if !r.Present || r.RawLen == 0 {
			continue
		}
		argRange := span.Of(r.RawStart, r.RawStart+span.Pos(r.RawLen))
		if !argRange.Contains(pos) {
			continue
		}

		frame := &Frame{Kind: FrameArgument, Range: argRange, ArgRange: r.Range, Parent: parent, Name: r.Arg.Name, Arg: r.Arg, ArgIndex: i + 1}
		if r.Arg.Kind == texparser.ArgKeyVal {
			return n.findKeyFrame(text, r, pos, frame)
		}
		return frame
	}
	return parent
}

// findKeyFrame parses a key=value argument's contents and descends
// into the key or value frame containing pos, per the decided
// treatment of command-like values (see the module's design notes):
// a value is a plain text span unless its key's schema declares
// ValueKind == "command-list", in which case it is itself scanned for
// a containing control-sequence frame.
func (n *Node) findKeyFrame(text string, r texparser.ArgResult, pos span.Pos, parent *Frame) *Frame {
	pairs := texparser.ParseKeys(text, r.Range.Pos, r.Range.Len)
	for _, kv := range pairs {
		keyWhole := kv.Key
		if kv.Value.Len > 0 {
			keyWhole = span.Of(kv.Key.Pos, kv.Value.End())
		}
		if !keyWhole.Contains(pos) {
			continue
		}

		keyName := sliceRange(text, kv.Key)
		schema := lookupKeySchema(r.Arg.KeySchema, keyName)
		keyFrame := &Frame{Kind: FrameKeyInList, Range: keyWhole, Parent: parent, Name: keyName, KeySchema: schema}

		if kv.Value.Len == 0 || !kv.Value.Contains(pos) {
			return keyFrame
		}

		valueFrame := &Frame{Kind: FrameValueInKey, Range: kv.Value, Parent: keyFrame, Name: keyName, KeySchema: schema}
		if schema != nil && schema.ValueKind == "command-list" {
			if nested := n.findCommandFrameInRange(text, kv.Value, pos, valueFrame); nested != nil {
				return nested
			}
		}
		return valueFrame
	}
	return parent
}

// findCommandFrameInRange scans a bounded region (a command-list
// value) for the control sequence containing pos, building a single
// Command frame nested under parent.
func (n *Node) findCommandFrameInRange(text string, region span.Range, pos span.Pos, parent *Frame) *Frame {
	cur := region.Pos
	for cur <= region.End() {
		tok, ok := texparser.NextThing(text, cur)
		if !ok || tok.Start >= region.End() {
			return nil
		}
		if tok.Kind != texparser.KindCS {
			cur = tok.Resume
			continue
		}
		nameEnd := tok.Start + span.Pos(1+len(tok.Detail))
		if pos < tok.Start || pos > nameEnd {
			cur = tok.Resume
			continue
		}
		cmd, hasCmd := n.scope.Command(tok.Detail)
		frame := &Frame{Kind: FrameCommand, Range: span.Of(tok.Start, nameEnd), Parent: parent, Name: tok.Detail}
		if hasCmd {
			c := cmd
			frame.Command = &c
		}
		return frame
	}
	return nil
}

func lookupKeySchema(schemas []texparser.KeySchema, name string) *dictionary.KeySchema {
	for _, s := range schemas {
		if s.Name == name {
			return &dictionary.KeySchema{Name: s.Name, Documentation: s.Documentation, ValueKind: s.ValueKind, Values: s.Values}
		}
	}
	return nil
}
