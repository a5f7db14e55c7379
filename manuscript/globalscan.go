package manuscript

import (
	"context"
	"fmt"
	"strings"

	"github.com/mava/digestif/dictionary"
	lerrors "github.com/mava/digestif/internal/errors"
	"github.com/mava/digestif/internal/logging"
	"github.com/mava/digestif/internal/span"
	"github.com/mava/digestif/scan"
	"github.com/mava/digestif/texparser"
)

// globalState threads the environment stack through global_scan's
// driven traversal (spec §4.4: "Track environment stack; delegate to
// environment-specific action if defined").
type globalState struct {
	envStack []string
}

// pendingInput is recorded during the traversal; children are built
// only after scanning completes (spec §4.4: "Children are built after
// scanning completes, one per unique resolved path").
type pendingInput struct {
	pos      span.Pos
	raw      string
	resolved string
}

// globalScan clears n's extracted indices and traverses the whole of
// n.Src, populating Labels, Bibitems, Outline, InputIndex, LabelIndex,
// SectionIndex, and (after the traversal) Children (spec §4.4).
func (n *Node) globalScan(ctx context.Context) {
	n.Labels = nil
	n.Bibitems = nil
	n.Outline = nil
	n.InputIndex = nil
	n.LabelIndex = nil
	n.SectionIndex = nil
	n.outlineStack = nil
	n.Children = make(map[string]*Node)

	var pendingInputs []pendingInput

	table := n.buildGlobalTable(&pendingInputs)
	scan.Run(n.Src, 1, table, n.actionOf, &globalState{})

	seen := make(map[string]bool)
	for _, pi := range pendingInputs {
		if seen[pi.resolved] {
			continue
		}
		seen[pi.resolved] = true

		if n.Depth+1 > n.maxDepth {
			logging.Warnw(lerrors.ErrCycleDepth.Error(), "file", n.Filename, "target", pi.resolved, "depth", n.Depth+1)
			continue
		}

		child, err := n.newChild(ctx, pi.resolved)
		if err != nil {
			logging.Warnw("input target could not be loaded", "file", n.Filename, "target", pi.resolved, "error", err)
			continue
		}
		n.Children[pi.resolved] = child
	}
}

// actionOf resolves the dictionary action for a control-sequence
// token. \begin and \end are structural primitives recognized by name
// directly, not dictionary entries.
func (n *Node) actionOf(tok texparser.Token) string {
	switch tok.Detail {
	case "begin":
		return string(dictionary.ActionBegin)
	case "end":
		return string(dictionary.ActionEnd)
	}
	if c, ok := n.scope.Command(tok.Detail); ok {
		return string(c.Action)
	}
	return ""
}

func (n *Node) buildGlobalTable(pendingInputs *[]pendingInput) scan.Table[*globalState] {
	table := scan.Table[*globalState]{ByAction: make(map[string]scan.Callback[*globalState])}
	table.ByAction[string(dictionary.ActionInput)] = n.globalInputCallback(pendingInputs)
	table.ByAction[string(dictionary.ActionHeading)] = n.globalHeadingCallback()
	table.ByAction[string(dictionary.ActionLabel)] = n.globalLabelCallback()
	table.ByAction[string(dictionary.ActionBibitem)] = n.globalBibitemCallback()
	table.ByAction[string(dictionary.ActionBegin)] = n.globalBeginCallback(&table)
	table.ByAction[string(dictionary.ActionEnd)] = n.globalEndCallback()
	table.ByAction[string(dictionary.ActionMath)] = noopCallback
	table.ByAction[string(dictionary.ActionEndMath)] = noopCallback
	table.ByAction["tikzpath"] = n.globalTikzPathCallback()
	return table
}

func (n *Node) globalInputCallback(pendingInputs *[]pendingInput) scan.Callback[*globalState] {
	return func(text string, tok texparser.Token, state *globalState) (span.Pos, *globalState, bool) {
		cmd, _ := n.scope.Command(tok.Detail)
		sig := toSignature(cmd.Args)
		list := texparser.ParseArgs(text, tok.Resume, sig)

		var nameArg *texparser.ArgResult
		for i := range list.Results {
			if list.Results[i].Arg.Kind == texparser.ArgMandatory && list.Results[i].Present {
				nameArg = &list.Results[i]
				break
			}
		}
		resume := tok.Resume
		if nameArg != nil {
			resume = nameArg.RawStart + span.Pos(nameArg.RawLen)

			raw := sliceRange(text, nameArg.Range)
			resolvedName := applyFilenameTemplate(cmd.FilenameTemplate, raw)
			resolved := n.resolvePath(resolvedName)

			n.InputIndex = append(n.InputIndex, InputRecord{Pos: tok.Start, Name: raw, Resolved: resolved})
			*pendingInputs = append(*pendingInputs, pendingInput{pos: tok.Start, raw: raw, resolved: resolved})
		}
		return resume, state, true
	}
}

func (n *Node) globalHeadingCallback() scan.Callback[*globalState] {
	return func(text string, tok texparser.Token, state *globalState) (span.Pos, *globalState, bool) {
		cmd, _ := n.scope.Command(tok.Detail)
		sig := toSignature(cmd.Args)
		list := texparser.ParseArgs(text, tok.Resume, sig)

		var titleArg *texparser.ArgResult
		for i := range list.Results {
			if list.Results[i].Arg.Kind == texparser.ArgMandatory {
				titleArg = &list.Results[i]
			}
		}
		resume := tok.Resume
		title := ""
		if titleArg != nil && titleArg.Present {
			resume = titleArg.RawStart + span.Pos(titleArg.RawLen)
			title = sliceRange(text, titleArg.Range)
		}

		heading := &OutlineNode{Pos: tok.Start, Level: cmd.HeadingLevel, Title: title}
		n.insertHeading(heading)
		n.SectionIndex = append(n.SectionIndex, Record{Pos: tok.Start, Name: title})

		return resume, state, true
	}
}

// insertHeading nests heading under the deepest open heading with a
// strictly shallower level, maintaining the outline nesting invariant
// (spec §3).
func (n *Node) insertHeading(heading *OutlineNode) {
	for len(n.outlineStack) > 0 && n.outlineStack[len(n.outlineStack)-1].Level >= heading.Level {
		n.outlineStack = n.outlineStack[:len(n.outlineStack)-1]
	}
	if len(n.outlineStack) == 0 {
		n.Outline = append(n.Outline, heading)
	} else {
		parent := n.outlineStack[len(n.outlineStack)-1]
		parent.Children = append(parent.Children, heading)
	}
	n.outlineStack = append(n.outlineStack, heading)
}

func (n *Node) globalLabelCallback() scan.Callback[*globalState] {
	return func(text string, tok texparser.Token, state *globalState) (span.Pos, *globalState, bool) {
		cmd, _ := n.scope.Command(tok.Detail)
		name, resume := parseFirstMandatory(text, tok.Resume, cmd.Args)
		n.Labels = append(n.Labels, Record{Pos: tok.Start, Name: name})
		n.LabelIndex = append(n.LabelIndex, Record{Pos: tok.Start, Name: name})
		return resume, state, true
	}
}

func (n *Node) globalBibitemCallback() scan.Callback[*globalState] {
	return func(text string, tok texparser.Token, state *globalState) (span.Pos, *globalState, bool) {
		cmd, _ := n.scope.Command(tok.Detail)
		name, resume := parseFirstMandatory(text, tok.Resume, cmd.Args)
		n.Bibitems = append(n.Bibitems, Record{Pos: tok.Start, Name: name})
		return resume, state, true
	}
}

func (n *Node) globalBeginCallback(table *scan.Table[*globalState]) scan.Callback[*globalState] {
	return func(text string, tok texparser.Token, state *globalState) (span.Pos, *globalState, bool) {
		envName, resume := parseEnvName(text, tok.Resume)
		env, hasEnv := n.scope.Environment(envName)
		if hasEnv && len(env.Args) > 0 {
			sig := toSignature(env.Args)
			list := texparser.ParseArgs(text, resume, sig)
			if last := lastPresent(list); last != nil {
				resume = last.RawStart + span.Pos(last.RawLen)
			}
		}
		state.envStack = append(state.envStack, envName)

		// Delegate to the environment's own action, if the dictionary
		// declares one and a handler for it is registered (spec §4.4:
		// "begin/end: ... delegate to environment-specific action if
		// defined"). math/equation-like environments reach their
		// math/endmath handling this way rather than through a
		// separate hardcoded case.
		if hasEnv && env.Action != "" && env.Action != dictionary.ActionBegin {
			if cb, ok := table.ByAction[string(env.Action)]; ok {
				fakeTok := texparser.Token{Kind: texparser.KindCS, Detail: envName, Start: tok.Start, Resume: resume}
				if r, next, cont := cb(text, fakeTok, state); cont {
					resume, state = r, next
				}
			}
		}
		return resume, state, true
	}
}

func (n *Node) globalEndCallback() scan.Callback[*globalState] {
	return func(text string, tok texparser.Token, state *globalState) (span.Pos, *globalState, bool) {
		_, resume := parseEnvName(text, tok.Resume)
		if len(state.envStack) > 0 {
			state.envStack = state.envStack[:len(state.envStack)-1]
		}
		return resume, state, true
	}
}

// globalTikzPathCallback is the extension callback for the tikzpath
// action (spec §4.4 "Extension callbacks"): \draw/\fill/\node accept
// an alternating sequence of unbraced coordinates and bracketed option
// groups, which the standard signature shapes cannot express. Global
// scan doesn't need to index anything from it, only to resume scanning
// past the whole statement (terminated by ";").
func (n *Node) globalTikzPathCallback() scan.Callback[*globalState] {
	return func(text string, tok texparser.Token, state *globalState) (span.Pos, *globalState, bool) {
		i := tok.Resume - 1
		for i < len(text) && text[i] != ';' {
			i++
		}
		if i < len(text) {
			i++
		}
		return i + 1, state, true
	}
}

// noopCallback resumes past the token unchanged; used for actions that
// global_scan tracks no index for (math/endmath add nothing to the
// global indices).
func noopCallback(text string, tok texparser.Token, state *globalState) (span.Pos, *globalState, bool) {
	return tok.Resume, state, true
}

func parseFirstMandatory(text string, pos span.Pos, specs []dictionary.ArgSpec) (name string, resume span.Pos) {
	sig := toSignature(specs)
	list := texparser.ParseArgs(text, pos, sig)
	for i := range list.Results {
		if list.Results[i].Arg.Kind == texparser.ArgMandatory && list.Results[i].Present {
			resume = list.Results[i].RawStart + span.Pos(list.Results[i].RawLen)
			return sliceRange(text, list.Results[i].Range), resume
		}
	}
	return "", pos
}

func parseEnvName(text string, pos span.Pos) (name string, resume span.Pos) {
	list := texparser.ParseArgs(text, pos, mandatorySignature("env"))
	if len(list.Results) == 1 && list.Results[0].Present {
		r := list.Results[0]
		return sliceRange(text, r.Range), r.RawStart + span.Pos(r.RawLen)
	}
	return "", pos
}

func lastPresent(list texparser.ArgList) *texparser.ArgResult {
	for i := len(list.Results) - 1; i >= 0; i-- {
		if list.Results[i].Present {
			return &list.Results[i]
		}
	}
	return nil
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

// applyFilenameTemplate fills in a "%s.ext"-style template. An absent
// template leaves the raw name unchanged; a template without "%s"
// yields the first comma-separated name, trimmed.
func applyFilenameTemplate(tmpl, raw string) string {
	if tmpl == "" {
		return raw
	}
	// Multiple comma-separated files (e.g. \bibliography{a,b}) take
	// only the first; splitting and resolving every one of them is
	// implementation-defined territory the spec is silent on.
	raw = strings.TrimSpace(strings.SplitN(raw, ",", 2)[0])
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, raw)
	}
	return raw
}
