package query

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"

	"github.com/mava/digestif/dictionary"
	"github.com/mava/digestif/internal/logging"
	"github.com/mava/digestif/internal/span"
	"github.com/mava/digestif/manuscript"
	"github.com/mava/digestif/texparser"
)

// Candidate is one completion entry (spec §4.6: "{text, filter_text,
// summary, detail, snippet?}").
type Candidate struct {
	Text       string
	FilterText string
	Summary    string
	Detail     string
	Snippet    string
}

// Result is the reply to complete(pos): {prefix, pos, candidates[]}.
type Result struct {
	Prefix     string
	Pos        span.Pos
	Candidates []Candidate
}

// Options configures domain-specific completions that need
// information beyond the manuscript tree itself.
type Options struct {
	// SearchPath is consulted for filename completion inside an
	// input-class command's mandatory argument.
	SearchPath []string
}

// Complete derives a completion prefix from the source text ending at
// pos and enumerates candidates from the innermost context frame
// (spec §4.6).
func Complete(ctx context.Context, n *manuscript.Node, pos span.Pos, opts Options) (*Result, bool) {
	frame := n.LocalScan(pos)
	prefix, prefixStart := wordPrefix(n.Src, pos)

	var candidates []Candidate
	switch frame.Kind {
	case manuscript.FrameCommand:
		candidates = commandCandidates(n, prefix)
	case manuscript.FrameKeyInList:
		if frame.Parent != nil && frame.Parent.Kind == manuscript.FrameArgument {
			candidates = keyCandidates(frame.Parent.Arg.KeySchema, prefix)
		}
	case manuscript.FrameValueInKey:
		if frame.KeySchema != nil {
			candidates = valueCandidates(frame.KeySchema, prefix)
		}
	case manuscript.FrameArgument:
		candidates = domainCandidates(ctx, n, frame, prefix, opts)
	default:
		return nil, false
	}

	if candidates == nil {
		return nil, false
	}
	sortCandidates(candidates, prefix)
	return &Result{Prefix: prefix, Pos: prefixStart, Candidates: candidates}, true
}

func commandCandidates(n *manuscript.Node, prefix string) []Candidate {
	var out []Candidate
	for _, name := range n.AllCommandNames() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		out = append(out, Candidate{Text: name, FilterText: name, Detail: "command", Snippet: "\\" + name})
	}
	return out
}

func keyCandidates(schema []texparser.KeySchema, prefix string) []Candidate {
	var out []Candidate
	for _, s := range schema {
		if !strings.HasPrefix(s.Name, prefix) {
			continue
		}
		out = append(out, Candidate{Text: s.Name, FilterText: s.Name, Summary: s.Documentation, Detail: "key"})
	}
	return out
}

func valueCandidates(schema *dictionary.KeySchema, prefix string) []Candidate {
	var out []Candidate
	for _, v := range schema.Values {
		if !strings.HasPrefix(v, prefix) {
			continue
		}
		out = append(out, Candidate{Text: v, FilterText: v, Detail: "value"})
	}
	return out
}

// domainCandidates implements spec §4.6's action-driven argument
// completions: label references against known labels, citations
// against known bibitems, input-class commands against matching
// filenames on the configured search path.
func domainCandidates(ctx context.Context, n *manuscript.Node, frame *manuscript.Frame, prefix string, opts Options) []Candidate {
	if frame.Parent == nil || frame.Parent.Command == nil {
		return nil
	}
	switch frame.Parent.Command.Action {
	case dictionary.ActionRef:
		return filterNames(collectLabels(n.Root()), prefix, "label")
	case dictionary.ActionCite:
		return filterNames(collectBibitems(n.Root()), prefix, "bibitem")
	case dictionary.ActionInput:
		return inputCandidates(ctx, opts.SearchPath, frame.Parent.Command.FilenameTemplate, prefix)
	default:
		return nil
	}
}

func filterNames(names []string, prefix, detail string) []Candidate {
	var out []Candidate
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] || !strings.HasPrefix(name, prefix) {
			continue
		}
		seen[name] = true
		out = append(out, Candidate{Text: name, FilterText: name, Detail: detail})
	}
	return out
}

func collectLabels(n *manuscript.Node) []string {
	var names []string
	for _, r := range n.LabelIndex {
		names = append(names, r.Name)
	}
	for _, child := range n.Children {
		names = append(names, collectLabels(child)...)
	}
	return names
}

func collectBibitems(n *manuscript.Node) []string {
	var names []string
	for _, r := range n.Bibitems {
		names = append(names, r.Name)
	}
	for _, child := range n.Children {
		names = append(names, collectBibitems(child)...)
	}
	return names
}

// inputCandidates lists files on searchPath whose name (sans the
// extension implied by template) starts with prefix.
func inputCandidates(ctx context.Context, searchPath []string, template, prefix string) []Candidate {
	ext := filepath.Ext(strings.TrimPrefix(template, "%s"))
	fs := afs.New()

	var out []Candidate
	for _, dir := range searchPath {
		objects, err := fs.List(ctx, dir)
		if err != nil {
			logging.Warnw("search path unreadable", "dir", dir, "error", err)
			continue
		}
		for _, obj := range objects {
			if obj.IsDir() {
				continue
			}
			name := obj.Name()
			if ext != "" && !strings.HasSuffix(name, ext) {
				continue
			}
			base := strings.TrimSuffix(name, ext)
			if !strings.HasPrefix(base, prefix) {
				continue
			}
			out = append(out, Candidate{Text: base, FilterText: base, Detail: "file", Summary: filepath.Join(dir, name)})
		}
	}
	return out
}

// wordPrefix returns the run of identifier bytes immediately before
// pos and the byte offset it starts at — the "nearest word boundary"
// of spec §4.6.
func wordPrefix(text string, pos span.Pos) (string, span.Pos) {
	i := pos - 1
	if i > len(text) {
		i = len(text)
	}
	start := i
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}
	return text[start:i], span.Pos(start + 1)
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_' || b == ':' || b == '-'
}

func sortCandidates(cands []Candidate, prefix string) {
	sort.SliceStable(cands, func(i, j int) bool {
		ei, ej := cands[i].Text == prefix, cands[j].Text == prefix
		if ei != ej {
			return ei
		}
		return cands[i].Text < cands[j].Text
	})
}
