// Package server binds lspcore.Core to the Language Server Protocol
// via github.com/tliron/glsp, the library the teacher uses for its own
// editor integrations, over both stdio (the conventional LSP
// transport) and a websocket connection (spec §6 NEW).
package server

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	lerrors "github.com/mava/digestif/internal/errors"
	"github.com/mava/digestif/internal/logging"
	"github.com/mava/digestif/lspcore"
)

const languageID = "latex"

// Handler implements the subset of the LSP 3.16 protocol this server
// answers: document sync plus hover, signature help, and completion
// (spec §6).
type Handler struct {
	core *lspcore.Core
}

// NewHandler wraps core in a glsp protocol.Handler.
func NewHandler(core *lspcore.Core) *protocol.Handler {
	h := &Handler{core: core}
	return &protocol.Handler{
		Initialize:                h.initialize,
		Initialized:               h.initialized,
		Shutdown:                  h.shutdown,
		TextDocumentDidOpen:       h.didOpen,
		TextDocumentDidChange:     h.didChange,
		TextDocumentDidClose:      h.didClose,
		TextDocumentHover:         h.hover,
		TextDocumentCompletion:    h.completion,
		TextDocumentSignatureHelp: h.signatureHelp,
	}
}

func (h *Handler) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	syncKind := protocol.TextDocumentSyncKindIncremental
	trueVal := true
	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: &trueVal,
				Change:    &syncKind,
			},
			HoverProvider: &protocol.HoverOptions{},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{"{", "\\"},
			},
			SignatureHelpProvider: &protocol.SignatureHelpOptions{
				TriggerCharacters: []string{"{", ","},
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name: "digestif",
		},
	}, nil
}

func (h *Handler) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	logging.Infow("client initialized")
	return nil
}

func (h *Handler) shutdown(ctx *glsp.Context) error {
	return nil
}

func (h *Handler) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	filename := uriToFilename(params.TextDocument.URI)
	return h.core.DidOpen(context.Background(), filename, params.TextDocument.Text, languageID, int(params.TextDocument.Version))
}

func (h *Handler) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	filename := uriToFilename(params.TextDocument.URI)

	changes := make([]lspcore.Change, 0, len(params.ContentChanges))
	for _, raw := range params.ContentChanges {
		switch c := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			changes = append(changes, lspcore.Change{
				Range: &lspcore.ChangeRange{
					StartLine: int(c.Range.Start.Line),
					StartChar: int(c.Range.Start.Character),
					EndLine:   int(c.Range.End.Line),
					EndChar:   int(c.Range.End.Character),
				},
				RangeLength: rangeLengthOf(c),
				Text:        c.Text,
			})
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, lspcore.Change{Text: c.Text})
		}
	}

	err := h.core.DidChange(context.Background(), filename, changes, int(params.TextDocument.Version))
	if err != nil && !lerrors.IsRangeMismatch(err) {
		return err
	}
	if err != nil {
		logging.Warnw("did_change rejected", "file", filename, "error", err)
	}
	return nil
}

// rangeLengthOf recovers the declared byte range length a glsp
// TextDocumentContentChangeEvent carries as a UTF-16 code unit count;
// digestif's own edit bookkeeping is byte-oriented, so ASCII-range
// TeX source (the overwhelming common case) passes through unchanged
// and only non-ASCII edits would need a proper UTF-16 reconciliation,
// which spec §1's scope does not require.
func rangeLengthOf(c protocol.TextDocumentContentChangeEvent) int {
	if c.RangeLength != nil {
		return int(*c.RangeLength)
	}
	return int(c.Range.End.Character - c.Range.Start.Character)
}

func (h *Handler) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.core.DidClose(uriToFilename(params.TextDocument.URI))
	return nil
}

func (h *Handler) hover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	filename := uriToFilename(params.TextDocument.URI)
	result, ok, err := h.core.Hover(filename, int(params.Position.Line), int(params.Position.Character))
	if err != nil || !ok {
		return nil, err
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindPlainText, Value: result.Contents},
	}, nil
}

func (h *Handler) signatureHelp(ctx *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	filename := uriToFilename(params.TextDocument.URI)
	result, ok, err := h.core.SignatureHelp(filename, int(params.Position.Line), int(params.Position.Character))
	if err != nil || !ok {
		return nil, err
	}

	signatures := make([]protocol.SignatureInformation, len(result.Signatures))
	for i, sig := range result.Signatures {
		paramInfos := make([]protocol.ParameterInformation, len(sig.Parameters))
		for j, p := range sig.Parameters {
			paramInfos[j] = protocol.ParameterInformation{Label: p.Label, Documentation: p.Documentation}
		}
		signatures[i] = protocol.SignatureInformation{
			Label:         sig.Label,
			Documentation: sig.Documentation,
			Parameters:    paramInfos,
		}
	}

	active := uint32(result.ActiveSignature)
	out := &protocol.SignatureHelp{Signatures: signatures, ActiveSignature: &active}
	if result.ActiveParameter != nil {
		p := uint32(*result.ActiveParameter)
		out.ActiveParameter = &p
	}
	return out, nil
}

func (h *Handler) completion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	filename := uriToFilename(params.TextDocument.URI)
	items, ok, err := h.core.Completion(context.Background(), filename, int(params.Position.Line), int(params.Position.Character))
	if err != nil || !ok {
		return nil, err
	}

	out := make([]protocol.CompletionItem, len(items))
	for i, it := range items {
		format := protocol.InsertTextFormatPlainText
		if it.Snippet {
			format = protocol.InsertTextFormatSnippet
		}
		out[i] = protocol.CompletionItem{
			Label:            it.Label,
			FilterText:       stringPtr(it.FilterText),
			Detail:           stringPtr(it.Detail),
			Documentation:    it.Documentation,
			InsertTextFormat: &format,
			TextEdit: protocol.TextEdit{
				Range: protocol.Range{
					Start: protocol.Position{Line: protocol.UInteger(it.EditStartLine), Character: protocol.UInteger(it.EditStartChar)},
					End:   protocol.Position{Line: protocol.UInteger(it.EditEndLine), Character: protocol.UInteger(it.EditEndChar)},
				},
				NewText: it.NewText,
			},
		}
	}
	return out, nil
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func uriToFilename(uri protocol.DocumentUri) string {
	const prefix = "file://"
	s := string(uri)
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}
