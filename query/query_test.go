package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mava/digestif/dictionary"
	"github.com/mava/digestif/filecache"
	"github.com/mava/digestif/manuscript"
)

func newTestRoot(t *testing.T, filename, src string) *manuscript.Node {
	t.Helper()
	c := filecache.New()
	c.Put(filename, src)
	loader := dictionary.NewLoader("")
	n, err := manuscript.NewRoot(context.Background(), c, loader, filename, "latex", 0)
	require.NoError(t, err)
	return n
}

func TestSignatureHelpReportsActiveParameterInsideRefArgument(t *testing.T) {
	src := "\\section{Intro}\n" +
		"\\label{x}\n" +
		"\\ref{x}\n"
	n := newTestRoot(t, "/t/a.tex", src)

	require.Len(t, n.Outline, 1)
	assert.Equal(t, "Intro", n.Outline[0].Title)
	require.Len(t, n.Labels, 1)
	assert.Equal(t, "x", n.Labels[0].Name)

	// Byte 32 is the "x" inside "\ref{x}".
	result, ok := SignatureHelp(n, 32)
	require.True(t, ok)
	require.Len(t, result.Signatures, 1)
	sig := result.Signatures[0]
	assert.Equal(t, "\\ref", sig.Label)
	require.Len(t, sig.Parameters, 1)
	assert.Equal(t, "reference", sig.Parameters[0].Label)
	require.NotNil(t, result.ActiveParameter)
	assert.Equal(t, 0, *result.ActiveParameter)
}

func TestCompleteOffersKnownLabelInsideRefArgument(t *testing.T) {
	src := "\\section{Intro}\n" +
		"\\label{x}\n" +
		"\\ref{x}\n"
	n := newTestRoot(t, "/t/a.tex", src)

	// Byte 32 is the "x" inside "\ref{x}", same position the
	// signature-help test probes.
	result, ok := Complete(context.Background(), n, 32, Options{})
	require.True(t, ok)

	var texts []string
	for _, c := range result.Candidates {
		texts = append(texts, c.Text)
	}
	assert.Contains(t, texts, "x")
}

func TestCompleteOffersLabelFromChildAfterInput(t *testing.T) {
	c := filecache.New()
	c.Put("/t/root.tex", "\\input{child}\n\\ref{y}\n")
	c.Put("/t/child.tex", "\\label{y}\n")
	loader := dictionary.NewLoader("")
	n, err := manuscript.NewRoot(context.Background(), c, loader, "/t/root.tex", "latex", 0)
	require.NoError(t, err)

	require.Contains(t, n.Children, "/t/child.tex")

	// Byte 20 is the "y" inside "\ref{y}" in root.tex.
	result, ok := Complete(context.Background(), n, 20, Options{})
	require.True(t, ok)

	var texts []string
	for _, cand := range result.Candidates {
		texts = append(texts, cand.Text)
	}
	assert.Contains(t, texts, "y")
}

func TestGetHelpOnRefArgumentDescribesTheArgumentSlot(t *testing.T) {
	c := filecache.New()
	c.Put("/t/root.tex", "\\input{child}\n\\ref{y}\n")
	c.Put("/t/child.tex", "\\label{y}\n")
	loader := dictionary.NewLoader("")
	n, err := manuscript.NewRoot(context.Background(), c, loader, "/t/root.tex", "latex", 0)
	require.NoError(t, err)

	// Byte 20 is the "y" inside "\ref{y}" in root.tex.
	help, ok := GetHelp(n, 20)
	require.True(t, ok)
	assert.Equal(t, "y", help.Text)
	assert.Equal(t, "reference", help.Detail)
}

func TestCompleteDegradesGracefullyOnMalformedSource(t *testing.T) {
	// A \begin with no matching \end: global_scan and local_scan must
	// both complete without panicking, and completion inside the
	// unterminated environment still resolves to a frame.
	n := newTestRoot(t, "/t/a.tex", "\\begin{itemize}\\item a")

	assert.Empty(t, n.Labels)
	assert.Empty(t, n.Outline)

	_, _ = Complete(context.Background(), n, 9, Options{})
}

func TestLocalScanContextStackInvariant(t *testing.T) {
	src := "\\label{sec:intro}\n"
	n := newTestRoot(t, "/t/a.tex", src)

	frame := n.LocalScan(10)
	for f := frame; f.Parent != nil; f = f.Parent {
		assert.True(t, f.Parent.Range.Contains(f.Range.Pos))
		assert.True(t, f.Parent.Range.Contains(f.Range.Pos+f.Range.Len))
		if f.Parent.Parent != nil {
			assert.True(t, f.Parent.Range.StrictlyContains(f.Range))
		}
	}
}
