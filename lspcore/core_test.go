package lspcore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "github.com/mava/digestif/internal/errors"
)

func TestIncrementalEditRescansOutline(t *testing.T) {
	c := New("", 0, nil)
	ctx := context.Background()

	require.NoError(t, c.DidOpen(ctx, "/t/a.tex", "\\section{Intro}\n", "latex", 1))

	n, ok := c.Registry.RootFor("/t/a.tex")
	require.True(t, ok)
	require.Len(t, n.Outline, 1)
	assert.Equal(t, "Intro", n.Outline[0].Title)

	// "Intro" occupies 0-based characters [9, 14) on line 0.
	err := c.DidChange(ctx, "/t/a.tex", []Change{{
		Range:       &ChangeRange{StartLine: 0, StartChar: 9, EndLine: 0, EndChar: 14},
		RangeLength: 5,
		Text:        "Overview",
	}}, 2)
	require.NoError(t, err)

	text, err := c.Cache.Get(ctx, "/t/a.tex")
	require.NoError(t, err)
	assert.Equal(t, "\\section{Overview}\n", text)

	n, ok = c.Registry.RootFor("/t/a.tex")
	require.True(t, ok)
	require.Len(t, n.Outline, 1)
	assert.Equal(t, "Overview", n.Outline[0].Title)
}

func TestMalformedSourceDegradesGracefully(t *testing.T) {
	c := New("", 0, nil)
	ctx := context.Background()

	require.NoError(t, c.DidOpen(ctx, "/t/a.tex", "\\begin{itemize}\\item a", "latex", 1))

	n, ok := c.Registry.RootFor("/t/a.tex")
	require.True(t, ok)
	assert.Empty(t, n.Outline)
	assert.Empty(t, n.Labels)

	_, _, err := c.Hover("/t/a.tex", 0, 9)
	assert.NoError(t, err)

	_, _, err = c.Completion(ctx, "/t/a.tex", 0, 9)
	assert.NoError(t, err)
}

func TestIncrementalEditRangeMismatchIsRejected(t *testing.T) {
	c := New("", 0, nil)
	ctx := context.Background()

	require.NoError(t, c.DidOpen(ctx, "/t/a.tex", "\\section{Intro}\n", "latex", 1))

	// The indexed range is 5 bytes ("Intro"); declare 4 instead.
	err := c.DidChange(ctx, "/t/a.tex", []Change{{
		Range:       &ChangeRange{StartLine: 0, StartChar: 9, EndLine: 0, EndChar: 14},
		RangeLength: 4,
		Text:        "Overview",
	}}, 2)
	require.Error(t, err)
	assert.True(t, lerrors.IsRangeMismatch(err))

	text, err := c.Cache.Get(ctx, "/t/a.tex")
	require.NoError(t, err)
	assert.Equal(t, "\\section{Intro}\n", text, "rejected edit must leave the file unchanged")
}

func TestDidCloseForgetsFileAndManuscript(t *testing.T) {
	c := New("", 0, nil)
	ctx := context.Background()

	require.NoError(t, c.DidOpen(ctx, "/t/a.tex", "\\section{Intro}\n", "latex", 1))
	_, ok := c.Registry.RootFor("/t/a.tex")
	require.True(t, ok)

	c.DidClose("/t/a.tex")

	_, ok = c.Registry.RootFor("/t/a.tex")
	assert.False(t, ok)
	_, err := c.Cache.Get(ctx, "/t/a.tex")
	assert.True(t, lerrors.IsUnknownFile(err))
}

func TestHoverAndSignatureHelpOnUnopenedFileAreAbsent(t *testing.T) {
	c := New("", 0, nil)

	_, ok, err := c.Hover("/t/missing.tex", 0, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.SignatureHelp("/t/missing.tex", 0, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}
