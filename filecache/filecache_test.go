package filecache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "github.com/mava/digestif/internal/errors"
)

func TestPositionRoundTrip(t *testing.T) {
	c := New()
	text := "\\section{Intro}\n\\label{x}\n\\ref{x}\n"
	c.Put("/t/a.tex", text)

	for p := 1; p <= len(text); p++ {
		line, col, err := c.GetLineCol("/t/a.tex", p)
		require.NoError(t, err)

		back, err := c.GetPosition("/t/a.tex", line, col)
		require.NoError(t, err)
		assert.Equal(t, p, back, "round trip failed at byte %d (line %d col %d)", p, line, col)
	}
}

func TestGetUnknownFileFails(t *testing.T) {
	c := New()
	_, err := c.GetPosition("/t/missing.tex", 1, 1)
	require.Error(t, err)
	assert.True(t, lerrors.IsUnknownFile(err))
}

func TestGetDiskFallback(t *testing.T) {
	c := New()
	ctx := context.Background()
	_, err := c.Get(ctx, "/nonexistent/path/does/not/exist.tex")
	require.Error(t, err)
	assert.True(t, lerrors.IsUnknownFile(err))
}

func TestColumnClampsPastEndOfLine(t *testing.T) {
	c := New()
	c.Put("/t/a.tex", "ab\ncd\n")

	pos, err := c.GetPosition("/t/a.tex", 1, 100)
	require.NoError(t, err)
	// Line 1 is "ab" (bytes 1-2); clamp to its final byte offset (3,
	// the position right after "ab").
	assert.Equal(t, 3, pos)
}

func TestPropertiesSurviveputButNotForget(t *testing.T) {
	c := New()
	c.Put("/t/a.tex", "x")
	c.PutProperty("/t/a.tex", "format", "latex")

	c.Put("/t/a.tex", "y")
	v, ok := c.GetProperty("/t/a.tex", "format")
	require.True(t, ok)
	assert.Equal(t, "latex", v)

	c.Forget("/t/a.tex")
	_, ok = c.GetProperty("/t/a.tex", "format")
	assert.False(t, ok)
}

func TestIncrementalEditCoherence(t *testing.T) {
	c := New()
	text := "\\section{Intro}\n"
	c.Put("/t/a.tex", text)

	// Replace "Intro" (5 bytes, offset 9..14) with "Overview".
	err := c.ApplyIncrementalEdit("/t/a.tex", 1, 10, 1, 15, 5, "Overview")
	require.NoError(t, err)

	got, err := c.Get(context.Background(), "/t/a.tex")
	require.NoError(t, err)
	assert.Equal(t, "\\section{Overview}\n", got)
}

func TestIncrementalEditRangeMismatchRejectsChange(t *testing.T) {
	c := New()
	text := "\\section{Intro}\n"
	c.Put("/t/a.tex", text)

	err := c.ApplyIncrementalEdit("/t/a.tex", 1, 10, 1, 15, 4, "Overview")
	require.Error(t, err)
	assert.True(t, lerrors.IsRangeMismatch(err))

	got, err := c.Get(context.Background(), "/t/a.tex")
	require.NoError(t, err)
	assert.Equal(t, text, got, "src must be unchanged after a rejected edit")
}
