package manuscript

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mava/digestif/dictionary"
	"github.com/mava/digestif/filecache"
)

func newTestRoot(t *testing.T, filename, src string) *Node {
	t.Helper()
	c := filecache.New()
	c.Put(filename, src)
	loader := dictionary.NewLoader("")
	n, err := NewRoot(context.Background(), c, loader, filename, "latex", 0)
	require.NoError(t, err)
	return n
}

func TestGlobalScanExtractsLabelsHeadingsAndBibitems(t *testing.T) {
	src := "\\section{Intro}\n" +
		"\\label{sec:intro}\n" +
		"See \\ref{sec:intro}.\n" +
		"\\begin{thebibliography}{9}\n" +
		"\\bibitem{knuth}D. Knuth.\n" +
		"\\end{thebibliography}\n"
	n := newTestRoot(t, "/doc/root.tex", src)

	require.Len(t, n.Outline, 1)
	assert.Equal(t, "Intro", n.Outline[0].Title)
	assert.Equal(t, 2, n.Outline[0].Level)

	require.Len(t, n.Labels, 1)
	assert.Equal(t, "sec:intro", n.Labels[0].Name)
	require.Len(t, n.LabelIndex, 1)

	require.Len(t, n.Bibitems, 1)
	assert.Equal(t, "knuth", n.Bibitems[0].Name)
}

func TestGlobalScanNestsHeadingsByLevel(t *testing.T) {
	src := "\\section{One}\n" +
		"\\subsection{One A}\n" +
		"\\subsection{One B}\n" +
		"\\section{Two}\n"
	n := newTestRoot(t, "/doc/root.tex", src)

	require.Len(t, n.Outline, 2)
	assert.Equal(t, "One", n.Outline[0].Title)
	assert.Equal(t, "Two", n.Outline[1].Title)
	require.Len(t, n.Outline[0].Children, 2)
	assert.Equal(t, "One A", n.Outline[0].Children[0].Title)
	assert.Equal(t, "One B", n.Outline[0].Children[1].Title)
	assert.Empty(t, n.Outline[1].Children)
}

func TestGlobalScanBuildsInputChildren(t *testing.T) {
	c := filecache.New()
	c.Put("/doc/root.tex", "\\section{Root}\n\\input{chapters/one}\n")
	c.Put("/doc/chapters/one.tex", "\\subsection{One}\n\\label{one}\n")

	loader := dictionary.NewLoader("")
	n, err := NewRoot(context.Background(), c, loader, "/doc/root.tex", "latex", 0)
	require.NoError(t, err)

	require.Len(t, n.InputIndex, 1)
	assert.Equal(t, "chapters/one", n.InputIndex[0].Name)

	child, ok := n.Children["/doc/chapters/one.tex"]
	require.True(t, ok, "child must be resolved relative to the parent's own directory")
	require.Len(t, child.Labels, 1)
	assert.Equal(t, "one", child.Labels[0].Name)
	assert.Same(t, n, child.Parent)
}

func TestScopeInheritanceChildSeesParentFormatModule(t *testing.T) {
	c := filecache.New()
	c.Put("/doc/root.tex", "\\input{sub}\n")
	c.Put("/doc/sub.tex", "\\section{Sub}\n")

	loader := dictionary.NewLoader("")
	n, err := NewRoot(context.Background(), c, loader, "/doc/root.tex", "latex", 0)
	require.NoError(t, err)

	child := n.Children["/doc/sub.tex"]
	require.NotNil(t, child)

	_, ok := child.scope.Command("section")
	assert.True(t, ok, "child scope must fall back to the parent's merged format module")
}

func TestCycleGuardStopsAtMaxDepth(t *testing.T) {
	c := filecache.New()
	// a.tex includes itself: without the cycle guard this recurses
	// forever.
	c.Put("/doc/a.tex", "\\input{a}\n")

	loader := dictionary.NewLoader("")
	n, err := NewRoot(context.Background(), c, loader, "/doc/a.tex", "latex", 3)
	require.NoError(t, err, "construction itself must terminate")

	depth := 0
	cur := n
	for {
		child, ok := cur.Children["/doc/a.tex"]
		if !ok {
			break
		}
		cur = child
		depth++
		require.Less(t, depth, 10, "cycle guard did not stop the recursion")
	}
	assert.LessOrEqual(t, depth, 3)
}

func TestRefreshIsIdempotentWhenUnchanged(t *testing.T) {
	n := newTestRoot(t, "/doc/root.tex", "\\section{Intro}\n")

	changed, err := n.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, changed, "refresh with no cache change must report false")
}

func TestRefreshRescansOnChange(t *testing.T) {
	c := filecache.New()
	c.Put("/doc/root.tex", "\\section{Intro}\n")
	loader := dictionary.NewLoader("")
	n, err := NewRoot(context.Background(), c, loader, "/doc/root.tex", "latex", 0)
	require.NoError(t, err)
	require.Equal(t, "Intro", n.Outline[0].Title)

	c.Put("/doc/root.tex", "\\section{Overview}\n")
	changed, err := n.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, n.Outline, 1)
	assert.Equal(t, "Overview", n.Outline[0].Title)
}

func TestLocalScanFindsArgumentFrame(t *testing.T) {
	src := "\\label{sec:intro}\n"
	n := newTestRoot(t, "/doc/root.tex", src)

	// "sec:intro" is the mandatory argument of \label, its braces
	// spanning bytes 7..17 (1-based); pick a position inside it.
	frame := n.LocalScan(10)
	require.Equal(t, FrameArgument, frame.Kind)
	assert.Equal(t, "name", frame.Name)
	require.NotNil(t, frame.Parent)
	assert.Equal(t, FrameCommand, frame.Parent.Kind)
	assert.Equal(t, "label", frame.Parent.Name)
	require.NotNil(t, frame.Parent.Parent)
	assert.Equal(t, FrameRoot, frame.Parent.Parent.Kind)
}

func TestLocalScanOnCommandNameYieldsCommandFrame(t *testing.T) {
	src := "\\section{Intro}\n"
	n := newTestRoot(t, "/doc/root.tex", src)

	// Byte 3 is inside "section" itself.
	frame := n.LocalScan(3)
	assert.Equal(t, FrameCommand, frame.Kind)
	assert.Equal(t, "section", frame.Name)
}

func TestLocalScanInPlainTextYieldsRoot(t *testing.T) {
	src := "plain text with no commands\n"
	n := newTestRoot(t, "/doc/root.tex", src)

	frame := n.LocalScan(5)
	assert.Equal(t, FrameRoot, frame.Kind)
}

func TestLocalScanEnvironmentFrame(t *testing.T) {
	src := "\\begin{itemize}\n\\end{itemize}\n"
	n := newTestRoot(t, "/doc/root.tex", src)

	// Byte 9 is inside "itemize" within \begin{itemize}.
	frame := n.LocalScan(9)
	assert.Equal(t, FrameEnvironment, frame.Kind)
	assert.Equal(t, "itemize", frame.Name)
}
