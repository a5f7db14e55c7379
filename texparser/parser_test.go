package texparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mava/digestif/internal/span"
)

func TestNextThingControlSequence(t *testing.T) {
	text := `\section{Intro}`
	tok, ok := NextThing(text, 1)
	require.True(t, ok)
	assert.Equal(t, KindCS, tok.Kind)
	assert.Equal(t, "section", tok.Detail)
	assert.Equal(t, 1, tok.Start)
}

func TestNextThingSkipsComments(t *testing.T) {
	text := "% a comment\n\\ref{x}"
	tok, ok := NextThing(text, 1)
	require.True(t, ok)
	assert.Equal(t, KindCS, tok.Kind)
	assert.Equal(t, "ref", tok.Detail)
}

func TestNextThingParagraphBreak(t *testing.T) {
	text := "one\n\ntwo"
	tok, ok := NextThing(text, 1)
	require.True(t, ok)
	assert.Equal(t, KindPar, tok.Kind)
}

func TestNextThingSingleNewlineIsNotPar(t *testing.T) {
	text := "one\ntwo"
	_, ok := NextThing(text, 1)
	assert.False(t, ok, "a single newline with no trailing significant token should scan to EOF")
}

func TestNextThingUnknownControlSequenceStillYieldsToken(t *testing.T) {
	text := `\frobnicate{x}`
	tok, ok := NextThing(text, 1)
	require.True(t, ok)
	assert.Equal(t, "frobnicate", tok.Detail)
}

func TestNextThingMathShift(t *testing.T) {
	tok, ok := NextThing("$$x$$", 1)
	require.True(t, ok)
	assert.Equal(t, KindMathShift, tok.Kind)
	assert.Equal(t, "$$", tok.Detail)
}

func TestParseArgsMandatory(t *testing.T) {
	text := `\section{Intro}`
	tok, ok := NextThing(text, 1)
	require.True(t, ok)

	sig := Signature{{Kind: ArgMandatory, Name: "title"}}
	list := ParseArgs(text, tok.Resume, sig)
	require.Len(t, list.Results, 1)
	require.True(t, list.Results[0].Present)
	assert.Equal(t, "Intro", text[list.Results[0].Range.Pos-1:list.Results[0].Range.End()-1])
}

func TestParseArgsOptionalAbsent(t *testing.T) {
	text := `\cite{key}`
	tok, ok := NextThing(text, 1)
	require.True(t, ok)

	sig := Signature{
		{Kind: ArgOptional, Name: "note"},
		{Kind: ArgMandatory, Name: "key"},
	}
	list := ParseArgs(text, tok.Resume, sig)
	require.Len(t, list.Results, 2)
	assert.False(t, list.Results[0].Present)
	assert.Equal(t, 0, list.Results[0].Range.Len)
	assert.True(t, list.Results[1].Present)
}

func TestParseArgsUnterminatedGroupClosesAtEOF(t *testing.T) {
	text := `\section{Intro`
	tok, ok := NextThing(text, 1)
	require.True(t, ok)

	sig := Signature{{Kind: ArgMandatory, Name: "title"}}
	list := ParseArgs(text, tok.Resume, sig)
	require.True(t, list.Results[0].Present)
	assert.Equal(t, "Intro", text[list.Results[0].Range.Pos-1:list.Results[0].Range.End()-1])
}

func TestParseKeysBasic(t *testing.T) {
	text := `width=5cm, draft, color = red`
	kvs := ParseKeys(text, 1, len(text))
	require.Len(t, kvs, 3)

	assert.Equal(t, "width", sliceOf(text, kvs[0].Key))
	assert.Equal(t, "5cm", sliceOf(text, kvs[0].Value))

	assert.Equal(t, "draft", sliceOf(text, kvs[1].Key))
	assert.Equal(t, 0, kvs[1].Value.Len)

	assert.Equal(t, "color", sliceOf(text, kvs[2].Key))
	assert.Equal(t, "red", sliceOf(text, kvs[2].Value))
}

func TestParseKeysHonoursNestedBraces(t *testing.T) {
	text := `caption={a, b=c}, label=fig1`
	kvs := ParseKeys(text, 1, len(text))
	require.Len(t, kvs, 2)
	assert.Equal(t, "caption", sliceOf(text, kvs[0].Key))
	assert.Equal(t, "{a, b=c}", sliceOf(text, kvs[0].Value))
	assert.Equal(t, "label", sliceOf(text, kvs[1].Key))
	assert.Equal(t, "fig1", sliceOf(text, kvs[1].Value))
}

func TestBlank(t *testing.T) {
	text := "a  b"
	assert.True(t, Blank(text, 2))
	assert.False(t, Blank(text, 1))
}

func TestStripComments(t *testing.T) {
	text := "one % comment\ntwo \\% literal"
	got := StripComments(text)
	assert.Equal(t, "one \ntwo \\% literal", got)
}

func sliceOf(text string, r span.Range) string {
	if r.Len == 0 {
		return ""
	}
	return text[r.Pos-1 : r.End()-1]
}
