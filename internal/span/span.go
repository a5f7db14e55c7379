// Package span defines the byte-offset position units shared by every
// core package: a 1-based byte offset and the {pos, len} range built from
// it. Line/column conversion happens only at the protocol boundary
// (package lspcore); everything below that boundary speaks bytes.
package span

// Pos is a 1-based byte offset into a source text.
type Pos = int

// Range is the ubiquitous unit: a byte offset and a byte length. Pos is
// inclusive, Pos+Len is exclusive.
type Range struct {
	Pos Pos `json:"pos"`
	Len int `json:"len"`
}

// End returns the exclusive end offset of the range.
func (r Range) End() Pos {
	return r.Pos + r.Len
}

// Empty reports whether the range spans zero bytes, which is how
// absent optional arguments are represented (spec §4.2).
func (r Range) Empty() bool {
	return r.Len == 0
}

// Contains reports whether pos lies within [r.Pos, r.End()], inclusive
// of both endpoints — the bound used by the context-stack invariant
// (spec §8 property 5): frame.pos <= pos <= frame.pos+frame.len.
func (r Range) Contains(pos Pos) bool {
	return pos >= r.Pos && pos <= r.End()
}

// StrictlyContains reports whether r fully contains other and is
// larger than it, the relation required between a context-stack
// frame and its parent.
func (r Range) StrictlyContains(other Range) bool {
	return r.Pos <= other.Pos && r.End() >= other.End() && r.Len > other.Len
}

// Of builds a Range from a start and an exclusive end offset.
func Of(start, end Pos) Range {
	if end < start {
		end = start
	}
	return Range{Pos: start, Len: end - start}
}
