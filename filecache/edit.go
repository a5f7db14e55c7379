package filecache

import (
	lerrors "github.com/mava/digestif/internal/errors"
)

// ApplyIncrementalEdit replaces the text between (startLine,startCol)
// and (endLine,endCol) — 1-based line, 1-based codepoint column, as
// accepted by GetPosition — with newText, after verifying that
// declaredRangeLength equals the current byte length of that range
// (spec §6 did_change, §7 RangeMismatch).
//
// On mismatch the file's contents are left unchanged and
// lerrors.ErrRangeMismatch is returned; the shell is expected to
// resynchronize the document (spec §7 Propagation).
func (c *Cache) ApplyIncrementalEdit(filename string, startLine, startCol, endLine, endCol, declaredRangeLength int, newText string) error {
	startOffset, err := c.GetPosition(filename, startLine, startCol)
	if err != nil {
		return err
	}
	endOffset, err := c.GetPosition(filename, endLine, endCol)
	if err != nil {
		return err
	}

	c.mu.Lock()
	e, ok := c.entries[filename]
	if !ok {
		c.mu.Unlock()
		return lerrors.Wrapf(lerrors.ErrUnknownFile, "%s", filename)
	}

	lo, hi := startOffset-1, endOffset-1
	if lo < 0 {
		lo = 0
	}
	if hi > len(e.text) {
		hi = len(e.text)
	}
	if hi < lo {
		hi = lo
	}

	actualLength := hi - lo
	if actualLength != declaredRangeLength {
		c.mu.Unlock()
		return lerrors.Wrapf(lerrors.ErrRangeMismatch, "%s: declared %d, indexed %d", filename, declaredRangeLength, actualLength)
	}

	e.text = e.text[:lo] + newText + e.text[hi:]
	e.lineStarts = buildLineIndex(e.text)
	c.mu.Unlock()

	return nil
}
