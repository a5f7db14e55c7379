// Package filecache is the authoritative source of truth for file
// contents and for position arithmetic (spec §4.1). It is a
// process-wide, single-owner store: callers serialize access the same
// way the protocol shell serializes editor requests into the core
// (spec §5).
package filecache

import (
	"context"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/viant/afs"

	lerrors "github.com/mava/digestif/internal/errors"
)

// entry is one cached file: its text, derived line index, and
// side-channel properties. Properties survive Put but not Forget
// (spec §4.1).
type entry struct {
	text       string
	lineStarts []int // byte offset of the first byte of each line, line 0 at index 0
	properties map[string]any
}

// Cache is the file cache. The zero value is not usable; use New.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry

	// fs is the disk-fallback backend for Get on files never Put.
	// afs.New() returns a multi-scheme afs.Service (file://, mem://,
	// s3://, ...) so a deployment can point the fallback at something
	// other than the local disk without changing call sites.
	fs afs.Service
}

// New creates an empty file cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		fs:      afs.New(),
	}
}

// Get returns the stored text for filename. If filename was never Put,
// Get attempts a one-shot disk read through afs and memoizes the
// result so closed files on disk participate in later queries (spec
// §4.1). Returns lerrors.ErrUnknownFile if the file cannot be read.
func (c *Cache) Get(ctx context.Context, filename string) (string, error) {
	c.mu.RLock()
	e, ok := c.entries[filename]
	c.mu.RUnlock()
	if ok {
		return e.text, nil
	}

	data, err := c.fs.DownloadWithURL(ctx, filename)
	if err != nil {
		return "", lerrors.Wrapf(lerrors.ErrUnknownFile, "%s: %v", filename, err)
	}

	text := string(data)
	c.mu.Lock()
	if e, ok := c.entries[filename]; ok {
		// Another goroutine raced us to the disk read; prefer whatever
		// is already cached to avoid clobbering a concurrent Put.
		c.mu.Unlock()
		return e.text, nil
	}
	c.entries[filename] = &entry{text: text, lineStarts: buildLineIndex(text)}
	c.mu.Unlock()

	return text, nil
}

// Put replaces the contents of filename, rebuilding the line index.
// Any cached property is preserved.
func (c *Cache) Put(filename, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[filename]
	if !ok {
		e = &entry{}
		c.entries[filename] = e
	}
	e.text = text
	e.lineStarts = buildLineIndex(text)
}

// Forget drops filename entirely, including its properties.
func (c *Cache) Forget(filename string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, filename)
}

// GetProperty returns a per-file metadata value (format id, editor
// version, root filename, ...) previously set with PutProperty.
func (c *Cache) GetProperty(filename, key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[filename]
	if !ok || e.properties == nil {
		return nil, false
	}
	v, ok := e.properties[key]
	return v, ok
}

// PutProperty sets a per-file metadata value. The file need not already
// be cached; an empty entry is created to hold the property, matching
// the teacher's pattern of properties surviving content replacement.
func (c *Cache) PutProperty(filename, key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[filename]
	if !ok {
		e = &entry{}
		c.entries[filename] = e
	}
	if e.properties == nil {
		e.properties = make(map[string]any)
	}
	e.properties[key] = value
}

// GetRootname returns the configured root for filename, or ("", false)
// if none was set (the caller then treats filename as its own root,
// per spec §4.1).
func (c *Cache) GetRootname(filename string) (string, bool) {
	v, ok := c.GetProperty(filename, "root")
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetPosition converts a 1-based line and 1-based UTF-8 codepoint
// column into a 1-based byte offset. Columns past end-of-line clamp to
// the line's final byte offset (spec §4.1).
func (c *Cache) GetPosition(filename string, line, col int) (int, error) {
	c.mu.RLock()
	e, ok := c.entries[filename]
	c.mu.RUnlock()
	if !ok {
		return 0, lerrors.Wrapf(lerrors.ErrUnknownFile, "%s", filename)
	}

	lineStart, lineEnd := e.lineBounds(line)
	lineText := e.text[lineStart:lineEnd]

	if col <= 1 {
		return lineStart + 1, nil
	}

	// Walk codepoints within the line; clamp once we run out.
	offset := 0
	count := 1
	for offset < len(lineText) {
		if count == col {
			break
		}
		_, size := utf8.DecodeRuneInString(lineText[offset:])
		offset += size
		count++
	}
	return lineStart + offset + 1, nil
}

// GetLineCol is the inverse of GetPosition: given a 1-based byte
// offset, returns the 1-based line and 1-based codepoint column.
func (c *Cache) GetLineCol(filename string, bytePos int) (line, col int, err error) {
	c.mu.RLock()
	e, ok := c.entries[filename]
	c.mu.RUnlock()
	if !ok {
		return 0, 0, lerrors.Wrapf(lerrors.ErrUnknownFile, "%s", filename)
	}

	offset := bytePos - 1
	if offset < 0 {
		offset = 0
	}
	if offset > len(e.text) {
		offset = len(e.text)
	}

	lineIdx := sort.Search(len(e.lineStarts), func(i int) bool {
		return e.lineStarts[i] > offset
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}

	lineStart := e.lineStarts[lineIdx]
	col = utf8.RuneCountInString(e.text[lineStart:offset]) + 1
	return lineIdx + 1, col, nil
}

// lineBounds returns the [start, end) byte range of a 1-based line
// number, clamping out-of-range line numbers to the first/last line.
func (e *entry) lineBounds(line int) (start, end int) {
	idx := line - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(e.lineStarts) {
		idx = len(e.lineStarts) - 1
	}
	start = e.lineStarts[idx]
	if idx+1 < len(e.lineStarts) {
		end = e.lineStarts[idx+1]
		// Exclude the trailing newline from the line's text.
		if end > start && e.text[end-1] == '\n' {
			end--
		}
	} else {
		end = len(e.text)
		if end > start && e.text[end-1] == '\n' {
			end--
		}
	}
	return start, end
}

// buildLineIndex returns the byte offset of the start of each line.
// Line 0 always starts at offset 0.
func buildLineIndex(text string) []int {
	starts := make([]int, 1, 16)
	starts[0] = 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && i+1 < len(text) {
			starts = append(starts, i+1)
		}
	}
	return starts
}
