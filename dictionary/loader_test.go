package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedModule(t *testing.T) {
	l := NewLoader("")

	m, err := l.LoadModule("latex")
	require.NoError(t, err)
	assert.Equal(t, "latex", m.Name)

	var sawSection bool
	for _, c := range m.Commands {
		if c.Name == "section" {
			sawSection = true
			assert.Equal(t, ActionHeading, c.Action)
			assert.Equal(t, 2, c.HeadingLevel)
		}
	}
	assert.True(t, sawSection)
}

func TestLoadModuleIsIdempotent(t *testing.T) {
	l := NewLoader("")

	m1, err := l.LoadModule("latex")
	require.NoError(t, err)
	m2, err := l.LoadModule("latex")
	require.NoError(t, err)
	assert.Same(t, m1, m2, "a second LoadModule must return the cached pointer")
}

func TestLoadModuleTransitiveDependency(t *testing.T) {
	l := NewLoader("")

	_, err := l.LoadModule("amsmath")
	require.NoError(t, err)

	l.mu.RLock()
	_, cached := l.cache["latex"]
	l.mu.RUnlock()
	assert.True(t, cached, "loading amsmath must have loaded its dependency latex")

	_, err = l.LoadModule("latex")
	require.NoError(t, err, "amsmath's dependency on latex must have been resolved")
}

func TestLoadModuleUnknownFails(t *testing.T) {
	l := NewLoader("")
	_, err := l.LoadModule("does-not-exist")
	require.Error(t, err)
}

func TestExternalDirOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	override := `
name = "latex"
dependencies = []

[[commands]]
name = "section"
action = "heading"
heading_level = 9
doc = "overridden"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "latex.toml"), []byte(override), 0o644))

	l := NewLoader(dir)
	m, err := l.LoadModule("latex")
	require.NoError(t, err)
	require.Len(t, m.Commands, 1)
	assert.Equal(t, 9, m.Commands[0].HeadingLevel)
}

func TestInvalidateForcesReread(t *testing.T) {
	dir := t.TempDir()
	write := func(level int) {
		content := `
name = "latex"
[[commands]]
name = "section"
action = "heading"
heading_level = ` + string(rune('0'+level)) + `
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "latex.toml"), []byte(content), 0o644))
	}

	write(1)
	l := NewLoader(dir)
	m, err := l.LoadModule("latex")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Commands[0].HeadingLevel)

	write(2)
	l.Invalidate("latex")
	m, err = l.LoadModule("latex")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Commands[0].HeadingLevel)
}
