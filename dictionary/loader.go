package dictionary

import (
	"embed"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-getter"

	lerrors "github.com/mava/digestif/internal/errors"
	"github.com/mava/digestif/internal/logging"
)

//go:embed data/*.toml
var embedded embed.FS

// Loader is a process-wide, idempotent module cache (spec §4.3:
// "Modules are cached process-wide; loading is idempotent"). An
// optional directory of module files overrides/extends the embedded
// defaults — extDir may be a local path or any source go-getter
// understands (a git URL, an http(s) archive, ...), resolved once on
// first use.
type Loader struct {
	mu     sync.RWMutex
	cache  map[string]*Module
	extDir string

	resolveOnce sync.Once
	resolvedDir string
}

// NewLoader creates a loader. extDir, if non-empty, is searched for
// "<name>.toml" files before falling back to the embedded defaults.
func NewLoader(extDir string) *Loader {
	return &Loader{
		cache:  make(map[string]*Module),
		extDir: extDir,
	}
}

// resolvedExtDir returns the local directory extDir ultimately refers
// to, fetching it with go-getter on first call if it names a remote
// source rather than a local path. A fetch failure degrades to
// treating extDir as a literal local path, the same as before remote
// sources were supported, rather than failing module loading outright.
func (l *Loader) resolvedExtDir() string {
	l.resolveOnce.Do(func() {
		l.resolvedDir = l.extDir
		if l.extDir == "" {
			return
		}

		pwd, err := os.Getwd()
		if err != nil {
			pwd = "."
		}

		detected, err := getter.Detect(l.extDir, pwd, getter.Detectors)
		if err != nil {
			logging.Warnw("could not detect dictionary source type, treating as a local path", "dir", l.extDir, "error", err)
			return
		}

		u, err := url.Parse(detected)
		if err != nil || u.Scheme == "" || u.Scheme == "file" {
			// Local path (possibly a file:// URL go-getter normalized).
			if u != nil && u.Scheme == "file" {
				l.resolvedDir = u.Path
			}
			return
		}

		tempDir, err := os.MkdirTemp("", "texlsd-dictionary-*")
		if err != nil {
			logging.Warnw("could not create temp directory for remote dictionary source", "dir", l.extDir, "error", err)
			return
		}

		client := &getter.Client{
			Src:     detected,
			Dst:     tempDir,
			Pwd:     pwd,
			Mode:    getter.ClientModeDir,
			Getters: getter.Getters,
		}
		if err := client.Get(); err != nil {
			logging.Warnw("failed to fetch remote dictionary source", "dir", l.extDir, "error", err)
			os.RemoveAll(tempDir)
			return
		}

		logging.Infow("fetched remote dictionary source", "source", l.extDir, "dir", tempDir)
		l.resolvedDir = tempDir
	})
	return l.resolvedDir
}

// LoadModule returns the named module, loading and caching it (and,
// transitively, its dependencies) on first use. Dependencies are
// loaded but not merged here — merging into a Manuscript's scope is
// the caller's job (spec §4.4 construction step 2); LoadModule only
// guarantees every named dependency is resolvable.
func (l *Loader) LoadModule(name string) (*Module, error) {
	l.mu.RLock()
	if m, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return m, nil
	}
	l.mu.RUnlock()

	m, err := l.readModule(name)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[name] = m
	l.mu.Unlock()

	for _, dep := range m.Dependencies {
		if _, err := l.LoadModule(dep); err != nil {
			logging.Warnw("module dependency failed to load", "module", name, "dependency", dep, "error", err)
		}
	}

	return m, nil
}

// Invalidate drops a cached module, forcing the next LoadModule to
// re-read it from disk/embedded data. Used by the fsnotify watcher in
// watcher.go when an external module file changes.
func (l *Loader) Invalidate(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, name)
}

func (l *Loader) readModule(name string) (*Module, error) {
	if dir := l.resolvedExtDir(); dir != "" {
		path := filepath.Join(dir, name+".toml")
		if data, err := os.ReadFile(path); err == nil {
			var m Module
			if _, err := toml.Decode(string(data), &m); err != nil {
				return nil, lerrors.Wrapf(err, "decoding %s", path)
			}
			if m.Name == "" {
				m.Name = name
			}
			return &m, nil
		}
	}

	data, err := embedded.ReadFile("data/" + name + ".toml")
	if err != nil {
		return nil, lerrors.Wrapf(err, "module %q not found", name)
	}

	var m Module
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, lerrors.Wrapf(err, "decoding embedded module %q", name)
	}
	if m.Name == "" {
		m.Name = name
	}
	return &m, nil
}
