package manuscript

import "github.com/mava/digestif/dictionary"

// Scope is a command/environment/module mapping with parent-chain
// fallback lookup (spec §9 Design Notes: "model as an explicit
// Scope{own, parent} with a lookup method that chases the chain.
// Avoid copying the parent's entries down. Mutations apply to own
// only.").
type Scope struct {
	ownCommands     map[string]dictionary.Command
	ownEnvironments map[string]dictionary.Environment
	ownModules      map[string]*dictionary.Module
	parent          *Scope
}

// newScope creates a scope, optionally chained to a parent.
func newScope(parent *Scope) *Scope {
	return &Scope{
		ownCommands:     make(map[string]dictionary.Command),
		ownEnvironments: make(map[string]dictionary.Environment),
		ownModules:      make(map[string]*dictionary.Module),
		parent:          parent,
	}
}

// Command looks up a control sequence name, falling back to the
// parent chain if not defined locally.
func (s *Scope) Command(name string) (dictionary.Command, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if c, ok := sc.ownCommands[name]; ok {
			return c, true
		}
	}
	return dictionary.Command{}, false
}

// Environment looks up an environment name with the same fallback.
func (s *Scope) Environment(name string) (dictionary.Environment, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if e, ok := sc.ownEnvironments[name]; ok {
			return e, true
		}
	}
	return dictionary.Environment{}, false
}

// Module looks up a loaded module by name with the same fallback.
func (s *Scope) Module(name string) (*dictionary.Module, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if m, ok := sc.ownModules[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// AllCommandNames returns every command name visible from this scope
// (own plus inherited), used by completion inside a command-name
// position (spec §4.6). Local definitions shadow, rather than
// duplicate, same-named parent entries.
func (s *Scope) AllCommandNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for sc := s; sc != nil; sc = sc.parent {
		for name := range sc.ownCommands {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// mergeModule copies a module's commands and environments into this
// scope's own maps (spec §4.4 construction step 2: "transitively
// loading its dependencies and merging their commands/environments
// into this node's local maps").
func (s *Scope) mergeModule(m *dictionary.Module) {
	s.ownModules[m.Name] = m
	for _, c := range m.Commands {
		s.ownCommands[c.Name] = c
	}
	for _, e := range m.Environments {
		s.ownEnvironments[e.Name] = e
	}
}
