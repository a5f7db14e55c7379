// Package dictionary is the data-dictionary loader of spec §4.3: a
// pure lookup from module name to its commands, environments, and
// transitive dependencies. The dictionary content itself (what LaTeX
// actually defines) is an external collaborator — this package only
// specifies the schema and the loading/caching machinery, plus a small
// embedded default so the server is useful without extra setup.
package dictionary

// ArgKind mirrors texparser.ArgKind in the on-disk schema so module
// files can be decoded without importing the parser package's Go
// types directly (TOML has no notion of a Go iota).
type ArgKind string

const (
	ArgMandatory ArgKind = "mandatory"
	ArgOptional  ArgKind = "optional"
	ArgStar      ArgKind = "star"
	ArgLiteral   ArgKind = "literal"
	ArgKeyVal    ArgKind = "keyval"
)

// KeySchema describes one recognized key within a key=value argument.
type KeySchema struct {
	Name          string   `toml:"name"`
	Documentation string   `toml:"doc"`
	ValueKind     string   `toml:"value_kind"`
	Values        []string `toml:"values"`
}

// ArgSpec is one formal argument of a Command or Environment, as
// decoded from TOML.
type ArgSpec struct {
	Kind          ArgKind     `toml:"kind"`
	Name          string      `toml:"name"`
	Documentation string      `toml:"doc"`
	Literal       string      `toml:"literal"`
	Optional      bool        `toml:"optional"`
	KeySchema     []KeySchema `toml:"keys"`
}

// Action tags a Command/Environment with the behavior global_scan and
// local_scan give it (spec §3 Command/Environment descriptor).
type Action string

const (
	ActionNone     Action = ""
	ActionInput    Action = "input"
	ActionBegin    Action = "begin"
	ActionEnd      Action = "end"
	ActionHeading  Action = "heading"
	ActionLabel    Action = "label"
	ActionRef      Action = "ref"
	ActionCite     Action = "cite"
	ActionBibitem  Action = "bibitem"
	ActionMath     Action = "math"
	ActionEndMath  Action = "endmath"
)

// Command describes one recognized control sequence.
type Command struct {
	Name             string    `toml:"name"`
	Action           Action    `toml:"action"`
	HeadingLevel     int       `toml:"heading_level"`
	Documentation    string    `toml:"doc"`
	FilenameTemplate string    `toml:"filename_template"`
	Args             []ArgSpec `toml:"args"`
}

// Environment describes one recognized \begin{...}/\end{...} pair.
type Environment struct {
	Name          string    `toml:"name"`
	Action        Action    `toml:"action"`
	Documentation string    `toml:"doc"`
	Args          []ArgSpec `toml:"args"`
}

// Module is a named bundle of commands, environments, and other
// modules it transitively depends on (spec §3 Module).
type Module struct {
	Name         string        `toml:"name"`
	Dependencies []string      `toml:"dependencies"`
	Commands     []Command     `toml:"commands"`
	Environments []Environment `toml:"environments"`
}
