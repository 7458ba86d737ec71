// Package protocol models loaded CPL protocol documents. A Protocol is
// immutable after Load returns it; all map-backed collections are reached
// through accessors with a fixed lexicographic iteration order so that
// externally visible projections (ABI, canonical export, fingerprint) never
// depend on map iteration.
package protocol

import (
	"sort"

	"cardity/runtime-go/pkg/ast"
	"cardity/runtime-go/pkg/state"
)

// Expected discriminator values for a deployable protocol document.
const (
	DiscriminatorProtocol  = "cardinals"
	DiscriminatorOperation = "deploy"
)

// StateDecl declares one state variable.
type StateDecl struct {
	Name    string
	Kind    state.Kind
	Default string
}

// MethodDecl declares a callable method. Body holds the statement sequence
// parsed from Logic at load time; BodyErr carries a parse failure, surfaced
// as an evaluation error when the method is called.
type MethodDecl struct {
	Name    string
	Params  []string
	Logic   string
	Returns string
	Body    *ast.Block
	BodyErr error
}

// EventDecl declares an emittable event.
type EventDecl struct {
	Name   string
	Params []string
}

// Protocol is the validated in-memory model of a document.
type Protocol struct {
	name      string
	version   string
	owner     string
	hash      string
	signature string
	state     map[string]StateDecl
	methods   map[string]MethodDecl
	events    map[string]EventDecl
	abi       ABI
}

func (p *Protocol) Name() string { return p.name }

func (p *Protocol) Version() string { return p.version }

func (p *Protocol) Owner() string { return p.owner }

// Hash returns the document's content fingerprint: the supplied one when the
// document carried it, otherwise the computed one.
func (p *Protocol) Hash() string { return p.hash }

func (p *Protocol) Signature() string { return p.signature }

// StateDecl looks up a state declaration by name.
func (p *Protocol) StateDecl(name string) (StateDecl, bool) {
	decl, ok := p.state[name]
	return decl, ok
}

// StateDecls returns all state declarations in lexicographic name order.
func (p *Protocol) StateDecls() []StateDecl {
	out := make([]StateDecl, 0, len(p.state))
	for _, name := range sortedKeys(p.state) {
		out = append(out, p.state[name])
	}
	return out
}

// Method looks up a method declaration by name.
func (p *Protocol) Method(name string) (MethodDecl, bool) {
	decl, ok := p.methods[name]
	return decl, ok
}

// Methods returns all method declarations in lexicographic name order.
func (p *Protocol) Methods() []MethodDecl {
	out := make([]MethodDecl, 0, len(p.methods))
	for _, name := range sortedKeys(p.methods) {
		out = append(out, p.methods[name])
	}
	return out
}

// MethodNames returns the declared method names in lexicographic order.
func (p *Protocol) MethodNames() []string {
	return sortedKeys(p.methods)
}

// Event looks up an event declaration by name.
func (p *Protocol) Event(name string) (EventDecl, bool) {
	decl, ok := p.events[name]
	return decl, ok
}

// Events returns all event declarations in lexicographic name order.
func (p *Protocol) Events() []EventDecl {
	out := make([]EventDecl, 0, len(p.events))
	for _, name := range sortedKeys(p.events) {
		out = append(out, p.events[name])
	}
	return out
}

// EventParams returns a fresh event name -> declared parameters mapping, the
// shape the interpreter's resolution context consumes.
func (p *Protocol) EventParams() map[string][]string {
	out := make(map[string][]string, len(p.events))
	for name, decl := range p.events {
		params := make([]string, len(decl.Params))
		copy(params, decl.Params)
		out[name] = params
	}
	return out
}

// ABI returns the derived ABI projection.
func (p *Protocol) ABI() ABI { return p.abi }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
