// Package runtime hosts the method-invocation runtime: it owns one Protocol,
// one state store, and one event log, and exposes the system's public
// operations. A runtime instance is single-threaded; callers serialize
// concurrent use externally.
package runtime

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cardity/runtime-go/pkg/interpreter"
	"cardity/runtime-go/pkg/protocol"
	"cardity/runtime-go/pkg/state"
)

// Config carries runtime options.
type Config struct {
	// EnableEvents controls whether emit statements append to the log.
	EnableEvents bool
	// MaxEventLog caps the log length; 0 means unbounded. When the cap is
	// exceeded the oldest records are dropped.
	MaxEventLog int
}

// DefaultConfig returns the default runtime options.
func DefaultConfig() Config {
	return Config{EnableEvents: true}
}

// Option adjusts a runtime at construction.
type Option func(*Runtime)

// WithConfig replaces the runtime configuration.
func WithConfig(cfg Config) Option {
	return func(r *Runtime) { r.cfg = cfg }
}

// WithLogger injects a structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runtime) { r.log = log }
}

// WithClock substitutes the time source used for event and snapshot
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runtime) { r.now = now }
}

// Result is the outcome of a method call. Events holds only the records
// emitted during this call; the full log lives on the runtime.
type Result struct {
	Success     bool          `json:"success"`
	ReturnValue string        `json:"return_value"`
	Events      []EventRecord `json:"events"`
}

// Runtime is the Unloaded -> Loaded invocation state machine.
type Runtime struct {
	id     string
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time
	interp *interpreter.Interpreter

	proto  *protocol.Protocol
	store  *state.Store
	events []EventRecord
}

// New returns a runtime in the Unloaded state.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		id:     uuid.NewString(),
		cfg:    DefaultConfig(),
		log:    zerolog.Nop(),
		now:    time.Now,
		interp: interpreter.New(),
		store:  state.NewStore(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With().Str("runtime_id", r.id).Logger()
	return r
}

// ID returns the runtime instance identifier.
func (r *Runtime) ID() string { return r.id }

// Loaded reports whether a protocol is loaded.
func (r *Runtime) Loaded() bool { return r.proto != nil }

// Load parses and validates a document, then seeds state from the declared
// defaults and clears the event log. On failure the prior protocol, state,
// and events are left untouched and the *protocol.LoadError is returned.
func (r *Runtime) Load(raw []byte) error {
	proto, err := protocol.Load(raw)
	if err != nil {
		r.log.Debug().Err(err).Msg("load rejected")
		return err
	}
	r.proto = proto
	r.Reset()
	r.log.Info().Str("protocol", proto.Name()).Str("version", proto.Version()).Msg("protocol loaded")
	return nil
}

// Reset reseeds all declared state from defaults and clears the event log.
func (r *Runtime) Reset() {
	r.ResetState()
	r.events = nil
}

// ResetState reseeds all declared state from defaults, leaving events alone.
// The store is replaced wholesale: it is never left partially reset, and
// runtime-created keys do not survive.
func (r *Runtime) ResetState() {
	if r.proto == nil {
		r.store.ReplaceAll(nil)
		return
	}
	defaults := make(map[string]state.Value)
	for _, decl := range r.proto.StateDecls() {
		defaults[decl.Name] = state.Value{Kind: decl.Kind, Text: decl.Default}
	}
	r.store.ReplaceAll(defaults)
}

// Call invokes a declared method with positional text arguments. Statements
// executed before a mid-body failure are not rolled back; method bodies are
// not transactional.
func (r *Runtime) Call(method string, args []string) (Result, error) {
	if r.proto == nil {
		return Result{}, ErrNotLoaded
	}
	decl, ok := r.proto.Method(method)
	if !ok {
		return Result{}, &NotFoundError{Kind: "method", Name: method}
	}
	if len(args) != len(decl.Params) {
		return Result{}, &ArityError{Method: method, Want: len(decl.Params), Got: len(args)}
	}
	if decl.BodyErr != nil {
		return Result{}, &EvalError{Method: method, Err: decl.BodyErr}
	}

	params := make(map[string]string, len(decl.Params))
	for i, name := range decl.Params {
		params[name] = args[i]
	}
	sink := &callSink{r: r}
	ctx := &interpreter.Context{
		State:       r.store,
		Params:      params,
		EventParams: r.proto.EventParams(),
		Events:      sink,
	}

	var result Result
	if decl.Body != nil {
		value, err := r.interp.Execute(decl.Body, ctx)
		if err != nil {
			result.Events = cloneEvents(sink.records)
			return result, &EvalError{Method: method, Err: err}
		}
		result.ReturnValue = value
	}
	if decl.Returns != "" {
		result.ReturnValue = r.resolveReturn(decl.Returns)
	}
	result.Success = true
	result.Events = cloneEvents(sink.records)
	r.log.Debug().Str("method", method).Str("return", result.ReturnValue).Msg("method executed")
	return result, nil
}

// resolveReturn resolves a method's return expression: a `state.` prefix
// reads state; any other text is tried as a state key and falls back to the
// literal text itself.
func (r *Runtime) resolveReturn(expr string) string {
	if key, ok := strings.CutPrefix(expr, "state."); ok {
		return r.store.Get(key).Text
	}
	if r.store.Has(expr) {
		return r.store.Get(expr).Text
	}
	return expr
}

// GetState reads a state value directly, bypassing method logic. The default
// is returned when the key is absent.
func (r *Runtime) GetState(key, def string) string {
	if !r.store.Has(key) {
		return def
	}
	return r.store.Get(key).Text
}

// SetState writes a state value directly, bypassing method logic.
func (r *Runtime) SetState(key, value string) error {
	if r.proto == nil {
		return ErrNotLoaded
	}
	r.store.SetText(key, value)
	return nil
}

// StateMap returns the full state as a name -> text mapping.
func (r *Runtime) StateMap() map[string]string {
	return r.store.ToSnapshot()
}

// StateNames returns the stored state keys in lexicographic order.
func (r *Runtime) StateNames() []string {
	return r.store.Keys()
}

// MethodNames returns the declared methods in lexicographic order.
func (r *Runtime) MethodNames() []string {
	if r.proto == nil {
		return nil
	}
	return r.proto.MethodNames()
}

// ProtocolName returns the loaded protocol's name, or empty when unloaded.
func (r *Runtime) ProtocolName() string {
	if r.proto == nil {
		return ""
	}
	return r.proto.Name()
}

// ProtocolVersion returns the loaded protocol's version, or empty when
// unloaded.
func (r *Runtime) ProtocolVersion() string {
	if r.proto == nil {
		return ""
	}
	return r.proto.Version()
}

// ABI returns the loaded protocol's ABI projection.
func (r *Runtime) ABI() (protocol.ABI, error) {
	if r.proto == nil {
		return protocol.ABI{}, ErrNotLoaded
	}
	return r.proto.ABI(), nil
}

// ExportDocument renders the loaded protocol in the export shape, including
// hash, signature, and the derived ABI.
func (r *Runtime) ExportDocument() ([]byte, error) {
	if r.proto == nil {
		return nil, ErrNotLoaded
	}
	return r.proto.Document()
}

// CanonicalDocument renders the canonical content form the fingerprint is
// computed over.
func (r *Runtime) CanonicalDocument() ([]byte, error) {
	if r.proto == nil {
		return nil, ErrNotLoaded
	}
	return r.proto.CanonicalDocument()
}
