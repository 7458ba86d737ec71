package protocol

import (
	"encoding/json"
	"strings"

	"cardity/runtime-go/pkg/parser"
	"cardity/runtime-go/pkg/state"
)

// Hasher computes a content fingerprint over the canonical document bytes.
// It must be a pure function of its input.
type Hasher func(canonical []byte) string

// LoadOption adjusts loader behaviour.
type LoadOption func(*loadOptions)

type loadOptions struct {
	hasher Hasher
}

// WithHasher substitutes the content fingerprint function.
func WithHasher(h Hasher) LoadOption {
	return func(o *loadOptions) { o.hasher = h }
}

type document struct {
	P         *string     `json:"p"`
	Op        *string     `json:"op"`
	Protocol  *string     `json:"protocol"`
	Version   *string     `json:"version"`
	Hash      string      `json:"hash"`
	Signature string      `json:"signature"`
	CPL       *cplSection `json:"cpl"`
}

type cplSection struct {
	Owner   *string                   `json:"owner"`
	State   map[string]stateDeclJSON  `json:"state"`
	Methods map[string]methodDeclJSON `json:"methods"`
	Events  map[string]eventDeclJSON  `json:"events"`
}

type stateDeclJSON struct {
	Type    *string `json:"type"`
	Default string  `json:"default"`
}

type methodDeclJSON struct {
	Params  []string        `json:"params"`
	Logic   json.RawMessage `json:"logic"`
	Returns json.RawMessage `json:"returns"`
}

type eventDeclJSON struct {
	Params []json.RawMessage `json:"params"`
}

// Load parses and validates a document, returning the immutable Protocol.
// On any failure the returned error is a *LoadError and no partial Protocol
// is produced.
func Load(raw []byte, opts ...LoadOption) (*Protocol, error) {
	options := loadOptions{hasher: defaultHasher}
	for _, opt := range opts {
		opt(&options)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, &LoadError{Reason: ReasonMalformed, Err: err}
	}
	if err := documentSchema.Validate(generic); err != nil {
		return nil, &LoadError{Reason: ReasonMalformed, Err: err}
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &LoadError{Reason: ReasonMalformed, Err: err}
	}

	if err := checkRequired(&doc); err != nil {
		return nil, err
	}
	if *doc.P != DiscriminatorProtocol {
		return nil, loadErrorf(ReasonInvalidDiscriminator, "p", "want %q, got %q", DiscriminatorProtocol, *doc.P)
	}
	if *doc.Op != DiscriminatorOperation {
		return nil, loadErrorf(ReasonInvalidDiscriminator, "op", "want %q, got %q", DiscriminatorOperation, *doc.Op)
	}
	if *doc.Protocol == "" {
		return nil, loadErrorf(ReasonEmptyIdentity, "protocol", "")
	}
	if *doc.Version == "" {
		return nil, loadErrorf(ReasonEmptyIdentity, "version", "")
	}
	if *doc.CPL.Owner == "" {
		return nil, loadErrorf(ReasonEmptyIdentity, "cpl.owner", "")
	}

	proto := &Protocol{
		name:      *doc.Protocol,
		version:   *doc.Version,
		owner:     *doc.CPL.Owner,
		hash:      doc.Hash,
		signature: doc.Signature,
		state:     make(map[string]StateDecl, len(doc.CPL.State)),
		methods:   make(map[string]MethodDecl, len(doc.CPL.Methods)),
		events:    make(map[string]EventDecl, len(doc.CPL.Events)),
	}

	for name, decl := range doc.CPL.State {
		if decl.Type == nil || *decl.Type == "" {
			return nil, loadErrorf(ReasonBadStateDecl, "cpl.state."+name, "missing type")
		}
		kind, ok := state.KindFromName(*decl.Type)
		if !ok {
			return nil, loadErrorf(ReasonBadStateDecl, "cpl.state."+name, "unknown type %q", *decl.Type)
		}
		proto.state[name] = StateDecl{Name: name, Kind: kind, Default: decl.Default}
	}

	for name, decl := range doc.CPL.Methods {
		logic, err := decodeLogic(decl.Logic)
		if err != nil {
			return nil, loadErrorf(ReasonMalformed, "cpl.methods."+name+".logic", "%v", err)
		}
		returns, err := decodeReturns(decl.Returns)
		if err != nil {
			return nil, loadErrorf(ReasonMalformed, "cpl.methods."+name+".returns", "%v", err)
		}
		if logic == "" && returns == "" {
			return nil, loadErrorf(ReasonBadMethodDecl, "cpl.methods."+name, "method has neither logic nor returns")
		}
		method := MethodDecl{
			Name:    name,
			Params:  append([]string(nil), decl.Params...),
			Logic:   logic,
			Returns: returns,
		}
		if logic != "" {
			method.Body, method.BodyErr = parser.Parse(logic)
		}
		proto.methods[name] = method
	}

	for name, decl := range doc.CPL.Events {
		params, err := decodeEventParams(decl.Params)
		if err != nil {
			return nil, loadErrorf(ReasonMalformed, "cpl.events."+name+".params", "%v", err)
		}
		proto.events[name] = EventDecl{Name: name, Params: params}
	}

	proto.abi = buildABI(proto)
	if proto.hash == "" {
		canonical, err := proto.CanonicalDocument()
		if err != nil {
			return nil, &LoadError{Reason: ReasonMalformed, Err: err}
		}
		proto.hash = options.hasher(canonical)
	}
	return proto, nil
}

func checkRequired(doc *document) error {
	switch {
	case doc.P == nil:
		return loadErrorf(ReasonMissingField, "p", "")
	case doc.Op == nil:
		return loadErrorf(ReasonMissingField, "op", "")
	case doc.Protocol == nil:
		return loadErrorf(ReasonMissingField, "protocol", "")
	case doc.Version == nil:
		return loadErrorf(ReasonMissingField, "version", "")
	case doc.CPL == nil:
		return loadErrorf(ReasonMissingField, "cpl", "")
	case doc.CPL.Owner == nil:
		return loadErrorf(ReasonMissingField, "cpl.owner", "")
	}
	return nil
}

// decodeLogic accepts a single statement string or an array of statements,
// which are joined into one `;`-separated sequence.
func decodeLogic(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return "", err
	}
	return strings.Join(many, "; "), nil
}

// decodeReturns accepts a bare expression string or an {expr: ...} object.
func decodeReturns(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, nil
	}
	var wrapped struct {
		Expr string `json:"expr"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return "", err
	}
	return wrapped.Expr, nil
}

// decodeEventParams accepts parameter entries as bare names or {name: ...}
// objects.
func decodeEventParams(raw []json.RawMessage) ([]string, error) {
	params := make([]string, 0, len(raw))
	for _, entry := range raw {
		var name string
		if err := json.Unmarshal(entry, &name); err == nil {
			params = append(params, name)
			continue
		}
		var wrapped struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(entry, &wrapped); err != nil {
			return nil, err
		}
		params = append(params, wrapped.Name)
	}
	return params, nil
}
