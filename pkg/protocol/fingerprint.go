package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gowebpki/jcs"
)

// CanonicalDocument renders the protocol content in RFC 8785 canonical JSON.
// The hash and signature fields are excluded: the fingerprint is a pure
// function of the document content, so the same content always canonicalises
// to the same bytes.
func (p *Protocol) CanonicalDocument() ([]byte, error) {
	data, err := json.Marshal(p.documentMap(false))
	if err != nil {
		return nil, err
	}
	return jcs.Transform(data)
}

// Document renders the full document, including hash, signature, and the
// derived ABI, in the export shape.
func (p *Protocol) Document() ([]byte, error) {
	doc := p.documentMap(true)
	doc["abi"] = p.abi
	return json.Marshal(doc)
}

func (p *Protocol) documentMap(withProvenance bool) map[string]any {
	stateDecls := make(map[string]any, len(p.state))
	for _, decl := range p.StateDecls() {
		stateDecls[decl.Name] = map[string]any{
			"type":    decl.Kind.String(),
			"default": decl.Default,
		}
	}
	methods := make(map[string]any, len(p.methods))
	for _, method := range p.Methods() {
		entry := map[string]any{"params": method.Params}
		if method.Logic != "" {
			entry["logic"] = method.Logic
		}
		if method.Returns != "" {
			entry["returns"] = method.Returns
		}
		methods[method.Name] = entry
	}
	events := make(map[string]any, len(p.events))
	for _, event := range p.Events() {
		events[event.Name] = map[string]any{"params": event.Params}
	}

	doc := map[string]any{
		"p":        DiscriminatorProtocol,
		"op":       DiscriminatorOperation,
		"protocol": p.name,
		"version":  p.version,
		"cpl": map[string]any{
			"owner":   p.owner,
			"state":   stateDecls,
			"methods": methods,
			"events":  events,
		},
	}
	if withProvenance {
		doc["hash"] = p.hash
		doc["signature"] = p.signature
	}
	return doc
}

func defaultHasher(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
