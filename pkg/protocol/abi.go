package protocol

// ABI is the derived, read-only projection of a protocol's surface. Its
// slices are ordered lexicographically by name so the projection is
// deterministic regardless of document key order.
type ABI struct {
	Protocol string      `json:"protocol"`
	Version  string      `json:"version"`
	Methods  []ABIMethod `json:"methods"`
	Events   []ABIEvent  `json:"events"`
	State    []ABIState  `json:"state"`
}

// ABIMethod summarises one callable method.
type ABIMethod struct {
	Name    string   `json:"name"`
	Params  []string `json:"params"`
	Returns string   `json:"returns,omitempty"`
}

// ABIEvent summarises one declared event.
type ABIEvent struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
}

// ABIState summarises one state declaration.
type ABIState struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default string `json:"default"`
}

func buildABI(p *Protocol) ABI {
	abi := ABI{
		Protocol: p.name,
		Version:  p.version,
		Methods:  make([]ABIMethod, 0, len(p.methods)),
		Events:   make([]ABIEvent, 0, len(p.events)),
		State:    make([]ABIState, 0, len(p.state)),
	}
	for _, method := range p.Methods() {
		abi.Methods = append(abi.Methods, ABIMethod{
			Name:    method.Name,
			Params:  append([]string{}, method.Params...),
			Returns: method.Returns,
		})
	}
	for _, event := range p.Events() {
		abi.Events = append(abi.Events, ABIEvent{
			Name:   event.Name,
			Params: append([]string{}, event.Params...),
		})
	}
	for _, decl := range p.StateDecls() {
		abi.State = append(abi.State, ABIState{
			Name:    decl.Name,
			Type:    decl.Kind.String(),
			Default: decl.Default,
		})
	}
	return abi
}
