package runtime

import (
	"encoding/json"
	"fmt"
)

// CallJSON invokes a method with JSON-shaped arguments: either a positional
// array, or an object keyed by declared parameter names where missing keys
// bind to empty text. Non-string values are passed through as their JSON
// encoding.
func (r *Runtime) CallJSON(method string, args json.RawMessage) (Result, error) {
	if r.proto == nil {
		return Result{}, ErrNotLoaded
	}
	decl, ok := r.proto.Method(method)
	if !ok {
		return Result{}, &NotFoundError{Kind: "method", Name: method}
	}

	positional, err := decodeCallArgs(decl.Params, args)
	if err != nil {
		return Result{}, &EvalError{Method: method, Err: err}
	}
	return r.Call(method, positional)
}

func decodeCallArgs(params []string, args json.RawMessage) ([]string, error) {
	if len(args) == 0 {
		return []string{}, nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(args, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, entry := range list {
			out = append(out, rawToText(entry))
		}
		return out, nil
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(args, &keyed); err != nil {
		return nil, fmt.Errorf("call arguments must be an array or an object: %w", err)
	}
	out := make([]string, 0, len(params))
	for _, name := range params {
		entry, ok := keyed[name]
		if !ok {
			out = append(out, "")
			continue
		}
		out = append(out, rawToText(entry))
	}
	return out, nil
}

func rawToText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
