package runtime

import (
	"errors"
	"fmt"

	"cardity/runtime-go/pkg/state"
)

// Snapshot is a point-in-time capture of a session: full state plus the
// event log. Restoring a snapshot is a wholesale replace, never a merge.
type Snapshot struct {
	ProtocolName string            `json:"protocol_name"`
	Version      string            `json:"version"`
	State        map[string]string `json:"state"`
	EventLog     []EventRecord     `json:"event_log"`
	Timestamp    string            `json:"timestamp"`
	BlockHeight  string            `json:"block_height"`
}

// CreateSnapshot captures the current state and event log. The optional
// marker records external context such as a block height.
func (r *Runtime) CreateSnapshot(blockHeight string) (Snapshot, error) {
	if r.proto == nil {
		return Snapshot{}, ErrNotLoaded
	}
	snapshot := Snapshot{
		ProtocolName: r.proto.Name(),
		Version:      r.proto.Version(),
		State:        r.store.ToSnapshot(),
		EventLog:     cloneEvents(r.events),
		Timestamp:    r.timestamp(),
		BlockHeight:  blockHeight,
	}
	r.log.Debug().Str("block_height", blockHeight).Int("state_keys", len(snapshot.State)).Msg("snapshot created")
	return snapshot, nil
}

// RestoreFromSnapshot replaces the full state and event log from a snapshot.
func (r *Runtime) RestoreFromSnapshot(snapshot Snapshot) error {
	if r.proto == nil {
		return ErrNotLoaded
	}
	if snapshot.ProtocolName != "" && snapshot.ProtocolName != r.proto.Name() {
		return &PersistenceError{
			Op:  "restore snapshot",
			Err: fmt.Errorf("snapshot is for protocol %q, loaded protocol is %q", snapshot.ProtocolName, r.proto.Name()),
		}
	}
	if snapshot.State == nil {
		return &PersistenceError{Op: "restore snapshot", Err: errors.New("snapshot missing state")}
	}

	// Snapshots persist text only; declared entries recover their kind from
	// the loaded protocol, undeclared entries restore as string.
	values := make(map[string]state.Value, len(snapshot.State))
	for name, text := range snapshot.State {
		value := state.String(text)
		if decl, ok := r.proto.StateDecl(name); ok {
			value = state.Value{Kind: decl.Kind, Text: text}
		}
		values[name] = value
	}
	r.store.ReplaceAll(values)

	events := cloneEvents(snapshot.EventLog)
	if r.cfg.MaxEventLog > 0 && len(events) > r.cfg.MaxEventLog {
		events = events[len(events)-r.cfg.MaxEventLog:]
	}
	r.events = events
	r.log.Debug().Str("protocol", snapshot.ProtocolName).Msg("snapshot restored")
	return nil
}
