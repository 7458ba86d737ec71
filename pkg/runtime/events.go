package runtime

import "time"

// EventRecord is one appended event. Values are in declared-parameter order.
type EventRecord struct {
	Name      string   `json:"name"`
	Values    []string `json:"values"`
	Timestamp string   `json:"timestamp"`
}

func (r *Runtime) appendEvent(name string, values []string) (EventRecord, bool) {
	if !r.cfg.EnableEvents {
		return EventRecord{}, false
	}
	record := EventRecord{
		Name:      name,
		Values:    values,
		Timestamp: r.timestamp(),
	}
	r.events = append(r.events, record)
	if r.cfg.MaxEventLog > 0 && len(r.events) > r.cfg.MaxEventLog {
		r.events = r.events[len(r.events)-r.cfg.MaxEventLog:]
	}
	r.log.Debug().Str("event", name).Strs("values", values).Msg("event emitted")
	return record, true
}

// EventLog returns a copy of the append-only event log.
func (r *Runtime) EventLog() []EventRecord {
	return cloneEvents(r.events)
}

// ClearEventLog drops all logged events.
func (r *Runtime) ClearEventLog() {
	r.events = nil
}

func (r *Runtime) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

func cloneEvents(events []EventRecord) []EventRecord {
	out := make([]EventRecord, len(events))
	for i, ev := range events {
		values := make([]string, len(ev.Values))
		copy(values, ev.Values)
		out[i] = EventRecord{Name: ev.Name, Values: values, Timestamp: ev.Timestamp}
	}
	return out
}

// callSink adapts the runtime's event log to the interpreter's sink while
// keeping the call's own records, so a Result reports them even when the
// capped log has already trimmed past them.
type callSink struct {
	r       *Runtime
	records []EventRecord
}

func (s *callSink) Emit(name string, values []string) {
	record, ok := s.r.appendEvent(name, values)
	if ok {
		s.records = append(s.records, record)
	}
}
