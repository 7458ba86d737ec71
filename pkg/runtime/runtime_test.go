package runtime

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"cardity/runtime-go/pkg/state"
)

const greeterDoc = `{
  "p": "cardinals",
  "op": "deploy",
  "protocol": "greeter",
  "version": "1.0.0",
  "cpl": {
    "owner": "alice",
    "state": {
      "msg": {"type": "string", "default": "Hello, Cardinals!"}
    },
    "methods": {
      "set_msg": {
        "params": ["new_msg"],
        "logic": "state.msg = params.new_msg"
      },
      "get_msg": {
        "params": [],
        "returns": "state.msg"
      }
    }
  }
}`

const counterDoc = `{
  "p": "cardinals",
  "op": "deploy",
  "protocol": "counter",
  "version": "1.0.0",
  "cpl": {
    "owner": "alice",
    "state": {
      "count": {"type": "int", "default": "0"},
      "flag": {"type": "string", "default": ""}
    },
    "methods": {
      "increment": {
        "params": [],
        "logic": "state.count = state.count + 1",
        "returns": "state.count"
      },
      "add": {
        "params": ["amount"],
        "logic": ["state.count = state.count + params.amount", "emit Added(params.amount, state.count)"],
        "returns": "state.count"
      },
      "guarded": {
        "params": [],
        "logic": "if (state.count > 0) { state.flag = \"yes\"; }"
      },
      "broken": {
        "params": [],
        "logic": "state.count = "
      }
    },
    "events": {
      "Added": {"params": ["amount", "total"]}
    }
  }
}`

func loadRuntime(t *testing.T, doc string, opts ...Option) *Runtime {
	t.Helper()
	rt := New(opts...)
	if err := rt.Load([]byte(doc)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return rt
}

func mustCall(t *testing.T, rt *Runtime, method string, args ...string) Result {
	t.Helper()
	if args == nil {
		args = []string{}
	}
	result, err := rt.Call(method, args)
	if err != nil {
		t.Fatalf("Call(%s, %v) failed: %v", method, args, err)
	}
	if !result.Success {
		t.Fatalf("Call(%s) Success = false", method)
	}
	return result
}

func TestDefaultsSeededOnLoad(t *testing.T) {
	rt := loadRuntime(t, greeterDoc)
	if got := rt.GetState("msg", ""); got != "Hello, Cardinals!" {
		t.Fatalf("msg = %q, want default", got)
	}
	if !rt.Loaded() {
		t.Fatal("Loaded = false after Load")
	}
}

func TestSetMessageMethod(t *testing.T) {
	rt := loadRuntime(t, greeterDoc)
	mustCall(t, rt, "set_msg", "gm")
	if got := rt.GetState("msg", ""); got != "gm" {
		t.Fatalf("msg = %q, want \"gm\"", got)
	}
	result := mustCall(t, rt, "get_msg")
	if result.ReturnValue != "gm" {
		t.Fatalf("get_msg = %q, want \"gm\"", result.ReturnValue)
	}
}

func TestIncrementSequence(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	for i, want := range []string{"1", "2", "3"} {
		result := mustCall(t, rt, "increment")
		if result.ReturnValue != want {
			t.Fatalf("call %d: return = %q, want %q", i+1, result.ReturnValue, want)
		}
	}
	if got := rt.GetState("count", ""); got != "3" {
		t.Fatalf("count = %q, want \"3\"", got)
	}
}

func TestCallNotLoaded(t *testing.T) {
	rt := New()
	if _, err := rt.Call("anything", []string{}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("err = %v, want ErrNotLoaded", err)
	}
	if err := rt.SetState("k", "v"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("SetState err = %v, want ErrNotLoaded", err)
	}
	if _, err := rt.ABI(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("ABI err = %v, want ErrNotLoaded", err)
	}
	if _, err := rt.CreateSnapshot(""); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("CreateSnapshot err = %v, want ErrNotLoaded", err)
	}
}

func TestCallUnknownMethodLeavesStateUntouched(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	mustCall(t, rt, "add", "5")
	before := rt.StateMap()
	eventsBefore := len(rt.EventLog())

	_, err := rt.Call("nonexistent", []string{})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if nf.Kind != "method" || nf.Name != "nonexistent" {
		t.Fatalf("NotFoundError = %+v", nf)
	}
	if !reflect.DeepEqual(rt.StateMap(), before) {
		t.Fatal("unknown method call mutated state")
	}
	if len(rt.EventLog()) != eventsBefore {
		t.Fatal("unknown method call appended events")
	}
}

func TestCallArityMismatch(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	before := rt.StateMap()

	_, err := rt.Call("add", []string{"1", "2"})
	var ae *ArityError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *ArityError", err)
	}
	if ae.Want != 1 || ae.Got != 2 {
		t.Fatalf("ArityError = %+v", ae)
	}
	if !reflect.DeepEqual(rt.StateMap(), before) {
		t.Fatal("arity failure mutated state")
	}
}

func TestGuardedMethod(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	mustCall(t, rt, "guarded")
	if got := rt.GetState("flag", ""); got != "" {
		t.Fatalf("flag = %q after guarded call at count 0", got)
	}

	mustCall(t, rt, "increment")
	mustCall(t, rt, "guarded")
	if got := rt.GetState("flag", ""); got != "yes" {
		t.Fatalf("flag = %q, want \"yes\"", got)
	}
}

func TestBrokenBodySurfacesAsEvalError(t *testing.T) {
	rt := loadRuntime(t, counterDoc)

	_, err := rt.Call("broken", []string{})
	var ee *EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *EvalError", err)
	}
	// the runtime stays usable after a failed call
	result := mustCall(t, rt, "increment")
	if result.ReturnValue != "1" {
		t.Fatalf("increment after failure = %q, want \"1\"", result.ReturnValue)
	}
}

func TestEventsRecordedPerCall(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rt := loadRuntime(t, counterDoc, WithClock(func() time.Time { return now }))

	result := mustCall(t, rt, "add", "5")
	if len(result.Events) != 1 {
		t.Fatalf("call events = %v", result.Events)
	}
	ev := result.Events[0]
	if ev.Name != "Added" || !reflect.DeepEqual(ev.Values, []string{"5", "5"}) {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Timestamp != "2024-03-01T12:00:00Z" {
		t.Fatalf("timestamp = %q", ev.Timestamp)
	}

	mustCall(t, rt, "add", "3")
	log := rt.EventLog()
	if len(log) != 2 {
		t.Fatalf("log length = %d, want 2", len(log))
	}
	if !reflect.DeepEqual(log[1].Values, []string{"3", "8"}) {
		t.Fatalf("second event = %+v", log[1])
	}
}

func TestEventsDisabled(t *testing.T) {
	rt := loadRuntime(t, counterDoc, WithConfig(Config{EnableEvents: false}))
	result := mustCall(t, rt, "add", "5")
	if len(result.Events) != 0 || len(rt.EventLog()) != 0 {
		t.Fatal("events recorded with EnableEvents off")
	}
}

func TestEventCapKeepsCallEvents(t *testing.T) {
	rt := loadRuntime(t, counterDoc, WithConfig(Config{EnableEvents: true, MaxEventLog: 1}))
	mustCall(t, rt, "add", "1")

	// the log is at cap; the trim must not hide this call's own emit
	result := mustCall(t, rt, "add", "2")
	if len(result.Events) != 1 {
		t.Fatalf("call events = %v, want the event emitted by this call", result.Events)
	}
	if !reflect.DeepEqual(result.Events[0].Values, []string{"2", "3"}) {
		t.Fatalf("event = %+v", result.Events[0])
	}
	if len(rt.EventLog()) != 1 {
		t.Fatalf("log length = %d, want cap of 1", len(rt.EventLog()))
	}
}

func TestEventLogCap(t *testing.T) {
	rt := loadRuntime(t, counterDoc, WithConfig(Config{EnableEvents: true, MaxEventLog: 2}))
	mustCall(t, rt, "add", "1")
	mustCall(t, rt, "add", "2")
	mustCall(t, rt, "add", "3")
	log := rt.EventLog()
	if len(log) != 2 {
		t.Fatalf("log length = %d, want cap of 2", len(log))
	}
	// the oldest record was dropped
	if !reflect.DeepEqual(log[0].Values, []string{"2", "3"}) {
		t.Fatalf("log[0] = %+v", log[0])
	}
}

func TestResetReseedsDefaults(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	mustCall(t, rt, "add", "5")
	if err := rt.SetState("scratch", "x"); err != nil {
		t.Fatalf("SetState: %v", err)
	}

	rt.Reset()
	if got := rt.GetState("count", ""); got != "0" {
		t.Fatalf("count after reset = %q, want \"0\"", got)
	}
	if rt.GetState("scratch", "gone") != "gone" {
		t.Fatal("runtime-created key survived reset")
	}
	if len(rt.EventLog()) != 0 {
		t.Fatal("event log survived reset")
	}
}

func TestLoadFailureLeavesPriorProtocol(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	mustCall(t, rt, "add", "7")

	if err := rt.Load([]byte(`{"p": "wrong"}`)); err == nil {
		t.Fatal("bad Load succeeded")
	}
	if rt.ProtocolName() != "counter" {
		t.Fatalf("protocol = %q after failed load", rt.ProtocolName())
	}
	if got := rt.GetState("count", ""); got != "7" {
		t.Fatalf("count = %q after failed load, want \"7\"", got)
	}
}

func TestReloadResetsSession(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	mustCall(t, rt, "add", "7")
	if err := rt.Load([]byte(greeterDoc)); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if rt.ProtocolName() != "greeter" {
		t.Fatalf("protocol = %q", rt.ProtocolName())
	}
	if rt.GetState("count", "absent") != "absent" {
		t.Fatal("old protocol state survived reload")
	}
	if len(rt.EventLog()) != 0 {
		t.Fatal("old event log survived reload")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	mustCall(t, rt, "add", "5")
	mustCall(t, rt, "increment")

	snapshot, err := rt.CreateSnapshot("840000")
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}
	if snapshot.ProtocolName != "counter" || snapshot.BlockHeight != "840000" {
		t.Fatalf("snapshot header = %+v", snapshot)
	}
	if snapshot.State["count"] != "6" {
		t.Fatalf("snapshot count = %q", snapshot.State["count"])
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}

	fresh := loadRuntime(t, counterDoc)
	if err := fresh.RestoreFromSnapshot(decoded); err != nil {
		t.Fatalf("RestoreFromSnapshot: %v", err)
	}
	if got := fresh.GetState("count", ""); got != "6" {
		t.Fatalf("restored count = %q, want \"6\"", got)
	}
	if !reflect.DeepEqual(fresh.EventLog(), rt.EventLog()) {
		t.Fatal("restored event log differs")
	}
}

func TestRestoreIsWholesale(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	snapshot, err := rt.CreateSnapshot("")
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}

	if err := rt.SetState("scratch", "x"); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if err := rt.RestoreFromSnapshot(snapshot); err != nil {
		t.Fatalf("RestoreFromSnapshot: %v", err)
	}
	if rt.GetState("scratch", "gone") != "gone" {
		t.Fatal("restore merged instead of replacing")
	}
}

func TestRestoreTrimsEventLogToCap(t *testing.T) {
	rt := loadRuntime(t, counterDoc, WithConfig(Config{EnableEvents: true, MaxEventLog: 1}))
	snapshot := Snapshot{
		ProtocolName: "counter",
		State:        map[string]string{"count": "0"},
		EventLog: []EventRecord{
			{Name: "Added", Values: []string{"1", "1"}},
			{Name: "Added", Values: []string{"2", "3"}},
			{Name: "Added", Values: []string{"3", "6"}},
		},
	}
	if err := rt.RestoreFromSnapshot(snapshot); err != nil {
		t.Fatalf("RestoreFromSnapshot: %v", err)
	}
	log := rt.EventLog()
	if len(log) != 1 {
		t.Fatalf("log length = %d, want cap of 1", len(log))
	}
	if !reflect.DeepEqual(log[0].Values, []string{"3", "6"}) {
		t.Fatalf("log[0] = %+v, want the newest record kept", log[0])
	}
}

func TestRestoreRecoversDeclaredKinds(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	snapshot := Snapshot{
		ProtocolName: "counter",
		State:        map[string]string{"count": "9", "scratch": "x"},
	}
	if err := rt.RestoreFromSnapshot(snapshot); err != nil {
		t.Fatalf("RestoreFromSnapshot: %v", err)
	}
	if got := rt.store.Get("count"); got.Kind != state.KindInt || got.Text != "9" {
		t.Fatalf("count = %+v, want declared int kind", got)
	}
	if got := rt.store.Get("scratch"); got.Kind != state.KindString {
		t.Fatalf("scratch = %+v, want string kind for undeclared key", got)
	}
}

func TestRestoreRejectsWrongProtocol(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	snapshot := Snapshot{ProtocolName: "other", State: map[string]string{}}
	err := rt.RestoreFromSnapshot(snapshot)
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PersistenceError", err)
	}
}

func TestRestoreRejectsMissingState(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	err := rt.RestoreFromSnapshot(Snapshot{ProtocolName: "counter"})
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PersistenceError", err)
	}
}

func TestCallJSONPositional(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	result, err := rt.CallJSON("add", json.RawMessage(`["5"]`))
	if err != nil {
		t.Fatalf("CallJSON: %v", err)
	}
	if result.ReturnValue != "5" {
		t.Fatalf("return = %q, want \"5\"", result.ReturnValue)
	}
	// non-string entries pass through as their JSON encoding
	result, err = rt.CallJSON("add", json.RawMessage(`[3]`))
	if err != nil {
		t.Fatalf("CallJSON numeric: %v", err)
	}
	if result.ReturnValue != "8" {
		t.Fatalf("return = %q, want \"8\"", result.ReturnValue)
	}
}

func TestCallJSONKeyed(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	result, err := rt.CallJSON("add", json.RawMessage(`{"amount": "4"}`))
	if err != nil {
		t.Fatalf("CallJSON: %v", err)
	}
	if result.ReturnValue != "4" {
		t.Fatalf("return = %q, want \"4\"", result.ReturnValue)
	}

	// missing keys bind to empty text, which reads as zero in arithmetic
	result, err = rt.CallJSON("add", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("CallJSON empty object: %v", err)
	}
	if result.ReturnValue != "4" {
		t.Fatalf("return = %q, want \"4\"", result.ReturnValue)
	}
}

func TestCallJSONRejectsScalar(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	_, err := rt.CallJSON("add", json.RawMessage(`42`))
	var ee *EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want *EvalError", err)
	}
}

func TestAccessors(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	wantMethods := []string{"add", "broken", "guarded", "increment"}
	if got := rt.MethodNames(); !reflect.DeepEqual(got, wantMethods) {
		t.Fatalf("MethodNames = %v, want %v", got, wantMethods)
	}
	wantState := []string{"count", "flag"}
	if got := rt.StateNames(); !reflect.DeepEqual(got, wantState) {
		t.Fatalf("StateNames = %v, want %v", got, wantState)
	}
	if rt.ProtocolName() != "counter" || rt.ProtocolVersion() != "1.0.0" {
		t.Fatalf("identity = %s/%s", rt.ProtocolName(), rt.ProtocolVersion())
	}
	abi, err := rt.ABI()
	if err != nil {
		t.Fatalf("ABI: %v", err)
	}
	if abi.Protocol != "counter" || len(abi.Methods) != 4 {
		t.Fatalf("abi = %+v", abi)
	}
	if rt.ID() == "" {
		t.Fatal("ID is empty")
	}
}

func TestExportDocument(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	raw, err := rt.ExportDocument()
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if m["protocol"] != "counter" {
		t.Fatalf("export protocol = %v", m["protocol"])
	}
	if _, ok := m["abi"]; !ok {
		t.Fatal("export missing abi")
	}

	canonical, err := rt.CanonicalDocument()
	if err != nil {
		t.Fatalf("CanonicalDocument: %v", err)
	}
	again, err := rt.CanonicalDocument()
	if err != nil {
		t.Fatalf("CanonicalDocument: %v", err)
	}
	if string(canonical) != string(again) {
		t.Fatal("canonical rendering is not stable")
	}
}

func TestGetStateDefault(t *testing.T) {
	rt := loadRuntime(t, counterDoc)
	if got := rt.GetState("missing", "fallback"); got != "fallback" {
		t.Fatalf("GetState default = %q", got)
	}
	// an empty stored value is present, not missing
	if got := rt.GetState("flag", "fallback"); got != "" {
		t.Fatalf("GetState present-empty = %q", got)
	}
}
