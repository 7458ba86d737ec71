package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"cardity/runtime-go/pkg/runtime"
)

// session is a loaded runtime plus the file paths it syncs with.
type session struct {
	rt        *runtime.Runtime
	statePath string
}

// openSession loads the protocol document and, when a state file exists,
// restores the persisted snapshot into the runtime.
func openSession(opts *cliOptions) (*session, error) {
	if opts.docPath == "" {
		return nil, errors.New("a protocol document is required (--doc)")
	}
	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(opts.docPath)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	rt := runtime.New(
		runtime.WithLogger(newLogger(cfg)),
		runtime.WithConfig(runtime.Config{
			EnableEvents: cfg.eventsEnabled(),
			MaxEventLog:  cfg.MaxEventLog,
		}),
	)
	if err := rt.Load(raw); err != nil {
		return nil, fmt.Errorf("load protocol: %w", err)
	}

	s := &session{rt: rt, statePath: opts.statePath}
	if opts.statePath != "" {
		if err := s.restoreStateFile(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// restoreStateFile applies a persisted snapshot; a missing file means a
// fresh session.
func (s *session) restoreStateFile() error {
	if _, err := os.Stat(s.statePath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return restoreFromFile(s, s.statePath)
}

func restoreFromFile(s *session, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read state file: %w", err)
	}
	var snapshot runtime.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return fmt.Errorf("parse state file %s: %w", path, err)
	}
	if err := s.rt.RestoreFromSnapshot(snapshot); err != nil {
		return fmt.Errorf("restore state file %s: %w", path, err)
	}
	return nil
}

// save persists the current session snapshot when a state file is configured.
func (s *session) save() error {
	if s.statePath == "" {
		return nil
	}
	snapshot, err := s.rt.CreateSnapshot("")
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return &runtime.PersistenceError{Op: "encode snapshot", Err: err}
	}
	if err := os.WriteFile(s.statePath, raw, 0o644); err != nil {
		return &runtime.PersistenceError{Op: "write state file", Err: err}
	}
	return nil
}
