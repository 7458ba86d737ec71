package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCallCmd(opts *cliOptions) *cobra.Command {
	var jsonArgs string
	cmd := &cobra.Command{
		Use:   "call <method> [args...]",
		Short: "Call a protocol method",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			method := args[0]

			var result any
			if jsonArgs != "" {
				if len(args) > 1 {
					return fmt.Errorf("pass positional arguments or --args, not both")
				}
				result, err = s.rt.CallJSON(method, json.RawMessage(jsonArgs))
			} else {
				result, err = s.rt.Call(method, args[1:])
			}
			if err != nil {
				return err
			}
			if err := s.save(); err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVar(&jsonArgs, "args", "", "JSON call arguments: positional array or object keyed by parameter name")
	return cmd
}

func newGetCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Read a state value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.rt.GetState(args[0], ""))
			return nil
		},
	}
}

func newSetCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a state value directly",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			if err := s.rt.SetState(args[0], args[1]); err != nil {
				return err
			}
			return s.save()
		},
	}
}

func newStateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show all state values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, s.rt.StateMap())
		},
	}
}

func newEventsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Show the event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, s.rt.EventLog())
		},
	}
}

func newABICmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "abi",
		Short: "Show the protocol ABI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			abi, err := s.rt.ABI()
			if err != nil {
				return err
			}
			return printJSON(cmd, abi)
		},
	}
}

func newExportCmd(opts *cliOptions) *cobra.Command {
	var canonical bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the loaded document with its hash, signature, and ABI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			var raw []byte
			if canonical {
				raw, err = s.rt.CanonicalDocument()
			} else {
				raw, err = s.rt.ExportDocument()
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}
	cmd.Flags().BoolVar(&canonical, "canonical", false, "emit the RFC 8785 canonical form the fingerprint is computed over")
	return cmd
}

func newMethodsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List callable methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(s.rt.MethodNames(), "\n"))
			return nil
		},
	}
}

func newSnapshotCmd(opts *cliOptions) *cobra.Command {
	var blockHeight string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture a snapshot of state and events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			snapshot, err := s.rt.CreateSnapshot(blockHeight)
			if err != nil {
				return err
			}
			return printJSON(cmd, snapshot)
		},
	}
	cmd.Flags().StringVar(&blockHeight, "height", "", "external block height to record in the snapshot")
	return cmd
}

func newRestoreCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot.json>",
		Short: "Restore state and events from a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(opts)
			if err != nil {
				return err
			}
			if err := restoreFromFile(s, args[0]); err != nil {
				return err
			}
			return s.save()
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
