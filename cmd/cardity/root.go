package main

import (
	"github.com/spf13/cobra"
)

type cliOptions struct {
	configPath string
	docPath    string
	statePath  string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "cardity",
		Short:         "Execute CPL protocol documents",
		Long:          "cardity loads .car protocol documents, calls their methods, and inspects state, events, ABI, and snapshots.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&opts.docPath, "doc", "", "path to the protocol document (.car)")
	rootCmd.PersistentFlags().StringVar(&opts.statePath, "state", "", "path to a session snapshot file persisted between runs")

	rootCmd.AddCommand(
		newCallCmd(opts),
		newGetCmd(opts),
		newSetCmd(opts),
		newStateCmd(opts),
		newEventsCmd(opts),
		newABICmd(opts),
		newExportCmd(opts),
		newMethodsCmd(opts),
		newSnapshotCmd(opts),
		newRestoreCmd(opts),
		newPkgCmd(opts),
	)
	return rootCmd
}
