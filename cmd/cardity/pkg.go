package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"cardity/runtime-go/pkg/driver"
	"cardity/runtime-go/pkg/protocol"
)

func newPkgCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pkg",
		Short: "Work with protocol packages (protocol.yml)",
	}
	cmd.AddCommand(newPkgFetchCmd(opts), newPkgCheckCmd(opts))
	return cmd
}

func newPkgFetchCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <protocol.yml>",
		Short: "Fetch the package's dependencies into the local cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			manifest, err := driver.LoadManifest(args[0])
			if err != nil {
				return err
			}
			cacheDir, err := cfg.cacheDir()
			if err != nil {
				return err
			}
			fetcher, err := driver.NewFetcher(cacheDir)
			if err != nil {
				return err
			}
			dirs, err := fetcher.FetchAll(manifest)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(dirs))
			for name := range dirs {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, dirs[name])
			}
			return nil
		},
	}
}

func newPkgCheckCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <protocol.yml>",
		Short: "Validate the package manifest and every document it lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := driver.LoadManifest(args[0])
			if err != nil {
				return err
			}
			var failed bool
			for _, path := range manifest.DocumentPaths() {
				raw, err := os.ReadFile(path)
				if err != nil {
					failed = true
					fmt.Fprintf(cmd.OutOrStdout(), "%s\terror: %v\n", path, err)
					continue
				}
				proto, err := protocol.Load(raw)
				if err != nil {
					failed = true
					fmt.Fprintf(cmd.OutOrStdout(), "%s\terror: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tok (%s %s)\n",
					filepath.Base(path), proto.Name(), proto.Version())
			}
			if failed {
				return fmt.Errorf("package %s has invalid documents", manifest.Name)
			}
			return nil
		},
	}
}
