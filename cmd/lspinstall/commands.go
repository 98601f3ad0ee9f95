package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newInstallCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the newest compatible build and print its path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := f.installOptions()
			if err != nil {
				return err
			}
			s, err := f.newSession(cmd)
			if err != nil {
				return err
			}

			inst, installErr := s.Acquire(cmd.Context(), opts)
			if err := s.finish(); err != nil && installErr == nil {
				return err
			}
			if installErr != nil {
				return installErr
			}

			fmt.Fprintln(cmd.OutOrStdout(), inst.Path)
			return nil
		},
	}
	cmd.Flags().DurationVar(&f.cleanupDelay, "cleanup-delay", 0, "delay before pruning old versions")
	return cmd
}

func newResolveCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Show which build would be installed without downloading it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := f.installOptions()
			if err != nil {
				return err
			}
			s, err := f.newSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.finish() }()

			res, err := s.Resolve(cmd.Context(), opts)
			if err != nil {
				return err
			}

			manifestSource := "remote"
			if res.FromCache {
				manifestSource = "cache"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version:  %s\n", res.Version)
			fmt.Fprintf(out, "url:      %s\n", res.URL)
			fmt.Fprintf(out, "hashes:   %s\n", strings.Join(res.Hashes, ", "))
			fmt.Fprintf(out, "path:     %s\n", res.Path)
			fmt.Fprintf(out, "cached:   %t\n", res.Cached)
			fmt.Fprintf(out, "manifest: %s (schema %s)\n", manifestSource, res.SchemaVersion)
			return nil
		},
	}
}

func newCleanupCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove delisted and surplus cached versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := f.installOptions()
			if err != nil {
				return err
			}
			s, err := f.newSession(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.finish() }()

			return s.Cleanup(cmd.Context(), opts)
		},
	}
}
