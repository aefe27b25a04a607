package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newEndpointCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoint",
		Short: "Inspect or change the device address",
	}

	withApp := func(run func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a.services.Init(ctx)
			return run(ctx, a, cmd, args)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the override, the effective base and the proxy status",
			Args:  cobra.NoArgs,
			RunE: withApp(func(_ context.Context, a *app, cmd *cobra.Command, _ []string) error {
				return writeJSON(cmd.OutOrStdout(), a.services.Current())
			}),
		},
		&cobra.Command{
			Use:   "set <address>",
			Short: "Save a device address (e.g. 192.168.1.50) and notify the proxy",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
				out := a.services.Update(ctx, args[0])
				a.services.Simulator.Stop()
				return writeJSON(cmd.OutOrStdout(), out)
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Clear the saved address",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
				out := a.services.Reset(ctx)
				a.services.Simulator.Stop()
				return writeJSON(cmd.OutOrStdout(), out)
			}),
		},
	)
	return cmd
}
