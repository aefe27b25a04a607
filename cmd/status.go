package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Poll the device once and print the supervisor state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			return a.status(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) status(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a.services.Init(ctx)
	a.services.Reconciler.PollStatus(ctx)
	a.services.Reconciler.PollSensors(ctx)
	a.services.Simulator.Stop()

	st, err := a.services.GetState(ctx)
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}
	return writeJSON(out, st)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
