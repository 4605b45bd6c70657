package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/sdoc/app"
	"github.com/malonaz/sdoc/internal/cli"
)

func newHealthCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the document API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.Client.Health(cmd.Context())
			if err != nil {
				return err
			}
			if !status.Healthy() {
				return errors.Errorf("%s reports status %q", a.Config.APIHost, status.Status)
			}
			cli.Success("✓ %s is %s", a.Config.APIHost, status.Status)
			if status.Version != "" {
				cli.UserInput(" (%s %s)", status.Service, status.Version)
			}
			cli.UserInput("\n")
			return nil
		},
	}
}
