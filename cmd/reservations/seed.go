package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/facility-reservations/internal/seed"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <catalog.toml>",
		Short: "Apply a TOML catalog of rooms and blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			svc, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			result, err := seed.Apply(cmd.Context(), svc, catalog, a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rooms: %d created, %d updated; blocks: %d created, %d already present\n",
				result.RoomsCreated, result.RoomsUpdated, result.BlocksCreated, result.BlocksSkipped)
			return nil
		},
	}
}
