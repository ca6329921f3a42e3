package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/facility-reservations/internal/application"
)

func newRoomCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Manage bookable rooms",
	}
	cmd.AddCommand(newRoomAddCmd(a), newRoomListCmd(a))
	return cmd
}

func newRoomAddCmd(a *app) *cobra.Command {
	var (
		location  string
		sortOrder int
		inactive  bool
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a room, or update the room with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			active := !inactive
			room, created, err := catalog.EnsureRoom(cmd.Context(), operator(), application.RoomInput{
				Name:      args[0],
				Location:  location,
				SortOrder: sortOrder,
				Active:    &active,
			})
			if err != nil {
				return err
			}
			verb := "updated"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Room %q %s (%s)\n", room.Name, verb, room.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "free-form location shown on the grid")
	cmd.Flags().IntVar(&sortOrder, "sort-order", 0, "grid column order, lowest first")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "hide the room from the grid and refuse new bookings")
	return cmd
}

func newRoomListCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			rooms, err := catalog.ListRooms(cmd.Context(), all)
			if err != nil {
				return err
			}
			if len(rooms) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rooms found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLOCATION\tORDER\tACTIVE")
			for _, room := range rooms {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\n", room.ID, room.Name, room.Location, room.SortOrder, room.Active)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive rooms")
	return cmd
}
