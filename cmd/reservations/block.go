package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/facility-reservations/internal/application"
	"github.com/example/facility-reservations/internal/policy"
)

const localTimeLayout = "2006-01-02 15:04"

func newBlockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Manage administrative closures",
	}
	cmd.AddCommand(newBlockAddCmd(a), newBlockListCmd(a), newBlockDeleteCmd(a))
	return cmd
}

func newBlockAddCmd(a *app) *cobra.Command {
	var room, start, end, reason string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Close one room, or every room, for an interval",
		Long: `Close one room, or every room when --room is omitted. Times are RFC 3339
or "YYYY-MM-DD HH:MM" in the facility time zone. Existing reservations are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			startAt, err := a.parseLocalTime(start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			endAt, err := a.parseLocalTime(end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}

			catalog, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			roomID, err := resolveRoom(cmd.Context(), catalog, room)
			if err != nil {
				return err
			}

			block, err := catalog.CreateBlock(cmd.Context(), operator(), application.BlockInput{
				RoomID: roomID,
				Start:  startAt,
				End:    endAt,
				Reason: reason,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Block %s created\n", block.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&room, "room", "", "room name; empty blocks every room")
	cmd.Flags().StringVar(&start, "start", "", "block start")
	cmd.Flags().StringVar(&end, "end", "", "block end")
	cmd.Flags().StringVar(&reason, "reason", "", "reason shown on the office grid")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newBlockListCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List blocks intersecting a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDate := a.policy.LocalDate(time.Now())
			if from != "" {
				d, err := policy.ParseDate(from)
				if err != nil {
					return fmt.Errorf("--from: %w", err)
				}
				fromDate = d
			}
			toDate := fromDate.AddDays(30)
			if to != "" {
				d, err := policy.ParseDate(to)
				if err != nil {
					return fmt.Errorf("--to: %w", err)
				}
				toDate = d
			}

			catalog, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			start, end := a.policy.DayWindow(fromDate, toDate)
			blocks, err := catalog.ListBlocks(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if len(blocks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No blocks found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tROOM\tSTART\tEND\tREASON")
			for _, b := range blocks {
				roomID := "*"
				if b.RoomID != nil {
					roomID = *b.RoomID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", b.ID, roomID,
					a.policy.In(b.Start).Format(localTimeLayout), a.policy.In(b.End).Format(localTimeLayout), b.Reason)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&to, "to", "", "last date, YYYY-MM-DD (default 30 days after --from)")
	return cmd
}

func newBlockDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <block_id>",
		Short: "Remove a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}
			if err := catalog.DeleteBlock(cmd.Context(), operator(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Block %s deleted\n", args[0])
			return nil
		},
	}
}

func (a *app) parseLocalTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localTimeLayout, raw, a.policy.Location)
}

func resolveRoom(ctx context.Context, catalog *application.CatalogService, name string) (*string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	rooms, err := catalog.ListRooms(ctx, true)
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		if room.Name == name {
			id := room.ID
			return &id, nil
		}
	}
	return nil, fmt.Errorf("room %q: %w", name, application.ErrNotFound)
}
