package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDeviceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Manage office terminal credentials",
	}
	cmd.AddCommand(
		newDeviceAddCmd(a),
		newDeviceToggleCmd(a, "enable", true),
		newDeviceToggleCmd(a, "disable", false),
		newDeviceListCmd(a),
	)
	return cmd
}

func newDeviceAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <label>",
		Short: "Register a device and print its key once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := a.devices(cmd.Context())
			if err != nil {
				return err
			}
			registration, err := devices.Register(cmd.Context(), operator(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Device %q registered (%s)\n", registration.Device.Label, registration.Device.ID)
			fmt.Fprintf(out, "Key: %s\n", registration.Key)
			fmt.Fprintln(out, "Store the key now; it cannot be shown again.")
			return nil
		},
	}
}

func newDeviceToggleCmd(a *app, verb string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <label>",
		Short: fmt.Sprintf("%s a device", verb),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := a.devices(cmd.Context())
			if err != nil {
				return err
			}
			if err := devices.SetEnabled(cmd.Context(), operator(), args[0], enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Device %q %sd\n", args[0], verb)
			return nil
		},
	}
}

func newDeviceListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := a.devices(cmd.Context())
			if err != nil {
				return err
			}
			list, err := devices.ListDevices(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No devices found")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tENABLED\tCREATED AT")
			for _, d := range list {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", d.ID, d.Label, d.Enabled, d.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}
