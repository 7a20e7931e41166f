package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seagrayinc/satlink/internal/ftdiusb"
	"github.com/seagrayinc/satlink/pkg/datalink"
	"github.com/seagrayinc/satlink/pkg/transport"
)

func newBiosCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bios <output.bin>",
		Short: "Dump the BIOS to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			fmt.Fprintf(cmd.OutOrStdout(), "Dumping bios to %s\n", filename)

			return a.withSession(cmd, func(ctx context.Context, s *datalink.Session) error {
				b, err := s.DumpBIOS(ctx)
				if err != nil {
					return fmt.Errorf("failed to dump bios: %w", err)
				}
				if err := writeOutput(filename, b); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully dumped bios to %s\n", filename)
				return nil
			})
		},
	}
}

func newReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <hex_address> <count> <output.bin>",
		Short: "Read count bytes from hex_address to a file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			count, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[1], err)
			}
			filename := args[2]
			fmt.Fprintf(cmd.OutOrStdout(), "Reading %d bytes from address 0x%x to %s\n", count, address, filename)

			return a.withSession(cmd, func(ctx context.Context, s *datalink.Session) error {
				b, err := s.DumpRange(ctx, address, count)
				if err != nil {
					return fmt.Errorf("failed to dump memory: %w", err)
				}
				if err := writeOutput(filename, b); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully dumped memory to %s\n", filename)
				return nil
			})
		},
	}
}

// newWriteCmd builds "write", or "exec" when execute is set.
func newWriteCmd(a *app, execute bool) *cobra.Command {
	use, short := "write", "Write a file to hex_address"
	if execute {
		use, short = "exec", "Write a file to hex_address and then execute it"
	}

	return &cobra.Command{
		Use:   use + " <hex_address> <input.bin>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			filename := args[1]
			data, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", filename, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Writing %s (%d bytes) to 0x%x\n", filename, len(data), address)

			return a.withSession(cmd, func(ctx context.Context, s *datalink.Session) error {
				if execute {
					err = s.WriteAndExecute(ctx, address, data)
				} else {
					err = s.WriteRange(ctx, address, data)
				}
				if err != nil {
					return fmt.Errorf("failed to write file to memory: %w", err)
				}
				if execute {
					fmt.Fprintf(cmd.OutOrStdout(), "Executing at 0x%x\n", address)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Successfully wrote %s\n", filename)
				}
				return nil
			})
		},
	}
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List serial ports and DataLink cables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serialPorts, err := transport.ListSerial()
			if err != nil {
				return err
			}
			usbDevices, err := ftdiusb.List()
			if err != nil {
				slog.Warn("usb enumeration unavailable", slog.Any("error", err))
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TRANSPORT\tPATH\tVID:PID\tPRODUCT\tDATALINK")
			for _, info := range serialPorts {
				printInfo(tw, "serial", info)
			}
			for _, info := range usbDevices {
				printInfo(tw, "usb", info)
			}
			return tw.Flush()
		},
	}
}

func printInfo(tw *tabwriter.Writer, kind string, info transport.Info) {
	mark := ""
	if info.IsDataLink() {
		mark = "yes"
	}
	fmt.Fprintf(tw, "%s\t%s\t%04x:%04x\t%s\t%s\n", kind, info.Path, info.VendorID, info.ProductID, info.Product, mark)
}
