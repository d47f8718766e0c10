package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-mat/mat"
)

func newDiagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diag <file.mat>",
		Short: "Report non-fatal problems found while decoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := mat.Open(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "header:  %s\n", f.Header())
			fmt.Fprintf(out, "vars:    %d\n", len(f.Vars()))
			if ss := f.Subsystem(); ss != nil {
				fmt.Fprintf(out, "objects: %d\n", ss.NumObjects())
				for i, region := range ss.ReservedRegions() {
					if len(region) > 0 {
						fmt.Fprintf(out, "reserved region %d: %d bytes\n", i, len(region))
					}
				}
			} else {
				fmt.Fprintln(out, "no subsystem block")
			}

			diags := f.Diagnostics()
			if len(diags) == 0 {
				fmt.Fprintln(out, "no diagnostics")
				return nil
			}
			for _, d := range diags {
				fmt.Fprintf(out, "  %s\n", d)
			}
			return nil
		},
	}
}
