package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-mat/mat"
)

func newObjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "objects <file.mat>",
		Short: "List the objects of the subsystem graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := mat.Open(args[0], mat.WithRawObjects())
			if err != nil {
				return err
			}
			ss := f.Subsystem()
			if ss == nil {
				return fmt.Errorf("objects: %s: %w", args[0], mat.ErrNoSubsystem)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d objects, %d content cells\n", ss.NumObjects(), ss.NumContentCells())
			for id := uint32(1); int(id) <= ss.NumObjects(); id++ {
				v, err := ss.Object(id)
				if err != nil {
					return err
				}
				obj, ok := v.(*mat.Object)
				if !ok {
					fmt.Fprintf(out, "%4d  %T\n", id, v)
					continue
				}
				fmt.Fprintf(out, "%4d  %s", id, obj.Class)
				if len(obj.Fields) > 0 {
					fmt.Fprint(out, "  {")
					for i, field := range obj.Fields {
						if i > 0 {
							fmt.Fprint(out, ", ")
						}
						fmt.Fprint(out, field.Name)
					}
					fmt.Fprint(out, "}")
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
