package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-mat/mat"
)

func newDumpCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "dump <file.mat> [variable]",
		Short: "Print the root variables of a MAT-file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []mat.Option
			if raw {
				opts = append(opts, mat.WithRawObjects())
			}
			f, err := mat.Open(args[0], opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 2 {
				v, ok := f.Var(args[1])
				if !ok {
					return fmt.Errorf("dump: no variable %q", args[1])
				}
				printValue(out, 0, v)
				return nil
			}

			for _, v := range f.Vars() {
				marker := ""
				if v.Global {
					marker = " (global)"
				}
				fmt.Fprintf(out, "%s%s:\n", v.Name, marker)
				printValue(out, 1, v.Value)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "skip class decoders, print property maps")
	return cmd
}

func printValue(w io.Writer, depth int, v any) {
	pad := strings.Repeat("  ", depth)
	switch t := v.(type) {
	case nil:
		fmt.Fprintf(w, "%s[]\n", pad)

	case *mat.NumericArray:
		fmt.Fprintf(w, "%s%s %s = %v\n", pad, dims(t.Dims), t.Class, t.Data)
		if t.Imag != nil {
			fmt.Fprintf(w, "%s  imag = %v\n", pad, t.Imag)
		}

	case *mat.CharArray:
		fmt.Fprintf(w, "%schar %q\n", pad, t.Value)

	case *mat.StringArray:
		fmt.Fprintf(w, "%sstring %s %q\n", pad, dims(t.Dims), t.Values)

	case *mat.CellArray:
		fmt.Fprintf(w, "%scell %s\n", pad, dims(t.Dims))
		for _, c := range t.Values {
			printValue(w, depth+1, c)
		}

	case *mat.StructArray:
		fmt.Fprintf(w, "%sstruct %s\n", pad, dims(t.Dims))
		for i, elem := range t.Elements {
			if len(t.Elements) > 1 {
				fmt.Fprintf(w, "%s  (%d)\n", pad, i+1)
			}
			for j, name := range t.FieldNames {
				fmt.Fprintf(w, "%s  .%s:\n", pad, name)
				printValue(w, depth+2, elem[j])
			}
		}

	case *mat.Object:
		fmt.Fprintf(w, "%s%s (object %d)\n", pad, t.Class, t.ID)
		for _, field := range t.Fields {
			fmt.Fprintf(w, "%s  .%s:\n", pad, field.Name)
			printValue(w, depth+2, field.Value)
		}

	case *mat.DateTime:
		fmt.Fprintf(w, "%sdatetime %s", pad, dims(t.Dims))
		if t.TimeZone != "" {
			fmt.Fprintf(w, " tz=%s", t.TimeZone)
		}
		fmt.Fprintln(w)
		for _, ts := range t.Times {
			fmt.Fprintf(w, "%s  %s\n", pad, ts.Format("2006-01-02 15:04:05.000000"))
		}

	case *mat.Duration:
		fmt.Fprintf(w, "%sduration %s = %v ms\n", pad, dims(t.Dims), t.Millis)

	case *mat.Table:
		fmt.Fprintf(w, "%stable %dx%d\n", pad, t.NumRows, t.NumVars)
		for i, name := range t.VarNames {
			fmt.Fprintf(w, "%s  %s:\n", pad, name)
			printValue(w, depth+2, t.Columns[i])
		}

	case *mat.Timetable:
		fmt.Fprintf(w, "%stimetable %dx%d\n", pad, t.NumRows, t.NumVars)
		fmt.Fprintf(w, "%s  rowtimes:\n", pad)
		printValue(w, depth+2, t.RowTimes)
		for i, name := range t.VarNames {
			fmt.Fprintf(w, "%s  %s:\n", pad, name)
			printValue(w, depth+2, t.Columns[i])
		}

	case *mat.Enumeration:
		fmt.Fprintf(w, "%senumeration %s %s\n", pad, t.Class, dims(t.Dims))
		for _, name := range t.ValueNames {
			fmt.Fprintf(w, "%s  %s\n", pad, name)
		}

	case *mat.Reference:
		fmt.Fprintf(w, "%sref class=%d object=%d\n", pad, t.ClassID, t.ObjectID)

	case *mat.Opaque:
		fmt.Fprintf(w, "%sopaque %s/%s\n", pad, t.TypeSystem, t.ClassName)

	case *mat.Unparsed:
		fmt.Fprintf(w, "%s%s (%d bytes, not interpreted)\n", pad, t.Class, len(t.Data))

	default:
		fmt.Fprintf(w, "%s%v\n", pad, v)
	}
}

func dims(d []int) string {
	parts := make([]string, len(d))
	for i, n := range d {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, "x")
}
