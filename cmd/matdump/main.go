package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "matdump",
		Short: "Inspect MAT-file object graphs",
	}

	root.AddCommand(newDumpCmd())
	root.AddCommand(newObjectsCmd())
	root.AddCommand(newDiagCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("matdump 0.1.0-dev")
		},
	}
}
