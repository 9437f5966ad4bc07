// Command idtdump builds the inlining dependency tree of one method of a
// YAML program description and prints the tree with the selected proposal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "idtdump",
		Short:        "inspects inlining decisions for a program description",
		SilenceUsage: true,
	}
	cmd.AddCommand(newBuildCmd(), newListCmd())
	return cmd
}

func newListCmd() *cobra.Command {
	var programPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "lists the methods of a program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProgram(programPath)
			if err != nil {
				return err
			}
			for _, m := range p.Methods() {
				if _, err := p.Graph(m); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s size=%d (no code)\n", m.ID, m.ByteSize)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s size=%d\n", m.ID, m.ByteSize)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&programPath, "program", "p", "", "YAML program description")
	_ = cmd.MarkFlagRequired("program")
	return cmd
}
