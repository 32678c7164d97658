package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Replay the store and print the chain",
		Long: `Replay all stored blocks, rebuild the chain ending with the most
recently written block and check every link.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			blocks, err := a.job.Blocks(cmd.Context())
			if err != nil {
				return err
			}

			chain, err := a.job.Chain(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stored: %d\n", len(blocks))
			fmt.Fprintf(out, "length: %d\n", chain.Len())
			if tail, ok := chain.Tail(); ok {
				fmt.Fprintf(out, "tail:   %s\n", tail.Hash())
			}

			if verbose {
				for i, b := range chain.Blocks() {
					fmt.Fprintf(out, "%4d %s %s\n", i, b.Hash(), b.Payload())
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every block")

	return cmd
}
