package main

import (
	"fmt"

	"github.com/nspcc-dev/lukchat/crypto"
	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a node key",
		Long: `Generate a new node key and print it in WIF together with the node ID.
The WIF can be used as node.key config value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := newIdentity()
			if err != nil {
				return err
			}

			wif, err := crypto.EncodeWIF(id.PrivateKey)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "WIF: %s\n", wif)
			fmt.Fprintf(out, "ID:  %s\n", id.ID)

			return nil
		},
	}
}
