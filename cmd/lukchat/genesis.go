package main

import (
	"fmt"

	"github.com/nspcc-dev/lukchat"
	"github.com/nspcc-dev/lukchat/internal/chatmsg"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newGenesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "Initialize the store with a genesis block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.job.Len(cmd.Context())
			if err != nil {
				return err
			}
			if n != 0 {
				return errors.Errorf("store already contains %d blocks", n)
			}

			id, err := a.identity()
			if err != nil {
				return err
			}

			node, err := lukchat.Genesis(cmd.Context(), a.cfg.Node.Profile, a.job, id,
				lukchat.WithLogger[chatmsg.Message](a.log))
			if err != nil {
				return err
			}

			tail, _ := node.Tail()
			fmt.Fprintf(cmd.OutOrStdout(), "genesis: %s\n", tail.Hash())

			return nil
		},
	}
}
