package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binsync/binsync/pkg/artifact"
	"github.com/binsync/binsync/pkg/controller"
)

func newPushCommand(flags *globalFlags) *cobra.Command {
	sf := &storeFlags{}

	var (
		kind string
		addr uint64
		name string
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push one artifact read from the decompiler into the store",
		RunE: func(_ *cobra.Command, _ []string) error {
			rt, err := loadRuntime(flags)
			if err != nil {
				return err
			}

			c, err := buildController(rt, sf)
			if err != nil {
				return err
			}
			defer c.Close()

			target := controller.ForcePushTarget{Kind: artifact.Kind(kind), Addr: addr, Name: name}

			if err := c.ForcePush(context.Background(), []controller.ForcePushTarget{target}, false); err != nil {
				return fmt.Errorf("push: %w", err)
			}

			fmt.Println("pushed")

			return nil
		},
	}

	addStoreFlags(sf, cmd.Flags().StringVar)
	cmd.Flags().StringVar(&kind, "kind", "", "artifact kind: function, function_header, stack_variable, comment, global_variable, struct, enum, patch")
	cmd.Flags().Uint64Var(&addr, "addr", 0, "artifact address (functions, comments, globals, patches)")
	cmd.Flags().StringVar(&name, "name", "", "artifact name (structs, enums)")

	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}
