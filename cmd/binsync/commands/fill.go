package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binsync/binsync/pkg/artifact"
	"github.com/binsync/binsync/pkg/controller"
)

func newFillCommand(flags *globalFlags) *cobra.Command {
	sf := &storeFlags{}

	var (
		kind       string
		id         string
		sourceUser string
	)

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Merge a remote artifact into the local master state",
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

			ok, err := c.FillArtifact(context.Background(), artifact.Kind(kind), []string{id}, controller.FillOptions{
				User:       sourceUser,
				MergeLevel: mergeLevelFlag(sf.mergeLevel, rt.cfg),
				Blocking:   true,
			})
			if err != nil {
				return fmt.Errorf("fill: %w", err)
			}

			if !ok {
				fmt.Println("nothing to fill: source has no such artifact")

				return nil
			}

			fmt.Println("filled")

			return nil
		},
	}

	addStoreFlags(sf, cmd.Flags().StringVar)
	cmd.Flags().StringVar(&kind, "kind", "", "artifact kind: function, function_header, stack_variable, comment, global_variable, struct, enum, patch")
	cmd.Flags().StringVar(&id, "id", "", "artifact identifier: hex address for addressed kinds, name for struct/enum")
	cmd.Flags().StringVar(&sourceUser, "source-user", "", "remote user to merge from (required)")

	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("source-user")

	return cmd
}
