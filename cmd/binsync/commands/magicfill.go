package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binsync/binsync/pkg/controller"
)

func newMagicFillCommand(flags *globalFlags) *cobra.Command {
	sf := &storeFlags{}

	var preferenceUser string

	cmd := &cobra.Command{
		Use:   "magic-fill",
		Short: "Converge every connected user's state into the local one",
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

			err = c.MagicFill(context.Background(), controller.MagicFillOptions{
				PreferenceUser: preferenceUser,
				MergeLevel:     mergeLevelFlag(sf.mergeLevel, rt.cfg),
				Blocking:       true,
			})
			if err != nil {
				return fmt.Errorf("magic-fill: %w", err)
			}

			fmt.Println("magic-fill complete")

			return nil
		},
	}

	addStoreFlags(sf, cmd.Flags().StringVar)
	cmd.Flags().StringVar(&preferenceUser, "preference-user", "", "user whose value wins when several disagree")

	_ = cmd.MarkFlagRequired("user")

	return cmd
}
