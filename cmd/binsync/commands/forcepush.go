package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/binsync/binsync/pkg/artifact"
	"github.com/binsync/binsync/pkg/controller"
)

// parseTarget parses a "kind:id" token into a ForcePushTarget: id is a hex
// address for addressed kinds, a bare name for struct/enum.
func parseTarget(raw string) (controller.ForcePushTarget, error) {
	kind, id, found := strings.Cut(raw, ":")
	if !found {
		return controller.ForcePushTarget{}, fmt.Errorf("invalid --target %q: expected kind:id", raw)
	}

	k := artifact.Kind(kind)

	switch k {
	case artifact.KindStruct, artifact.KindEnum:
		return controller.ForcePushTarget{Kind: k, Name: id}, nil
	default:
		addr, err := strconv.ParseUint(id, 16, 64)
		if err != nil {
			return controller.ForcePushTarget{}, fmt.Errorf("invalid address in --target %q: %w", raw, err)
		}

		return controller.ForcePushTarget{Kind: k, Addr: addr}, nil
	}
}

func newForcePushCommand(flags *globalFlags) *cobra.Command {
	sf := &storeFlags{}

	var (
		targetFlags []string
		gui         bool
	)

	cmd := &cobra.Command{
		Use:   "force-push",
		Short: "Bulk-push a set of artifacts read live from the decompiler",
		RunE: func(_ *cobra.Command, _ []string) error {
			rt, err := loadRuntime(flags)
			if err != nil {
				return err
			}

			targets := make([]controller.ForcePushTarget, 0, len(targetFlags))

			for _, raw := range targetFlags {
				t, parseErr := parseTarget(raw)
				if parseErr != nil {
					return parseErr
				}

				targets = append(targets, t)
			}

			c, err := buildController(rt, sf)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.ForcePush(context.Background(), targets, gui); err != nil {
				return fmt.Errorf("force-push: %w", err)
			}

			fmt.Printf("force-pushed %d target(s)\n", len(targets))

			return nil
		},
	}

	addStoreFlags(sf, cmd.Flags().StringVar)
	cmd.Flags().StringArrayVar(&targetFlags, "target", nil,
		"kind:id to push, repeatable (e.g. function:401000, struct:Node)")
	cmd.Flags().BoolVar(&gui, "gui", false, "passed to the progress reporter as its gui flag; the CLI's reporter prints plain log lines either way")

	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}
