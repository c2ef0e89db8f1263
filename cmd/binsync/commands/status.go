package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binsync/binsync/pkg/gitlib"
	"github.com/binsync/binsync/pkg/scheduler"
)

func newStatusCommand(flags *globalFlags) *cobra.Command {
	var (
		path string
		user string
		dump string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the local store's connection state",
		RunE: func(_ *cobra.Command, _ []string) error {
			rt, err := loadRuntime(flags)
			if err != nil {
				return err
			}

			client, err := connectClient(rt, path, user, "", "", false)
			if err != nil {
				return err
			}
			defer client.Close()

			fmt.Printf("status: %s\n", client.Status())

			if client.EverPulled() {
				if t := client.LastPullAttempt(); t != nil {
					fmt.Printf("last pull attempt: %s\n", t.Format("2006-01-02T15:04:05Z07:00"))
				}
			} else {
				fmt.Println("last pull attempt: never")
			}

			if dump == "" {
				return nil
			}

			s, err := client.GetState(context.Background(), user, gitlib.ZeroHash(), scheduler.Fast, true)
			if err != nil {
				return fmt.Errorf("resolve state to dump: %w", err)
			}

			if err := s.Dump(newDirFileStore(dump)); err != nil {
				return fmt.Errorf("dump state: %w", err)
			}

			fmt.Printf("dumped local state to %s\n", dump)

			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "project directory backing the store")
	cmd.Flags().StringVar(&user, "user", "", "local username (required)")
	cmd.Flags().StringVar(&dump, "dump", "", "also dump the local state as a plain TOML file tree to this directory")

	_ = cmd.MarkFlagRequired("user")

	return cmd
}
