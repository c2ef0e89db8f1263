package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/binsync/binsync/pkg/scheduler"
)

func newUsersCommand(flags *globalFlags) *cobra.Command {
	var (
		path string
		user string
	)

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List every user with a branch in the store",
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

			users, err := client.Users(context.Background(), scheduler.Medium)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}

			for _, u := range users {
				if u.LastPushTime == nil {
					fmt.Printf("%s\tnever pushed\n", u.Name)

					continue
				}

				fmt.Printf("%s\t%s\n", u.Name, u.LastPushTime.Format("2006-01-02T15:04:05Z07:00"))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "project directory backing the store")
	cmd.Flags().StringVar(&user, "user", "", "local username (required)")

	_ = cmd.MarkFlagRequired("user")

	return cmd
}
