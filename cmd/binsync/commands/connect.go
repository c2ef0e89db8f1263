package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConnectCommand(flags *globalFlags) *cobra.Command {
	var (
		path        string
		user        string
		fingerprint string
		remoteURL   string
		initEmpty   bool
	)

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Bind a project directory to a store, creating it if needed",
		RunE: func(_ *cobra.Command, _ []string) error {
			rt, err := loadRuntime(flags)
			if err != nil {
				return err
			}

			client, err := connectClient(rt, path, user, fingerprint, remoteURL, initEmpty)
			if err != nil {
				return err
			}
			defer client.Close()

			fmt.Printf("connected: user=%s path=%s status=%s\n", user, path, client.Status())

			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "project directory backing the store")
	cmd.Flags().StringVar(&user, "user", "", "local username (required)")
	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "binary fingerprint to bind or verify against")
	cmd.Flags().StringVar(&remoteURL, "remote", "", "git remote URL to register as origin")
	cmd.Flags().BoolVar(&initEmpty, "init", false, "initialize a fresh repository if none exists at path")

	_ = cmd.MarkFlagRequired("user")

	return cmd
}
