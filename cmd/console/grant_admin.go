package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"portfoliochat/internal/infrastructure/firebase"
	"portfoliochat/pkg/config"
)

func newGrantAdminCmd() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "grant-admin <uid>",
		Short: "Set the admin claim on a Firebase user",
		Long:  "Set the admin claim on a Firebase user. Uses the server's Firebase credentials from the environment.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opt, err := firebase.ClientOption(cfg)
			if err != nil {
				return err
			}
			app, err := firebase.NewApp(ctx, cfg, opt)
			if err != nil {
				return err
			}
			authClient, err := app.Auth(ctx)
			if err != nil {
				return err
			}

			if err := firebase.NewFirebaseAuthClient(authClient).SetAdmin(ctx, args[0], !revoke); err != nil {
				return fmt.Errorf("set admin claim: %w", err)
			}
			fmt.Printf("Admin claim for %s set to %v. The user must sign in again to pick it up.\n", args[0], !revoke)
			return nil
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "remove the admin claim instead")
	return cmd
}
