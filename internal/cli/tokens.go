package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newTokensCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage push notification tokens",
	}

	var device string
	register := &cobra.Command{
		Use:   "register <expo-push-token>",
		Short: "Register a device token for the current user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.client().RegisterPushToken(cmd.Context(), args[0], device)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "registered %s for user %s\n", token.Token, token.UserID)
			return nil
		},
	}
	register.Flags().StringVar(&device, "device", "", "device description stored with the token")

	cmd.AddCommand(register)
	return cmd
}

func newRemindCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send reminders for stale unviewed orders",
		Long: `remind invokes the reminder function once. It requires the service
key as --api-key and is meant to be run by an external scheduler.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := a.client().SendReminders(cmd.Context())
			if err != nil {
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, raw, "", "  "); err != nil {
				_, err = a.out.Write(raw)
				return err
			}
			fmt.Fprintln(a.out, pretty.String())
			return nil
		},
	}
}
