package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"warpmc/internal/trakt"
)

// errAuthorizationPending maps to exit code 2 so scripts can poll without
// parsing output.
var errAuthorizationPending = errors.New("authorization pending")

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider credentials via device authorization",
	}

	authCmd.AddCommand(newAuthStartCommand(ctx))
	authCmd.AddCommand(newAuthPollCommand(ctx))
	authCmd.AddCommand(newAuthStatusCommand(ctx))
	authCmd.AddCommand(newAuthClearCommand(ctx))
	authCmd.AddCommand(newAuthRefreshCommand(ctx))

	return authCmd
}

func newAuthStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Begin a device authorization session",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.ensureManager()
			if err != nil {
				return err
			}
			session, err := manager.Start(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Visit %s and enter code %s\n", session.VerificationURL, session.UserCode)
			fmt.Fprintf(out, "The code expires %s.\n", humanize.Time(session.ExpiresAt))
			fmt.Fprintf(out, "Then poll with:\n  warpmedia auth poll %s\n", session.DeviceCode)
			return nil
		},
	}
}

func newAuthPollCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "poll <device-code>",
		Short: "Poll once for completion of a device authorization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.ensureManager()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for {
				result, err := manager.Poll(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if result.Authorized {
					fmt.Fprintf(out, "Authorized; token expires %s\n", humanize.Time(result.Token.ExpiresAt))
					return nil
				}
				if !wait {
					fmt.Fprintf(out, "Still pending; retry in %s\n", result.RetryAfter)
					return errAuthorizationPending
				}
				select {
				case <-time.After(result.RetryAfter):
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			}
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Keep polling until the authorization resolves")
	return cmd
}

func newAuthStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the stored credential state",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.ensureManager()
			if err != nil {
				return err
			}
			status, token, err := manager.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			switch status {
			case trakt.StatusAuthorized:
				message := fmt.Sprintf("token expires %s", humanize.Time(token.ExpiresAt))
				fmt.Fprintln(out, renderStatusLine("trakt", statusOK, message, colorize))
			case trakt.StatusExpired:
				fmt.Fprintln(out, renderStatusLine("trakt", statusWarn, "token expired; run `warpmedia auth refresh` or re-authorize", colorize))
			default:
				fmt.Fprintln(out, renderStatusLine("trakt", statusInfo, "not authenticated; run `warpmedia auth start`", colorize))
			}
			return nil
		},
	}
}

func newAuthClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.ensureManager()
			if err != nil {
				return err
			}
			if err := manager.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Credentials cleared")
			return nil
		},
	}
}

func newAuthRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.ensureManager()
			if err != nil {
				return err
			}
			token, err := manager.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refreshed; token expires %s\n", humanize.Time(token.ExpiresAt))
			return nil
		},
	}
}
