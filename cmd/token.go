package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/meli-relist-cli/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newTokenCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Keep account access tokens valid",
	}

	cmd.AddCommand(
		newTokenRefreshCmd(app),
		newTokenWatchCmd(app),
	)

	return cmd
}

func newTokenRefreshCmd(app *app) *cobra.Command {
	var nickname string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh expired tokens and resolve missing seller ids",
		Long:  "Refresh one account with --nickname, or every linked account when the flag is omitted. Valid tokens are left untouched.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if nickname == "" {
				return refreshAll(cmd.Context(), cmd.OutOrStdout(), app)
			}

			account, err := app.tokens.Refresh(cmd.Context(), domain.Nickname(nickname))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: token valid until %s\n", account.Nickname, account.Credential.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.Flags().StringVar(&nickname, "nickname", "", "Account nickname (all accounts when empty)")

	return cmd
}

func newTokenWatchCmd(app *app) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh all accounts on a schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runTokenWatch(ctx, cmd.OutOrStdout(), app, schedule)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "@every 30m", "Cron schedule or descriptor, e.g. \"@every 30m\" or \"0 */2 * * *\"")

	return cmd
}

// runTokenWatch refreshes once immediately, then on every schedule tick,
// and returns after ctx is done and any running refresh has finished.
func runTokenWatch(ctx context.Context, out io.Writer, app *app, schedule string) error {
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	job := func() {
		if err := refreshAll(ctx, out, app); err != nil {
			app.logger.Error("scheduled token refresh failed", "err", err)
		}
	}
	if _, err := scheduler.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("parse schedule %q: %w", schedule, err)
	}

	job()
	scheduler.Start()
	app.logger.Info("token watch started", "schedule", schedule)

	<-ctx.Done()
	<-scheduler.Stop().Done()
	app.logger.Info("token watch stopped")

	return nil
}

func refreshAll(ctx context.Context, out io.Writer, app *app) error {
	outcomes, err := app.tokens.RefreshAll(ctx)
	for _, outcome := range outcomes {
		switch {
		case outcome.Err != nil:
			_, _ = fmt.Fprintf(out, "%s: %v\n", outcome.Nickname, outcome.Err)
		case outcome.Refreshed:
			_, _ = fmt.Fprintf(out, "%s: refreshed\n", outcome.Nickname)
		default:
			_, _ = fmt.Fprintf(out, "%s: valid\n", outcome.Nickname)
		}
	}

	return err
}
