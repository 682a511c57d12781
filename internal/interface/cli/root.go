package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"signalist/internal/infrastructure/config"
)

// Version 版本資訊。
const Version = "0.1.0"

// Factory 建立 App，測試時可替換。
type Factory func(ctx context.Context) (*App, error)

// NewRootCmd 建立 signalist 指令；App 在子指令執行前才連線建立。
func NewRootCmd(cfg config.Config, logger *zap.Logger) *cobra.Command {
	return newRootCmd(func(ctx context.Context) (*App, error) {
		return Bootstrap(ctx, cfg, logger)
	})
}

// appRef 讓子指令在 PersistentPreRunE 之後取得 App。
type appRef struct {
	app *App
}

func (r *appRef) get() (*App, error) {
	if r.app == nil {
		return nil, fmt.Errorf("application not initialised")
	}
	return r.app, nil
}

func newRootCmd(factory Factory) *cobra.Command {
	ref := &appRef{}

	rootCmd := &cobra.Command{
		Use:   "signalist",
		Short: "Signalist - stock watchlist alerts and market emails",
		Long: `Signalist evaluates stock price alerts on a schedule and emails users
when a target is crossed. It also sends welcome emails, a daily market news
summary and reminders to inactive users.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if ref.app != nil {
				return nil
			}
			app, err := factory(cmd.Context())
			if err != nil {
				return err
			}
			ref.app = app
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if ref.app != nil {
				ref.app.Close(context.Background())
			}
		},
	}
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")

	rootCmd.AddCommand(
		newServeCmd(ref),
		newJobsCmd(ref),
		newAlertsCmd(ref),
		newWatchlistCmd(ref),
		newStocksCmd(ref),
		newUsersCmd(ref),
		newWelcomeCmd(ref),
	)
	return rootCmd
}

func requireEmail(cmd *cobra.Command) (string, error) {
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		return "", fmt.Errorf("--email is required")
	}
	return email, nil
}
