package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"signalist/internal/infrastructure/metrics"
	"signalist/internal/infrastructure/scheduler"
)

func newServeCmd(ref *appRef) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the job scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ref.get()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner := scheduler.New(ctx, app.Logger)
			if err := runner.AddJobs(app.Jobs); err != nil {
				return err
			}
			for _, e := range runner.Entries() {
				app.Logger.Info("job scheduled", zap.String("job", e.Name), zap.String("schedule", e.Schedule), zap.Time("next", e.Next))
			}

			if addr := app.Config.Metrics.Addr; addr != "" {
				go func() {
					if err := metrics.Serve(ctx, addr, app.Logger); err != nil {
						app.Logger.Error("metrics server stopped", zap.Error(err))
					}
				}()
			}

			runner.Start()
			<-ctx.Done()
			app.Logger.Info("shutdown signal received")
			runner.Stop()
			return nil
		},
	}
}
