package cli

import (
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"signalist/internal/infrastructure/scheduler"
)

func newJobsCmd(ref *appRef) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List or run scheduled jobs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List jobs with their UTC schedule and next run",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ref.get()
			if err != nil {
				return err
			}
			out := NewOutput(cmd)
			type jobView struct {
				Name     string    `json:"name"`
				Schedule string    `json:"schedule"`
				Next     time.Time `json:"next_run"`
			}
			now := time.Now().UTC()
			views := make([]jobView, 0)
			rows := make([][]string, 0)
			for _, j := range app.Jobs.Jobs() {
				next, err := scheduler.Next(j.Schedule, now)
				if err != nil {
					return err
				}
				views = append(views, jobView{Name: j.Name, Schedule: j.Schedule, Next: next})
				rows = append(rows, []string{j.Name, j.Schedule, next.Format(time.RFC3339)})
			}
			if out.IsJSON() {
				return out.JSON(views)
			}
			return out.Table([]string{"NAME", "SCHEDULE", "NEXT RUN (UTC)"}, rows)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "run <name>",
		Short: "Run one job immediately and print its counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ref.get()
			if err != nil {
				return err
			}
			res, err := app.Jobs.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := NewOutput(cmd)
			if out.IsJSON() {
				return out.JSON(map[string]interface{}{
					"job":         res.Job,
					"counts":      res.Counts,
					"started_at":  res.StartedAt,
					"duration_ms": res.Duration.Milliseconds(),
				})
			}
			keys := make([]string, 0, len(res.Counts))
			for k := range res.Counts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, []string{k, strconv.Itoa(res.Counts[k])})
			}
			out.Printf("%s finished in %s\n", res.Job, res.Duration.Round(time.Millisecond))
			return out.Table([]string{"COUNT", "VALUE"}, rows)
		},
	})
	return cmd
}
