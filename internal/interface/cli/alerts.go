package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	alertApp "signalist/internal/application/alert"
	alertDomain "signalist/internal/domain/alert"
)

func newAlertsCmd(ref *appRef) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Manage price alerts for a user",
	}
	cmd.PersistentFlags().String("email", "", "user email")
	cmd.AddCommand(newAlertCreateCmd(ref), newAlertListCmd(ref), newAlertUpdateCmd(ref), newAlertDeleteCmd(ref))
	return cmd
}

func newAlertCreateCmd(ref *appRef) *cobra.Command {
	c := &cobra.Command{
		Use:   "create",
		Short: "Create a price alert",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ref.get()
			if err != nil {
				return err
			}
			email, err := requireEmail(cmd)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			name, _ := f.GetString("name")
			symbol, _ := f.GetString("symbol")
			company, _ := f.GetString("company")
			cond, _ := f.GetString("condition")
			threshold, _ := f.GetFloat64("threshold")
			freq, err := parseFrequencyFlag(cmd)
			if err != nil {
				return err
			}
			created, err := app.Alerts.Create(cmd.Context(), email, alertApp.CreateInput{
				AlertName: name,
				Symbol:    symbol,
				Company:   company,
				AlertType: alertDomain.TypePrice,
				Condition: alertDomain.Condition(cond),
				Threshold: threshold,
				Frequency: freq,
			})
			if err != nil {
				return err
			}
			return printAlerts(cmd, []alertDomain.Alert{created})
		},
	}
	f := c.Flags()
	f.String("name", "", "alert name")
	f.String("symbol", "", "ticker symbol")
	f.String("company", "", "company name")
	f.String("condition", string(alertDomain.ConditionGreater), "greater or less")
	f.Float64("threshold", 0, "target price")
	f.String("frequency", string(alertDomain.FrequencyDay), "day, week or month")
	return c
}

func newAlertListCmd(ref *appRef) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List a user's alerts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ref.get()
			if err != nil {
				return err
			}
			email, err := requireEmail(cmd)
			if err != nil {
				return err
			}
			list, err := app.Alerts.List(cmd.Context(), email)
			if err != nil {
				return err
			}
			return printAlerts(cmd, list)
		},
	}
}

func newAlertUpdateCmd(ref *appRef) *cobra.Command {
	c := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ref.get()
			if err != nil {
				return err
			}
			email, err := requireEmail(cmd)
			if err != nil {
				return err
			}
			patch, err := patchFromFlags(cmd)
			if err != nil {
				return err
			}
			updated, err := app.Alerts.Update(cmd.Context(), email, args[0], patch)
			if err != nil {
				return err
			}
			return printAlerts(cmd, []alertDomain.Alert{updated})
		},
	}
	f := c.Flags()
	f.String("name", "", "alert name")
	f.String("symbol", "", "ticker symbol")
	f.String("company", "", "company name")
	f.String("condition", "", "greater or less")
	f.Float64("threshold", 0, "target price")
	f.String("frequency", "", "day, week or month")
	return c
}

func newAlertDeleteCmd(ref *appRef) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ref.get()
			if err != nil {
				return err
			}
			email, err := requireEmail(cmd)
			if err != nil {
				return err
			}
			if err := app.Alerts.Delete(cmd.Context(), email, args[0]); err != nil {
				return err
			}
			NewOutput(cmd).Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

// patchFromFlags 只帶入有指定的旗標。
func patchFromFlags(cmd *cobra.Command) (alertDomain.Patch, error) {
	var p alertDomain.Patch
	f := cmd.Flags()
	if f.Changed("name") {
		v, _ := f.GetString("name")
		p.AlertName = &v
	}
	if f.Changed("symbol") {
		v, _ := f.GetString("symbol")
		p.Symbol = &v
	}
	if f.Changed("company") {
		v, _ := f.GetString("company")
		p.Company = &v
	}
	if f.Changed("condition") {
		v, _ := f.GetString("condition")
		c := alertDomain.Condition(v)
		p.Condition = &c
	}
	if f.Changed("threshold") {
		v, _ := f.GetFloat64("threshold")
		p.Threshold = &v
	}
	if f.Changed("frequency") {
		freq, err := parseFrequencyFlag(cmd)
		if err != nil {
			return p, err
		}
		p.Frequency = &freq
	}
	if p.Empty() {
		return p, fmt.Errorf("nothing to update")
	}
	return p, nil
}

func parseFrequencyFlag(cmd *cobra.Command) (alertDomain.Frequency, error) {
	v, _ := cmd.Flags().GetString("frequency")
	return alertDomain.ParseFrequency(v)
}

func printAlerts(cmd *cobra.Command, list []alertDomain.Alert) error {
	out := NewOutput(cmd)
	if out.IsJSON() {
		return out.JSON(list)
	}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		last := "-"
		if a.LastTriggeredAt != nil {
			last = a.LastTriggeredAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			a.ID, a.AlertName, a.Symbol, strings.ToUpper(string(a.Condition)),
			alertDomain.FormatPrice(a.Threshold), string(a.Frequency), last,
		})
	}
	return out.Table([]string{"ID", "NAME", "SYMBOL", "CONDITION", "TARGET", "FREQUENCY", "LAST TRIGGERED"}, rows)
}
