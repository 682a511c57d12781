package cli

import (
	"github.com/spf13/cobra"

	"signalist/internal/application/engagement"
)

func newUsersCmd(ref *appRef) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User engagement helpers",
	}
	visit := &cobra.Command{
		Use:   "visit",
		Short: "Record a visit for the user",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ref.get()
			if err != nil {
				return err
			}
			email, err := requireEmail(cmd)
			if err != nil {
				return err
			}
			if err := app.Visits.Record(cmd.Context(), email); err != nil {
				return err
			}
			NewOutput(cmd).Printf("visit recorded for %s\n", email)
			return nil
		},
	}
	visit.Flags().String("email", "", "user email")
	cmd.AddCommand(visit)
	return cmd
}

func newWelcomeCmd(ref *appRef) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "welcome",
		Short: "Sign-up welcome email",
	}
	send := &cobra.Command{
		Use:   "send",
		Short: "Send the personalised welcome email for a new user",
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
			in := engagement.SignUp{Email: email}
			in.Name, _ = f.GetString("name")
			in.Country, _ = f.GetString("country")
			in.InvestmentGoals, _ = f.GetString("investment-goals")
			in.RiskTolerance, _ = f.GetString("risk-tolerance")
			in.PreferredIndustry, _ = f.GetString("preferred-industry")
			if err := app.Welcome.Send(cmd.Context(), in); err != nil {
				return err
			}
			NewOutput(cmd).Printf("welcome email sent to %s\n", email)
			return nil
		},
	}
	f := send.Flags()
	f.String("email", "", "user email")
	f.String("name", "", "user name")
	f.String("country", "", "country")
	f.String("investment-goals", "", "investment goals")
	f.String("risk-tolerance", "", "risk tolerance")
	f.String("preferred-industry", "", "preferred industry")
	cmd.AddCommand(send)
	return cmd
}
