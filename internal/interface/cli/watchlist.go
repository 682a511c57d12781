package cli

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newWatchlistCmd(ref *appRef) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage a user's watchlist",
	}
	cmd.PersistentFlags().String("email", "", "user email")

	add := &cobra.Command{
		Use:   "add <symbol>",
		Short: "Add a symbol to the watchlist",
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
			company, _ := cmd.Flags().GetString("company")
			item, err := app.Watchlist.Add(cmd.Context(), email, args[0], company)
			if err != nil {
				return err
			}
			NewOutput(cmd).Printf("added %s\n", item.Symbol)
			return nil
		},
	}
	add.Flags().String("company", "", "company name")

	remove := &cobra.Command{
		Use:   "remove <symbol>",
		Short: "Remove a symbol from the watchlist",
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
			removed, err := app.Watchlist.Remove(cmd.Context(), email, args[0])
			if err != nil {
				return err
			}
			out := NewOutput(cmd)
			if removed {
				out.Printf("removed %s\n", args[0])
			} else {
				out.Printf("%s was not in the watchlist\n", args[0])
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List watchlist items with price, change, market cap and P/E",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ref.get()
			if err != nil {
				return err
			}
			email, err := requireEmail(cmd)
			if err != nil {
				return err
			}
			items, err := app.Watchlist.WithData(cmd.Context(), email)
			if err != nil {
				return err
			}
			out := NewOutput(cmd)
			if out.IsJSON() {
				return out.JSON(items)
			}
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				rows = append(rows, []string{it.Symbol, it.Company, it.PriceFormatted, it.ChangeFormatted, it.MarketCap, it.PERatio})
			}
			return out.Table([]string{"SYMBOL", "COMPANY", "PRICE", "CHANGE", "MARKET CAP", "P/E"}, rows)
		},
	}

	status := &cobra.Command{
		Use:   "status <symbol>...",
		Short: "Show whether each symbol is in the watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ref.get()
			if err != nil {
				return err
			}
			email, err := requireEmail(cmd)
			if err != nil {
				return err
			}
			st, err := app.Watchlist.Status(cmd.Context(), email, args)
			if err != nil {
				return err
			}
			out := NewOutput(cmd)
			if out.IsJSON() {
				return out.JSON(st)
			}
			symbols := make([]string, 0, len(st))
			for s := range st {
				symbols = append(symbols, s)
			}
			sort.Strings(symbols)
			rows := make([][]string, 0, len(symbols))
			for _, s := range symbols {
				rows = append(rows, []string{s, strconv.FormatBool(st[s])})
			}
			return out.Table([]string{"SYMBOL", "IN WATCHLIST"}, rows)
		},
	}

	cmd.AddCommand(add, remove, list, status)
	return cmd
}
