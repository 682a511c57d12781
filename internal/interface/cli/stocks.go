package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newStocksCmd(ref *appRef) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stocks",
		Short: "Search stocks and read market news",
	}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search common stocks; --email marks watchlist entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ref.get()
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			stocks, err := app.Market.Search(cmd.Context(), email, args[0])
			if err != nil {
				return err
			}
			out := NewOutput(cmd)
			if out.IsJSON() {
				return out.JSON(stocks)
			}
			rows := make([][]string, 0, len(stocks))
			for _, s := range stocks {
				rows = append(rows, []string{s.Symbol, s.Name, s.Type, strconv.FormatBool(s.InWatchlist)})
			}
			return out.Table([]string{"SYMBOL", "NAME", "TYPE", "IN WATCHLIST"}, rows)
		},
	}
	search.Flags().String("email", "", "user email")

	news := &cobra.Command{
		Use:   "news [symbol]...",
		Short: "Show company news for symbols, or general market news",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ref.get()
			if err != nil {
				return err
			}
			articles, err := app.Market.News(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := NewOutput(cmd)
			if out.IsJSON() {
				return out.JSON(articles)
			}
			rows := make([][]string, 0, len(articles))
			for _, a := range articles {
				rows = append(rows, []string{time.Unix(a.Datetime, 0).UTC().Format("2006-01-02 15:04"), a.Source, a.Headline, a.URL})
			}
			return out.Table([]string{"TIME (UTC)", "SOURCE", "HEADLINE", "URL"}, rows)
		},
	}

	cmd.AddCommand(search, news)
	return cmd
}
