package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear past sessions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List past sessions, newest first",
		RunE:  runHistoryList,
	}
	listCmd.Flags().IntP("limit", "l", 0, "Max sessions to show (0 = all)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored session",
		RunE:  runHistoryClear,
	}

	historyCmd.AddCommand(listCmd, clearCmd)
	RootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	app, err := buildApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	records := app.Supervisor.History(cmd.Context())
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	out := cmd.OutOrStdout()
	if formatFlag != "text" {
		return printJSON(out, records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "no sessions yet")
		return nil
	}
	for _, r := range records {
		score := "-"
		if r.Analysis != nil {
			score = fmt.Sprintf("%d/10", r.Analysis.OverallScore)
		}
		fmt.Fprintf(out, "#%d  %-14s  %-9s  %5s  %s words  %.0f wpm  score %s\n",
			r.ID,
			humanize.RelTime(r.CreatedAt(), time.Now(), "ago", "from now"),
			r.Scenario,
			formatSeconds(r.Duration),
			humanize.Comma(int64(r.Metrics.WordCount)),
			r.Metrics.WPM,
			score,
		)
		fmt.Fprintf(out, "    %s\n", preview(r.Transcript, 72))
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := buildApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Supervisor.ClearHistory(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
	return nil
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
