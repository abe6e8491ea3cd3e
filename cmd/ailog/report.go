package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ailog-cli/ailog/internal/report"
)

func reportCmd() *cobra.Command {
	var opts report.PeriodOptions
	var project, output, format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a periodic work report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := report.ResolvePeriod(opts, time.Now())
			if err != nil {
				return err
			}

			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			out, err := report.Generate(s, period, project, report.ParseFormat(format))
			if err != nil {
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Report written to %s\n", output)
				return nil
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Day, "day", false, "Daily report")
	cmd.Flags().StringVar(&opts.Date, "date", "", "Specific date for daily report (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.Week, "week", false, "Weekly report (default)")
	cmd.Flags().BoolVar(&opts.Month, "month", false, "Monthly report")
	cmd.Flags().StringVar(&opts.Quarter, "quarter", "", "Quarterly report (Q1..Q4)")
	cmd.Flags().StringVar(&opts.From, "from", "", "Custom range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.To, "to", "", "Custom range end (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Filter by project")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file")
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format (markdown/slack/json)")

	return cmd
}
