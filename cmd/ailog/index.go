package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ailog-cli/ailog/internal/indexer"
)

func indexCmd() *cobra.Command {
	var agent string
	var rebuild, verbose bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Scan agent data directories and update the session index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			kind, err := parseAgentFlag(agent)
			if err != nil {
				return err
			}

			ix := indexer.New(s, cfg.DataDirs())
			ix.Verbose = verbose

			fmt.Fprintln(os.Stderr, "Scanning agent data directories...")

			var results []indexer.Result
			switch {
			case kind != "":
				r, err := ix.IndexAgent(kind)
				if err != nil {
					return fmt.Errorf("index: %w", err)
				}
				results = []indexer.Result{r}
			case rebuild:
				results, err = ix.RebuildAll()
				if err != nil {
					return fmt.Errorf("rebuild: %w", err)
				}
			default:
				results, err = ix.IndexAll()
				if err != nil {
					return fmt.Errorf("index: %w", err)
				}
			}

			for _, r := range results {
				fmt.Fprintf(os.Stderr, "  %s\n", r)
			}
			fmt.Fprintln(os.Stderr, "Done.")
			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "Only index one agent (claude-code/codex/cursor)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Clear the index and rebuild from disk")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print each indexed session")

	return cmd
}
