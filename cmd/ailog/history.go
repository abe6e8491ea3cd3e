package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ailog-cli/ailog/internal/store"
)

func historyCmd() *cobra.Command {
	var keyword, agent, project, last, file string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Search conversation history",
		Long: `Full-text search over indexed message content, or find sessions
that touched a given file path with --file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyword == "" && file == "" {
				return fmt.Errorf("nothing to search: pass --keyword or --file")
			}

			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if file != "" {
				sessions, err := s.SearchByFile(file, limit)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Fprintf(os.Stderr, "No sessions touched %q.\n", file)
					return nil
				}
				printSessionTable(sessions)
				return nil
			}

			kind, err := parseAgentFlag(agent)
			if err != nil {
				return err
			}
			from, err := sinceFilter(last)
			if err != nil {
				return err
			}

			hits, err := s.Search(keyword, store.Filter{
				Agent:   kind,
				Project: project,
				From:    from,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			if len(hits) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, hit := range hits {
				fmt.Printf("%s %s %s %s\n",
					pad(hit.SessionID, 10),
					agentCell(hit.Agent, 12),
					pad(formatTime(hit.StartedAt), 16),
					pad(hit.ProjectName, 20))
				fmt.Printf("  %s %s\n\n",
					styleDim.Render("["+string(hit.Role)+"]"),
					snippet(hit.Content, keyword))
			}
			fmt.Println(styleDim.Render(fmt.Sprintf("%d matches", len(hits))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Keyword search (FTS)")
	cmd.Flags().StringVarP(&agent, "agent", "a", "", "Filter by agent")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Filter by project path")
	cmd.Flags().StringVar(&last, "last", "", "Only sessions from the last period (e.g. 7d)")
	cmd.Flags().StringVar(&file, "file", "", "Find sessions that touched a file path")
	cmd.Flags().IntVar(&limit, "limit", 50, "Max results")

	return cmd
}

// snippet pulls a window of text around the first keyword occurrence.
func snippet(content, keyword string) string {
	const window = 160

	flat := strings.Join(strings.Fields(content), " ")
	lower := strings.ToLower(flat)
	idx := strings.Index(lower, strings.ToLower(keyword))
	if idx < 0 {
		idx = 0
	}

	runes := []rune(flat)
	// byte index to rune index
	start := len([]rune(flat[:idx]))
	from := start - window/4
	if from < 0 {
		from = 0
	}
	to := from + window
	if to > len(runes) {
		to = len(runes)
	}

	out := string(runes[from:to])
	if from > 0 {
		out = "…" + out
	}
	if to < len(runes) {
		out += "…"
	}
	return out
}
