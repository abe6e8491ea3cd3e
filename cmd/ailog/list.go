package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ailog-cli/ailog/internal/store"
)

func listCmd() *cobra.Command {
	var agent, project, last, query string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			kind, err := parseAgentFlag(agent)
			if err != nil {
				return err
			}
			from, err := sinceFilter(last)
			if err != nil {
				return err
			}

			sessions, err := s.List(store.Filter{
				Agent:   kind,
				Project: project,
				From:    from,
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			if query != "" {
				sessions = filterByQuery(sessions, query)
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(sessionsJSON(sessions))
			}

			if len(sessions) == 0 {
				fmt.Fprintln(os.Stderr, "No sessions found. Run 'ailog index' first.")
				return nil
			}

			printSessionTable(sessions)
			return nil
		},
	}

	cmd.Flags().StringVarP(&agent, "agent", "a", "", "Filter by agent (claude-code/codex/cursor)")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Filter by project path")
	cmd.Flags().StringVar(&last, "last", "", "Only sessions from the last period (e.g. 7d, 2w, 1m)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by summary or project name substring")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = default)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func filterByQuery(sessions []store.SessionRow, query string) []store.SessionRow {
	q := strings.ToLower(query)
	var out []store.SessionRow
	for _, sess := range sessions {
		hay := strings.ToLower(sess.Summary + " " + sess.WorkSummary + " " + sess.ProjectName)
		if strings.Contains(hay, q) {
			out = append(out, sess)
		}
	}
	return out
}

func printSessionTable(sessions []store.SessionRow) {
	header := fmt.Sprintf("%s %s %s %s %s %s",
		pad("ID", 10),
		pad("AGENT", 12),
		pad("DATE", 16),
		pad("PROJECT", 20),
		pad("MSGS", 5),
		"SUMMARY")
	fmt.Println(styleHeader.Render(header))

	for _, sess := range sessions {
		tags := ""
		if len(sess.Tags) > 0 {
			tags = " " + styleTag.Render("#"+strings.Join(sess.Tags, " #"))
		}
		fmt.Printf("%s %s %s %s %s %s%s\n",
			pad(sess.ID, 10),
			agentCell(sess.Agent, 12),
			pad(formatTime(sess.StartedAt), 16),
			pad(sess.ProjectName, 20),
			pad(fmt.Sprintf("%d", sess.MessageCount), 5),
			pad(sess.Summary, 50),
			tags)
	}
	fmt.Println(styleDim.Render(fmt.Sprintf("\n%d sessions", len(sessions))))
}

type sessionJSON struct {
	ID            string   `json:"id"`
	Agent         string   `json:"agent"`
	ProjectPath   string   `json:"project_path,omitempty"`
	ProjectName   string   `json:"project_name,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	WorkSummary   string   `json:"work_summary,omitempty"`
	StartedAt     string   `json:"started_at,omitempty"`
	EndedAt       string   `json:"ended_at,omitempty"`
	MessageCount  int64    `json:"message_count"`
	FilesCreated  int64    `json:"files_created"`
	FilesModified int64    `json:"files_modified"`
	FilesDeleted  int64    `json:"files_deleted"`
	Tags          []string `json:"tags,omitempty"`
}

func sessionsJSON(sessions []store.SessionRow) []sessionJSON {
	out := make([]sessionJSON, 0, len(sessions))
	for _, sess := range sessions {
		j := sessionJSON{
			ID:            sess.ID,
			Agent:         string(sess.Agent),
			ProjectPath:   sess.ProjectPath,
			ProjectName:   sess.ProjectName,
			Summary:       sess.Summary,
			WorkSummary:   sess.WorkSummary,
			MessageCount:  sess.MessageCount,
			FilesCreated:  sess.FilesCreated,
			FilesModified: sess.FilesModified,
			FilesDeleted:  sess.FilesDeleted,
			Tags:          sess.Tags,
		}
		if sess.StartedAt != nil {
			j.StartedAt = sess.StartedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		if sess.EndedAt != nil {
			j.EndedAt = sess.EndedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		out = append(out, j)
	}
	return out
}
