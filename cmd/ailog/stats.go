package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ailog-cli/ailog/internal/model"
)

func statsCmd() *cobra.Command {
	var project, last string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate activity statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := sinceFilter(last)
			if err != nil {
				return err
			}

			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.Stats(from, nil, project)
			if err != nil {
				return err
			}

			fmt.Println(styleHeader.Render("Sessions"))
			fmt.Printf("  Total: %d\n", stats.TotalSessions)
			for _, row := range stats.SessionsByAgent {
				fmt.Printf("  %s %d\n", pad(model.AgentKind(row.Key).DisplayName(), 12), row.Count)
			}

			if len(stats.SessionsByProject) > 0 {
				fmt.Println(styleHeader.Render("\nProjects"))
				for _, row := range stats.SessionsByProject {
					fmt.Printf("  %s %d\n", pad(row.Key, 24), row.Count)
				}
			}

			fmt.Println(styleHeader.Render("\nFiles"))
			fmt.Printf("  %s %d\n", pad("created", 10), stats.FilesCreated)
			fmt.Printf("  %s %d\n", pad("modified", 10), stats.FilesModified)
			fmt.Printf("  %s %d\n", pad("deleted", 10), stats.FilesDeleted)

			if len(stats.TopFiles) > 0 {
				fmt.Println(styleHeader.Render("\nMost touched files"))
				for _, row := range stats.TopFiles {
					fmt.Printf("  %s %d\n", pad(row.Key, 40), row.Count)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Filter by project path")
	cmd.Flags().StringVar(&last, "last", "", "Only sessions from the last period (e.g. 30d)")

	return cmd
}
