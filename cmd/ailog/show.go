package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ailog-cli/ailog/internal/model"
	"github.com/ailog-cli/ailog/internal/store"
)

func showCmd() *cobra.Command {
	var filesOnly bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's full conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			id := args[0]
			sess, err := s.Get(id)
			if err != nil {
				return err
			}
			if sess == nil {
				return fmt.Errorf("session not found: %s", id)
			}

			fmt.Println(styleHeader.Render(fmt.Sprintf("Session %s", sess.ID)))
			fmt.Printf("  Agent:   %s\n", agentCell(sess.Agent, 12))
			if sess.ProjectPath != "" {
				fmt.Printf("  Project: %s\n", sess.ProjectPath)
			}
			fmt.Printf("  Date:    %s ~ %s\n", formatTime(sess.StartedAt), formatTime(sess.EndedAt))
			if sess.Summary != "" {
				fmt.Printf("  Request: %s\n", sess.Summary)
			}
			if sess.WorkSummary != "" {
				fmt.Printf("  Work:    %s\n", sess.WorkSummary)
			}
			if sess.LLMSummary != "" {
				fmt.Printf("  Notes:   %s\n", sess.LLMSummary)
			}
			if len(sess.Tags) > 0 {
				fmt.Printf("  Tags:    %s\n", styleTag.Render("#"+strings.Join(sess.Tags, " #")))
			}
			fmt.Println()

			if filesOnly {
				return printChangedFiles(s, id)
			}

			messages, err := s.Messages(id)
			if err != nil {
				return err
			}
			for _, m := range messages {
				label := "AI"
				if m.Role == model.RoleUser {
					label = "You"
				} else if m.Role == model.RoleTool {
					continue
				}
				ts := ""
				if m.Timestamp != nil {
					ts = " " + styleDim.Render(m.Timestamp.Local().Format("15:04"))
				}
				fmt.Printf("%s%s\n%s\n\n", styleHeader.Render(label), ts, m.Content)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&filesOnly, "files", false, "Show only changed files")

	return cmd
}

func printChangedFiles(s *store.Store, id string) error {
	toolCalls, err := s.ToolCalls(id)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	count := 0
	for _, tc := range toolCalls {
		if tc.FilePath == "" || seen[tc.FilePath] {
			continue
		}
		seen[tc.FilePath] = true
		count++
		switch tc.ToolName {
		case "Write", "create_file":
			fmt.Printf("%s %s\n", styleCreated.Render("+"), tc.FilePath)
		case "delete_file":
			fmt.Printf("%s %s\n", styleDeleted.Render("-"), tc.FilePath)
		default:
			fmt.Printf("~ %s\n", tc.FilePath)
		}
	}
	if count == 0 {
		fmt.Println(styleDim.Render("No file changes recorded."))
	}
	return nil
}
