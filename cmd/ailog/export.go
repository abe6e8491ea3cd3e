package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ailog-cli/ailog/internal/export"
)

func exportCmd() *cobra.Command {
	var detail string

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session as a markdown context block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			out, err := export.Context(s, args[0], export.ParseDetailLevel(detail))
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&detail, "detail", "summary", "Detail level (full/summary/minimal)")

	return cmd
}

func injectCmd() *cobra.Command {
	var auto bool

	cmd := &cobra.Command{
		Use:   "inject [session-id]",
		Short: "Inject session context into the project's CLAUDE.md",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			switch {
			case auto:
				id, err := export.AutoInject(s, cwd)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Injected context from session %s into CLAUDE.md\n", id)
				return nil
			case len(args) == 1:
				if err := export.Inject(s, args[0], cwd); err != nil {
					return err
				}
				fmt.Fprintln(os.Stderr, "Injected context into CLAUDE.md")
				return nil
			default:
				return fmt.Errorf("pass a session id or --auto")
			}
		},
	}

	cmd.Flags().BoolVar(&auto, "auto", false, "Inject the latest session for the current project")

	return cmd
}
