package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ailog-cli/ailog/internal/adapter"
	"github.com/ailog-cli/ailog/internal/store"
)

func resumeCmd() *cobra.Command {
	var last bool
	var agent string

	cmd := &cobra.Command{
		Use:   "resume [session-id]",
		Short: "Print the command to resume a session in its agent",
		Args:  cobra.MaximumNArgs(1),
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

			var sess *store.SessionRow
			switch {
			case len(args) == 1:
				sess, err = s.Get(args[0])
				if err != nil {
					return err
				}
				if sess == nil {
					return fmt.Errorf("session not found: %s", args[0])
				}
			case last:
				sessions, err := s.List(store.Filter{Agent: kind, Limit: 1})
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					return fmt.Errorf("no sessions indexed")
				}
				sess = &sessions[0]
			default:
				return fmt.Errorf("pass a session id or --last")
			}

			a, err := adapter.For(sess.Agent, cfg.DataDirs())
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Resuming %s session in %s\n", sess.Agent.DisplayName(), sess.ProjectPath)
			fmt.Println(a.ResumeHint(sess.ID, sess.ProjectPath))
			return nil
		},
	}

	cmd.Flags().BoolVar(&last, "last", false, "Resume the most recent session")
	cmd.Flags().StringVarP(&agent, "agent", "a", "", "Filter by agent when using --last")

	return cmd
}
