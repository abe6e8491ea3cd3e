package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func cleanCmd() *cobra.Command {
	var olderThan, agent string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete old sessions from the index",
		Long: `Removes indexed sessions older than the given age. The agent's own
transcript files on disk are never touched; a later 'ailog index'
re-imports anything still present.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan == "" {
				return fmt.Errorf("pass --older-than (e.g. --older-than 30d)")
			}
			age, err := parseDuration(olderThan)
			if err != nil {
				return err
			}
			kind, err := parseAgentFlag(agent)
			if err != nil {
				return err
			}

			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			cutoff := time.Now().Add(-age)
			removed, err := s.Clean(cutoff, kind)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Removed %d sessions older than %s.\n", removed, olderThan)
			return nil
		},
	}

	cmd.Flags().StringVar(&olderThan, "older-than", "", "Delete sessions older than this age (e.g. 30d, 4w)")
	cmd.Flags().StringVarP(&agent, "agent", "a", "", "Only clean one agent's sessions")

	return cmd
}
