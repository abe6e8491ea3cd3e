package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func tagCmd() *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "tag <session-id> [tags...]",
		Short: "Show, add, or remove session tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			id := args[0]
			tags := args[1:]

			existing, err := s.Tags(id)
			if err != nil {
				return err
			}

			if len(tags) == 0 {
				if len(existing) == 0 {
					fmt.Println(styleDim.Render("No tags."))
					return nil
				}
				fmt.Println(styleTag.Render("#" + strings.Join(existing, " #")))
				return nil
			}

			var next []string
			if remove {
				drop := make(map[string]bool, len(tags))
				for _, t := range tags {
					drop[normalizeTag(t)] = true
				}
				for _, t := range existing {
					if !drop[t] {
						next = append(next, t)
					}
				}
			} else {
				seen := make(map[string]bool, len(existing))
				for _, t := range existing {
					seen[t] = true
					next = append(next, t)
				}
				for _, t := range tags {
					t = normalizeTag(t)
					if t != "" && !seen[t] {
						seen[t] = true
						next = append(next, t)
					}
				}
			}

			if err := s.SetTags(id, next); err != nil {
				return err
			}
			if len(next) == 0 {
				fmt.Println(styleDim.Render("No tags."))
				return nil
			}
			fmt.Println(styleTag.Render("#" + strings.Join(next, " #")))
			return nil
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the given tags instead of adding")

	return cmd
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
}
