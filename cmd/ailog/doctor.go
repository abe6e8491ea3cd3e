package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ailog-cli/ailog/internal/adapter"
	"github.com/ailog-cli/ailog/internal/config"
	"github.com/ailog-cli/ailog/internal/store"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify agent directories, DB, and FTS",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Agents ===")
			for _, a := range adapter.All(cfg.DataDirs()) {
				status := "NOT FOUND"
				if a.Installed() {
					status = "OK"
				}
				fmt.Printf("  %-12s %s (%s)\n", a.Kind().DisplayName(), a.DataDir(), status)
			}

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'ailog index' first)")
				return nil
			}

			s, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer s.Close()

			sessionCount, err := s.SessionCount()
			if err != nil {
				return fmt.Errorf("count sessions: %w", err)
			}
			fmt.Printf("  Sessions: %d\n", sessionCount)

			fmt.Println("\n=== FTS ===")
			var ftsCount int64
			err = s.Raw().QueryRow("SELECT COUNT(*) FROM sessions_fts").Scan(&ftsCount)
			if err != nil {
				fmt.Printf("  FTS error: %v\n", err)
			} else {
				fmt.Printf("  FTS entries: %d\n", ftsCount)
				if ftsCount == sessionCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (sessions=%d, fts=%d)\n", sessionCount, ftsCount)
				}
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}
			return nil
		},
	}
}
