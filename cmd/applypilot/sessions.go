package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List past application sessions from the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := openAudit(loadedConfig)
		if err != nil {
			return err
		}
		defer rec.Close()

		rows, err := rec.List(sessionsLimit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(rows) == 0 {
			fmt.Println("No recorded sessions.")
			return nil
		}

		for _, r := range rows {
			fmt.Printf("%s  %-9s %-10s %s — %s",
				r.StartedAt.Format(time.DateTime), r.Status, r.Platform, r.JobTitle, r.Company)
			if r.Error != "" {
				fmt.Printf("  (%s)", r.Error)
			}
			fmt.Printf("\n    record: %s\n", rec.RecordPath(r.ID))
		}
		return nil
	},
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "maximum sessions to list")
}
