package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/interviewd/internal/config"
	"github.com/soyeahso/interviewd/internal/store"
)

func newBookingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "booking",
		Short: "Manage interview bookings",
	}
	cmd.AddCommand(newBookingCreateCmd())
	return cmd
}

func newBookingCreateCmd() *cobra.Command {
	var (
		candidate string
		start     string
		minutes   int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a slot and booking for a candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			startTime := time.Now()
			if start != "" {
				startTime, err = time.Parse(time.RFC3339, start)
				if err != nil {
					return fmt.Errorf("parsing --start: %w", err)
				}
			}

			dbPath := cfg.Store.Path
			if dbPath == "" {
				dbPath = filepath.Join(filepath.Dir(cfgPath), "interviewd.db")
			}
			db, err := store.Open(dbPath, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			bookingID, err := store.NewBookingStore(db).CreateBooking(
				context.Background(), candidate, startTime, minutes)
			if err != nil {
				return err
			}

			fmt.Println(bookingID)
			return nil
		},
	}

	cmd.Flags().StringVar(&candidate, "candidate", "", "candidate name")
	cmd.Flags().StringVar(&start, "start", "", "slot start time, RFC 3339 (default now)")
	cmd.Flags().IntVar(&minutes, "minutes", 45, "slot duration in minutes")

	return cmd
}
