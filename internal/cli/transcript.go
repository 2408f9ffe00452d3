package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/soyeahso/interviewd/internal/config"
	"github.com/soyeahso/interviewd/internal/store"
)

func newTranscriptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcript <session-id>",
		Short: "Print the stored transcript of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
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

			turns, err := store.NewSQLiteTranscriptStore(db).ReadTurns(context.Background(), args[0])
			if err != nil {
				return err
			}
			if len(turns) == 0 {
				fmt.Println("no turns recorded for session", args[0])
				return nil
			}

			for _, turn := range turns {
				fmt.Printf("%3d  %s  [%-5s]  %s\n",
					turn.Index, turn.Timestamp.Format("15:04:05"), turn.Role, turn.Content)
			}
			return nil
		},
	}
}
