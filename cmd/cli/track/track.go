// Package track holds the CLI command for complaint lookup by tracking code.
package track

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kishanss4/corrupt-watch/internal/repositories"
	"github.com/kishanss4/corrupt-watch/internal/sqlite"
	"github.com/kishanss4/corrupt-watch/internal/tracking"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "complaints",
	Title: "Complaint operations",
}

func init() {
	Track.Flags().String("sqlite-url", envOrDefault("CORRUPTWATCH_SQLITE_URL", "./corruptwatch.sqlite"), "SQLite URL")
}

func envOrDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

var Track = &cobra.Command{
	Use:     "track [tracking code]",
	GroupID: "complaints",
	Short:   "Look up a complaint by tracking code",
	Long:    "Prints the complaint carrying the given tracking code as JSON",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := args[0]
		if !tracking.Valid(code) {
			return fmt.Errorf("malformed tracking code %q", code)
		}
		dbURL, _ := cmd.Flags().GetString("sqlite-url")

		ctx := context.Background()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		dbs, err := sqlite.NewDatabase(ctx, dbURL, logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() {
			_ = dbs.Close()
		}()

		complaint, err := repositories.NewComplaintRepository(dbs, logger).GetByTrackingCode(ctx, code)
		if err != nil {
			return fmt.Errorf("look up complaint: %w", err)
		}
		out, err := json.MarshalIndent(complaint, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal complaint: %w", err)
		}
		cmd.Println(string(out))
		return nil
	},
}
