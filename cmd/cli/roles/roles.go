// Package roles holds CLI commands for role administration. Roles are
// granted out-of-band on purpose: the web API never promotes users.
package roles

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/kishanss4/corrupt-watch/internal/repositories"
	"github.com/kishanss4/corrupt-watch/internal/sqlite"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "roles",
	Title: "Role administration",
}

func init() {
	Grant.Flags().String("user", "", "base64url-encoded user id")
	Grant.Flags().String("role", "", "role to grant: citizen, government or admin")
	Grant.Flags().String("sqlite-url", envOrDefault("CORRUPTWATCH_SQLITE_URL", "./corruptwatch.sqlite"), "SQLite URL")
	_ = Grant.MarkFlagRequired("user")
	_ = Grant.MarkFlagRequired("role")
}

func envOrDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

var Grant = &cobra.Command{
	Use:     "grant",
	GroupID: "roles",
	Short:   "Grant a role to a user",
	Long:    "Grants the given role to the user identified by their base64url-encoded id",
	RunE: func(cmd *cobra.Command, _ []string) error {
		encodedID, _ := cmd.Flags().GetString("user")
		role, _ := cmd.Flags().GetString("role")
		dbURL, _ := cmd.Flags().GetString("sqlite-url")

		userID, err := base64.RawURLEncoding.DecodeString(encodedID)
		if err != nil {
			return fmt.Errorf("decode user id: %w", err)
		}

		ctx := context.Background()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		dbs, err := sqlite.NewDatabase(ctx, dbURL, logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() {
			_ = dbs.Close()
		}()

		users := repositories.NewUserRepository(dbs, logger)
		if err = users.SetRole(ctx, userID, models.Role(role)); err != nil {
			return fmt.Errorf("set role: %w", err)
		}
		cmd.Printf("granted role %s to user %s\n", role, encodedID)
		return nil
	},
}
