// Package cmd holds shared construction helpers for the journey binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/journeyhq/journey/pkg/persistence"
	"github.com/journeyhq/journey/pkg/persistence/file"
	"github.com/journeyhq/journey/pkg/persistence/postgresql"
)

// NewPersistence selects the persistence backend by URL scheme:
// postgres://... for PostgreSQL, anything else is treated as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseScheme(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(err)
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parseScheme(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return ""
	}

	return scheme
}
