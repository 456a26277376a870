package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Command is a goose operation exposed by cmd/migrate.
type Command string

const (
	CommandUp      Command = "up"
	CommandDown    Command = "down"
	CommandStatus  Command = "status"
	CommandVersion Command = "version"
)

// Apply runs cmd against db using the migrations in fsys. CommandVersion
// moves the schema up or down to target.
func Apply(ctx context.Context, db *sql.DB, fsys fs.FS, cmd Command, target int64, logg *logger.Logger) error {
	if db == nil {
		return errors.New("db is required")
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	var results []*goose.MigrationResult
	switch cmd {
	case CommandUp:
		results, err = provider.Up(ctx)
	case CommandDown:
		var res *goose.MigrationResult
		if res, err = provider.Down(ctx); res != nil {
			results = append(results, res)
		}
	case CommandStatus:
		return logStatus(ctx, provider, logg)
	case CommandVersion:
		results, err = moveTo(ctx, provider, target)
	default:
		return fmt.Errorf("unknown migrate command %q", cmd)
	}
	logResults(ctx, logg, results)
	if err != nil {
		return fmt.Errorf("goose %s: %w", cmd, err)
	}
	return nil
}

func moveTo(ctx context.Context, provider *goose.Provider, target int64) ([]*goose.MigrationResult, error) {
	if target <= 0 {
		return nil, errors.New("target version must be positive")
	}
	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("read db version: %w", err)
	}
	switch {
	case current < target:
		return provider.UpTo(ctx, target)
	case current > target:
		return provider.DownTo(ctx, target)
	}
	return nil, nil
}

func logResults(ctx context.Context, logg *logger.Logger, results []*goose.MigrationResult) {
	if logg == nil {
		return
	}
	for _, res := range results {
		fields := map[string]any{
			"version":     res.Source.Version,
			"file":        res.Source.Path,
			"direction":   res.Direction,
			"duration_ms": res.Duration.Milliseconds(),
		}
		if res.Error != nil {
			logg.Error(logg.WithFields(ctx, fields), "migration failed", res.Error)
			continue
		}
		logg.Info(logg.WithFields(ctx, fields), "migration applied")
	}
}

func logStatus(ctx context.Context, provider *goose.Provider, logg *logger.Logger) error {
	statuses, err := provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("goose status: %w", err)
	}
	if logg == nil {
		return nil
	}
	for _, st := range statuses {
		fields := map[string]any{
			"version": st.Source.Version,
			"file":    st.Source.Path,
			"state":   st.State,
		}
		if !st.AppliedAt.IsZero() {
			fields["applied_at"] = st.AppliedAt
		}
		logg.Info(logg.WithFields(ctx, fields), "migration status")
	}
	return nil
}
