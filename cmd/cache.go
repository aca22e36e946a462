package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/songshare/internal/formatter"
	"github.com/desertthunder/songshare/internal/repositories"
	"github.com/desertthunder/songshare/internal/shared"
	"github.com/urfave/cli/v3"
)

// openCache opens the configured resolution cache or reports that none is configured.
func (r *Runner) openCache() (*sql.DB, error) {
	config, err := r.loadConfig()
	if err != nil {
		return nil, err
	}
	if !config.Database.Enabled() {
		return nil, fmt.Errorf("%w: database.path is not set", shared.ErrMissingConfig)
	}
	return shared.OpenCache(config.Database)
}

// CacheList prints cached resolutions as text, CSV or JSON.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if artist := cmd.String("artist"); artist != "" {
		criteria["artist"] = artist
	}
	if limit := int(cmd.Int("limit")); limit > 0 {
		criteria["limit"] = limit
	}

	resolutions, err := repositories.NewResolutionRepository(db).List(criteria)
	if err != nil {
		return err
	}

	var output []byte
	switch format := cmd.String("format"); format {
	case "text", "":
		output = formatter.ResolutionsToText(resolutions)
	case "csv":
		output, err = formatter.ResolutionsToCSV(resolutions)
	case "json":
		output, err = formatter.ResolutionsToJSON(resolutions)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}

	return r.writeBytes(output)
}

// CacheClear deletes every cached resolution.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := repositories.NewResolutionRepository(db).Clear()
	if err != nil {
		return err
	}

	r.logger.Info("cache cleared", "removed", n)
	return r.writePlain("%s %d cached resolutions\n", styles.ok.Render("✓ Removed"), n)
}

// CacheRollback reverts the most recently applied cache migration.
func (r *Runner) CacheRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}

	return r.writePlain("%s\n", styles.warn.Render("Rolled back the latest migration; the next start re-applies it"))
}
