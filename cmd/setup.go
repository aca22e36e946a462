package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/songshare/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the embedded template when it does not exist,
// then migrates the cache database if one is configured.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if r.configPath == "" {
		return fmt.Errorf("%w: config path", shared.ErrMissingArgument)
	}

	if _, err := os.Stat(r.configPath); err == nil {
		r.logger.Info("config file exists", "path", r.configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			return err
		}
		r.writePlain("%s %s\n", styles.ok.Render("✓ Created"), r.configPath)
		// Reload so the new file takes effect.
		r.config = nil
	}

	config, err := r.loadConfig()
	if err != nil {
		return err
	}

	if !config.Database.Enabled() {
		r.writePlain("%s\n", styles.help.Render("Resolution cache disabled (set database.path to enable it)"))
	} else {
		db, err := shared.OpenCache(config.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		r.logger.Info("database migrated", "path", config.Database.Path)
		r.writePlain("%s %s\n", styles.ok.Render("✓ Migrated"), config.Database.Path)
	}

	if err := config.Validate(); err != nil {
		r.writePlain("%s %v\n", styles.warn.Render("!"), err)
		r.writePlainln("Next steps: fill in the missing values in %s or the environment, then run 'songshare serve'", r.configPath)
	}

	return nil
}
