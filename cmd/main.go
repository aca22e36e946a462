package main

import (
	"context"
	"io"
	"os"

	"github.com/desertthunder/songshare/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	runner := NewRunner(RunnerOpts{
		ConfigPath: "config.toml",
		EnvFile:    ".env",
	})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		runner.logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the root command. Global flags are applied before any subcommand runs.
func newApp(r *Runner) *cli.Command {
	var logCloser io.Closer

	return &cli.Command{
		Name:    "songshare",
		Usage:   "Forward Spotify links as YouTube videos over SMS",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to a .env file loaded into the environment",
				Value: ".env",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.IsSet("config") || r.configPath == "" {
				r.configPath = cmd.String("config")
			}
			if cmd.IsSet("env") || r.envFile == "" {
				r.envFile = cmd.String("env")
			}

			if !r.defaultLogger {
				return ctx, nil
			}

			config, err := r.loadConfig()
			if err != nil {
				return ctx, err
			}
			logger, closer, err := shared.NewConfiguredLogger(config.Log)
			if err != nil {
				return ctx, err
			}
			r.logger, logCloser = logger, closer
			return ctx, nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
		Commands: r.register(),
	}
}
