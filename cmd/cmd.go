// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the webhook server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the SMS webhook server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port and PORT)",
			},
		},
		Action: r.Serve,
	}
}

// catalogCommand looks up track metadata without sending anything
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"spotify"},
		Usage:   "Look up a track by id or share link",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "track",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "full",
				Usage: "Also search for the matching video",
			},
		},
		Action: r.Catalog,
	}
}

// searchCommand runs a video search
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search for the top video matching an artist and title",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "artist",
			},
			&cli.StringArg{
				Name: "title",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Search,
	}
}

// sendCommand delivers a text message through the messaging provider
func sendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Send a text message",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "to",
				Usage: "Destination phone number (defaults to relay.recipient)",
			},
			&cli.StringFlag{
				Name:     "body",
				Aliases:  []string{"b"},
				Usage:    "Message text",
				Required: true,
			},
		},
		Action: r.Send,
	}
}

// extractCommand prints the track id found in a message
func extractCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Extract the track id from message text",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "text",
			},
		},
		Action: r.Extract,
	}
}

// setupCommand writes the config file and prepares the cache database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and run cache migrations",
		Action: r.Setup,
	}
}

// cacheCommand manages the optional resolution cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the resolution cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached resolutions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, csv or json",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only show resolutions for this artist",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of resolutions to show",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cached resolution",
				Action: r.CacheClear,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent cache migration",
				Action: r.CacheRollback,
			},
		},
	}
}
