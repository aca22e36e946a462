package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/songshare/internal/formatter"
	"github.com/desertthunder/songshare/internal/relay"
	"github.com/desertthunder/songshare/internal/services"
	"github.com/desertthunder/songshare/internal/shared"
	"github.com/urfave/cli/v3"
)

// Catalog prints the metadata for a track id or share link, and with --full the matched video.
func (r *Runner) Catalog(ctx context.Context, cmd *cli.Command) error {
	arg := strings.TrimSpace(cmd.StringArg("track"))
	if arg == "" {
		return fmt.Errorf("%w: track id or link", shared.ErrMissingArgument)
	}

	trackID := arg
	if id, ok := relay.ExtractTrackID(arg); ok {
		trackID = id
	}

	catalog, err := r.catalogService()
	if err != nil {
		return err
	}

	r.logger.Debug("looking up track", "track_id", trackID, "service", catalog.Name())

	track, err := catalog.GetTrack(ctx, trackID)
	if err != nil {
		return fmt.Errorf("failed to look up track %s: %w", trackID, err)
	}

	if spotify, ok := catalog.(*services.SpotifyService); ok {
		r.logger.Debug("catalog token cached", "expires_at", spotify.Credentials().ExpiresAt())
	}

	if !cmd.Bool("full") {
		if cmd.Bool("json") {
			return r.writeJSON(track, cmd.Bool("pretty"))
		}
		r.writePlainHeader(track.ID)
		return r.writeBytes(formatter.TrackToText(track))
	}

	search, err := r.searchService()
	if err != nil {
		return err
	}

	video, err := search.Search(ctx, track.Artist, track.Title)
	if err != nil {
		return fmt.Errorf("failed to find a video for %s: %w", trackID, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(relay.Resolution{Track: track, Video: video}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(track.ID)
	if err := r.writeBytes(formatter.TrackToText(track)); err != nil {
		return err
	}
	return r.writeBytes(formatter.VideoToText(video))
}

// Search prints the top video for an artist and title.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	artist := strings.TrimSpace(cmd.StringArg("artist"))
	title := strings.TrimSpace(cmd.StringArg("title"))
	if artist == "" || title == "" {
		return fmt.Errorf("%w: artist and title", shared.ErrMissingArgument)
	}

	search, err := r.searchService()
	if err != nil {
		return err
	}

	video, err := search.Search(ctx, artist, title)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(video, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.VideoToText(video))
}

// Send delivers a message to --to, or to the configured recipient when --to is omitted.
func (r *Runner) Send(ctx context.Context, cmd *cli.Command) error {
	body := cmd.String("body")
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: --body", shared.ErrMissingArgument)
	}

	to := shared.CleanPhoneNumber(cmd.String("to"))
	if to == "" {
		config, err := r.loadConfig()
		if err != nil {
			return err
		}
		to = config.Relay.Recipient
	}
	if to == "" {
		return fmt.Errorf("%w: --to or relay.recipient", shared.ErrMissingArgument)
	}

	messenger, err := r.messengerService()
	if err != nil {
		return err
	}

	sid, err := messenger.Send(ctx, to, body)
	if err != nil {
		return err
	}

	r.logger.Info("message sent", "to", shared.MaskPhoneNumber(to), "sid", sid)
	return r.writePlain("%s %s\n", styles.ok.Render("✓ Sent"), sid)
}

// Extract prints the track id referenced by the given text.
func (r *Runner) Extract(ctx context.Context, cmd *cli.Command) error {
	text := cmd.StringArg("text")

	trackID, ok := relay.ExtractTrackID(text)
	if !ok {
		r.writePlain("%s\n", styles.help.Render("Send a link like https://open.spotify.com/track/<id> or spotify:track:<id>"))
		return fmt.Errorf("%w: no track link found", shared.ErrInvalidArgument)
	}

	return r.writePlain("%s\n", trackID)
}
