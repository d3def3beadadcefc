package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ethurin/tracknest/internal/bot"
	"github.com/ethurin/tracknest/internal/server"
	"github.com/ethurin/tracknest/internal/shared"
	"github.com/ethurin/tracknest/internal/store"
	"github.com/urfave/cli/v3"
)

// Setup writes the example config file so credentials can be filled in.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Infof("wrote example config to %s", path)
	return r.writePlainln("✓ Config written to %s, fill in your Spotify credentials", path)
}

// Link starts the handshake when no payload is given and completes it when
// the pasted redirect URL is supplied. With --browser the redirect is
// captured by a temporary local server instead of being pasted back.
func (r *Runner) Link(ctx context.Context, cmd *cli.Command) error {
	payload := cmd.StringArg("payload")
	if payload == "" && cmd.Bool("browser") {
		return r.linkWithBrowser(ctx, cmd.String("user"))
	}

	reply := r.dispatcher.HandleCommand(ctx, bot.Invocation{
		Name:     "link",
		AuthorID: cmd.String("user"),
		Argument: payload,
	})
	return r.writePlainln("%s", reply)
}

// linkWithBrowser runs the whole handshake in one command: open the
// authorization page, capture the redirect on the configured URI, and
// complete the link with the captured payload.
func (r *Runner) linkWithBrowser(ctx context.Context, userID string) error {
	authURL, err := r.engine.RequestLink(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyLinked) {
			return r.writePlainln("Your account is already linked")
		}
		return err
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		return fmt.Errorf("bad authorization url: %w", err)
	}
	state := parsed.Query().Get("state")

	if err := r.writePlainln("Waiting for authorization at %s", authURL); err != nil {
		return err
	}
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("could not open browser, visit the url manually: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	captured, err := server.CaptureRedirect(waitCtx, r.config.Credentials.Spotify.RedirectURI, state, r.logger)
	if err != nil {
		return fmt.Errorf("authorization was not completed: %w", err)
	}

	reply := r.dispatcher.HandleCommand(ctx, bot.Invocation{
		Name:     "link",
		AuthorID: userID,
		Argument: captured,
	})
	return r.writePlainln("%s", reply)
}

// Unlink removes the user's credential and all of their subscriptions.
func (r *Runner) Unlink(ctx context.Context, cmd *cli.Command) error {
	reply := r.dispatcher.HandleCommand(ctx, bot.Invocation{
		Name:     "unlink",
		AuthorID: cmd.String("user"),
	})
	return r.writePlainln("%s", reply)
}

// Follow subscribes a channel to a playlist owned by the user.
func (r *Runner) Follow(ctx context.Context, cmd *cli.Command) error {
	reply := r.dispatcher.HandleCommand(ctx, bot.Invocation{
		Name:      "follow",
		AuthorID:  cmd.String("user"),
		ChannelID: cmd.String("channel"),
		Argument:  cmd.StringArg("playlist"),
	})
	return r.writePlainln("%s", reply)
}

// Purge drops every subscription owned by the user.
func (r *Runner) Purge(ctx context.Context, cmd *cli.Command) error {
	reply := r.dispatcher.HandleCommand(ctx, bot.Invocation{
		Name:     "purge",
		AuthorID: cmd.String("user"),
	})
	return r.writePlainln("%s", reply)
}

// Info reports the playlist a channel is connected to.
func (r *Runner) Info(ctx context.Context, cmd *cli.Command) error {
	reply := r.dispatcher.HandleCommand(ctx, bot.Invocation{
		Name:      "info",
		ChannelID: cmd.String("channel"),
	})
	return r.writePlainln("%s", reply)
}

// Forward feeds a single message body through the chat pipeline, prefixed
// commands included.
func (r *Runner) Forward(ctx context.Context, cmd *cli.Command) error {
	reply := r.dispatcher.HandleRaw(ctx, r.config.Bot.CommandPrefix, bot.Message{
		ChannelID: cmd.String("channel"),
		AuthorID:  cmd.String("user"),
		Content:   cmd.StringArg("message"),
	})
	if reply == "" {
		return r.writePlainln("Nothing forwarded")
	}
	return r.writePlainln("%s", reply)
}

// History lists recently forwarded tracks.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if r.history == nil {
		return fmt.Errorf("forward history is not configured")
	}

	forwards, err := r.history.Recent(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(forwards, true)
	}

	if len(forwards) == 0 {
		return r.writePlainln("No forwards recorded")
	}
	for _, f := range forwards {
		if err := r.writePlainln("%s  channel=%s playlist=%s track=%s", f.ForwardedAt.Format("2006-01-02 15:04:05"), f.ChannelID, f.PlaylistID, f.TrackID); err != nil {
			return err
		}
	}
	return nil
}

// Inspect summarizes the directory contents.
func (r *Runner) Inspect(ctx context.Context, cmd *cli.Command) error {
	var credentials, subscriptions int
	r.directory.View(func(tx *store.Tx) error {
		credentials, subscriptions = tx.Counts()
		return nil
	})

	return r.writeJSON(map[string]int{
		"credentials":   credentials,
		"subscriptions": subscriptions,
	}, true)
}
