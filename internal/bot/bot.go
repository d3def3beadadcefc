// package bot maps chat events onto directory workflows and renders plain
// outcome strings for the chat collaborator to deliver. It never touches
// transport-specific payloads.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ethurin/tracknest/internal/shared"
	"github.com/ethurin/tracknest/internal/tasks"
)

// Invocation is a parsed command from the chat layer.
type Invocation struct {
	Name      string
	AuthorID  string
	ChannelID string
	Argument  string
}

// Message is a plain inbound channel message, already filtered to
// "not a command" by the chat layer.
type Message struct {
	ChannelID string
	AuthorID  string
	Content   string
}

// Dispatcher routes invocations and messages to the engine.
type Dispatcher struct {
	engine *tasks.Engine
	logger *log.Logger
}

// NewDispatcher creates a Dispatcher over the given engine.
func NewDispatcher(engine *tasks.Engine, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Dispatcher{engine: engine, logger: logger}
}

// HandleRaw routes raw channel content. A body starting with the command
// prefix is parsed as an invocation; anything else goes through the forward
// pipeline.
func (d *Dispatcher) HandleRaw(ctx context.Context, prefix string, msg Message) string {
	if inv, ok := ParseInvocation(prefix, msg); ok {
		return d.HandleCommand(ctx, inv)
	}
	return d.HandleMessage(ctx, msg)
}

// ParseInvocation splits a prefixed command body, like "~follow
// spotify:playlist:x", into an Invocation. Reports false for plain messages.
func ParseInvocation(prefix string, msg Message) (Invocation, bool) {
	if prefix == "" || !strings.HasPrefix(msg.Content, prefix) {
		return Invocation{}, false
	}

	body := strings.TrimSpace(strings.TrimPrefix(msg.Content, prefix))
	if body == "" {
		return Invocation{}, false
	}

	name, argument, _ := strings.Cut(body, " ")
	return Invocation{
		Name:      name,
		AuthorID:  msg.AuthorID,
		ChannelID: msg.ChannelID,
		Argument:  strings.TrimSpace(argument),
	}, true
}

// HandleCommand executes a command invocation and returns the reply to send
// to the author. An unknown command yields an empty reply.
func (d *Dispatcher) HandleCommand(ctx context.Context, inv Invocation) string {
	switch inv.Name {
	case "link":
		return d.link(ctx, inv)
	case "unlink":
		return d.unlink(ctx, inv)
	case "follow":
		return d.follow(ctx, inv)
	case "purge":
		return d.purge(ctx, inv)
	case "info":
		return d.info(ctx, inv)
	default:
		return ""
	}
}

// HandleMessage runs the forward pipeline for a plain channel message.
// Returns the confirmation reply, or an empty string when nothing was
// forwarded. Pipeline failures never surface to the channel.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg Message) string {
	result, err := d.engine.Forward(ctx, msg.ChannelID, msg.Content)
	if err != nil {
		d.logger.Warnf("forward failed on channel %s: %v", msg.ChannelID, err)
		return ""
	}
	if result == nil {
		return ""
	}
	return fmt.Sprintf("Added %s to playlist", result.TrackURL)
}

func (d *Dispatcher) link(ctx context.Context, inv Invocation) string {
	if inv.Argument == "" {
		authURL, err := d.engine.RequestLink(ctx, inv.AuthorID)
		if errors.Is(err, shared.ErrAlreadyLinked) {
			return "Your account is already linked"
		}
		if err != nil {
			return "Failed to start linking, try again later."
		}
		return "In order to link your account, go to the following url, allow access and send the final url back with the link command:\n" + authURL
	}

	name, err := d.engine.CompleteLink(ctx, inv.AuthorID, inv.Argument)
	if err != nil {
		return "Failed to link account, did you enter the correct url? Try again with the link command."
	}
	return fmt.Sprintf("Welcome %s, your account is linked!", name)
}

func (d *Dispatcher) unlink(ctx context.Context, inv Invocation) string {
	purged, err := d.engine.Unlink(ctx, inv.AuthorID)
	if errors.Is(err, shared.ErrNotLinked) {
		return "Your account isn't linked yet, can't unlink."
	}
	if err != nil {
		return "Failed to unlink, try again later."
	}
	return fmt.Sprintf("Unlinked your account and removed %d subscription(s).", purged)
}

func (d *Dispatcher) follow(ctx context.Context, inv Invocation) string {
	_, err := d.engine.Follow(ctx, inv.ChannelID, inv.AuthorID, inv.Argument)
	switch {
	case errors.Is(err, shared.ErrBadFormat):
		return "Your playlist URI is required, this is in the format spotify:playlist:xxxxxxxx"
	case errors.Is(err, shared.ErrNotLinked):
		return "Your account is not linked yet. Use the link command to link it."
	case errors.Is(err, shared.ErrCredentialExpired):
		return "Your login expired and could not be refreshed. Re-link your account."
	case errors.Is(err, shared.ErrNotOwner):
		return "You do not own this playlist"
	case err != nil:
		return "An error occurred talking to the streaming service. Try again later."
	}
	return "Successfully followed text channel!"
}

func (d *Dispatcher) purge(ctx context.Context, inv Invocation) string {
	purged, err := d.engine.Purge(ctx, inv.AuthorID)
	if err != nil {
		return "Failed to purge, try again later."
	}
	if purged == 0 {
		return "You have no playlists connected."
	}
	return fmt.Sprintf("Purged %d channel(s).", purged)
}

func (d *Dispatcher) info(ctx context.Context, inv Invocation) string {
	sub, err := d.engine.Info(ctx, inv.ChannelID)
	if errors.Is(err, shared.ErrNoSubscription) {
		return "There's no playlist connected to this channel"
	}
	if err != nil {
		return "Failed to look up this channel, try again later."
	}
	return "This channel is connected to a playlist: " + tasks.PlaylistLink(sub.PlaylistID)
}
