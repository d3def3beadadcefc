// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func userFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "Chat user id acting as the command author",
		Required: true,
	}
}

func channelFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "channel",
		Aliases:  []string{"ch"},
		Usage:    "Chat channel id",
		Required: true,
	}
}

// setupCommand initializes the config file and data directories
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write an example config file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// linkCommand starts or completes the account link handshake
func linkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "link",
		Usage: "Link a streaming account to a chat user",
		Flags: []cli.Flag{
			userFlag(),
			&cli.BoolFlag{
				Name:    "browser",
				Aliases: []string{"b"},
				Usage:   "Open the authorization page and capture the redirect locally",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "payload"},
		},
		Action: r.Link,
	}
}

func unlinkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "unlink",
		Usage:  "Unlink a chat user and purge their subscriptions",
		Flags:  []cli.Flag{userFlag()},
		Action: r.Unlink,
	}
}

func followCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "follow",
		Usage: "Subscribe a channel to one of the user's playlists",
		Flags: []cli.Flag{userFlag(), channelFlag()},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist"},
		},
		Action: r.Follow,
	}
}

func purgeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "purge",
		Usage:  "Remove every subscription owned by a user",
		Flags:  []cli.Flag{userFlag()},
		Action: r.Purge,
	}
}

func infoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "info",
		Usage:  "Show the playlist a channel is connected to",
		Flags:  []cli.Flag{channelFlag()},
		Action: r.Info,
	}
}

// forwardCommand feeds one message through the forward pipeline
func forwardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "forward",
		Usage: "Run one message body through the chat pipeline",
		Flags: []cli.Flag{
			channelFlag(),
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Chat user id acting as the message author",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "message"},
		},
		Action: r.Forward,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recently forwarded tracks",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of forwards to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit JSON instead of plain text",
			},
		},
		Action: r.History,
	}
}

func inspectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "inspect",
		Usage:  "Summarize the directory contents",
		Action: r.Inspect,
	}
}
