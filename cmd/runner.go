package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/ethurin/tracknest/internal/bot"
	"github.com/ethurin/tracknest/internal/repositories"
	"github.com/ethurin/tracknest/internal/shared"
	"github.com/ethurin/tracknest/internal/store"
	"github.com/ethurin/tracknest/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	directory  *store.Directory
	engine     *tasks.Engine
	dispatcher *bot.Dispatcher
	history    *repositories.HistoryRepository
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Directory  *store.Directory
	Engine     *tasks.Engine
	Dispatcher *bot.Dispatcher
	History    *repositories.HistoryRepository
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		directory:  opts.Directory,
		engine:     opts.Engine,
		dispatcher: opts.Dispatcher,
		history:    opts.History,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, linkCommand, unlinkCommand, followCommand, purgeCommand, infoCommand, forwardCommand, historyCommand, inspectCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "tracknest",
		Usage:    "Forward chat-posted tracks into subscribed playlists",
		Version:  "0.1.0",
		Commands: r.register(),
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
