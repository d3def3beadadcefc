// package tasks implements the link, follow, and forward workflows over the
// account and subscription directory.
//
// The core abstraction is Engine, which orchestrates the directory and the
// streaming service. Operations return outcome values and typed errors from
// the shared package, never panics. Upstream calls run while the directory
// lock is held, trading head-of-line blocking for a single consistent view
// of credentials and subscriptions.
package tasks

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethurin/tracknest/internal/services"
	"github.com/ethurin/tracknest/internal/shared"
	"github.com/ethurin/tracknest/internal/store"
)

// Recorder receives a note of every successfully forwarded track.
//
// Implementations are best-effort: a recording failure is logged and never
// fails the forward that produced it.
type Recorder interface {
	Record(channelID, ownerUserID, playlistID, trackID string) error
}

// Engine orchestrates directory workflows against the streaming service.
type Engine struct {
	dir     *store.Directory
	svc     services.Service
	history Recorder
	logger  *log.Logger
	now     func() time.Time
}

// EngineOpts contains dependencies for creating an Engine.
type EngineOpts struct {
	Directory *store.Directory
	Service   services.Service
	History   Recorder // optional
	Logger    *log.Logger
	Now       func() time.Time // defaults to time.Now
}

// NewEngine creates an Engine with the provided dependencies.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		dir:     opts.Directory,
		svc:     opts.Service,
		history: opts.History,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// requireService rejects operations that reach upstream while no service is
// configured, the state of a fresh install before setup completes.
func (e *Engine) requireService() error {
	if e.svc == nil {
		return shared.ErrServiceUnavailable
	}
	return nil
}
