package lobby

import (
	"context"
	stderrors "errors"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
	"github.com/vytor/arenalobby/internal/services"
	"github.com/vytor/arenalobby/internal/worker"
)

// ErrStopped is returned when starting a controller that has already stopped.
var ErrStopped = stderrors.New("lobby: controller stopped")

// Services are the operations a controller drives.
type Services struct {
	Profiles    services.ProfileService
	Matches     services.MatchService
	Chat        services.ChatService
	Tournaments services.TournamentService
}

// Runner executes reload jobs in the background.
type Runner interface {
	Submit(ctx context.Context, job worker.Job) error
}

// Controller owns one signed-in session's snapshots, runs its loaders and
// mutations, and hosts its realtime coordinator.
type Controller struct {
	svc    Services
	state  *State
	runner Runner
	coord  *Coordinator

	mu      sync.RWMutex
	session models.SignedIn
	detach  func() bool

	startOnce sync.Once
	startErr  error
	stopOnce  sync.Once
	ctx       context.Context
	cancel    context.CancelFunc

	log *logger.Logger
}

// NewController builds a controller for session. A nil runner makes reloads synchronous.
func NewController(session models.SignedIn, svc Services, sub Subscriber, runner Runner) *Controller {
	log := logger.Default().WithPrefix("lobby").WithField("user_id", session.UserID)
	ctx, cancel := context.WithCancel(logger.NewContext(context.Background(), log))
	c := &Controller{
		svc:     svc,
		state:   NewState(),
		runner:  runner,
		session: session,
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
	}
	c.coord = NewCoordinator(sub, c, true)
	return c
}

// Start loads every view concurrently and then starts the coordinator. Load
// failures are logged and leave the affected views empty; only a subscription
// failure is returned. Later calls return the first call's result. The
// controller stops when parent is cancelled. Starting a stopped controller
// returns ErrStopped.
func (c *Controller) Start(parent context.Context) error {
	c.startOnce.Do(func() {
		if c.ctx.Err() != nil {
			c.startErr = ErrStopped
			return
		}
		detach := context.AfterFunc(parent, c.Stop)
		c.mu.Lock()
		c.detach = detach
		c.mu.Unlock()
		// A Stop that ran before detach was stored could not release it.
		if c.ctx.Err() != nil {
			detach()
			c.startErr = ErrStopped
			return
		}

		if err := c.Refresh(c.ctx); err != nil {
			c.log.Warn("initial load incomplete: %v", err)
		}
		c.startErr = c.coord.Start(c.ctx)
		if c.startErr == nil {
			c.log.Info("lobby session started")
		}
	})
	return c.startErr
}

// Stop tears the coordinator down, cancels in-flight reloads and ends every watch.
// It also drops the parent context's reference to the controller.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.cancel()
		c.mu.RLock()
		detach := c.detach
		c.mu.RUnlock()
		if detach != nil {
			detach()
		}
		c.coord.Stop()
		c.state.CloseWatchers()
		c.log.Info("lobby session stopped")
	})
}

// Done is closed once the controller stops.
func (c *Controller) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Refresh runs all five loaders concurrently and reports every failure.
func (c *Controller) Refresh(ctx context.Context) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	for _, v := range AllViews {
		g.Go(func() error {
			if err := c.Load(ctx, v); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// Reload re-runs v's loader on the runner. Failures are logged only.
func (c *Controller) Reload(ctx context.Context, v View) {
	if c.ctx.Err() != nil {
		return
	}
	if c.runner == nil {
		_ = c.Load(ctx, v)
		return
	}

	job := worker.NewJob("reload_"+v.String(), func(jobCtx context.Context) error {
		if c.ctx.Err() != nil {
			return nil
		}
		return c.Load(jobCtx, v)
	})
	if err := c.runner.Submit(ctx, job); err != nil {
		c.log.Warn("failed to queue %s reload: %v", v, err)
	}
}

func (c *Controller) Session() models.SignedIn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// extend keeps the session that expires last.
func (c *Controller) extend(session models.SignedIn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if session.ExpiresAt.After(c.session.ExpiresAt) {
		c.session = session
	}
}

func (c *Controller) Snapshot() Snapshot {
	return c.state.Snapshot()
}

// Watch streams snapshots; see State.Watch.
func (c *Controller) Watch() (<-chan Snapshot, func()) {
	return c.state.Watch()
}

func (c *Controller) Coordinator() *Coordinator {
	return c.coord
}
