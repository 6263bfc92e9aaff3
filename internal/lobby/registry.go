package lobby

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/vytor/arenalobby/internal/logger"
	"github.com/vytor/arenalobby/internal/models"
)

// Factory builds an unstarted controller for a session.
type Factory func(session models.SignedIn) *Controller

// Registry holds the active controller of every signed-in user.
type Registry struct {
	ctx     context.Context
	factory Factory
	now     func() time.Time

	mu          sync.Mutex
	controllers map[string]*Controller
	scheduler   gocron.Scheduler

	log *logger.Logger
}

type RegistryOption func(*Registry)

// WithRegistryClock overrides the clock used to detect expired sessions.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates a registry whose controllers live until released or ctx ends.
func NewRegistry(ctx context.Context, factory Factory, opts ...RegistryOption) *Registry {
	r := &Registry{
		ctx:         ctx,
		factory:     factory,
		now:         time.Now,
		controllers: make(map[string]*Controller),
		log:         logger.Default().WithPrefix("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire returns the started controller for session.UserID, creating it when
// absent. A controller stopped by a concurrent release is replaced once.
func (r *Registry) Acquire(ctx context.Context, session models.SignedIn) (*Controller, error) {
	for attempt := 0; ; attempt++ {
		ctrl, err := r.acquire(ctx, session)
		if err == nil {
			select {
			case <-ctrl.Done():
				r.remove(session.UserID, ctrl)
				err = ErrStopped
			default:
				return ctrl, nil
			}
		}
		if !stderrors.Is(err, ErrStopped) || attempt > 0 {
			return nil, err
		}
		logger.FromContext(ctx).WithPrefix("registry").Debug("controller for %s stopped while acquiring, retrying", session.UserID)
	}
}

func (r *Registry) acquire(ctx context.Context, session models.SignedIn) (*Controller, error) {
	r.mu.Lock()
	ctrl, ok := r.controllers[session.UserID]
	if ok {
		ctrl.extend(session)
	} else {
		ctrl = r.factory(session)
		r.controllers[session.UserID] = ctrl
		r.log.Debug("created controller for user %s", session.UserID)
	}
	r.mu.Unlock()

	if err := ctrl.Start(r.ctx); err != nil {
		if !stderrors.Is(err, ErrStopped) {
			logger.FromContext(ctx).WithPrefix("registry").Error("failed to start controller for %s: %v", session.UserID, err)
		}
		r.remove(session.UserID, ctrl)
		ctrl.Stop()
		return nil, err
	}
	return ctrl, nil
}

// Get returns the user's controller without creating one.
func (r *Registry) Get(userID string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctrl, ok := r.controllers[userID]
	return ctrl, ok
}

// Release stops and forgets the user's controller.
func (r *Registry) Release(userID string) bool {
	r.mu.Lock()
	ctrl, ok := r.controllers[userID]
	delete(r.controllers, userID)
	r.mu.Unlock()

	if !ok {
		return false
	}
	ctrl.Stop()
	r.log.Info("released controller for user %s", userID)
	return true
}

func (r *Registry) remove(userID string, ctrl *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.controllers[userID] == ctrl {
		delete(r.controllers, userID)
	}
}

// OnSessionChange releases a user's controller when their session ends.
func (r *Registry) OnSessionChange(_ context.Context, userID string, session models.Session) {
	if _, ok := session.(models.SignedOut); ok {
		r.Release(userID)
	}
}

// Sweep releases every controller whose session has expired.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var expired []string
	for userID, ctrl := range r.controllers {
		if ctrl.Session().Expired(now) {
			expired = append(expired, userID)
		}
	}
	r.mu.Unlock()

	released := 0
	for _, userID := range expired {
		if r.Release(userID) {
			released++
		}
	}
	if released > 0 {
		r.log.Info("swept %d expired session(s)", released)
	}
	return released
}

// StartSweeper runs Sweep every interval until Close.
func (r *Registry) StartSweeper(interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { r.Sweep() }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = sched.Shutdown()
		return err
	}
	sched.Start()

	r.mu.Lock()
	r.scheduler = sched
	r.mu.Unlock()
	r.log.Debug("session sweeper running every %v", interval)
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

// Close stops the sweeper and releases every controller.
func (r *Registry) Close() {
	r.mu.Lock()
	sched := r.scheduler
	r.scheduler = nil
	ids := make([]string, 0, len(r.controllers))
	for id := range r.controllers {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			r.log.Warn("failed to stop sweeper: %v", err)
		}
	}
	for _, id := range ids {
		r.Release(id)
	}
}
