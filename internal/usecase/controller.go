package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stockpulse/internal/domain/models"
	drepo "stockpulse/internal/domain/repository"
	"stockpulse/internal/markethours"
	"stockpulse/pkg/logger"
)

// SessionController reconciles the streaming workflow with the market
// state on every trigger: open markets get exactly one running session,
// closed markets get none.
type SessionController struct {
	oracle  *markethours.Oracle
	control drepo.SessionControl
	metrics drepo.Metrics
	logger  *logger.Logger

	triggerSource string
	lock          InvocationLock // nil when locking is disabled
	now           drepo.Clock
}

// InvocationLock serializes controller invocations across schedulers.
type InvocationLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// NewSessionController creates the controller use case.
func NewSessionController(
	oracle *markethours.Oracle,
	control drepo.SessionControl,
	metrics drepo.Metrics,
	lgr *logger.Logger,
	triggerSource string,
) *SessionController {
	return &SessionController{
		oracle:        oracle,
		control:       control,
		metrics:       metrics,
		logger:        lgr,
		triggerSource: triggerSource,
		now:           time.Now,
	}
}

// WithClock overrides the invocation clock, for tests.
func (c *SessionController) WithClock(now drepo.Clock) *SessionController {
	c.now = now
	return c
}

// WithLock enables invocation locking.
func (c *SessionController) WithLock(lock InvocationLock) *SessionController {
	c.lock = lock
	return c
}

// Run evaluates the market and takes at most one action. Listing failures
// abort the invocation; everything after is best effort.
func (c *SessionController) Run(ctx context.Context) *models.ControllerResult {
	now := c.now()

	if c.lock != nil {
		ok, err := c.lock.Acquire(ctx)
		if err != nil {
			c.metrics.RecordError("lock")
			c.logger.Error("invocation lock failed", logger.Error(err))
			return &models.ControllerResult{
				StatusCode:    http.StatusInternalServerError,
				TriggerSource: c.triggerSource,
				Timestamp:     models.NowStamp(now),
				Error:         err.Error(),
			}
		}
		if !ok {
			c.logger.Info("another controller invocation holds the lock")
			return &models.ControllerResult{
				StatusCode:    http.StatusOK,
				TriggerSource: c.triggerSource,
				ActionTaken:   models.ActionIdle,
				Timestamp:     models.NowStamp(now),
			}
		}
		defer func() {
			if err := c.lock.Release(context.WithoutCancel(ctx)); err != nil {
				c.logger.Warn("invocation lock release failed", logger.Error(err))
			}
		}()
	}

	st := c.oracle.LogStatusAt(now, c.logger)
	c.metrics.RecordGateDecision(string(st.Reason))

	result := &models.ControllerResult{
		StatusCode:    http.StatusOK,
		TriggerSource: c.triggerSource,
		MarketOpen:    st.Open,
		MarketReason:  st.Detail,
		Timestamp:     models.NowStamp(now),
	}

	running, err := c.control.ListRunning(ctx)
	if err != nil {
		c.metrics.RecordError("list_sessions")
		c.logger.Error("listing running sessions failed", logger.Error(err))
		result.StatusCode = http.StatusInternalServerError
		result.Error = err.Error()
		return result
	}
	result.RunningExecutions = len(running)

	switch {
	case st.Open && len(running) == 0:
		name := fmt.Sprintf("market-session-%d", now.Unix())
		if err := c.control.Start(ctx, name, c.triggerSource); err != nil {
			c.metrics.RecordError("start_session")
			c.logger.Error("starting session failed",
				logger.String("session", name), logger.Error(err))
			result.StatusCode = http.StatusInternalServerError
			result.Error = err.Error()
			return result
		}
		c.logger.Info("started streaming session", logger.String("session", name))
		result.ActionTaken = models.ActionStarted
		result.RunningExecutions = 1

	case st.Open:
		c.logger.Info("session already running, nothing to do",
			logger.Int("running", len(running)))
		result.ActionTaken = models.ActionContinued

	case len(running) > 0:
		stopped := c.stopAll(ctx, running)
		c.logger.Info("stopped running sessions",
			logger.Int("stopped", stopped),
			logger.String("next_open", c.oracle.NextOpenAt(now).Format(time.RFC3339)))
		result.ActionTaken = models.ActionStopped
		result.RunningExecutions = len(running) - stopped

	default:
		c.logger.Info("market closed, no sessions running",
			logger.String("reason", st.Detail))
		result.ActionTaken = models.ActionIdle
	}

	return result
}

// stopAll stops every listed session, continuing past individual failures,
// and returns how many stops succeeded.
func (c *SessionController) stopAll(ctx context.Context, sessions []models.Session) int {
	stopped := 0
	for _, s := range sessions {
		if err := c.control.Stop(ctx, s.Name); err != nil {
			c.metrics.RecordError("stop_session")
			c.logger.Error("stopping session failed",
				logger.String("session", s.Name), logger.Error(err))
			continue
		}
		stopped++
	}
	return stopped
}
