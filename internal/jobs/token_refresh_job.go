package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/portal-social/internal/service"
)

const refreshSweepTimeout = 5 * time.Minute

type TokenRefreshJob struct {
	ts service.TokenService

	// a slow sweep must not overlap the next tick
	running sync.Mutex
}

func NewTokenRefreshJob(ts service.TokenService) *TokenRefreshJob {
	return &TokenRefreshJob{ts: ts}
}

func (c *TokenRefreshJob) RefreshTokens() {
	if !c.running.TryLock() {
		slog.Info("token refresh sweep still running, skipping tick")
		return
	}
	defer c.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), refreshSweepTimeout)
	defer cancel()

	summary, err := c.ts.RefreshExpiring(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if summary.Checked > 0 {
		slog.Info("token refresh sweep finished",
			"checked", summary.Checked,
			"refreshed", summary.Refreshed,
			"failed", summary.Failed,
		)
	}
}
