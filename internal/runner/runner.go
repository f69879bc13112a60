package runner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tannerhall/repowatch/internal/config"
	"github.com/tannerhall/repowatch/internal/github"
	"github.com/tannerhall/repowatch/internal/logging"
	"github.com/tannerhall/repowatch/internal/notify"
	"github.com/tannerhall/repowatch/internal/tracker"
)

// Fetcher retrieves the current revision list for a target. A nil result
// means the upstream was unavailable this cycle.
type Fetcher interface {
	FetchRevisions(ctx context.Context, owner, repo, branch, token string) []github.Revision
}

// Dispatcher delivers one revision's notification to all subscribers.
type Dispatcher interface {
	Deliver(ctx context.Context, job notify.Job)
}

// SnapshotProvider produces a fresh configuration snapshot. It is called
// once at the top of every cycle so runtime edits take effect within one
// interval.
type SnapshotProvider interface {
	Snapshot() (*config.Config, error)
}

// Baselines for targets removed from configuration are pruned every this
// many cycles. Stale entries are harmless in between.
const pruneEvery = 100

// Runner drives the periodic poll cycle: fetch each target's commits,
// diff against tracked state, and deliver notifications for anything new.
// It is the single writer of tracker state; targets are processed
// strictly sequentially, which bounds the outbound request rate and keeps
// notification ordering trivial to reason about.
type Runner struct {
	provider   SnapshotProvider
	fetcher    Fetcher
	tracker    *tracker.Tracker
	dispatcher Dispatcher
	logger     logging.Logger

	// Pacing knobs with production defaults; tests shrink them.
	WarmupDelay   time.Duration
	MessagePacing time.Duration
	TargetPacing  time.Duration

	cycles int
}

// NewRunner creates a Runner.
func NewRunner(provider SnapshotProvider, fetcher Fetcher, revTracker *tracker.Tracker, dispatcher Dispatcher, logger logging.Logger) *Runner {
	return &Runner{
		provider:      provider,
		fetcher:       fetcher,
		tracker:       revTracker,
		dispatcher:    dispatcher,
		logger:        logger.Named("runner"),
		WarmupDelay:   10 * time.Second,
		MessagePacing: time.Second,
		TargetPacing:  time.Second,
	}
}

// Run starts the monitor loop and blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info("Starting repository monitor", "warmup", r.WarmupDelay)

	// Let surrounding configuration and bootstrapping settle first.
	if !r.sleep(ctx, r.WarmupDelay) {
		r.logger.Info("Monitor cancelled during warm-up.")
		return
	}

	for {
		interval := r.runCycle(ctx)
		if ctx.Err() != nil {
			r.logger.Info("Shutdown signal received, stopping monitor loop.")
			return
		}
		if !r.sleep(ctx, interval) {
			r.logger.Info("Shutdown signal received, stopping monitor loop.")
			return
		}
	}
}

// runCycle performs one full pass over the configured targets and returns
// the interval to sleep before the next cycle.
func (r *Runner) runCycle(ctx context.Context) time.Duration {
	cycleID := uuid.New().String()
	cycleLogger := r.logger.With("cycle_id", cycleID)

	cfg, err := r.provider.Snapshot()
	if err != nil {
		cycleLogger.Error("Failed to load configuration, skipping cycle", "error", err)
		return config.MinInterval
	}
	interval := cfg.PollInterval()
	r.cycles++

	targets := cfg.Monitor.Repositories
	if len(targets) == 0 {
		cycleLogger.Warn("No repositories configured, standing by.")
		return interval
	}

	cycleLogger.Debug("Starting poll cycle", "targets", len(targets), "interval", interval)

	for _, target := range targets {
		if ctx.Err() != nil {
			return interval
		}
		if err := target.Validate(); err != nil {
			cycleLogger.Warn("Skipping misconfigured repository entry", "owner", target.Owner, "repo", target.Repo, "error", err)
			continue
		}
		key := target.Key()

		revisions := r.fetcher.FetchRevisions(ctx, target.Owner, target.Repo, target.Branch, cfg.Global.Token)
		result := r.tracker.Diff(key, revisions)

		if len(result.New) > 0 {
			cycleLogger.Info("New revisions discovered", "target", key, "count", len(result.New))
		}

		// Oldest first, paced to avoid flooding destinations.
		for _, rev := range result.New {
			r.dispatcher.Deliver(ctx, notify.Job{
				CycleID:     cycleID,
				TargetKey:   key,
				Revision:    rev,
				RepoName:    target.Repo,
				Branch:      target.Branch,
				Subscribers: cfg.Monitor.Subscribers,
				Commentary:  cfg.Global.EnableCommentary,
			})
			if !r.sleep(ctx, r.MessagePacing) {
				return interval
			}
		}

		if !r.sleep(ctx, r.TargetPacing) {
			return interval
		}
	}

	if r.cycles%pruneEvery == 0 {
		active := make(map[string]struct{}, len(targets))
		for _, target := range targets {
			active[target.Key()] = struct{}{}
		}
		r.tracker.Prune(active)
	}

	cycleLogger.Debug("Poll cycle finished")
	return interval
}

// sleep waits for d, returning false if ctx was cancelled first.
func (r *Runner) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
