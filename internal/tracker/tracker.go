package tracker

import (
	"github.com/tannerhall/repowatch/internal/github"
	"github.com/tannerhall/repowatch/internal/logging"
)

// Result is the outcome of diffing a fetch result against the stored
// baseline for one target.
type Result struct {
	// Initializing is true when the target was seen for the first time.
	// First sight is silent: the newest id becomes the baseline and no
	// revisions are reported.
	Initializing bool
	// New holds the newly discovered revisions, oldest first, so
	// downstream delivery preserves chronological order.
	New []github.Revision
}

// Tracker keeps the last-seen revision id per target key. State lives in
// memory only and re-initializes on process start.
//
// The tracker is single-writer: all calls happen on the runner goroutine,
// so no locking is needed.
type Tracker struct {
	baselines map[string]string
	logger    logging.Logger
}

// New creates an empty Tracker.
func New(logger logging.Logger) *Tracker {
	return &Tracker{
		baselines: make(map[string]string),
		logger:    logger.Named("tracker"),
	}
}

// Diff computes the revisions that appeared since the last observation of
// key and commits the new baseline before returning, so delivery failures
// after this call can never cause a replay.
//
// fetched must be ordered newest first, as returned by the fetcher. An
// empty fetch leaves the stored state untouched.
func (t *Tracker) Diff(key string, fetched []github.Revision) Result {
	if len(fetched) == 0 {
		return Result{}
	}

	newest := fetched[0].ID

	last, seen := t.baselines[key]
	if !seen {
		t.baselines[key] = newest
		t.logger.Info("Tracking initialized", "target", key, "baseline", shortID(newest))
		return Result{Initializing: true}
	}

	if newest == last {
		t.logger.Debug("No new revisions", "target", key)
		return Result{}
	}

	// Scan newest-first until the baseline; everything before it is new.
	cut := -1
	for i, rev := range fetched {
		if rev.ID == last {
			cut = i
			break
		}
	}
	fresh := fetched
	if cut >= 0 {
		fresh = fetched[:cut]
	} else {
		// Baseline fell out of the fetch window (or history was
		// rewritten). Treat the whole list as new: a bounded flood is
		// preferred over a silent gap, but tell the operator.
		t.logger.Warn("Stored baseline not found in fetch result, treating entire list as new",
			"target", key, "baseline", shortID(last), "fetched", len(fetched))
	}

	// Commit the baseline before any delivery happens for this target.
	t.baselines[key] = newest

	reversed := make([]github.Revision, len(fresh))
	for i, rev := range fresh {
		reversed[len(fresh)-1-i] = rev
	}

	t.logger.Debug("Found new revisions", "target", key, "count", len(reversed), "baseline", shortID(newest))
	return Result{New: reversed}
}

// Baseline returns the stored last-seen revision id for key, if any.
func (t *Tracker) Baseline(key string) (string, bool) {
	id, ok := t.baselines[key]
	return id, ok
}

// Prune drops baselines for keys no longer present in the configuration.
// Stale entries are harmless, this just bounds memory over long uptimes.
func (t *Tracker) Prune(active map[string]struct{}) {
	for key := range t.baselines {
		if _, ok := active[key]; !ok {
			delete(t.baselines, key)
			t.logger.Debug("Pruned baseline for removed target", "target", key)
		}
	}
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
