package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tannerhall/repowatch/internal/github"
	"github.com/tannerhall/repowatch/internal/logging"
)

func revs(ids ...string) []github.Revision {
	out := make([]github.Revision, len(ids))
	for i, id := range ids {
		out[i] = github.Revision{ID: id, Author: "dev", Message: "change " + id}
	}
	return out
}

func ids(revisions []github.Revision) []string {
	out := make([]string, len(revisions))
	for i, rev := range revisions {
		out[i] = rev.ID
	}
	return out
}

func TestDiff(t *testing.T) {
	t.Run("First Sight Is Silent", func(t *testing.T) {
		tr := New(logging.NewNop())

		result := tr.Diff("a/b/main", revs("c3", "c2", "c1"))

		assert.True(t, result.Initializing)
		assert.Empty(t, result.New)

		baseline, ok := tr.Baseline("a/b/main")
		require.True(t, ok)
		assert.Equal(t, "c3", baseline)
	})

	t.Run("Unchanged Newest Is A NoOp", func(t *testing.T) {
		tr := New(logging.NewNop())
		fetched := revs("c3", "c2", "c1")

		tr.Diff("a/b/main", fetched)
		result := tr.Diff("a/b/main", fetched)
		assert.False(t, result.Initializing)
		assert.Empty(t, result.New)

		// And again: still stable.
		result = tr.Diff("a/b/main", fetched)
		assert.Empty(t, result.New)

		baseline, _ := tr.Baseline("a/b/main")
		assert.Equal(t, "c3", baseline)
	})

	t.Run("New Revisions Returned Oldest First", func(t *testing.T) {
		tr := New(logging.NewNop())

		tr.Diff("a/b/main", revs("B", "R0"))
		result := tr.Diff("a/b/main", revs("R3", "R2", "R1", "B", "R0"))

		assert.False(t, result.Initializing)
		assert.Equal(t, []string{"R1", "R2", "R3"}, ids(result.New))

		baseline, _ := tr.Baseline("a/b/main")
		assert.Equal(t, "R3", baseline)
	})

	t.Run("Lost Baseline Treats Whole List As New", func(t *testing.T) {
		tr := New(logging.NewNop())

		tr.Diff("a/b/main", revs("B"))
		result := tr.Diff("a/b/main", revs("R2", "R1"))

		assert.Equal(t, []string{"R1", "R2"}, ids(result.New))

		baseline, _ := tr.Baseline("a/b/main")
		assert.Equal(t, "R2", baseline)
	})

	t.Run("Empty Fetch Is A NoOp", func(t *testing.T) {
		tr := New(logging.NewNop())

		// No prior state: nothing stored, nothing reported.
		result := tr.Diff("a/b/main", nil)
		assert.False(t, result.Initializing)
		assert.Empty(t, result.New)
		_, ok := tr.Baseline("a/b/main")
		assert.False(t, ok)

		// With prior state: unchanged.
		tr.Diff("a/b/main", revs("c1"))
		result = tr.Diff("a/b/main", []github.Revision{})
		assert.Empty(t, result.New)
		baseline, _ := tr.Baseline("a/b/main")
		assert.Equal(t, "c1", baseline)
	})

	t.Run("Independent Targets", func(t *testing.T) {
		tr := New(logging.NewNop())

		tr.Diff("a/b/main", revs("x1"))
		tr.Diff("c/d/master", revs("y1"))

		result := tr.Diff("a/b/main", revs("x2", "x1"))
		assert.Equal(t, []string{"x2"}, ids(result.New))

		// The other target is untouched.
		baseline, _ := tr.Baseline("c/d/master")
		assert.Equal(t, "y1", baseline)
	})
}

func TestPrune(t *testing.T) {
	tr := New(logging.NewNop())

	tr.Diff("a/b/main", revs("x1"))
	tr.Diff("c/d/master", revs("y1"))

	tr.Prune(map[string]struct{}{"a/b/main": {}})

	_, ok := tr.Baseline("a/b/main")
	assert.True(t, ok)
	_, ok = tr.Baseline("c/d/master")
	assert.False(t, ok)

	// A pruned target behaves like a fresh one: first sight is silent.
	result := tr.Diff("c/d/master", revs("y2", "y1"))
	assert.True(t, result.Initializing)
	assert.Empty(t, result.New)
}
