package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/tannerhall/repowatch/internal/config"
	"github.com/tannerhall/repowatch/internal/github"
	"github.com/tannerhall/repowatch/internal/history"
	"github.com/tannerhall/repowatch/internal/logging"
)

// Stream is an opaque handle to a deliverable chat destination.
type Stream struct {
	ID       string
	Platform string
}

// Resolver turns a configured (group, platform) pair into a Stream.
type Resolver interface {
	Resolve(groupID, platform string) (*Stream, error)
}

// Sink delivers a text message to a resolved stream.
type Sink interface {
	Send(ctx context.Context, stream *Stream, text string) error
}

// Commentator generates a short remark from raw context text. It is
// strictly best-effort: callers discard failures.
type Commentator interface {
	Comment(ctx context.Context, stream *Stream, raw, instruction string) (string, error)
}

// Job is a single revision queued for delivery to all current subscribers.
type Job struct {
	CycleID     string
	TargetKey   string
	Revision    github.Revision
	RepoName    string
	Branch      string
	Subscribers []config.Subscriber
	Commentary  bool
}

// Dispatcher renders commit notifications and delivers them to every
// configured destination, tolerating per-destination failure.
type Dispatcher struct {
	resolver    Resolver
	sink        Sink
	commentator Commentator // may be nil when commentary is not configured
	recorder    history.Recorder
	logger      logging.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(resolver Resolver, sink Sink, commentator Commentator, recorder history.Recorder, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		resolver:    resolver,
		sink:        sink,
		commentator: commentator,
		recorder:    recorder,
		logger:      logger.Named("dispatcher"),
	}
}

const commentaryInstruction = "Give one short, playful remark about this commit."

// Deliver sends the notification for job's revision to every subscriber.
// One bad destination never blocks the others, and commentary failures
// never affect the base message already sent.
func (d *Dispatcher) Deliver(ctx context.Context, job Job) {
	baseMsg := renderMessage(job.Revision, job.RepoName)

	for _, sub := range job.Subscribers {
		if err := sub.Validate(); err != nil {
			d.logger.Warn("Skipping subscriber with missing group_id", "platform", sub.Platform, "error", err)
			d.record(job, sub, history.StatusSkipped, err)
			continue
		}

		stream, err := d.resolver.Resolve(sub.GroupID, sub.Platform)
		if err != nil {
			d.logger.Warn("Could not resolve destination stream", "group_id", sub.GroupID, "platform", sub.Platform, "error", err)
			d.record(job, sub, history.StatusSkipped, err)
			continue
		}

		if err := d.sink.Send(ctx, stream, baseMsg); err != nil {
			d.logger.Error("Failed to deliver notification", "group_id", sub.GroupID, "platform", sub.Platform, "repo", job.RepoName, "revision", job.Revision.ShortID(), "error", err)
			d.record(job, sub, history.StatusFailed, err)
			continue
		}
		d.logger.Info("Delivered notification", "repo", job.RepoName, "revision", job.Revision.ShortID(), "group_id", sub.GroupID)
		d.record(job, sub, history.StatusDelivered, nil)

		if !job.Commentary || d.commentator == nil {
			continue
		}
		remark := d.generateRemark(ctx, stream, job)
		if remark == "" {
			continue
		}
		if err := d.sink.Send(ctx, stream, remark); err != nil {
			d.logger.Error("Failed to deliver commentary", "group_id", sub.GroupID, "platform", sub.Platform, "repo", job.RepoName, "error", err)
		}
	}
}

// generateRemark asks the commentator for a remark about the revision.
// Any failure degrades to "no commentary".
func (d *Dispatcher) generateRemark(ctx context.Context, stream *Stream, job Job) string {
	raw := fmt.Sprintf("New commit in repository %s on branch %s.\nAuthor: %s\nMessage:\n%s",
		job.RepoName, job.Branch, job.Revision.Author, job.Revision.Message)

	remark, err := d.commentator.Comment(ctx, stream, raw, commentaryInstruction)
	if err != nil {
		d.logger.Warn("Commentary generation failed", "repo", job.RepoName, "revision", job.Revision.ShortID(), "error", err)
		return ""
	}
	return remark
}

func (d *Dispatcher) record(job Job, sub config.Subscriber, status string, cause error) {
	rec := history.Record{
		CycleID:    job.CycleID,
		TargetKey:  job.TargetKey,
		RevisionID: job.Revision.ID,
		GroupID:    sub.GroupID,
		Platform:   sub.Platform,
		Status:     status,
		Timestamp:  time.Now().UTC(),
	}
	if cause != nil {
		rec.Error = cause.Error()
	}
	if err := d.recorder.Record(rec); err != nil {
		d.logger.Warn("Failed to record delivery history", "error", err)
	}
}

// renderMessage builds the fixed-shape notification body.
func renderMessage(rev github.Revision, repoName string) string {
	return fmt.Sprintf("📢 [%s] New commit detected!\nCommit: %s\nAuthor: %s\nMessage:\n%s",
		repoName, rev.ShortID(), rev.Author, rev.Message)
}
