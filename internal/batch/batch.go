// Package batch applies clone, delete and download to one object or to
// every object under a prefix.
//
// A Job is planned up front: folder targets are listed recursively and the
// whole key set is materialized so TotalFiles is exact before the first item
// runs. Items then run strictly one at a time. A failing item is recorded in
// the progress record and the job moves on; only the initial enumeration can
// abort an operation.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/slmtnm/blobnav/internal/logging"
)

// Op identifies the kind of batch operation.
type Op int

const (
	OpClone Op = iota
	OpDelete
	OpDownload
)

func (o Op) String() string {
	switch o {
	case OpClone:
		return "Clone"
	case OpDelete:
		return "Delete"
	default:
		return "Download"
	}
}

func (o Op) verb() string {
	switch o {
	case OpClone:
		return "clone"
	case OpDelete:
		return "delete"
	default:
		return "download"
	}
}

// Failure is one item that could not be processed.
type Failure struct {
	Key string
	Err error
}

// Progress is a snapshot of a running job.
type Progress struct {
	// CurrentFile is the key that is processed next, or the last key once
	// the job is done.
	CurrentFile    string
	FilesCompleted int
	TotalFiles     int

	// ErrorMessage holds the most recent per-item failure; earlier ones are
	// overwritten. Every failure is also kept in Failures.
	ErrorMessage string
	Failures     []Failure

	// BytesDownloaded and TotalBytes are only maintained for downloads.
	// TotalBytes is known for single-file downloads only.
	BytesDownloaded int64
	TotalBytes      *int64
}

// Failed returns the number of items that failed so far.
func (p Progress) Failed() int {
	return len(p.Failures)
}

// Fraction returns completion in [0, 1], by bytes when the total is known
// and by item count otherwise.
func (p Progress) Fraction() float64 {
	if p.TotalBytes != nil && *p.TotalBytes > 0 {
		return min(float64(p.BytesDownloaded)/float64(*p.TotalBytes), 1)
	}
	if p.TotalFiles == 0 {
		return 1
	}
	return float64(p.FilesCompleted+p.Failed()) / float64(p.TotalFiles)
}

func (p Progress) clone() Progress {
	p.Failures = append([]Failure(nil), p.Failures...)
	if p.TotalBytes != nil {
		total := *p.TotalBytes
		p.TotalBytes = &total
	}
	return p
}

// Item is one unit of work. Src is always an object key; Dst is the clone
// destination key or the local download path and is empty for deletes.
type Item struct {
	Src string
	Dst string
}

// Action performs one item and reports the bytes it transferred.
type Action func(ctx context.Context, item Item) (int64, error)

// Job is a planned batch operation. It is not safe for concurrent use; the
// caller steps it from one goroutine at a time.
type Job struct {
	op       Op
	items    []Item
	action   Action
	next     int
	progress Progress
	log      logging.Logger
	started  time.Time
}

func newJob(op Op, items []Item, action Action, log logging.Logger) *Job {
	j := &Job{
		op:      op,
		items:   items,
		action:  action,
		log:     log,
		started: time.Now(),
	}
	j.progress.TotalFiles = len(items)
	if len(items) > 0 {
		j.progress.CurrentFile = items[0].Src
	}
	log.Info("batch started",
		logging.String("op", op.String()),
		logging.Int("total", len(items)),
	)
	return j
}

// Op returns the operation kind.
func (j *Job) Op() Op { return j.op }

// Items returns the planned work list.
func (j *Job) Items() []Item { return append([]Item(nil), j.items...) }

// Done reports whether every item has been attempted.
func (j *Job) Done() bool { return j.next >= len(j.items) }

// Progress returns a snapshot of the current progress.
func (j *Job) Progress() Progress { return j.progress.clone() }

// Step runs the next item and returns the updated snapshot. It is a no-op
// once the job is done.
func (j *Job) Step(ctx context.Context) Progress {
	if j.Done() {
		return j.Progress()
	}

	item := j.items[j.next]
	j.progress.CurrentFile = item.Src

	n, err := j.action(ctx, item)
	if err != nil {
		j.progress.ErrorMessage = fmt.Sprintf("failed to %s %s: %v", j.op.verb(), item.Src, err)
		j.progress.Failures = append(j.progress.Failures, Failure{Key: item.Src, Err: err})
		j.log.Warn("batch item failed",
			logging.String("op", j.op.String()),
			logging.String("key", item.Src),
			logging.ErrorField(err),
		)
	} else {
		j.progress.FilesCompleted++
		if j.op == OpDownload {
			j.progress.BytesDownloaded += n
		}
	}

	j.next++
	if !j.Done() {
		j.progress.CurrentFile = j.items[j.next].Src
	} else {
		j.log.Info("batch finished",
			logging.String("op", j.op.String()),
			logging.Int("completed", j.progress.FilesCompleted),
			logging.Int("failed", j.progress.Failed()),
			logging.Duration("elapsed", time.Since(j.started)),
		)
	}
	return j.Progress()
}

// Run steps the job to completion. onStep, if non-nil, observes each
// snapshot.
func (j *Job) Run(ctx context.Context, onStep func(Progress)) Progress {
	for !j.Done() {
		p := j.Step(ctx)
		if onStep != nil {
			onStep(p)
		}
	}
	return j.Progress()
}
