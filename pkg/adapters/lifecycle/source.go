// Package lifecycle exposes vault reloads as a lifecycle event source.
package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/thewpsquad/fieldkit/pkg/adapters/fs"
)

// reloadSource forwards vault reloads. Reloads that arrive while the consumer
// is busy are merged into a single pending event.
type reloadSource struct {
	reloads <-chan fs.Event
	out     chan lifecycle.Event
}

// NewSource creates a lifecycle.Source over the reload events of a vault.
func NewSource(reloads <-chan fs.Event) lifecycle.Source {
	return &reloadSource{
		reloads: reloads,
		out:     make(chan lifecycle.Event),
	}
}

func (s *reloadSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start runs the forwarding loop until ctx is done or the reload channel closes.
// Events closes when the loop stops; a pending merged reload is delivered first.
func (s *reloadSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		return s.run(ctx)
	})
	return nil
}

func (s *reloadSource) run(ctx context.Context) error {
	var pending *fs.Event
	reloads := s.reloads

	for {
		// A nil channel blocks, so out is only selectable with a pending event.
		var out chan lifecycle.Event
		var next lifecycle.Event
		if pending != nil {
			out = s.out
			next = *pending
		}
		if reloads == nil && pending == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			pending = merge(pending, e)
		case out <- next:
			pending = nil
		}
	}
}

// merge folds e into pending, keeping every changed path once and the latest timestamp.
func merge(pending *fs.Event, e fs.Event) *fs.Event {
	if pending == nil {
		e.Paths = slices.Clone(e.Paths)
		return &e
	}
	for _, p := range e.Paths {
		if !slices.Contains(pending.Paths, p) {
			pending.Paths = append(pending.Paths, p)
		}
	}
	pending.Timestamp = max(pending.Timestamp, e.Timestamp)
	return pending
}
