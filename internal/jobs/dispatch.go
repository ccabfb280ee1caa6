package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Submission records one dispatched job run.
type Submission struct {
	ID  string
	Job string
	Err error
}

// Dispatcher runs registry jobs concurrently and hands back an ID per submission.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher returns a dispatcher over registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Submit starts every named job, waits for all of them and returns one Submission
// per name in the given order. A failing job does not cancel the others.
func (d *Dispatcher) Submit(ctx context.Context, names ...string) ([]Submission, error) {
	for _, name := range names {
		if !d.registry.Has(name) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
		}
	}

	subs := make([]Submission, len(names))
	var g errgroup.Group
	for i, name := range names {
		subs[i] = Submission{ID: uuid.NewString(), Job: name}
		g.Go(func() error {
			subs[i].Err = d.registry.Run(ctx, subs[i].Job)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, s := range subs {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s (%s): %w", s.Job, s.ID, s.Err))
		}
	}
	return subs, errors.Join(errs...)
}
