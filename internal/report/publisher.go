package report

import (
	"context"
	"errors"
	"fmt"
)

// Publisher delivers feedback messages to an external consumer.
type Publisher interface {
	Publish(ctx context.Context, planID string, msg any) error
}

// Fanout publishes every message to all of its publishers. A failing publisher
// does not stop the others; their errors are joined.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, planID string, msg any) error {
	var errs []error
	for i, p := range f {
		if err := p.Publish(ctx, planID, msg); err != nil {
			errs = append(errs, fmt.Errorf("publisher %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
