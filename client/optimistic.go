package client

import "context"

// Command is an optimistic state change: Next is shown immediately, Commit
// writes it to the server, and Previous is put back if the write fails.
type Command[T any] struct {
	Previous T
	Next     T
	Apply    func(T)
	Commit   func(ctx context.Context) error
}

// Execute applies Next, commits, and rolls back to Previous on failure.
// The commit error is returned unchanged.
func (c Command[T]) Execute(ctx context.Context) error {
	c.Apply(c.Next)
	if err := c.Commit(ctx); err != nil {
		c.Apply(c.Previous)
		return err
	}
	return nil
}
