package litebridge

import (
	"context"
	"errors"
)

// Tx is a transaction-scoped handle. It binds Execute, Query and Run to the
// same underlying channel as the controller that created it, for the
// duration of one Transaction body.
type Tx struct {
	s *session
}

// Execute sends a statement inside the transaction.
func (tx *Tx) Execute(ctx context.Context, sql string, params ...any) error {
	return tx.s.execute(ctx, sql, params)
}

// Query sends a query inside the transaction.
func (tx *Tx) Query(ctx context.Context, sql string, params ...any) ([]Row, error) {
	return tx.s.query(ctx, sql, params)
}

// Run sends a write statement inside the transaction and reads back its
// metadata.
func (tx *Tx) Run(ctx context.Context, sql string, params ...any) (RunMeta, error) {
	return tx.s.run(ctx, sql, params)
}

// Transaction runs body inside a BEGIN IMMEDIATE transaction.
//
// On body success the transaction is committed. On body failure it is
// rolled back and the body's error is returned; if the rollback itself also
// fails, both errors are returned joined. A panic inside body rolls back
// before re-panicking.
//
// Only one transaction may be logically active at a time per controller.
// Nested or concurrently initiated transactions are not detected or
// rejected here; coordinating them is the caller's responsibility.
func (c *Controller) Transaction(ctx context.Context, body func(tx *Tx) error) error {
	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	if err := s.execute(ctx, "BEGIN IMMEDIATE", nil); err != nil {
		return err
	}

	done := false
	defer func() {
		if done {
			return
		}
		// body panicked: roll back, then let the panic continue.
		s.execute(context.WithoutCancel(ctx), "ROLLBACK", nil) //nolint:errcheck // Re-panicking regardless
	}()

	if err := body(&Tx{s: s}); err != nil {
		done = true
		if rbErr := s.execute(context.WithoutCancel(ctx), "ROLLBACK", nil); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	done = true
	return s.execute(ctx, "COMMIT", nil)
}
