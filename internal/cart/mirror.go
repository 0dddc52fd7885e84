package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// persist applies one task to the local and remote mirrors concurrently. A
// failure on one side never blocks or rolls back the other.
func (s *Store) persist(ctx context.Context, task persistTask) error {
	var (
		wg        sync.WaitGroup
		localErr  error
		remoteErr error
	)

	if task.local {
		wg.Add(1)
		go func() {
			defer wg.Done()
			localErr = s.withRetry(ctx, task, mirrorLocal, func(ctx context.Context) error {
				if task.clear {
					return s.local.Delete(ctx, CartItemsKey)
				}
				raw, err := EncodeLines(task.lines)
				if err != nil {
					return err
				}
				return s.local.Write(ctx, CartItemsKey, raw)
			})
		}()
	}

	if task.remote && task.userID != "" && s.users != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			remoteErr = s.withRetry(ctx, task, mirrorRemote, func(ctx context.Context) error {
				if task.clear {
					return s.users.DeleteUserCart(ctx, task.userID)
				}
				return s.users.WriteUserCart(ctx, task.userID, task.lines)
			})
		}()
	}

	wg.Wait()
	return multierr.Combine(localErr, remoteErr)
}

func (s *Store) withRetry(ctx context.Context, task persistTask, mirror string, fn func(context.Context) error) error {
	attempts := task.attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		err = fn(ctx)
		s.metrics.ObservePersist(mirror, time.Since(start))
		if err == nil {
			return nil
		}
		s.metrics.IncPersistFailure(mirror, task.op)

		logCtx := s.logg.WithFields(s.logCtx(ctx, task.op), map[string]any{
			"mirror":   mirror,
			"user_id":  task.userID,
			"attempt":  attempt,
			"attempts": attempts,
			"error":    err.Error(),
		})
		s.logg.Warn(logCtx, "cart mirror write failed")

		if attempt == attempts {
			break
		}
		timer := time.NewTimer(s.clearBackoff * time.Duration(attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return &PersistError{Op: task.op, Mirror: mirror, UserID: task.userID, Err: ctx.Err()}
		}
	}
	return &PersistError{Op: task.op, Mirror: mirror, UserID: task.userID, Err: err}
}
