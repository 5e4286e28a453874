package tasks

import (
	"context"
	"errors"
	"fmt"

	"teahouse.bot/internal/catalogs"
	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
)

// Action is one gameplay event that may count toward tasks.
type Action struct {
	Trigger catalogs.Trigger
	// TeaType is the type of tea involved, if any.
	TeaType string
	// Key identifies the action for logging; it is not deduplicated.
	Key string
}

// Advance adds delta to the task's progress, clamped to the target, and
// completes it when the target is reached. A rotating id that has no row
// resolves to today's challenge, seeding it first if needed.
//
// Failures are logged and swallowed so the triggering action still succeeds.
// The returned bool reports whether this call completed the task.
func (e *Engine) Advance(ctx context.Context, sess store.Session, taskID string, delta int, dedupKey string) (model.Task, bool) {
	if delta <= 0 {
		return model.Task{}, false
	}
	t, done, err := e.advance(ctx, sess, taskID, delta)
	if err != nil {
		e.log.Warn().Err(err).
			Str("user_id", sess.UserID()).
			Str("task_id", taskID).
			Int("delta", delta).
			Str("dedup_key", dedupKey).
			Msg("task progress not recorded")
		return model.Task{}, false
	}
	if done {
		e.log.Info().
			Str("user_id", sess.UserID()).
			Str("task_id", t.TaskID).
			Str("dedup_key", dedupKey).
			Msg("task completed")
	}
	return t, done
}

func (e *Engine) advance(ctx context.Context, sess store.Session, taskID string, delta int) (model.Task, bool, error) {
	t, err := e.lookup(ctx, sess, taskID)
	if errors.Is(err, store.ErrNotFound) {
		e.log.Debug().Str("user_id", sess.UserID()).Str("task_id", taskID).Msg("no such task")
		return model.Task{}, false, nil
	}
	if err != nil {
		return model.Task{}, false, err
	}
	if t.Status != model.StatusPending {
		return t, false, nil
	}

	progress := t.Target
	if delta < t.Target-t.Progress {
		progress = t.Progress + delta
	}
	done := progress >= t.Target

	err = sess.Atomic(ctx, func(tx store.Session) error {
		if progress != t.Progress {
			if err := tx.Tasks().UpdateProgress(ctx, t.TaskID, progress); err != nil {
				return fmt.Errorf("update progress: %w", err)
			}
		}
		if done {
			if err := tx.Tasks().CompleteTask(ctx, t.TaskID); err != nil {
				return fmt.Errorf("complete: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return model.Task{}, false, err
	}
	t.Progress = progress
	if done {
		t.Status = model.StatusCompleted
	}
	return t, done, nil
}

// lookup fetches taskID, redirecting a stale or missing rotating id to
// today's challenge.
func (e *Engine) lookup(ctx context.Context, sess store.Session, taskID string) (model.Task, error) {
	t, err := sess.Tasks().GetTask(ctx, taskID)
	if !errors.Is(err, store.ErrNotFound) || !catalogs.IsRotatingID(taskID) {
		return t, err
	}
	today := e.Today()
	id := catalogs.RotatingID(today)
	if id != taskID {
		t, err = sess.Tasks().GetTask(ctx, id)
		if !errors.Is(err, store.ErrNotFound) {
			return t, err
		}
	}
	if err := e.seedRotating(ctx, sess, today); err != nil {
		return model.Task{}, err
	}
	return sess.Tasks().GetTask(ctx, id)
}

// Record advances every recurring task and today's challenge whose trigger
// matches a, by one step each. It returns the tasks the action completed.
func (e *Engine) Record(ctx context.Context, sess store.Session, a Action) []model.Task {
	var done []model.Task
	for _, d := range e.cat.Recurring {
		if !matches(d.Trigger, d.TeaType, a) {
			continue
		}
		if t, ok := e.Advance(ctx, sess, d.ID, 1, a.Key); ok {
			done = append(done, t)
		}
	}
	today := e.Today()
	if ch, ok := e.cat.ChallengeFor(today); ok && matches(ch.Trigger, ch.TeaType, a) {
		if t, ok := e.Advance(ctx, sess, catalogs.RotatingID(today), 1, a.Key); ok {
			done = append(done, t)
		}
	}
	return done
}

func matches(trigger catalogs.Trigger, teaType string, a Action) bool {
	return trigger == a.Trigger && (teaType == "" || teaType == a.TeaType)
}
