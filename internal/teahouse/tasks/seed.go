package tasks

import (
	"context"
	"fmt"
	"time"

	"teahouse.bot/internal/catalogs"
	"teahouse.bot/internal/teahouse/store"
)

// EnsureCatalog creates the recurring tasks and today's challenge for the
// session's user where they are missing. Rows that exist are left alone, so
// it is safe to call on every interaction.
func (e *Engine) EnsureCatalog(ctx context.Context, sess store.Session) error {
	existing, err := sess.Tasks().ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t.TaskID] = true
	}

	for _, d := range e.cat.Recurring {
		if have[d.ID] {
			continue
		}
		created, err := sess.Tasks().CreateTask(ctx, d.NewTask())
		if err != nil {
			return fmt.Errorf("create task %s: %w", d.ID, err)
		}
		if created {
			e.log.Debug().
				Str("user_id", sess.UserID()).
				Str("task_id", d.ID).
				Msg("seeded recurring task")
		}
	}

	today := e.Today()
	if have[catalogs.RotatingID(today)] {
		return nil
	}
	return e.seedRotating(ctx, sess, today)
}

// SeedRotatingTask makes sure today's challenge row exists and returns its id.
func (e *Engine) SeedRotatingTask(ctx context.Context, sess store.Session) (string, error) {
	today := e.Today()
	if err := e.seedRotating(ctx, sess, today); err != nil {
		return "", err
	}
	return catalogs.RotatingID(today), nil
}

func (e *Engine) seedRotating(ctx context.Context, sess store.Session, day time.Time) error {
	ch, ok := e.cat.ChallengeFor(day)
	if !ok {
		return nil
	}
	nt := catalogs.RotatingTask(day, ch)
	created, err := sess.Tasks().CreateTask(ctx, nt)
	if err != nil {
		return fmt.Errorf("create task %s: %w", nt.TaskID, err)
	}
	if created {
		e.log.Debug().
			Str("user_id", sess.UserID()).
			Str("task_id", nt.TaskID).
			Str("name", nt.Name).
			Msg("seeded daily challenge")
	}
	return nil
}
