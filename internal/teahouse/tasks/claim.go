package tasks

import (
	"context"
	"fmt"

	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
)

// Claim pays t's reward into the user's wallet and marks it claimed, both
// in one transaction. The conditional state change is what makes a second
// concurrent claim fail with ErrAlreadyClaimed.
func (e *Engine) Claim(ctx context.Context, sess store.Session, t model.Task) (model.Coins, error) {
	switch t.Status {
	case model.StatusPending:
		return 0, ErrNotCompleted
	case model.StatusClaimed:
		return 0, ErrAlreadyClaimed
	case model.StatusCompleted:
	default:
		return 0, fmt.Errorf("task %s: unknown status %q", t.TaskID, t.Status)
	}

	err := sess.Atomic(ctx, func(tx store.Session) error {
		ok, err := tx.Tasks().ClaimReward(ctx, t.TaskID)
		if err != nil {
			return fmt.Errorf("claim %s: %w", t.TaskID, err)
		}
		if !ok {
			return ErrAlreadyClaimed
		}
		if err := tx.Wallet().Credit(ctx, t.Reward); err != nil {
			return fmt.Errorf("credit: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	entry := model.LedgerEntry{
		Time:   e.now().UTC(),
		UserID: sess.UserID(),
		Kind:   model.LedgerClaim,
		Amount: t.Reward,
		Ref:    t.TaskID,
	}
	if err := e.ledger.Append(entry); err != nil {
		e.log.Warn().Err(err).Str("user_id", sess.UserID()).Str("task_id", t.TaskID).Msg("ledger append failed")
	}
	e.log.Info().
		Str("user_id", sess.UserID()).
		Str("task_id", t.TaskID).
		Stringer("reward", t.Reward).
		Msg("reward claimed")
	return t.Reward, nil
}
