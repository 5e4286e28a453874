package economy

import (
	"context"
	"fmt"

	"teahouse.bot/internal/catalogs"
	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
	"teahouse.bot/internal/teahouse/tasks"
)

type SignIn struct {
	// Already is set when the user had signed in earlier the same day.
	Already bool
	Day     string
	Count   int
	Reward  model.Coins
	Balance model.Coins

	Completed []model.Task
}

// SignIn grants a random reward once per calendar day.
func (s *Service) SignIn(ctx context.Context, sess store.Session) (SignIn, error) {
	out := SignIn{Day: s.tasks.Today().Format("2006-01-02")}
	reward := s.randomReward()

	var fresh bool
	err := sess.Atomic(ctx, func(tx store.Session) error {
		ok, err := tx.Users().RecordSignIn(ctx, out.Day, reward)
		if err != nil {
			return fmt.Errorf("record sign-in: %w", err)
		}
		if !ok {
			return nil
		}
		fresh = true
		return tx.Wallet().Credit(ctx, reward)
	})
	if err != nil {
		return SignIn{}, err
	}

	prof, err := sess.Users().Profile(ctx)
	if err != nil {
		return SignIn{}, fmt.Errorf("profile: %w", err)
	}
	out.Balance, err = sess.Wallet().Balance(ctx)
	if err != nil {
		return SignIn{}, fmt.Errorf("balance: %w", err)
	}
	out.Count = prof.SignInCount
	out.Reward = prof.LastReward
	out.Already = !fresh
	if out.Already {
		return out, nil
	}

	s.record(model.LedgerEntry{UserID: sess.UserID(), Kind: model.LedgerSignIn, Amount: reward, Ref: out.Day})
	out.Completed = s.tasks.Record(ctx, sess, tasks.Action{Trigger: catalogs.TriggerSignIn, Key: "sign_in:" + out.Day})
	return out, nil
}
