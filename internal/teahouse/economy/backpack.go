package economy

import (
	"context"
	"fmt"

	"teahouse.bot/internal/catalogs"
	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
	"teahouse.bot/internal/teahouse/tasks"
)

type Backpack struct {
	Items      []model.Item
	TotalCount int
	TotalValue model.Coins
}

func (b Backpack) Varieties() int { return len(b.Items) }

func (s *Service) Backpack(ctx context.Context, sess store.Session) (Backpack, error) {
	items, err := sess.Backpack().Items(ctx)
	if err != nil {
		return Backpack{}, fmt.Errorf("backpack: %w", err)
	}
	b := Backpack{Items: items}
	for _, it := range items {
		b.TotalCount += it.Count
		b.TotalValue += it.Value()
	}
	return b, nil
}

func (s *Service) Balance(ctx context.Context, sess store.Session) (model.Coins, error) {
	bal, err := sess.Wallet().Balance(ctx)
	if err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	return bal, nil
}

type Drink struct {
	Item      model.Item
	Remaining int
	Completed []model.Task
}

// Drink consumes one unit of the named tea.
func (s *Service) Drink(ctx context.Context, sess store.Session, name string) (Drink, error) {
	items, err := sess.Backpack().Items(ctx)
	if err != nil {
		return Drink{}, fmt.Errorf("backpack: %w", err)
	}
	it := findItem(items, name)
	if it == nil || it.Count <= 0 {
		return Drink{}, ErrNotInBackpack
	}
	ok, err := sess.Backpack().RemoveItem(ctx, name, 1)
	if err != nil {
		return Drink{}, fmt.Errorf("remove item: %w", err)
	}
	if !ok {
		return Drink{}, ErrNotInBackpack
	}

	d := Drink{Item: *it, Remaining: it.Count - 1}
	s.record(model.LedgerEntry{UserID: sess.UserID(), Kind: model.LedgerDrink, Ref: name, Count: 1})
	d.Completed = s.tasks.Record(ctx, sess, tasks.Action{Trigger: catalogs.TriggerDrink, TeaType: it.TeaType, Key: "drink:" + name})
	return d, nil
}

type Rating struct {
	Tier       catalogs.RatingTier
	Next       *catalogs.RatingTier
	Varieties  int
	TotalCount int
	TotalValue model.Coins
	// Needed is how many more varieties reach Next.
	Needed int
}

func (s *Service) Rate(ctx context.Context, sess store.Session) (Rating, error) {
	b, err := s.Backpack(ctx, sess)
	if err != nil {
		return Rating{}, err
	}
	cur, next, ok := s.ratings.TierFor(b.Varieties())
	if !ok {
		return Rating{}, ErrEmptyBackpack
	}
	r := Rating{
		Tier:       cur,
		Next:       next,
		Varieties:  b.Varieties(),
		TotalCount: b.TotalCount,
		TotalValue: b.TotalValue,
	}
	if next != nil {
		r.Needed = next.MinVarieties - r.Varieties
	}
	return r, nil
}

// Showcase bonus parts, in whole coins.
const (
	showcaseBase          = 20
	showcasePerVariety    = 5
	showcaseCountBonusCap = 50
)

type Showcase struct {
	Varieties    int
	TotalCount   int
	Base         model.Coins
	VarietyBonus model.Coins
	CountBonus   model.Coins
	Total        model.Coins
}

// Showcase pays a bonus for displaying the collection: a base amount, a
// bonus per variety and one coin per unit up to a cap.
func (s *Service) Showcase(ctx context.Context, sess store.Session) (Showcase, error) {
	b, err := s.Backpack(ctx, sess)
	if err != nil {
		return Showcase{}, err
	}
	if b.Varieties() == 0 {
		return Showcase{}, ErrEmptyBackpack
	}
	sc := Showcase{
		Varieties:    b.Varieties(),
		TotalCount:   b.TotalCount,
		Base:         model.WholeCoins(showcaseBase),
		VarietyBonus: model.WholeCoins(int64(b.Varieties() * showcasePerVariety)),
		CountBonus:   model.WholeCoins(int64(min(b.TotalCount, showcaseCountBonusCap))),
	}
	sc.Total = sc.Base + sc.VarietyBonus + sc.CountBonus
	if err := sess.Wallet().Credit(ctx, sc.Total); err != nil {
		return Showcase{}, fmt.Errorf("credit: %w", err)
	}
	s.record(model.LedgerEntry{UserID: sess.UserID(), Kind: model.LedgerShowcase, Amount: sc.Total})
	return sc, nil
}

func findItem(items []model.Item, name string) *model.Item {
	for i := range items {
		if items[i].Name == name {
			return &items[i]
		}
	}
	return nil
}
