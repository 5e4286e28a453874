package economy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"teahouse.bot/internal/catalogs"
	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
	"teahouse.bot/internal/teahouse/tasks"
)

// Listing is a snapshot of the shop. Display ids are 1-based positions in
// Teas; callers pass the listing back to turn a display id into a tea.
type Listing struct {
	Teas []model.Tea
}

func (l Listing) Lookup(displayID int) (model.Tea, bool) {
	if displayID < 1 || displayID > len(l.Teas) {
		return model.Tea{}, false
	}
	return l.Teas[displayID-1], true
}

func (l Listing) Empty() bool { return len(l.Teas) == 0 }

func (s *Service) Shop(ctx context.Context, sess store.Session) (Listing, error) {
	teas, err := sess.Shop().ListTeas(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("list teas: %w", err)
	}
	return Listing{Teas: teas}, nil
}

type Purchase struct {
	Tea       model.Tea
	Quantity  int
	Total     model.Coins
	Completed []model.Task
}

// Buy debits the wallet, takes stock from the shop and fills the backpack in
// one transaction. A tea not yet in the backpack also counts as collected.
func (s *Service) Buy(ctx context.Context, sess store.Session, tea model.Tea, qty int) (Purchase, error) {
	if qty <= 0 {
		return Purchase{}, ErrBadQuantity
	}
	var (
		p     = Purchase{Quantity: qty}
		fresh bool
	)
	err := sess.Atomic(ctx, func(tx store.Session) error {
		cur, err := tx.Shop().GetTea(ctx, tea.ID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnknownTea
		}
		if err != nil {
			return fmt.Errorf("get tea: %w", err)
		}
		if cur.Stock < qty {
			return &StockError{Stock: cur.Stock}
		}
		p.Tea = cur
		p.Total = cur.Price * model.Coins(qty)

		bal, err := tx.Wallet().Balance(ctx)
		if err != nil {
			return fmt.Errorf("balance: %w", err)
		}
		if bal < p.Total {
			return &FundsError{Need: p.Total, Have: bal}
		}
		if err := tx.Wallet().Debit(ctx, p.Total); err != nil {
			if errors.Is(err, store.ErrInsufficientFunds) {
				return &FundsError{Need: p.Total, Have: bal}
			}
			return fmt.Errorf("debit: %w", err)
		}
		if _, err := tx.Shop().AdjustStock(ctx, cur.ID, -qty); err != nil {
			if errors.Is(err, store.ErrInsufficientStock) {
				return &StockError{Stock: cur.Stock}
			}
			return fmt.Errorf("adjust stock: %w", err)
		}

		items, err := tx.Backpack().Items(ctx)
		if err != nil {
			return fmt.Errorf("backpack: %w", err)
		}
		fresh = findItem(items, cur.Name) == nil
		return tx.Backpack().AddItem(ctx, model.Item{
			Name:      cur.Name,
			Count:     qty,
			TeaType:   cur.TeaType,
			UnitPrice: cur.Price,
		})
	})
	if err != nil {
		return Purchase{}, err
	}

	s.record(model.LedgerEntry{UserID: sess.UserID(), Kind: model.LedgerPurchase, Amount: -p.Total, Ref: p.Tea.Name, Count: qty})
	key := "buy:" + strconv.FormatInt(p.Tea.ID, 10)
	p.Completed = s.tasks.Record(ctx, sess, tasks.Action{Trigger: catalogs.TriggerBuy, TeaType: p.Tea.TeaType, Key: key})
	if fresh {
		p.Completed = append(p.Completed, s.tasks.Record(ctx, sess, tasks.Action{Trigger: catalogs.TriggerCollect, TeaType: p.Tea.TeaType, Key: "collect:" + p.Tea.Name})...)
	}
	s.log.Info().
		Str("user_id", sess.UserID()).
		Str("tea", p.Tea.Name).
		Int("qty", qty).
		Stringer("total", p.Total).
		Msg("purchase")
	return p, nil
}

// AddTea lists a new tea and returns it with its storage id.
func (s *Service) AddTea(ctx context.Context, sess store.Session, t model.Tea) (model.Tea, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" || t.Stock < 0 || t.Price < 0 {
		return model.Tea{}, ErrInvalidListing
	}
	id, err := sess.Shop().AddTea(ctx, t)
	if err != nil {
		return model.Tea{}, fmt.Errorf("add tea: %w", err)
	}
	t.ID = id
	s.record(model.LedgerEntry{UserID: sess.UserID(), Kind: model.LedgerShop, Ref: "list:" + t.Name, Count: t.Stock})
	return t, nil
}

func (s *Service) RemoveTea(ctx context.Context, sess store.Session, t model.Tea) error {
	if err := sess.Shop().RemoveTea(ctx, t.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnknownTea
		}
		return fmt.Errorf("remove tea: %w", err)
	}
	s.record(model.LedgerEntry{UserID: sess.UserID(), Kind: model.LedgerShop, Ref: "delist:" + t.Name})
	return nil
}

// Restock adds n units and returns the updated row.
func (s *Service) Restock(ctx context.Context, sess store.Session, t model.Tea, n int) (model.Tea, error) {
	if n <= 0 {
		return model.Tea{}, ErrBadQuantity
	}
	out, err := sess.Shop().AdjustStock(ctx, t.ID, n)
	if errors.Is(err, store.ErrNotFound) {
		return model.Tea{}, ErrUnknownTea
	}
	if err != nil {
		return model.Tea{}, fmt.Errorf("restock: %w", err)
	}
	s.record(model.LedgerEntry{UserID: sess.UserID(), Kind: model.LedgerShop, Ref: "restock:" + out.Name, Count: n})
	return out, nil
}
