package economy

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"teahouse.bot/internal/catalogs"
	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
	"teahouse.bot/internal/teahouse/store/memstore"
	"teahouse.bot/internal/teahouse/tasks"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type fixture struct {
	svc   *Service
	clock *clock
	st    *memstore.Store
	sess  store.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	c := &clock{t: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)}
	cat := catalogs.Default()
	cat.Tasks.Challenges = nil
	engine := tasks.New(cat.Tasks, tasks.WithClock(c.now), tasks.WithLocation(time.UTC))
	svc := New(engine, cat.Ratings, WithRand(rand.New(rand.NewSource(1))))

	st := memstore.New()
	sess, err := st.Open(ctx, "u1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	if err := engine.EnsureCatalog(ctx, sess); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	return &fixture{svc: svc, clock: c, st: st, sess: sess}
}

func (f *fixture) addTea(t *testing.T, name, teaType string, stock int, price model.Coins) model.Tea {
	t.Helper()
	tea, err := f.svc.AddTea(context.Background(), f.sess, model.Tea{Name: name, Stock: stock, TeaType: teaType, Price: price})
	if err != nil {
		t.Fatalf("add tea: %v", err)
	}
	return tea
}

func (f *fixture) progress(t *testing.T, id string) model.Task {
	t.Helper()
	task, err := f.sess.Tasks().GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	return task
}

func TestListingLookup(t *testing.T) {
	l := Listing{Teas: []model.Tea{{ID: 7, Name: "龙井"}, {ID: 9, Name: "大红袍"}}}
	if tea, ok := l.Lookup(2); !ok || tea.ID != 9 {
		t.Fatalf("lookup 2: %#v %v", tea, ok)
	}
	if _, ok := l.Lookup(0); ok {
		t.Fatalf("display ids start at 1")
	}
	if _, ok := l.Lookup(3); ok {
		t.Fatalf("out of range id accepted")
	}
}

func TestBuy_MovesCoinsStockAndItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.addTea(t, "西湖龙井", "绿茶", 5, model.WholeCoins(10))
	if err := f.sess.Wallet().Credit(ctx, model.WholeCoins(100)); err != nil {
		t.Fatal(err)
	}

	listing, err := f.svc.Shop(ctx, f.sess)
	if err != nil {
		t.Fatal(err)
	}
	picked, ok := listing.Lookup(1)
	if !ok || picked.ID != tea.ID {
		t.Fatalf("listing %#v", listing)
	}

	p, err := f.svc.Buy(ctx, f.sess, picked, 2)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if p.Total != model.WholeCoins(20) || p.Tea.Name != "西湖龙井" {
		t.Fatalf("purchase %#v", p)
	}
	bal, _ := f.sess.Wallet().Balance(ctx)
	if bal != model.WholeCoins(80) {
		t.Fatalf("balance %s", bal)
	}
	cur, _ := f.sess.Shop().GetTea(ctx, tea.ID)
	if cur.Stock != 3 {
		t.Fatalf("stock %d", cur.Stock)
	}
	items, _ := f.sess.Backpack().Items(ctx)
	if len(items) != 1 || items[0].Count != 2 || items[0].TeaType != "绿茶" {
		t.Fatalf("items %#v", items)
	}
	if got := f.progress(t, "daily_buy_tea").Progress; got != 1 {
		t.Fatalf("buy task progress %d", got)
	}
	if got := f.progress(t, "weekly_collect_tea").Progress; got != 1 {
		t.Fatalf("collect task progress %d", got)
	}

	p, err = f.svc.Buy(ctx, f.sess, picked, 1)
	if err != nil {
		t.Fatalf("second buy: %v", err)
	}
	if len(p.Completed) != 1 || p.Completed[0].TaskID != "daily_buy_tea" {
		t.Fatalf("expected buy task completed, got %#v", p.Completed)
	}
	if got := f.progress(t, "weekly_collect_tea").Progress; got != 1 {
		t.Fatalf("same tea collected twice: %d", got)
	}
}

func TestBuy_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.addTea(t, "大红袍", "乌龙茶", 2, model.WholeCoins(30))
	if err := f.sess.Wallet().Credit(ctx, model.WholeCoins(50)); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Buy(ctx, f.sess, tea, 0); !errors.Is(err, ErrBadQuantity) {
		t.Fatalf("expected ErrBadQuantity, got %v", err)
	}

	_, err := f.svc.Buy(ctx, f.sess, tea, 3)
	var se *StockError
	if !errors.As(err, &se) || se.Stock != 2 || !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected stock error, got %v", err)
	}

	_, err = f.svc.Buy(ctx, f.sess, tea, 2)
	var fe *FundsError
	if !errors.As(err, &fe) || fe.Need != model.WholeCoins(60) || fe.Have != model.WholeCoins(50) {
		t.Fatalf("expected funds error, got %v", err)
	}

	if _, err := f.svc.Buy(ctx, f.sess, model.Tea{ID: 999}, 1); !errors.Is(err, ErrUnknownTea) {
		t.Fatalf("expected ErrUnknownTea, got %v", err)
	}

	bal, _ := f.sess.Wallet().Balance(ctx)
	cur, _ := f.sess.Shop().GetTea(ctx, tea.ID)
	items, _ := f.sess.Backpack().Items(ctx)
	if bal != model.WholeCoins(50) || cur.Stock != 2 || len(items) != 0 {
		t.Fatalf("rejected purchases changed state: bal=%s stock=%d items=%d", bal, cur.Stock, len(items))
	}
}

func TestBuy_FailedBackpackWriteRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.addTea(t, "白毫银针", "白茶", 4, model.WholeCoins(5))
	if err := f.sess.Wallet().Credit(ctx, model.WholeCoins(50)); err != nil {
		t.Fatal(err)
	}
	f.st.Fail("AddItem", store.ErrTransient)
	if _, err := f.svc.Buy(ctx, f.sess, tea, 1); !errors.Is(err, store.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	f.st.Fail("AddItem", nil)
	bal, _ := f.sess.Wallet().Balance(ctx)
	cur, _ := f.sess.Shop().GetTea(ctx, tea.ID)
	if bal != model.WholeCoins(50) || cur.Stock != 4 {
		t.Fatalf("partial purchase committed: bal=%s stock=%d", bal, cur.Stock)
	}
}

func TestDrink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.sess.Backpack().AddItem(ctx, model.Item{Name: "正山小种", Count: 2, TeaType: "红茶", UnitPrice: model.WholeCoins(8)}); err != nil {
		t.Fatal(err)
	}

	d, err := f.svc.Drink(ctx, f.sess, "正山小种")
	if err != nil {
		t.Fatalf("drink: %v", err)
	}
	if d.Remaining != 1 || d.Item.TeaType != "红茶" {
		t.Fatalf("drink %#v", d)
	}
	if got := f.progress(t, "daily_drink_tea").Progress; got != 1 {
		t.Fatalf("drink task progress %d", got)
	}

	if _, err := f.svc.Drink(ctx, f.sess, "正山小种"); err != nil {
		t.Fatalf("drink last unit: %v", err)
	}
	if _, err := f.svc.Drink(ctx, f.sess, "正山小种"); !errors.Is(err, ErrNotInBackpack) {
		t.Fatalf("expected ErrNotInBackpack, got %v", err)
	}
	if _, err := f.svc.Drink(ctx, f.sess, "不存在"); !errors.Is(err, ErrNotInBackpack) {
		t.Fatalf("expected ErrNotInBackpack, got %v", err)
	}
}

func TestSignIn_OncePerDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.SignIn(ctx, f.sess)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if first.Already || first.Count != 1 || first.Day != "2024-03-05" {
		t.Fatalf("first sign-in %#v", first)
	}
	if first.Reward < model.WholeCoins(50) || first.Reward > model.WholeCoins(100) {
		t.Fatalf("reward %s out of range", first.Reward)
	}
	if first.Balance != first.Reward {
		t.Fatalf("balance %s, reward %s", first.Balance, first.Reward)
	}

	again, err := f.svc.SignIn(ctx, f.sess)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Already || again.Count != 1 || again.Reward != first.Reward || again.Balance != first.Balance {
		t.Fatalf("repeat sign-in %#v", again)
	}

	f.clock.t = f.clock.t.Add(24 * time.Hour)
	next, err := f.svc.SignIn(ctx, f.sess)
	if err != nil {
		t.Fatal(err)
	}
	if next.Already || next.Count != 2 || next.Balance != first.Reward+next.Reward {
		t.Fatalf("next day sign-in %#v", next)
	}
}

func TestSignIn_FixedRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc = New(f.svc.Tasks(), f.svc.Ratings(), WithSignInReward(model.WholeCoins(7), model.WholeCoins(7)))
	got, err := f.svc.SignIn(ctx, f.sess)
	if err != nil {
		t.Fatal(err)
	}
	if got.Reward != model.WholeCoins(7) {
		t.Fatalf("reward %s", got.Reward)
	}
}

func TestRate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.Rate(ctx, f.sess); !errors.Is(err, ErrEmptyBackpack) {
		t.Fatalf("expected ErrEmptyBackpack, got %v", err)
	}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		if err := f.sess.Backpack().AddItem(ctx, model.Item{Name: name, Count: 2, UnitPrice: model.WholeCoins(3)}); err != nil {
			t.Fatal(err)
		}
	}
	r, err := f.svc.Rate(ctx, f.sess)
	if err != nil {
		t.Fatal(err)
	}
	if r.Tier.Name != "绿茶行者" || r.Next == nil || r.Next.Name != "乌龙使者" || r.Needed != 2 {
		t.Fatalf("rating %#v", r)
	}
	if r.TotalCount != 10 || r.TotalValue != model.WholeCoins(30) {
		t.Fatalf("totals %#v", r)
	}
}

func TestShowcase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.Showcase(ctx, f.sess); !errors.Is(err, ErrEmptyBackpack) {
		t.Fatalf("expected ErrEmptyBackpack, got %v", err)
	}
	_ = f.sess.Backpack().AddItem(ctx, model.Item{Name: "a", Count: 1})
	_ = f.sess.Backpack().AddItem(ctx, model.Item{Name: "b", Count: 60})
	sc, err := f.svc.Showcase(ctx, f.sess)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Total != model.WholeCoins(20+10+50) {
		t.Fatalf("showcase %#v", sc)
	}
	bal, _ := f.sess.Wallet().Balance(ctx)
	if bal != sc.Total {
		t.Fatalf("balance %s", bal)
	}
}

func TestAdminShopOps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.AddTea(ctx, f.sess, model.Tea{Name: "  ", Stock: 1}); !errors.Is(err, ErrInvalidListing) {
		t.Fatalf("expected ErrInvalidListing, got %v", err)
	}
	tea := f.addTea(t, "茉莉花茶", "花茶", 1, model.WholeCoins(4))

	got, err := f.svc.Restock(ctx, f.sess, tea, 9)
	if err != nil || got.Stock != 10 {
		t.Fatalf("restock: %#v %v", got, err)
	}
	if _, err := f.svc.Restock(ctx, f.sess, tea, 0); !errors.Is(err, ErrBadQuantity) {
		t.Fatalf("expected ErrBadQuantity, got %v", err)
	}
	if err := f.svc.RemoveTea(ctx, f.sess, tea); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.svc.RemoveTea(ctx, f.sess, tea); !errors.Is(err, ErrUnknownTea) {
		t.Fatalf("expected ErrUnknownTea, got %v", err)
	}
	listing, _ := f.svc.Shop(ctx, f.sess)
	if !listing.Empty() {
		t.Fatalf("listing %#v", listing)
	}
}
