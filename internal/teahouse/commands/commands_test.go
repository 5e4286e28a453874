package commands

import (
	"context"
	"strings"
	"testing"
	"time"

	"teahouse.bot/internal/catalogs"
	"teahouse.bot/internal/teahouse/auth"
	"teahouse.bot/internal/teahouse/economy"
	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/store"
	"teahouse.bot/internal/teahouse/store/memstore"
	"teahouse.bot/internal/teahouse/tasks"
)

func newRouter(t *testing.T) (*Router, *memstore.Store) {
	t.Helper()
	now := func() time.Time { return time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC) }
	cat := catalogs.Default()
	cat.Tasks.Challenges = []catalogs.ChallengeDef{
		{Suffix: "品三种绿茶", Description: "连续品尝三种绿茶", Target: 3, Reward: 60, Trigger: catalogs.TriggerDrink, TeaType: "绿茶"},
	}
	engine := tasks.New(cat.Tasks, tasks.WithClock(now), tasks.WithLocation(time.UTC))
	svc := economy.New(engine, cat.Ratings)
	st := memstore.New()
	return New(svc, st, auth.NewStatic("boss"), WithBotName("雪泷")), st
}

func say(t *testing.T, r *Router, user, text string) string {
	t.Helper()
	reply, ok := r.Handle(context.Background(), Request{UserID: user, UserName: user, Text: text})
	if !ok {
		t.Fatalf("%q not handled", text)
	}
	return reply
}

func expect(t *testing.T, reply string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(reply, w) {
			t.Fatalf("reply %q missing %q", reply, w)
		}
	}
}

func give(t *testing.T, st *memstore.Store, user string, it model.Item, coins model.Coins) {
	t.Helper()
	ctx := context.Background()
	sess, err := st.Open(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()
	if it.Name != "" {
		if err := sess.Backpack().AddItem(ctx, it); err != nil {
			t.Fatal(err)
		}
	}
	if coins > 0 {
		if err := sess.Wallet().Credit(ctx, coins); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		text, cmd, arg string
		ok             bool
	}{
		{"雪泷领取奖励 品三种绿茶", "领取奖励", "品三种绿茶", true},
		{"领取奖励品三种绿茶", "领取奖励", "", false},
		{"领取奖励\t品茶师", "领取奖励", "品茶师", true},
		{"签到了吗大家", "签到", "", false},
		{"背包里都有啥", "背包", "", false},
		{"商店什么时候上新", "商店", "", false},
		{"雪泷签到", "签到", "", true},
		{"  /雪泷 喝茶  西湖龙井 ", "喝茶", "西湖龙井", true},
		{"雪泷余额", "余额", "", true},
		{"你好", "余额", "", false},
		{"雪泷", "余额", "", false},
	}
	for _, c := range cases {
		arg, ok := Normalize(c.text, "雪泷", c.cmd)
		if ok != c.ok || arg != c.arg {
			t.Fatalf("Normalize(%q, %q) = %q, %v", c.text, c.cmd, arg, ok)
		}
	}
}

func TestParseListing(t *testing.T) {
	tea, err := parseListing("西湖 龙井茶 10 绿茶 20 清香 回甘")
	if err != nil {
		t.Fatal(err)
	}
	if tea.Name != "西湖 龙井茶" || tea.Stock != 10 || tea.TeaType != "绿茶" || tea.Price != model.WholeCoins(20) || tea.Description != "清香 回甘" {
		t.Fatalf("multi-word name: %#v", tea)
	}

	tea, err = parseListing("茶叶名称龙井 库存10 类型绿茶 价格12.5 描述好喝")
	if err != nil {
		t.Fatal(err)
	}
	if tea.Name != "龙井" || tea.Stock != 10 || tea.TeaType != "绿茶" || tea.Price != model.Coins(1250) || tea.Description != "好喝" {
		t.Fatalf("labels: %#v", tea)
	}

	tea, err = parseListing("龙井 10 绿茶 20 很好的 红茶")
	if err != nil {
		t.Fatal(err)
	}
	if tea.Name != "龙井" || tea.Stock != 10 || tea.Description != "很好的 红茶" {
		t.Fatalf("description swallowed fields: %#v", tea)
	}

	if _, err := parseListing("龙井 10 绿茶 20"); err != errTooFewArgs {
		t.Fatalf("expected errTooFewArgs, got %v", err)
	}
	if _, err := parseListing("龙井 十 绿茶 20 好"); err != errBadNumber {
		t.Fatalf("expected errBadNumber, got %v", err)
	}
}

func TestHandle_IgnoresOtherText(t *testing.T) {
	r, _ := newRouter(t)
	for _, text := range []string{"今天天气不错", "签到了吗大家", "背包里都有啥", "雪泷余额多少"} {
		if _, ok := r.Handle(context.Background(), Request{UserID: "u", Text: text}); ok {
			t.Fatalf("chatter %q treated as a command", text)
		}
	}
}

func TestHandle_StoreUnavailable(t *testing.T) {
	r, st := newRouter(t)
	st.SetDown(true)
	expect(t, say(t, r, "u", "雪泷任务列表"), "任务功能无法使用")
	expect(t, say(t, r, "u", "雪泷茶馆帮助"), "雪泷签到 - 每日签到获取金币")
}

func TestHandle_TransientFailure(t *testing.T) {
	r, st := newRouter(t)
	st.Fail("Balance", store.ErrTransient)
	if got := say(t, r, "u", "余额"); got != "查询余额失败，请稍后再试。" {
		t.Fatalf("got %q", got)
	}
	if st.OpenSessions() != 0 {
		t.Fatalf("session leaked on failure")
	}
}

func TestHelp(t *testing.T) {
	r, _ := newRouter(t)
	expect(t, say(t, r, "u", "茶馆帮助"),
		"🛍 商店相关：",
		"雪泷购买 <商品ID> <数量> - 购买茶叶",
		"雪泷领取奖励 <任务名称> - 领取任务奖励",
		"👑 管理员相关：")
}

func TestTaskListAndClaim(t *testing.T) {
	r, st := newRouter(t)

	list := say(t, r, "u", "雪泷任务列表")
	expect(t, list, "【每日任务】", "⏳ 品茶师 - 品尝3种不同的茶叶", "进度: 0/3 | 奖励: 50.00 金币", "【每周任务】", "今日挑战: 品三种绿茶")

	expect(t, say(t, r, "u", "雪泷领取奖励"), "参数不足，请使用 雪泷领取奖励 <任务名称>")
	expect(t, say(t, r, "u", "雪泷领取奖励 不存在"),
		"未找到该任务", "  - 品茶师 (品尝3种不同的茶叶)", "  - 今日挑战: 品三种绿茶")
	expect(t, say(t, r, "u", "雪泷领取奖励 品三种绿茶"), "任务 '今日挑战: 品三种绿茶' 尚未完成", "当前进度: 0/3")

	give(t, st, "u", model.Item{Name: "西湖龙井", Count: 3, TeaType: "绿茶", UnitPrice: model.WholeCoins(10)}, 0)
	expect(t, say(t, r, "u", "喝茶 西湖龙井"), "清淡的绿茶散发着清香", "背包中还剩 2 份")
	say(t, r, "u", "喝茶 西湖龙井")
	last := say(t, r, "u", "喝茶 西湖龙井")
	expect(t, last, "背包中还剩 0 份", "任务 '品茶师' 已完成", "任务 '今日挑战: 品三种绿茶' 已完成")
	expect(t, say(t, r, "u", "喝茶 西湖龙井"), "您的背包中没有 西湖龙井 或数量不足。")

	expect(t, say(t, r, "u", "任务列表"), "✅ 品茶师")
	expect(t, say(t, r, "u", "雪泷领取奖励 连续品尝三种绿茶"), "🎉 恭喜 u！", "获得 60.00 金币")
	expect(t, say(t, r, "u", "雪泷领取奖励 品茶师"), "获得 50.00 金币")
	if got := say(t, r, "u", "雪泷领取奖励 品茶师"); got != "你已经领取过了" {
		t.Fatalf("second claim: %q", got)
	}
	expect(t, say(t, r, "u", "余额"), "u 的余额: 110.00 金币")
	expect(t, say(t, r, "u", "任务列表"), "🎁 品茶师")

	if st.OpenSessions() != 0 {
		t.Fatalf("%d sessions left open", st.OpenSessions())
	}
}

func TestShopAdminAndBuy(t *testing.T) {
	r, st := newRouter(t)

	if got := say(t, r, "u", "雪泷上架 龙井 10 绿茶 20 好喝"); got != "权限不足，只有管理员才能上架商品" {
		t.Fatalf("non-admin listing: %q", got)
	}
	expect(t, say(t, r, "boss", "雪泷上架"), "参数不足，请使用 雪泷上架")
	expect(t, say(t, r, "boss", "雪泷上架 龙井 十 绿茶 20 好喝"), "参数错误")
	expect(t, say(t, r, "boss", "雪泷上架 西湖 龙井茶 10 绿茶 20 清香 回甘"),
		"上架成功！", "茶叶名称: 西湖 龙井茶", "库存: 10", "价格: 20.00 金币", "描述: 清香 回甘", "商品ID: 1")

	expect(t, say(t, r, "u", "商店"), "----- 茶馆商店 -----", "ID: 1", "茶叶名称: 西湖 龙井茶")
	expect(t, say(t, r, "u", "购买"), "可购买的茶叶商品", "ID: 1 | 西湖 龙井茶 | 价格: 20.00金币 | 库存: 10")
	expect(t, say(t, r, "u", "购买 1"), "参数不足，请使用 雪泷购买 <商品ID> <数量>")
	expect(t, say(t, r, "u", "购买 a b"), "参数错误，商品ID和数量必须是数字")
	expect(t, say(t, r, "u", "购买 1 0"), "购买数量必须大于0")
	expect(t, say(t, r, "u", "购买 9 1"), "未找到该商品，请检查商品ID是否正确", "ID: 1 | 西湖 龙井茶 | 库存: 10")
	expect(t, say(t, r, "u", "购买 1 11"), "库存不足，当前库存仅有 10 份")
	expect(t, say(t, r, "u", "购买 1 2"), "余额不足，需要 40.00 金币，您当前有 0.00 金币")

	give(t, st, "u", model.Item{}, model.WholeCoins(100))
	expect(t, say(t, r, "u", "雪泷购买 1 2"), "购买成功！", "购买了 2 份 西湖 龙井茶", "花费 40.00 金币")
	expect(t, say(t, r, "u", "背包"), "物品名称: 西湖 龙井茶", "数量: 2", "总价值: 40.00 金币", "总计物品数量: 2")
	expect(t, say(t, r, "u", "茶叶评级"), "评级: 青茶学徒", "下一等级: 绿茶行者", "还需收集 3 种茶叶")

	expect(t, say(t, r, "boss", "补货 1 5"), "补货成功！", "补货后库存: 13")
	expect(t, say(t, r, "boss", "补货 1 0"), "补货数量必须大于0")
	expect(t, say(t, r, "boss", "下架 x"), "参数错误，商品ID必须是数字")
	expect(t, say(t, r, "boss", "下架 3"), "未找到该商品")
	expect(t, say(t, r, "boss", "下架 1"), "下架成功！\n商品: 西湖 龙井茶")
	if got := say(t, r, "u", "商店"); got != "商店暂无商品。" {
		t.Fatalf("empty shop: %q", got)
	}
	if got := say(t, r, "boss", "下架 1"); got != "未找到该商品，且商店中暂无其他商品" {
		t.Fatalf("delist on empty shop: %q", got)
	}
}

func TestSignInAndShowcase(t *testing.T) {
	r, st := newRouter(t)
	expect(t, say(t, r, "u", "签到"), "签到成功", "签到日期: 2024-03-05", "签到天数: 1")
	expect(t, say(t, r, "u", "签到"), "今日已签到", "签到天数: 1")

	expect(t, say(t, r, "u", "茶艺展示"), "背包中没有茶叶")
	give(t, st, "u", model.Item{Name: "大红袍", Count: 4, TeaType: "乌龙茶"}, 0)
	expect(t, say(t, r, "u", "茶艺展示"), "展示了 1 种茶叶，共计 4 份", "总计获得: 29.00 金币")
}

func TestRatingTiersAdminOnly(t *testing.T) {
	r, _ := newRouter(t)
	expect(t, say(t, r, "u", "配置评级"), "权限不足")
	expect(t, say(t, r, "boss", "配置评级"), "青茶学徒: 1-3 种茶叶", "普洱宗师")
}
