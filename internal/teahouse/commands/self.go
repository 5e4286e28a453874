package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"teahouse.bot/internal/teahouse/economy"
)

func signIn(ctx context.Context, c *call) (string, error) {
	s, err := c.r.svc.SignIn(ctx, c.sess)
	if err != nil {
		return "", err
	}
	status := "签到成功"
	if s.Already {
		status = "今日已签到"
	}
	return fmt.Sprintf("%s\n%s\n签到日期: %s\n签到天数: %d\n获取金币: %s\n金币: %s",
		c.UserName, status, s.Day, s.Count, s.Reward, s.Balance) + completedNote(c, s.Completed), nil
}

func showBalance(ctx context.Context, c *call) (string, error) {
	bal, err := c.r.svc.Balance(ctx, c.sess)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s 的余额: %s 金币", c.UserName, bal), nil
}

func showBackpack(ctx context.Context, c *call) (string, error) {
	bp, err := c.r.svc.Backpack(ctx, c.sess)
	if err != nil {
		return "", err
	}
	if len(bp.Items) == 0 {
		return c.UserName + " 的背包空空如也。", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "----- %s 的背包 -----\n\n", c.UserName)
	for _, it := range bp.Items {
		fmt.Fprintf(&b, "物品名称: %s\n数量: %d\n类型: %s\n单价: %s 金币\n总价值: %s 金币\n----------\n",
			it.Name, it.Count, it.TeaType, it.UnitPrice, it.Value())
	}
	fmt.Fprintf(&b, "\n总计物品数量: %d", bp.TotalCount)
	return b.String(), nil
}

var drinkLines = map[string]string{
	"绿茶":  "清淡的绿茶散发着清香，%s 感到一阵清新舒适。",
	"乌龙茶": "醇厚的乌龙茶在口中回甘，%s 感到心旷神怡。",
	"黑茶":  "陈香浓郁的黑茶暖胃舒心，%s 感到浑身温暖。",
	"红茶":  "香甜的红茶让%s感到温暖和放松。",
	"白茶":  "清淡的白茶带着自然的香气，%s 感到宁静祥和。",
}

func drink(ctx context.Context, c *call) (string, error) {
	if c.arg == "" {
		return usage(c, "喝茶", "<茶叶名称>"), nil
	}
	d, err := c.r.svc.Drink(ctx, c.sess, c.arg)
	if errors.Is(err, economy.ErrNotInBackpack) {
		return fmt.Sprintf("您的背包中没有 %s 或数量不足。", c.arg), nil
	}
	if err != nil {
		return "", err
	}
	line := fmt.Sprintf("%s 品尝了 %s，感到十分满足。", c.UserName, d.Item.Name)
	if tmpl, ok := drinkLines[d.Item.TeaType]; ok {
		line = fmt.Sprintf(tmpl, c.UserName)
	}
	return fmt.Sprintf("%s\n您享用了 1 份 %s，背包中还剩 %d 份。", line, d.Item.Name, d.Remaining) +
		completedNote(c, d.Completed), nil
}

func showcase(ctx context.Context, c *call) (string, error) {
	sc, err := c.r.svc.Showcase(ctx, c.sess)
	if errors.Is(err, economy.ErrEmptyBackpack) {
		return c.UserName + " 的背包中没有茶叶，无法进行茶艺展示。\n请先购买一些茶叶吧！", nil
	}
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🍵 %s 的茶艺展示\n\n", c.UserName)
	fmt.Fprintf(&b, "展示了 %d 种茶叶，共计 %d 份\n", sc.Varieties, sc.TotalCount)
	fmt.Fprintf(&b, "基础奖励: %s 金币\n种类奖励: %s 金币\n数量奖励: %s 金币\n", sc.Base, sc.VarietyBonus, sc.CountBonus)
	fmt.Fprintf(&b, "总计获得: %s 金币\n\n", sc.Total)
	b.WriteString("茶香四溢，技艺精湛！观众们纷纷鼓掌叫好~")
	return b.String(), nil
}

func rate(ctx context.Context, c *call) (string, error) {
	r, err := c.r.svc.Rate(ctx, c.sess)
	if errors.Is(err, economy.ErrEmptyBackpack) {
		return c.UserName + " 的背包空空如也，暂无评级。\n快去购买一些茶叶丰富你的收藏吧！", nil
	}
	if err != nil {
		return "", err
	}
	rc := c.r.svc.Ratings()
	var b strings.Builder
	fmt.Fprintf(&b, "📜 %s 的茶叶评级\n\n", c.UserName)
	fmt.Fprintf(&b, "评级: %s\n收藏种类: %d 种\n收藏数量: %d 份\n收藏价值: %s 金币\n", r.Tier.Name, r.Varieties, r.TotalCount, r.TotalValue)
	if r.Next != nil {
		fmt.Fprintf(&b, "\n%s: %s\n升级要求: 还需收集 %d 种茶叶\n", rc.NextRatingText, r.Next.Name, r.Needed)
	} else {
		fmt.Fprintf(&b, "\n%s\n", rc.MaxRatingText)
	}
	b.WriteString("\n" + r.Tier.Description)
	return b.String(), nil
}

func showRatingTiers(_ context.Context, c *call) (string, error) {
	var b strings.Builder
	b.WriteString("📜 茶叶评级标准\n\n")
	for _, t := range c.r.svc.Ratings().Tiers {
		fmt.Fprintf(&b, "%s: %d-%d 种茶叶\n  %s\n", t.Name, t.MinVarieties, t.MaxVarieties, t.Description)
	}
	b.WriteString("\n评级标准在 ratings.yaml 中配置，重启后生效。")
	return b.String(), nil
}
