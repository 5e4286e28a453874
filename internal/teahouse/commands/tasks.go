package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"teahouse.bot/internal/teahouse/model"
	"teahouse.bot/internal/teahouse/tasks"
)

var categoryTitles = map[model.Category]string{
	model.CategoryDaily:   "【每日任务】",
	model.CategoryWeekly:  "【每周任务】",
	model.CategorySpecial: "【特殊任务】",
}

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return "✅"
	case model.StatusClaimed:
		return "🎁"
	default:
		return "⏳"
	}
}

func listTasks(ctx context.Context, c *call) (string, error) {
	all, err := c.sess.Tasks().ListTasks(ctx)
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return c.UserName + " 暂无任务。\n每天凌晨会刷新任务列表哦~", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📜 %s 的茶馆任务\n\n", c.UserName)
	for _, cat := range model.Categories {
		header := false
		for _, t := range all {
			if t.Category != cat {
				continue
			}
			if !header {
				b.WriteString(categoryTitles[cat] + "\n")
				header = true
			}
			fmt.Fprintf(&b, "%s %s - %s\n", statusIcon(t.Status), t.Name, t.Description)
			fmt.Fprintf(&b, "   进度: %d/%d | 奖励: %s 金币\n\n", t.Progress, t.Target, t.Reward)
		}
	}
	b.WriteString("完成任务可获得金币奖励！\n\n")
	fmt.Fprintf(&b, "使用 %s <任务名称> 来领取已完成任务的奖励！", c.r.cmd("领取奖励"))
	return b.String(), nil
}

func claim(ctx context.Context, c *call) (string, error) {
	if c.arg == "" {
		return usage(c, "领取奖励", "<任务名称>"), nil
	}
	all, err := c.sess.Tasks().ListTasks(ctx)
	if err != nil {
		return "", err
	}
	t, ok := tasks.Resolve(c.arg, all)
	if !ok {
		var b strings.Builder
		b.WriteString("未找到该任务，请检查任务名称是否正确。\n可用的任务列表:")
		for _, cand := range all {
			b.WriteString("\n  - " + tasks.Label(cand))
		}
		return b.String(), nil
	}

	reward, err := c.r.svc.Tasks().Claim(ctx, c.sess, t)
	switch {
	case errors.Is(err, tasks.ErrNotCompleted):
		return fmt.Sprintf("任务 '%s' 尚未完成，无法领取奖励。\n当前进度: %d/%d", t.Name, t.Progress, t.Target), nil
	case errors.Is(err, tasks.ErrAlreadyClaimed):
		return "你已经领取过了", nil
	case err != nil:
		return "", err
	}
	return fmt.Sprintf("🎉 恭喜 %s！\n任务 '%s' 的奖励已发放。\n获得 %s 金币。", c.UserName, t.Name, reward), nil
}

// completedNote tells the user which tasks an action just completed.
func completedNote(c *call, done []model.Task) string {
	var b strings.Builder
	for _, t := range done {
		fmt.Fprintf(&b, "\n🎉 任务 '%s' 已完成，使用 %s %s 领取奖励！", t.Name, c.r.cmd("领取奖励"), t.Name)
	}
	return b.String()
}
