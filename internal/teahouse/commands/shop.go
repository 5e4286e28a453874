package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"teahouse.bot/internal/teahouse/economy"
)

func showShop(ctx context.Context, c *call) (string, error) {
	l, err := c.r.svc.Shop(ctx, c.sess)
	if err != nil {
		return "", err
	}
	if l.Empty() {
		return "商店暂无商品。", nil
	}
	var b strings.Builder
	b.WriteString("----- 茶馆商店 -----\n")
	fmt.Fprintf(&b, "输入 %s <商品ID> <数量> 来购买茶叶\n\n", c.r.cmd("购买"))
	for i, t := range l.Teas {
		fmt.Fprintf(&b, "ID: %d\n茶叶名称: %s\n类型: %s\n价格: %s 金币\n库存: %d\n描述: %s\n----------\n",
			i+1, t.Name, t.TeaType, t.Price, t.Stock, t.Description)
	}
	return b.String(), nil
}

// briefListing is the one-line-per-tea listing shown next to errors.
func briefListing(l economy.Listing) string {
	var b strings.Builder
	for i, t := range l.Teas {
		fmt.Fprintf(&b, "ID: %d | %s | 价格: %s金币 | 库存: %d\n", i+1, t.Name, t.Price, t.Stock)
	}
	return b.String()
}

func notFound(l economy.Listing) string {
	if l.Empty() {
		return "未找到该商品，且商店中暂无其他商品"
	}
	var b strings.Builder
	b.WriteString("未找到该商品，请检查商品ID是否正确\n当前商店中的商品列表：\n")
	for i, t := range l.Teas {
		fmt.Fprintf(&b, "ID: %d | %s | 库存: %d\n", i+1, t.Name, t.Stock)
	}
	return b.String()
}

func buy(ctx context.Context, c *call) (string, error) {
	l, err := c.r.svc.Shop(ctx, c.sess)
	if err != nil {
		return "", err
	}
	if c.arg == "" {
		if l.Empty() {
			return "商店暂无商品，无法购买。", nil
		}
		var b strings.Builder
		b.WriteString("----- 可购买的茶叶商品 -----\n")
		fmt.Fprintf(&b, "使用方法: %s <商品ID> <数量>\n", c.r.cmd("购买"))
		fmt.Fprintf(&b, "例如: %s 1 2 (购买ID为1的商品2份)\n\n", c.r.cmd("购买"))
		b.WriteString(briefListing(l))
		fmt.Fprintf(&b, "\n请使用 %s <商品ID> <数量> 来购买您喜欢的茶叶", c.r.cmd("购买"))
		return b.String(), nil
	}

	nums, err := ints(c.arg, 2)
	if errors.Is(err, errTooFewArgs) {
		return usage(c, "购买", "<商品ID> <数量>"), nil
	}
	if err != nil {
		return "参数错误，商品ID和数量必须是数字", nil
	}
	if nums[1] <= 0 {
		return "购买数量必须大于0", nil
	}
	tea, ok := l.Lookup(nums[0])
	if !ok {
		return notFound(l), nil
	}

	p, err := c.r.svc.Buy(ctx, c.sess, tea, nums[1])
	var (
		se *economy.StockError
		fe *economy.FundsError
	)
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("库存不足，当前库存仅有 %d 份", se.Stock), nil
	case errors.As(err, &fe):
		return fmt.Sprintf("余额不足，需要 %s 金币，您当前有 %s 金币", fe.Need, fe.Have), nil
	case errors.Is(err, economy.ErrUnknownTea):
		return notFound(l), nil
	case errors.Is(err, economy.ErrBadQuantity):
		return "购买数量必须大于0", nil
	case err != nil:
		return "", err
	}
	return fmt.Sprintf("购买成功！\n购买了 %d 份 %s\n花费 %s 金币\n茶叶已放入您的背包", p.Quantity, p.Tea.Name, p.Total) +
		completedNote(c, p.Completed), nil
}

func addTea(ctx context.Context, c *call) (string, error) {
	tea, err := parseListing(c.arg)
	if errors.Is(err, errTooFewArgs) {
		return usage(c, "上架", "<茶叶名称> <库存> <类型> <价格> <描述>"), nil
	}
	if err != nil {
		return "参数错误，库存必须是整数，价格必须是数字", nil
	}
	tea, err = c.r.svc.AddTea(ctx, c.sess, tea)
	if errors.Is(err, economy.ErrInvalidListing) {
		return "参数错误，库存必须是整数，价格必须是数字", nil
	}
	if err != nil {
		return "", err
	}

	displayID := 0
	if l, err := c.r.svc.Shop(ctx, c.sess); err == nil {
		for i, t := range l.Teas {
			if t.ID == tea.ID {
				displayID = i + 1
			}
		}
	}
	return fmt.Sprintf("上架成功！\n茶叶名称: %s\n库存: %d\n类型: %s\n价格: %s 金币\n描述: %s\n商品ID: %d",
		tea.Name, tea.Stock, tea.TeaType, tea.Price, tea.Description, displayID), nil
}

func removeTea(ctx context.Context, c *call) (string, error) {
	nums, err := ints(c.arg, 1)
	if errors.Is(err, errTooFewArgs) {
		return usage(c, "下架", "<商品ID>"), nil
	}
	if err != nil {
		return "参数错误，商品ID必须是数字", nil
	}
	l, err := c.r.svc.Shop(ctx, c.sess)
	if err != nil {
		return "", err
	}
	tea, ok := l.Lookup(nums[0])
	if !ok {
		return notFound(l), nil
	}
	if err := c.r.svc.RemoveTea(ctx, c.sess, tea); err != nil {
		if errors.Is(err, economy.ErrUnknownTea) {
			return notFound(l), nil
		}
		return "", err
	}
	return "下架成功！\n商品: " + tea.Name, nil
}

func restock(ctx context.Context, c *call) (string, error) {
	nums, err := ints(c.arg, 2)
	if errors.Is(err, errTooFewArgs) {
		return usage(c, "补货", "<商品ID> <补货数量>"), nil
	}
	if err != nil {
		return "参数错误，商品ID和补货数量必须是数字", nil
	}
	if nums[1] <= 0 {
		return "补货数量必须大于0", nil
	}
	l, err := c.r.svc.Shop(ctx, c.sess)
	if err != nil {
		return "", err
	}
	tea, ok := l.Lookup(nums[0])
	if !ok {
		return notFound(l), nil
	}
	out, err := c.r.svc.Restock(ctx, c.sess, tea, nums[1])
	if errors.Is(err, economy.ErrUnknownTea) {
		return notFound(l), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("补货成功！\n商品: %s\n补货数量: %d\n补货后库存: %d", out.Name, nums[1], out.Stock), nil
}
