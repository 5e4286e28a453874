package commands

import (
	"context"
	"strings"
)

const (
	groupSignIn = "📝 签到相关"
	groupShop   = "🛍 商店相关"
	groupSelf   = "💰 个人相关"
	groupAdmin  = "👑 管理员相关"
	groupOther  = "📖 其他"
)

var helpGroups = []string{groupSignIn, groupShop, groupSelf, groupAdmin, groupOther}

func (r *Router) table() []command {
	return []command{
		{name: "签到", help: "每日签到获取金币", group: groupSignIn, feature: "签到", fail: "签到", run: signIn},

		{name: "商店", help: "查看茶叶商品", group: groupShop, feature: "商店", fail: "查看商店", run: showShop},
		{name: "购买", usage: "<商品ID> <数量>", help: "购买茶叶", group: groupShop, feature: "购买", fail: "购买", run: buy},

		{name: "背包", help: "查看个人背包", group: groupSelf, feature: "背包", fail: "查看背包", run: showBackpack},
		{name: "余额", help: "查看个人金币余额", group: groupSelf, feature: "余额查询", fail: "查询余额", run: showBalance},
		{name: "喝茶", usage: "<茶叶名称>", help: "享用背包中的茶叶", group: groupSelf, feature: "喝茶", fail: "喝茶", run: drink},
		{name: "茶艺展示", help: "展示茶艺技能获得奖励", group: groupSelf, feature: "茶艺展示", fail: "茶艺展示", run: showcase},
		{name: "茶叶评级", help: "查看茶叶收藏评级", group: groupSelf, feature: "茶叶评级", fail: "茶叶评级查询", run: rate},
		{name: "任务列表", help: "查看茶馆任务", group: groupSelf, feature: "任务", fail: "任务查询", run: listTasks},
		{name: "领取奖励", usage: "<任务名称>", help: "领取任务奖励", group: groupSelf, feature: "奖励领取", fail: "领取奖励", run: claim},

		{name: "上架", usage: "<名称> <库存> <类型> <价格> <描述>", help: "上架新茶叶", group: groupAdmin, feature: "上架", fail: "上架",
			admin: true, deny: "权限不足，只有管理员才能上架商品", run: addTea},
		{name: "下架", usage: "<商品ID>", help: "下架茶叶商品", group: groupAdmin, feature: "下架", fail: "下架",
			admin: true, deny: "权限不足，只有管理员才能下架商品", run: removeTea},
		{name: "补货", usage: "<商品ID> <数量>", help: "为茶叶商品补货", group: groupAdmin, feature: "补货", fail: "补货",
			admin: true, deny: "权限不足，只有管理员才能为商品补货", run: restock},
		{name: "配置评级", help: "查看茶叶评级标准", group: groupAdmin, fail: "查看评级配置", noStore: true,
			admin: true, deny: "权限不足，只有管理员才能查看评级配置", run: showRatingTiers},

		{name: "茶馆帮助", help: "显示此帮助菜单", group: groupOther, fail: "显示帮助", noStore: true, run: help},
	}
}

// help lists the commands grouped as in helpGroups, in table order.
func help(_ context.Context, c *call) (string, error) {
	var b strings.Builder
	b.WriteString("🍵 欢迎光临小茶馆！指令菜单如下：\n\n")
	cmds := c.r.table()
	for _, g := range helpGroups {
		b.WriteString(g + "：\n")
		for _, cmd := range cmds {
			if cmd.group != g {
				continue
			}
			b.WriteString("  " + c.r.cmd(cmd.name))
			if cmd.usage != "" {
				b.WriteString(" " + cmd.usage)
			}
			b.WriteString(" - " + cmd.help + "\n")
		}
	}
	return b.String(), nil
}

func usage(c *call, name, args string) string {
	return "参数不足，请使用 " + c.r.cmd(name) + " " + args
}
