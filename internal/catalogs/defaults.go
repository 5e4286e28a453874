package catalogs

import "teahouse.bot/internal/teahouse/model"

// Default returns the built-in catalogs, digested.
func Default() *Catalogs {
	c := &Catalogs{
		Tasks: TaskCatalog{
			Recurring: []TaskDef{
				{ID: "daily_drink_tea", Name: "品茶师", Description: "品尝3种不同的茶叶", Target: 3, Reward: 50, Category: model.CategoryDaily, Trigger: TriggerDrink},
				{ID: "daily_buy_tea", Name: "采购员", Description: "购买茶叶2次", Target: 2, Reward: 30, Category: model.CategoryDaily, Trigger: TriggerBuy},
				{ID: "weekly_collect_tea", Name: "收藏家", Description: "收集5种不同的茶叶", Target: 5, Reward: 100, Category: model.CategoryWeekly, Trigger: TriggerCollect},
			},
			Challenges: []ChallengeDef{
				{Suffix: "品三种绿茶", Description: "连续品尝三种绿茶", Target: 3, Reward: 60, Trigger: TriggerDrink, TeaType: "绿茶"},
				{Suffix: "红茶时光", Description: "品尝两份红茶", Target: 2, Reward: 40, Trigger: TriggerDrink, TeaType: "红茶"},
				{Suffix: "乌龙初探", Description: "品尝一份乌龙茶", Target: 1, Reward: 20, Trigger: TriggerDrink, TeaType: "乌龙茶"},
				{Suffix: "采购达人", Description: "今日购买茶叶3次", Target: 3, Reward: 45, Trigger: TriggerBuy},
				{Suffix: "新茶入库", Description: "收集一种新的茶叶", Target: 1, Reward: 30, Trigger: TriggerCollect},
				{Suffix: "准时签到", Description: "完成今日签到", Target: 1, Reward: 15, Trigger: TriggerSignIn},
			},
		},
		Ratings: RatingCatalog{
			Tiers: []RatingTier{
				{Name: "青茶学徒", MinVarieties: 1, MaxVarieties: 3, Description: "刚刚踏入茶道之门，还需努力学习~"},
				{Name: "绿茶行者", MinVarieties: 4, MaxVarieties: 6, Description: "对绿茶颇有研究，继续加油！"},
				{Name: "乌龙使者", MinVarieties: 7, MaxVarieties: 9, Description: "精通多种乌龙茶，技艺渐进！"},
				{Name: "红茶大师", MinVarieties: 10, MaxVarieties: 12, Description: "红茶造诣颇深，令人敬佩！"},
				{Name: "普洱宗师", MinVarieties: 13, MaxVarieties: 999, Description: "茶道宗师，收藏丰富，令人仰慕！"},
			},
			NextRatingText: "下一等级",
			MaxRatingText:  "恭喜您达到最高等级！",
		},
	}
	c.digest()
	return c
}
