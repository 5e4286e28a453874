package catalogs

import (
	"hash/fnv"
	"strings"
	"time"

	"teahouse.bot/internal/teahouse/model"
)

const (
	RotatingIDPrefix    = "daily_random_"
	ChallengeNamePrefix = "今日挑战: "
)

// RotatingID is the task id of the challenge for day's calendar date, in
// day's location.
func RotatingID(day time.Time) string {
	return RotatingIDPrefix + day.Format("20060102")
}

func IsRotatingID(taskID string) bool {
	return strings.HasPrefix(taskID, RotatingIDPrefix)
}

// ChallengeFor draws the pool entry for day. The draw depends only on the
// date, so every user gets the same challenge on the same day.
func (tc TaskCatalog) ChallengeFor(day time.Time) (ChallengeDef, bool) {
	if len(tc.Challenges) == 0 {
		return ChallengeDef{}, false
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(day.Format("20060102")))
	return tc.Challenges[int(h.Sum32()%uint32(len(tc.Challenges)))], true
}

// RotatingTask builds the row for ch drawn on day.
func RotatingTask(day time.Time, ch ChallengeDef) model.NewTask {
	return model.NewTask{
		TaskID:      RotatingID(day),
		Name:        ChallengeNamePrefix + ch.Suffix,
		Description: ch.Description,
		Target:      ch.Target,
		Reward:      model.CoinsFromFloat(ch.Reward),
		Category:    model.CategoryDaily,
	}
}

// TierFor returns the tier covering varieties and the tier after it. ok is
// false when varieties is below the first tier.
func (rc RatingCatalog) TierFor(varieties int) (cur RatingTier, next *RatingTier, ok bool) {
	for i, t := range rc.Tiers {
		if varieties >= t.MinVarieties && varieties <= t.MaxVarieties {
			if i+1 < len(rc.Tiers) {
				n := rc.Tiers[i+1]
				next = &n
			}
			return t, next, true
		}
	}
	if len(rc.Tiers) > 0 && varieties > rc.Tiers[len(rc.Tiers)-1].MaxVarieties {
		return rc.Tiers[len(rc.Tiers)-1], nil, true
	}
	return RatingTier{}, nil, false
}
