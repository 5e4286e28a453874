package tasks

import (
	"strings"

	"teahouse.bot/internal/catalogs"
	"teahouse.bot/internal/teahouse/model"
)

type Rule struct {
	Name  string
	Match func(text string, t model.Task) bool
}

// Rules are the ways a candidate can match. A candidate matches when any
// rule does; candidates are tried in list order.
var Rules = []Rule{
	{Name: "name", Match: func(text string, t model.Task) bool { return t.Name == text }},
	{Name: "description", Match: func(text string, t model.Task) bool { return t.Description == text }},
	{Name: "challenge_suffix", Match: func(text string, t model.Task) bool {
		return isChallengeName(t.Name) && strings.TrimPrefix(t.Name, catalogs.ChallengeNamePrefix) == text
	}},
	{Name: "challenge_tail", Match: func(text string, t model.Task) bool {
		return isChallengeName(t.Name) && strings.HasSuffix(t.Name, text)
	}},
}

// Resolve returns the first candidate matched by any rule. Empty text never
// matches.
func Resolve(text string, candidates []model.Task) (model.Task, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, false
	}
	for _, t := range candidates {
		for _, r := range Rules {
			if r.Match(text, t) {
				return t, true
			}
		}
	}
	return model.Task{}, false
}

func isChallengeName(name string) bool {
	return strings.HasPrefix(name, catalogs.ChallengeNamePrefix)
}
