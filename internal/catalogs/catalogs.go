package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"teahouse.bot/internal/teahouse/model"
)

type Catalogs struct {
	Tasks   TaskCatalog
	Ratings RatingCatalog
}

// Trigger names the gameplay action that advances a task.
type Trigger string

const (
	TriggerDrink   Trigger = "drink"
	TriggerBuy     Trigger = "buy"
	TriggerCollect Trigger = "collect"
	TriggerSignIn  Trigger = "sign_in"
)

func (t Trigger) Valid() bool {
	switch t {
	case TriggerDrink, TriggerBuy, TriggerCollect, TriggerSignIn:
		return true
	default:
		return false
	}
}

type TaskCatalog struct {
	Recurring  []TaskDef      `yaml:"recurring" json:"recurring"`
	Challenges []ChallengeDef `yaml:"challenges" json:"challenges"`
	Digest     string         `yaml:"-" json:"-"`
}

type TaskDef struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	Target      int            `yaml:"target" json:"target"`
	Reward      float64        `yaml:"reward" json:"reward"`
	Category    model.Category `yaml:"category" json:"category"`
	Trigger     Trigger        `yaml:"trigger" json:"trigger"`
	TeaType     string         `yaml:"tea_type,omitempty" json:"tea_type,omitempty"`
}

func (d TaskDef) NewTask() model.NewTask {
	return model.NewTask{
		TaskID:      d.ID,
		Name:        d.Name,
		Description: d.Description,
		Target:      d.Target,
		Reward:      model.CoinsFromFloat(d.Reward),
		Category:    d.Category,
	}
}

// ChallengeDef is one entry of the rotating daily challenge pool. The task id
// and display name are derived from the day it is drawn for.
type ChallengeDef struct {
	Suffix      string  `yaml:"suffix" json:"suffix"`
	Description string  `yaml:"description" json:"description"`
	Target      int     `yaml:"target" json:"target"`
	Reward      float64 `yaml:"reward" json:"reward"`
	Trigger     Trigger `yaml:"trigger" json:"trigger"`
	TeaType     string  `yaml:"tea_type,omitempty" json:"tea_type,omitempty"`
}

type RatingCatalog struct {
	Tiers          []RatingTier `yaml:"ratings" json:"ratings"`
	NextRatingText string       `yaml:"next_rating_text" json:"next_rating_text"`
	MaxRatingText  string       `yaml:"max_rating_text" json:"max_rating_text"`
	Digest         string       `yaml:"-" json:"-"`
}

type RatingTier struct {
	Name         string `yaml:"name" json:"name"`
	MinVarieties int    `yaml:"min_varieties" json:"min_varieties"`
	MaxVarieties int    `yaml:"max_varieties" json:"max_varieties"`
	Description  string `yaml:"description" json:"description"`
}

// Load reads tasks.yaml and ratings.yaml from configDir. A missing file falls
// back to the built-in catalog for that part.
func Load(configDir string) (*Catalogs, error) {
	c := Default()
	if err := loadYAML(filepath.Join(configDir, "tasks.yaml"), &c.Tasks); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(configDir, "ratings.yaml"), &c.Ratings); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.digest()
	return c, nil
}

func loadYAML(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

func (c *Catalogs) Validate() error {
	seen := map[string]bool{}
	for _, d := range c.Tasks.Recurring {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("tasks.yaml: recurring task with empty id")
		}
		if seen[d.ID] {
			return fmt.Errorf("tasks.yaml: duplicate task id %q", d.ID)
		}
		seen[d.ID] = true
		if strings.HasPrefix(d.ID, RotatingIDPrefix) {
			return fmt.Errorf("tasks.yaml: %s: recurring ids must not use the %q prefix", d.ID, RotatingIDPrefix)
		}
		if d.Target <= 0 {
			return fmt.Errorf("tasks.yaml: %s: target must be > 0", d.ID)
		}
		if d.Reward < 0 {
			return fmt.Errorf("tasks.yaml: %s: negative reward", d.ID)
		}
		if !d.Category.Valid() {
			return fmt.Errorf("tasks.yaml: %s: bad category %q", d.ID, d.Category)
		}
		if !d.Trigger.Valid() {
			return fmt.Errorf("tasks.yaml: %s: bad trigger %q", d.ID, d.Trigger)
		}
	}
	for i, ch := range c.Tasks.Challenges {
		if strings.TrimSpace(ch.Suffix) == "" {
			return fmt.Errorf("tasks.yaml: challenge %d: empty suffix", i)
		}
		if ch.Target <= 0 {
			return fmt.Errorf("tasks.yaml: challenge %q: target must be > 0", ch.Suffix)
		}
		if ch.Reward < 0 {
			return fmt.Errorf("tasks.yaml: challenge %q: negative reward", ch.Suffix)
		}
		if !ch.Trigger.Valid() {
			return fmt.Errorf("tasks.yaml: challenge %q: bad trigger %q", ch.Suffix, ch.Trigger)
		}
	}
	if len(c.Ratings.Tiers) == 0 {
		return fmt.Errorf("ratings.yaml: no tiers")
	}
	for i, t := range c.Ratings.Tiers {
		if t.Name == "" {
			return fmt.Errorf("ratings.yaml: tier %d: empty name", i)
		}
		if t.MaxVarieties < t.MinVarieties {
			return fmt.Errorf("ratings.yaml: %s: max below min", t.Name)
		}
		if i > 0 && t.MinVarieties <= c.Ratings.Tiers[i-1].MaxVarieties {
			return fmt.Errorf("ratings.yaml: %s: overlaps previous tier", t.Name)
		}
	}
	return nil
}

func (c *Catalogs) digest() {
	b, _ := json.Marshal(c.Tasks)
	c.Tasks.Digest = sha256Hex(b)
	b, _ = json.Marshal(c.Ratings)
	c.Ratings.Digest = sha256Hex(b)
}

// Digest covers both catalogs; the gateway reports it in WELCOME.
func (c *Catalogs) Digest() string {
	return sha256Hex([]byte(c.Tasks.Digest + c.Ratings.Digest))
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
