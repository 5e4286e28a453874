package model

import "time"

type User struct {
	UserID       string `db:"user_id" json:"user_id"`
	SignInCount  int    `db:"sign_in_count" json:"sign_in_count"`
	LastSignIn   string `db:"last_sign_in" json:"last_sign_in,omitempty"` // YYYY-MM-DD
	LastReward   Coins  `db:"last_reward" json:"last_reward"`
	TotalRewards Coins  `db:"total_rewards" json:"total_rewards"`
}

// Item is a backpack row.
type Item struct {
	UserID    string `db:"user_id" json:"user_id"`
	Name      string `db:"name" json:"name"`
	Count     int    `db:"count" json:"count"`
	TeaType   string `db:"tea_type" json:"tea_type"`
	UnitPrice Coins  `db:"unit_price" json:"unit_price"`
}

func (it Item) Value() Coins { return it.UnitPrice * Coins(it.Count) }

// Tea is a shop row.
type Tea struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Stock       int    `db:"stock" json:"stock"`
	TeaType     string `db:"tea_type" json:"tea_type"`
	Price       Coins  `db:"price" json:"price"`
	Description string `db:"description" json:"description"`
}

type LedgerKind string

const (
	LedgerClaim    LedgerKind = "claim"
	LedgerPurchase LedgerKind = "purchase"
	LedgerSignIn   LedgerKind = "sign_in"
	LedgerDrink    LedgerKind = "drink"
	LedgerShop     LedgerKind = "shop"
	LedgerShowcase LedgerKind = "showcase"
)

type LedgerEntry struct {
	ID     string     `json:"id"`
	Time   time.Time  `json:"time"`
	UserID string     `json:"user_id"`
	Kind   LedgerKind `json:"kind"`
	Amount Coins      `json:"amount"`
	Ref    string     `json:"ref,omitempty"`
	Count  int        `json:"count,omitempty"`
}
