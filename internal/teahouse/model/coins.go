package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coins counts hundredths of a coin.
type Coins int64

func WholeCoins(n int64) Coins { return Coins(n * 100) }

// CoinsFromFloat rounds v to the nearest hundredth.
func CoinsFromFloat(v float64) Coins { return Coins(math.Round(v * 100)) }

func ParseCoins(s string) (Coins, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return CoinsFromFloat(v), nil
}

func (c Coins) Float() float64 { return float64(c) / 100 }

func (c Coins) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes coins as a decimal number, 50.00 rather than 5000.
func (c Coins) MarshalJSON() ([]byte, error) { return []byte(c.String()), nil }

func (c *Coins) UnmarshalJSON(b []byte) error {
	v, err := ParseCoins(strings.Trim(string(b), `"`))
	if err != nil {
		return fmt.Errorf("coins: %w", err)
	}
	*c = v
	return nil
}
